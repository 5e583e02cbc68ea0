package classifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-trend-radar/internal/adapter/rules"
	"ai-trend-radar/internal/domain"
	"ai-trend-radar/internal/port"
)

// TwoTierEnricher 实现了 port.Enricher 接口
// 第一级走模型后端，任何失败都降级到规则引擎，保证每个项目最终都有分类结果
type TwoTierEnricher struct {
	backend       port.Backend // 可以为 nil，此时全部走规则
	rules         *rules.Engine
	maxGoroutines int           // 最大并发数
	maxKeywords   int           // 合并后保留的关键词上限
	callTimeout   time.Duration // 单个项目的模型调用超时
}

// NewTwoTierEnricher 创建新的分类器实例
func NewTwoTierEnricher(backend port.Backend, engine *rules.Engine) *TwoTierEnricher {
	return &TwoTierEnricher{
		backend:       backend,
		rules:         engine,
		maxGoroutines: 3, // 默认并发数为3
		maxKeywords:   10,
		callTimeout:   30 * time.Second,
	}
}

// SetMaxGoroutines 设置最大并发数
func (e *TwoTierEnricher) SetMaxGoroutines(max int) {
	if max > 0 {
		e.maxGoroutines = max
	}
}

// SetMaxKeywords 设置合并后保留的关键词数量上限
func (e *TwoTierEnricher) SetMaxKeywords(max int) {
	if max > 0 {
		e.maxKeywords = max
	}
}

// SetCallTimeout 设置单个项目的模型调用超时
func (e *TwoTierEnricher) SetCallTimeout(d time.Duration) {
	if d > 0 {
		e.callTimeout = d
	}
}

// Enrich 对单个项目做分类、关键词提取和总结，结果直接写回 project
func (e *TwoTierEnricher) Enrich(ctx context.Context, project *domain.Project) *domain.Project {
	project.AIClassification = e.classify(ctx, project)
	project.Keywords = e.extractKeywords(ctx, project)
	project.Summary = e.summarize(ctx, project)
	return project
}

func (e *TwoTierEnricher) classify(ctx context.Context, project *domain.Project) *domain.AIClassification {
	if e.backend != nil {
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		result, err := e.backend.Classify(callCtx, project)
		cancel()
		if err == nil && result != nil {
			return result
		}
		fmt.Printf("   ⚠️ [Classifier] %s 模型分类失败，降级到规则: %v\n", project.Name, err)
	}
	return e.rules.Classify(project)
}

// extractKeywords 模型结果和规则结果合并：冲突时以模型为准，规则只做补充
func (e *TwoTierEnricher) extractKeywords(ctx context.Context, project *domain.Project) *domain.KeywordResult {
	ruleResult := e.rules.ExtractKeywords(project)

	if e.backend == nil {
		return ruleResult
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	aiResult, err := e.backend.ExtractKeywords(callCtx, project)
	cancel()
	if err != nil || aiResult == nil {
		fmt.Printf("   ⚠️ [Classifier] %s 模型关键词提取失败，降级到规则: %v\n", project.Name, err)
		return ruleResult
	}

	return mergeKeywordResults(aiResult, ruleResult, e.maxKeywords)
}

// mergeKeywordResults 模型关键词在前，规则只补充新词直到 limit 用完
func mergeKeywordResults(ai, ruled *domain.KeywordResult, limit int) *domain.KeywordResult {
	merged := &domain.KeywordResult{
		Keywords:         append([]string(nil), ai.Keywords...),
		Categories:       make(map[string][]string),
		ExtractionMethod: "merged",
	}

	seen := make(map[string]struct{}, len(ai.Keywords))
	for _, kw := range ai.Keywords {
		seen[kw] = struct{}{}
	}
	for _, kw := range ruled.Keywords {
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		merged.Keywords = append(merged.Keywords, kw)
	}
	if limit > 0 && len(merged.Keywords) > limit {
		merged.Keywords = merged.Keywords[:limit]
	}

	// 规则的归类先进，模型同名维度覆盖
	for k, v := range ruled.Categories {
		merged.Categories[k] = append([]string(nil), v...)
	}
	for k, v := range ai.Categories {
		merged.Categories[k] = append([]string(nil), v...)
	}

	return merged
}

func (e *TwoTierEnricher) summarize(ctx context.Context, project *domain.Project) *domain.SummaryResult {
	if e.backend != nil {
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		result, err := e.backend.Summarize(callCtx, project)
		cancel()
		if err == nil && result != nil {
			return result
		}
		fmt.Printf("   ⚠️ [Classifier] %s 模型总结失败，降级到基础总结: %v\n", project.Name, err)
	}
	return e.rules.Summarize(project)
}

// enrichJob 带序号的任务，保证批量结果和输入顺序一致
type enrichJob struct {
	index   int
	project *domain.Project
}

// enrichWorker 工作协程，处理单个项目的分析
func (e *TwoTierEnricher) enrichWorker(
	ctx context.Context,
	jobs <-chan enrichJob,
	results chan<- enrichJob,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for job := range jobs {
		fmt.Printf("   [Worker-%d] 正在分析 %s...\n", workerID, job.project.Name)

		enriched := e.Enrich(ctx, job.project)

		if enriched.AIClassification != nil {
			fmt.Printf("   [Worker-%d] ✅ %s 分析完成 (AI相关: %v, 置信度: %.2f)\n",
				workerID, enriched.Name,
				enriched.AIClassification.IsAIRelated,
				enriched.AIClassification.ConfidenceScore)
		}
		results <- enrichJob{index: job.index, project: enriched}
	}
}

// BatchEnrich 并发分析一批项目，返回结果与输入顺序一致
func (e *TwoTierEnricher) BatchEnrich(ctx context.Context, projects []*domain.Project) []*domain.Project {
	if len(projects) == 0 {
		return projects
	}

	fmt.Printf("🤖 开始批量分类，共 %d 个项目，最大并发数: %d\n", len(projects), e.maxGoroutines)

	jobs := make(chan enrichJob, len(projects))
	results := make(chan enrichJob, len(projects))

	workers := e.maxGoroutines
	if workers > len(projects) {
		workers = len(projects)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go e.enrichWorker(ctx, jobs, results, &wg, i+1)
	}

	for i, p := range projects {
		jobs <- enrichJob{index: i, project: p}
	}
	close(jobs)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// 所有任务完成
	case <-ctx.Done():
		fmt.Println("⏰ 批量分类因超时或取消而中断")
		return projects
	}

	close(results)

	// 按输入序号回填，保持顺序
	ordered := make([]*domain.Project, len(projects))
	for r := range results {
		ordered[r.index] = r.project
	}
	for i, p := range ordered {
		if p == nil {
			ordered[i] = projects[i]
		}
	}

	fmt.Println("✅ 批量分类完成")
	return ordered
}
