package cleaner

import (
	"log"
	"sort"
	"strings"

	"ai-trend-radar/internal/domain"
)

// Cleaner 负责校验和去重：先丢掉不满足不变量的记录，
// 再做两级合并（URL 精确合并 + 字段相似度模糊合并）
type Cleaner struct {
	similarityThreshold float64
	compareFields       []string
}

// New 创建清洗器，threshold 为模糊合并的相似度阈值（闭区间）
func New(similarityThreshold float64, compareFields []string) *Cleaner {
	if len(compareFields) == 0 {
		compareFields = []string{"name", "description", "url"}
	}
	return &Cleaner{
		similarityThreshold: similarityThreshold,
		compareFields:       compareFields,
	}
}

// CleanAndDeduplicate 清洗并去重一批项目
// 输入不会被原地修改；输出顺序由 (归一化URL, 名称) 的稳定排序决定，
// 因此任意输入排列都会得到同一个结果集
func (c *Cleaner) CleanAndDeduplicate(projects []*domain.Project) []*domain.Project {
	// 1. 校验：单条丢弃只记日志，不影响整个批次
	valid := make([]*domain.Project, 0, len(projects))
	for _, p := range projects {
		if reason := validate(p); reason != "" {
			log.Printf("⚠️ [Cleaner] 丢弃无效记录 %q: %s", safeName(p), reason)
			continue
		}
		valid = append(valid, p.Clone())
	}

	// 2. 先按稳定键排序，保证结果与输入顺序无关
	sort.SliceStable(valid, func(i, j int) bool {
		ui, uj := valid[i].NormalizedURL(), valid[j].NormalizedURL()
		if ui != uj {
			return ui < uj
		}
		return valid[i].Name < valid[j].Name
	})

	// 3. 第一级：归一化 URL 完全相同的直接合并，无需打分
	byURL := make(map[string]int)
	var exact []*domain.Project
	for _, p := range valid {
		key := p.NormalizedURL()
		if idx, ok := byURL[key]; ok {
			exact[idx] = merge(exact[idx], p)
			continue
		}
		byURL[key] = len(exact)
		exact = append(exact, p)
	}

	// 4. 第二级：URL 不同但内容高度相似的模糊合并
	var unique []*domain.Project
	for _, p := range exact {
		merged := false
		for i, existing := range unique {
			if c.similarity(existing, p) >= c.similarityThreshold {
				unique[i] = merge(existing, p)
				merged = true
				break
			}
		}
		if !merged {
			unique = append(unique, p)
		}
	}

	// 合并可能改变幸存者，最后再排一次保证输出确定
	sort.SliceStable(unique, func(i, j int) bool {
		ui, uj := unique[i].NormalizedURL(), unique[j].NormalizedURL()
		if ui != uj {
			return ui < uj
		}
		return unique[i].Name < unique[j].Name
	})

	return unique
}

// validate 返回空串表示记录满足不变量，否则返回丢弃原因
func validate(p *domain.Project) string {
	if p == nil {
		return "记录为空"
	}
	if strings.TrimSpace(p.Name) == "" {
		return "名称为空"
	}
	if strings.TrimSpace(p.URL) == "" {
		return "URL为空"
	}
	if strings.TrimSpace(p.Source) == "" {
		return "数据源为空"
	}
	if len(p.Name) > 200 {
		return "名称过长"
	}
	return ""
}

func safeName(p *domain.Project) string {
	if p == nil {
		return "<nil>"
	}
	return p.Name
}

// similarity 对配置的比较字段算相似度均值，两边都有值的字段才参与
func (c *Cleaner) similarity(a, b *domain.Project) float64 {
	var total float64
	var count int

	for _, field := range c.compareFields {
		va := strings.ToLower(fieldValue(a, field))
		vb := strings.ToLower(fieldValue(b, field))
		if va == "" || vb == "" {
			continue
		}
		total += Ratio(va, vb)
		count++
	}

	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func fieldValue(p *domain.Project, field string) string {
	switch field {
	case "name":
		return p.Name
	case "description":
		return p.Description
	case "url":
		return p.URL
	case "author":
		return p.Author
	}
	return ""
}

// merge 合并两条重复记录
// 幸存者规则：星标高者胜，平局时抓取时间晚者胜；
// 幸存者缺失的可选字段由被并方回填，标签取并集，数字指标取最大值
func merge(a, b *domain.Project) *domain.Project {
	survivor, loser := a, b
	if b.Stars > a.Stars || (b.Stars == a.Stars && b.CrawledAt.After(a.CrawledAt)) {
		survivor, loser = b, a
	}

	out := survivor.Clone()

	if out.Description == "" {
		out.Description = loser.Description
	}
	if out.Author == "" {
		out.Author = loser.Author
	}
	if out.Language == "" {
		out.Language = loser.Language
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = loser.CreatedAt
	}
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = loser.UpdatedAt
	}

	if loser.Forks > out.Forks {
		out.Forks = loser.Forks
	}
	if loser.Votes > out.Votes {
		out.Votes = loser.Votes
	}

	// 标签并集，保持幸存者在前的顺序
	seen := make(map[string]struct{}, len(out.Tags))
	for _, tag := range out.Tags {
		seen[tag] = struct{}{}
	}
	for _, tag := range loser.Tags {
		if _, dup := seen[tag]; !dup {
			seen[tag] = struct{}{}
			out.Tags = append(out.Tags, tag)
		}
	}

	// 原始数据按键补齐，幸存者优先
	if loser.RawData != nil {
		if out.RawData == nil {
			out.RawData = make(map[string]any, len(loser.RawData))
		}
		for k, v := range loser.RawData {
			if _, exists := out.RawData[k]; !exists {
				out.RawData[k] = v
			}
		}
	}

	// AI 分析结果不能丢：幸存者没有时继承被并方的
	if out.AIClassification == nil {
		out.AIClassification = loser.AIClassification
	}
	if out.Keywords == nil {
		out.Keywords = loser.Keywords
	}
	if out.Summary == nil {
		out.Summary = loser.Summary
	}

	return out
}
