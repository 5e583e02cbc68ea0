package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-trend-radar/internal/adapter/cleaner"
	"ai-trend-radar/internal/adapter/standardizer"
	"ai-trend-radar/internal/adapter/trend"
	"ai-trend-radar/internal/domain"
	"ai-trend-radar/internal/port"
)

// RadarService 串起每日流水线：抓取 → 标准化 → 清洗去重 → 分类 → 入库 → 趋势 → 推送
type RadarService struct {
	sources      []port.Source
	standardizer *standardizer.Standardizer
	cleaner      *cleaner.Cleaner
	enricher     port.Enricher
	repoStore    port.Repository
	trends       *trend.Analyzer
	notifier     port.Notifier
	nowFunc      func() time.Time
}

// NewRadarService 创建雷达服务
func NewRadarService(
	sources []port.Source,
	std *standardizer.Standardizer,
	cln *cleaner.Cleaner,
	enricher port.Enricher,
	repoStore port.Repository,
	trends *trend.Analyzer,
	notifier port.Notifier,
) *RadarService {
	return &RadarService{
		sources:      sources,
		standardizer: std,
		cleaner:      cln,
		enricher:     enricher,
		repoStore:    repoStore,
		trends:       trends,
		notifier:     notifier,
		nowFunc:      time.Now,
	}
}

// RunDaily 执行一次完整的每日采集周期，date 为空时取今天
// 单个数据源失败不影响其他源；入库失败才是致命错误
func (s *RadarService) RunDaily(ctx context.Context, date string, concurrency int) error {
	if date == "" {
		date = s.nowFunc().Format("2006-01-02")
	}
	if concurrency > 0 {
		s.enricher.SetMaxGoroutines(concurrency)
	}

	fmt.Printf("🚀 [雷达模式] 开始采集 %s 的热门项目...\n", date)

	// 1. 抓取各数据源，失败的源只记日志
	var records []*domain.RawRecord
	for _, src := range s.sources {
		fmt.Printf("📥 正在抓取数据源 %s...\n", src.Name())
		fetched, err := src.Fetch(ctx)
		if err != nil {
			log.Printf("❌ 数据源 %s 抓取失败: %v", src.Name(), err)
			continue
		}
		fmt.Printf("✅ %s 返回 %d 条原始记录\n", src.Name(), len(fetched))

		// 原始数据先归档，归档失败不阻断流水线
		if err := s.repoStore.SaveRawData(ctx, src.Name(), s.nowFunc(), fetched); err != nil {
			log.Printf("⚠️ 归档 %s 原始数据失败: %v", src.Name(), err)
		}
		records = append(records, fetched...)
	}

	if len(records) == 0 {
		fmt.Println("⚠️ 所有数据源均无数据，本轮结束")
		return nil
	}

	// 2. 标准化：畸形记录丢弃，批次继续
	projects, dropped := s.standardizer.StandardizeBatch(records)
	fmt.Printf("🔧 标准化完成: %d 条有效，%d 条丢弃\n", len(projects), dropped)

	// 3. 清洗去重
	projects = s.cleaner.CleanAndDeduplicate(projects)
	fmt.Printf("🧹 清洗去重后剩余 %d 个项目\n", len(projects))

	// 4. 分类：整批跑完才进入存储，确保落库的数据都带分类结果
	projects = s.enricher.BatchEnrich(ctx, projects)

	// 5. 入库（按 URL 合并进当天数据集）
	fmt.Println("💾 开始存储...")
	if err := s.repoStore.SaveDailyData(ctx, projects, date); err != nil {
		return err
	}
	fmt.Printf("✅ 已保存 %d 个项目到 %s\n", len(projects), date)

	// 6. 趋势分析 + 推送，失败只记日志
	snapshot := s.trends.Analyze(projects)
	fmt.Printf("📈 趋势分析: %d 个 AI 项目，热门关键词 %v\n", snapshot.AIProjects, snapshot.Hot)

	stats, err := s.repoStore.GetDailyStats(ctx, date)
	if err != nil {
		log.Printf("⚠️ 统计 %s 失败: %v", date, err)
	}

	if s.notifier == nil {
		log.Println("⚠️ 未配置通知通道，跳过推送")
	} else if err := s.notifier.NotifyDigest(ctx, date, stats, snapshot); err != nil {
		log.Printf("❌ 推送日报失败: %v", err)
	}

	fmt.Println("🎉 本轮采集完成")
	return nil
}

// Stats 返回某一天的聚合统计和趋势快照
func (s *RadarService) Stats(ctx context.Context, date string) (*domain.DailyStats, *domain.TrendSnapshot, error) {
	if date == "" {
		date = s.nowFunc().Format("2006-01-02")
	}

	stats, err := s.repoStore.GetDailyStats(ctx, date)
	if err != nil {
		return nil, nil, err
	}

	projects, err := s.repoStore.GetProjectsByDate(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	return stats, s.trends.Analyze(projects), nil
}

// TrendsOverDays 对最近 days 天的项目并集做趋势分析
func (s *RadarService) TrendsOverDays(ctx context.Context, days int) (*domain.TrendSnapshot, error) {
	projects, err := s.repoStore.GetRecentProjects(ctx, days)
	if err != nil {
		return nil, err
	}
	return s.trends.Analyze(projects), nil
}

// Search 按关键词查询已入库的项目
func (s *RadarService) Search(ctx context.Context, query string) ([]*domain.Project, error) {
	return s.repoStore.Search(ctx, query)
}

// Cleanup 清理保留窗口之外的数据
func (s *RadarService) Cleanup(ctx context.Context) error {
	return s.repoStore.CleanupOldData(ctx)
}
