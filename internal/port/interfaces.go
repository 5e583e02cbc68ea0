package port

import (
	"context"
	"time"

	"ai-trend-radar/internal/domain"
)

// Source (数据源): 负责抓取一个站点的热门项目列表
// 它只交付原始 key/value 记录，HTTP/解析/分页/限速都是它自己的事
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]*domain.RawRecord, error)
}

// Backend (模型后端): 负责调用 LLM 做分类/关键词/总结
// 任意失败（超时、配额、格式错乱）统一当作 BackendFailure，由调用方降级
type Backend interface {
	Classify(ctx context.Context, project *domain.Project) (*domain.AIClassification, error)
	ExtractKeywords(ctx context.Context, project *domain.Project) (*domain.KeywordResult, error)
	Summarize(ctx context.Context, project *domain.Project) (*domain.SummaryResult, error)
}

// Enricher (分类器): 两级策略（模型优先、规则兜底），批量时保持输入顺序
type Enricher interface {
	Enrich(ctx context.Context, project *domain.Project) *domain.Project
	BatchEnrich(ctx context.Context, projects []*domain.Project) []*domain.Project
	SetMaxGoroutines(max int)
}

// Repository (仓库管理员): 按日期存储和查询项目集
type Repository interface {
	// SaveDailyData 把 projects 合并进 date 当天的数据集（按 URL 逐项合并，不覆盖已有 AI 分析）
	SaveDailyData(ctx context.Context, projects []*domain.Project, date string) error

	// SaveRawData 归档一个数据源的原始抓取载荷，供审计回溯
	SaveRawData(ctx context.Context, source string, fetchedAt time.Time, records []*domain.RawRecord) error

	GetProjectsByDate(ctx context.Context, date string) ([]*domain.Project, error)

	// GetRecentProjects 取最近 days 个日历日的并集，按同样的去重规则消重
	GetRecentProjects(ctx context.Context, days int) ([]*domain.Project, error)

	GetDailyStats(ctx context.Context, date string) (*domain.DailyStats, error)

	// Search 按关键词模糊查询（名称/描述/语言）
	Search(ctx context.Context, query string) ([]*domain.Project, error)

	// CleanupOldData 按保留窗口清理过期日期的数据集
	CleanupOldData(ctx context.Context) error
}

// Notifier (信使): 每日流水线跑完后推送摘要，失败只记日志不阻断
type Notifier interface {
	NotifyDigest(ctx context.Context, date string, stats *domain.DailyStats, snapshot *domain.TrendSnapshot) error
}
