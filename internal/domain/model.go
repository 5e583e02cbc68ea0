package domain

import (
	"strings"
	"time"
)

// Project 代表一个经过标准化的候选项目（整条流水线的统一数据单元）
type Project struct {
	// 数据库主键：同一天内按归一化 URL 唯一
	ID uint `json:"-" gorm:"primaryKey;autoIncrement"`

	// Date 是该记录所属的日历日期 (YYYY-MM-DD)，同一 URL 每天一条
	Date string `json:"date" gorm:"uniqueIndex:idx_date_url;size:10"`

	// 基础信息 (来自各数据源)
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url" gorm:"uniqueIndex:idx_date_url"`
	Author      string `json:"author"`
	Source      string `json:"source" gorm:"index"` // "github" / "producthunt" 等

	// 热度指标：每个数据源只填自己有的字段，默认 0
	Stars int `json:"stars"`
	Forks int `json:"forks"`
	Votes int `json:"votes"`

	Language string   `json:"language"`
	Tags     []string `json:"tags" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// CrawledAt 由标准化器在处理时刻写入，之后不再变更
	CrawledAt time.Time `json:"crawled_at" gorm:"index"`

	// --- AI 分析维度（分类器运行后才有值）---

	AIClassification *AIClassification `json:"ai_classification,omitempty" gorm:"serializer:json"`
	Keywords         *KeywordResult    `json:"keywords,omitempty" gorm:"serializer:json"`
	Summary          *SummaryResult    `json:"summary,omitempty" gorm:"serializer:json"`

	// RawData 保留原始抓取数据，仅用于审计，下游不解释
	RawData map[string]any `json:"raw_data,omitempty" gorm:"serializer:json"`
}

// AIClassification AI 相关性判定结果
type AIClassification struct {
	IsAIRelated     bool     `json:"is_ai_related"`
	ConfidenceScore float64  `json:"confidence_score"` // 分类完成后必定有值 [0,1]
	Reasoning       string   `json:"reasoning"`
	AICategories    []string `json:"ai_categories"`
	TechStack       []string `json:"tech_stack"`
	Method          string   `json:"method"` // "ai" 或 "rules"
}

// KeywordResult 关键词提取结果，Keywords 按显著性排序
type KeywordResult struct {
	Keywords         []string            `json:"keywords"`
	Categories       map[string][]string `json:"categories"`
	ExtractionMethod string              `json:"extraction_method"` // "ai" / "rules" / "merged"
}

// SummaryResult 项目总结
type SummaryResult struct {
	Summary          string   `json:"summary"`
	Highlights       []string `json:"highlights"`
	UseCases         []string `json:"use_cases"`
	GenerationMethod string   `json:"generation_method"` // "ai" 或 "basic"
}

// RawRecord 数据源适配器交付的原始记录，按 (source, 抓取时间) 归档
type RawRecord struct {
	ID        uint           `json:"-" gorm:"primaryKey;autoIncrement"`
	Source    string         `json:"source" gorm:"index:idx_source_ts"`
	FetchedAt time.Time      `json:"fetched_at" gorm:"index:idx_source_ts"`
	Payload   map[string]any `json:"payload" gorm:"serializer:json"`
}

// TrendSnapshot 对一批已分类项目的派生统计视图，随时可重算，不作为主数据
type TrendSnapshot struct {
	TotalProjects int            `json:"total_projects"`
	AIProjects    int            `json:"ai_projects"`
	Languages     map[string]int `json:"languages"`    // 语言分布，未知语言归入 "unknown"
	KeywordFreq   map[string]int `json:"keyword_freq"` // 全量关键词频次
	Hot           []string       `json:"hot"`          // 按频次排序的 Top-K
	Emerging      []string       `json:"emerging"`     // Hot 中近期才出现的子集
}

// DailyStats 某一天的聚合统计
type DailyStats struct {
	Date            string  `json:"date"`
	TotalProjects   int     `json:"total_projects"`
	AIProjectsCount int     `json:"ai_projects_count"`
	AverageStars    float64 `json:"average_stars"`
	TopLanguage     string  `json:"top_language"`
	TopProjectName  string  `json:"top_project_name"`
	TopProjectURL   string  `json:"top_project_url"`
	TopProjectStars int     `json:"top_project_stars"`
}

// IsAIRelated 判断项目是否达到 AI 相关阈值（阈值判定为闭区间：等于即算）
func (p *Project) IsAIRelated(threshold float64) bool {
	if p.AIClassification == nil {
		return false
	}
	return p.AIClassification.IsAIRelated && p.AIClassification.ConfidenceScore >= threshold
}

// NormalizedURL 返回去重用的归一化 URL
func (p *Project) NormalizedURL() string {
	return NormalizeURL(p.URL)
}

// NormalizeURL 归一化 URL：小写并去掉末尾斜杠，作为项目的自然主键
func NormalizeURL(raw string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(raw)), "/")
}

// Clone 返回项目的深拷贝，清洗器在合并时不改动调用方持有的原对象
func (p *Project) Clone() *Project {
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	if p.AIClassification != nil {
		ac := *p.AIClassification
		ac.AICategories = append([]string(nil), p.AIClassification.AICategories...)
		ac.TechStack = append([]string(nil), p.AIClassification.TechStack...)
		cp.AIClassification = &ac
	}
	if p.Keywords != nil {
		kw := *p.Keywords
		kw.Keywords = append([]string(nil), p.Keywords.Keywords...)
		if p.Keywords.Categories != nil {
			kw.Categories = make(map[string][]string, len(p.Keywords.Categories))
			for k, v := range p.Keywords.Categories {
				kw.Categories[k] = append([]string(nil), v...)
			}
		}
		cp.Keywords = &kw
	}
	if p.Summary != nil {
		sm := *p.Summary
		sm.Highlights = append([]string(nil), p.Summary.Highlights...)
		sm.UseCases = append([]string(nil), p.Summary.UseCases...)
		cp.Summary = &sm
	}
	if p.RawData != nil {
		cp.RawData = make(map[string]any, len(p.RawData))
		for k, v := range p.RawData {
			cp.RawData[k] = v
		}
	}
	return &cp
}
