package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"ai-trend-radar/internal/common"
)

// Config 是进程内唯一的配置对象：启动时解析一次，
// 之后以值的形式注入各组件，任何组件都不读全局状态
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Dedup    DedupConfig    `mapstructure:"dedup"`
	Trend    TrendConfig    `mapstructure:"trend"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Notify   NotifyConfig   `mapstructure:"notify"`

	// RetentionDays 数据保留窗口（天），过期日期的数据集由 cleanup 清理
	RetentionDays int `mapstructure:"retention_days"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// BackendConfig 模型后端配置，provider 决定走哪家（gemini / openai / rules）
type BackendConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	Concurrency int           `mapstructure:"concurrency"` // 并发上限，独立于抓取并发
	Timeout     time.Duration `mapstructure:"timeout"`     // 单次调用超时
}

type AnalysisConfig struct {
	// RelevanceThreshold AI 相关阈值，置信度 >= 阈值才计入 AI 项目
	RelevanceThreshold float64  `mapstructure:"relevance_threshold"`
	AIKeywords         []string `mapstructure:"ai_keywords"`
	MaxKeywords        int      `mapstructure:"max_keywords"`
	MinKeywordLength   int      `mapstructure:"min_keyword_length"`
}

type DedupConfig struct {
	SimilarityThreshold float64  `mapstructure:"similarity_threshold"`
	CompareFields       []string `mapstructure:"compare_fields"`
}

type TrendConfig struct {
	TopK           int           `mapstructure:"top_k"`
	EmergingWindow time.Duration `mapstructure:"emerging_window"`
}

type SourcesConfig struct {
	GitHub         bool     `mapstructure:"github"`
	GitHubToken    string   `mapstructure:"github_token"`
	TrendingWindow string   `mapstructure:"trending_window"` // daily / weekly / monthly
	Topics         []string `mapstructure:"topics"`
}

type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// defaultAIKeywords 默认 AI 关键词表，可被配置文件整体替换
var defaultAIKeywords = []string{
	"ai", "artificial intelligence", "machine learning", "deep learning",
	"neural network", "nlp", "natural language processing", "computer vision",
	"llm", "gpt", "transformer", "chatbot", "agent", "rag", "embedding",
	"diffusion", "generative", "multimodal", "fine-tuning", "语言模型",
}

// Load 解析配置：默认值 < 配置文件 (radar.yaml) < RADAR_* 环境变量
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=trend_radar port=5432 sslmode=disable")
	v.SetDefault("backend.provider", "gemini")
	v.SetDefault("backend.model", "gemini-2.5-flash-lite")
	v.SetDefault("backend.concurrency", 3)
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("analysis.relevance_threshold", 0.7)
	v.SetDefault("analysis.ai_keywords", defaultAIKeywords)
	v.SetDefault("analysis.max_keywords", 10)
	v.SetDefault("analysis.min_keyword_length", 3)
	v.SetDefault("dedup.similarity_threshold", 0.85)
	v.SetDefault("dedup.compare_fields", []string{"name", "description", "url"})
	v.SetDefault("trend.top_k", 10)
	v.SetDefault("trend.emerging_window", 6*time.Hour)
	v.SetDefault("sources.github", true)
	v.SetDefault("sources.trending_window", "weekly")
	v.SetDefault("sources.topics", []string{"ai", "llm", "machine-learning"})
	v.SetDefault("retention_days", 30)

	// 环境变量覆盖
	v.SetEnvPrefix("RADAR")
	v.AutomaticEnv()
	v.BindEnv("database.dsn", "RADAR_DATABASE_DSN")
	v.BindEnv("backend.provider", "RADAR_BACKEND_PROVIDER")
	v.BindEnv("backend.model", "RADAR_BACKEND_MODEL")
	v.BindEnv("backend.api_key", "RADAR_BACKEND_API_KEY")
	v.BindEnv("sources.github_token", "RADAR_GITHUB_TOKEN")
	v.BindEnv("notify.webhook_url", "RADAR_WEBHOOK_URL")

	// 配置文件可选，不存在时忽略
	v.SetConfigName("radar")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, common.WrapError(common.ErrCodeConfiguration, "配置解析失败", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置，任何不合法项都在启动时直接失败
func (c *Config) Validate() error {
	if c.Analysis.RelevanceThreshold < 0 || c.Analysis.RelevanceThreshold > 1 {
		return common.NewError(common.ErrCodeConfiguration,
			fmt.Sprintf("relevance_threshold 必须在 [0,1] 内: %v", c.Analysis.RelevanceThreshold))
	}
	if c.Dedup.SimilarityThreshold < 0 || c.Dedup.SimilarityThreshold > 1 {
		return common.NewError(common.ErrCodeConfiguration,
			fmt.Sprintf("similarity_threshold 必须在 [0,1] 内: %v", c.Dedup.SimilarityThreshold))
	}
	if len(c.Dedup.CompareFields) == 0 {
		return common.NewError(common.ErrCodeConfiguration, "compare_fields 不能为空")
	}
	if c.Backend.Concurrency <= 0 {
		return common.NewError(common.ErrCodeConfiguration, "backend.concurrency 必须为正数")
	}
	if c.Backend.Timeout <= 0 {
		return common.NewError(common.ErrCodeConfiguration, "backend.timeout 必须为正数")
	}
	if c.Analysis.MaxKeywords <= 0 {
		return common.NewError(common.ErrCodeConfiguration, "max_keywords 必须为正数")
	}
	if c.RetentionDays <= 0 {
		return common.NewError(common.ErrCodeConfiguration, "retention_days 必须为正数")
	}
	if c.Trend.TopK <= 0 {
		return common.NewError(common.ErrCodeConfiguration, "trend.top_k 必须为正数")
	}
	switch c.Backend.Provider {
	case "gemini", "openai", "rules":
	default:
		return common.NewError(common.ErrCodeConfiguration,
			fmt.Sprintf("未知的 backend.provider: %s", c.Backend.Provider))
	}
	return nil
}
