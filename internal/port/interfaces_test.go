package port_test

import (
	"ai-trend-radar/internal/adapter/classifier"
	"ai-trend-radar/internal/adapter/gemini"
	"ai-trend-radar/internal/adapter/github"
	"ai-trend-radar/internal/adapter/notify"
	"ai-trend-radar/internal/adapter/openai"
	"ai-trend-radar/internal/adapter/repository"
	"ai-trend-radar/internal/port"
)

// 编译期断言：各适配器必须实现对应的端口接口
var (
	_ port.Source     = (*github.Source)(nil)
	_ port.Backend    = (*gemini.Backend)(nil)
	_ port.Backend    = (*openai.Backend)(nil)
	_ port.Enricher   = (*classifier.TwoTierEnricher)(nil)
	_ port.Repository = (*repository.PostgresRepo)(nil)
	_ port.Notifier   = (*notify.FeishuNotifier)(nil)
)
