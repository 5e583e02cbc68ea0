package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"ai-trend-radar/internal/adapter/classifier"
	"ai-trend-radar/internal/adapter/cleaner"
	"ai-trend-radar/internal/adapter/gemini"
	"ai-trend-radar/internal/adapter/github"
	"ai-trend-radar/internal/adapter/notify"
	openaibackend "ai-trend-radar/internal/adapter/openai"
	"ai-trend-radar/internal/adapter/repository"
	"ai-trend-radar/internal/adapter/rules"
	"ai-trend-radar/internal/adapter/standardizer"
	"ai-trend-radar/internal/adapter/trend"
	"ai-trend-radar/internal/config"
	"ai-trend-radar/internal/port"
	"ai-trend-radar/internal/service"
)

func main() {
	// .env 可选，只在本地开发时用
	_ = godotenv.Load()

	// 1. 定义命令行参数
	mode := flag.String("mode", "daily", "运行模式: daily / stats / trends / search / cleanup")
	date := flag.String("date", "", "目标日期 YYYY-MM-DD，默认今天")
	query := flag.String("q", "", "搜索关键词 (仅在 search 模式下有效)")
	days := flag.Int("days", 7, "trends 模式统计最近几天")
	concurrency := flag.Int("concurrency", 0, "分类并发数，0 表示使用配置值")
	schedule := flag.String("schedule", "", "cron 表达式，非空时按计划重复执行 daily 模式")
	flag.Parse()

	// 2. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ 配置加载失败: %v", err)
	}

	// 3. 初始化公共依赖 (数据库)
	repoStore, err := repository.NewPostgresRepo(cfg.Database.DSN, cfg.Analysis.RelevanceThreshold, cfg.RetentionDays)
	if err != nil {
		log.Fatalf("❌ DB 初始化失败: %v", err)
	}

	// 4. 初始化模型后端和分类器
	backend, err := buildBackend(context.Background(), cfg)
	if err != nil {
		log.Fatalf("❌ 模型后端初始化失败: %v", err)
	}
	engine := rules.New(cfg.Analysis.AIKeywords, cfg.Analysis.MaxKeywords, cfg.Analysis.MinKeywordLength)
	enricher := classifier.NewTwoTierEnricher(backend, engine)
	enricher.SetMaxGoroutines(cfg.Backend.Concurrency)
	enricher.SetMaxKeywords(cfg.Analysis.MaxKeywords)
	enricher.SetCallTimeout(cfg.Backend.Timeout)

	// 5. 数据源和通知器
	var sources []port.Source
	if cfg.Sources.GitHub {
		sources = append(sources, github.NewSource(cfg.Sources.GitHubToken, cfg.Sources.TrendingWindow, cfg.Sources.Topics))
	}

	var notifier port.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewFeishuNotifier(cfg.Notify.WebhookURL)
	}

	svc := service.NewRadarService(
		sources,
		standardizer.New(),
		cleaner.New(cfg.Dedup.SimilarityThreshold, cfg.Dedup.CompareFields),
		enricher,
		repoStore,
		trend.New(cfg.Trend.TopK, cfg.Trend.EmergingWindow, cfg.Analysis.RelevanceThreshold),
		notifier,
	)

	conc := *concurrency
	if conc <= 0 {
		conc = cfg.Backend.Concurrency
	}

	// 6. 根据模式分流
	if *schedule != "" {
		runScheduled(svc, *schedule, conc)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	switch *mode {
	case "daily":
		if err := svc.RunDaily(ctx, *date, conc); err != nil {
			log.Fatalf("❌ 采集失败: %v", err)
		}
	case "stats":
		runStats(ctx, svc, *date)
	case "trends":
		runTrends(ctx, svc, *days)
	case "search":
		runSearch(ctx, svc, *query)
	case "cleanup":
		if err := svc.Cleanup(ctx); err != nil {
			log.Fatalf("❌ 清理失败: %v", err)
		}
		fmt.Println("✅ 过期数据清理完成")
	default:
		fmt.Println("❌ 未知模式，请使用 -mode=daily / stats / trends / search / cleanup")
	}
}

// buildBackend 按配置挑选模型后端，provider 为 rules 时返回 nil，全部走规则兜底
func buildBackend(ctx context.Context, cfg *config.Config) (port.Backend, error) {
	switch cfg.Backend.Provider {
	case "gemini":
		return gemini.New(ctx, cfg.Backend.APIKey, cfg.Backend.Model)
	case "openai":
		return openaibackend.New(cfg.Backend.APIKey, "", cfg.Backend.Model)
	case "rules":
		return nil, nil
	default:
		return nil, fmt.Errorf("未知的 backend.provider: %s", cfg.Backend.Provider)
	}
}

// runScheduled 按 cron 计划重复执行每日采集，SIGINT/SIGTERM 优雅退出
func runScheduled(svc *service.RadarService, expr string, concurrency int) {
	runOnce := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := svc.RunDaily(ctx, "", concurrency); err != nil {
			log.Printf("❌ 定时采集失败: %v", err)
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(expr, runOnce); err != nil {
		log.Fatalf("❌ 无效的 cron 表达式 %q: %v", expr, err)
	}

	fmt.Printf("⏰ 定时执行模式已启动，计划: %s\n", expr)
	fmt.Println("按下 Ctrl+C 可以优雅停止程序")

	// 启动后先跑一轮，不用等到下一个触发点
	runOnce()
	c.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n👋 收到停止信号，正在退出...")
	<-c.Stop().Done()
}

func runStats(ctx context.Context, svc *service.RadarService, date string) {
	stats, snapshot, err := svc.Stats(ctx, date)
	if err != nil {
		log.Fatalf("❌ 统计失败: %v", err)
	}

	fmt.Printf("📊 %s 统计\n", stats.Date)
	fmt.Printf("   收录项目: %d\n", stats.TotalProjects)
	fmt.Printf("   AI 相关: %d\n", stats.AIProjectsCount)
	fmt.Printf("   平均 Stars: %.1f\n", stats.AverageStars)
	if stats.TopLanguage != "" {
		fmt.Printf("   热门语言: %s\n", stats.TopLanguage)
	}
	if stats.TopProjectName != "" {
		fmt.Printf("   Top 项目: %s (%d stars) %s\n", stats.TopProjectName, stats.TopProjectStars, stats.TopProjectURL)
	}
	if len(snapshot.Hot) > 0 {
		fmt.Printf("   热门关键词: %s\n", strings.Join(snapshot.Hot, ", "))
	}
}

func runTrends(ctx context.Context, svc *service.RadarService, days int) {
	snapshot, err := svc.TrendsOverDays(ctx, days)
	if err != nil {
		log.Fatalf("❌ 趋势分析失败: %v", err)
	}

	fmt.Printf("📈 最近 %d 天趋势 (%d 个项目，其中 %d 个 AI 相关)\n", days, snapshot.TotalProjects, snapshot.AIProjects)
	if len(snapshot.Hot) > 0 {
		fmt.Printf("   🔥 热门关键词: %s\n", strings.Join(snapshot.Hot, ", "))
	}
	if len(snapshot.Emerging) > 0 {
		fmt.Printf("   🌱 新兴关键词: %s\n", strings.Join(snapshot.Emerging, ", "))
	}
	fmt.Println("   语言分布:")
	for lang, count := range snapshot.Languages {
		fmt.Printf("     %s: %d\n", lang, count)
	}
}

func runSearch(ctx context.Context, svc *service.RadarService, query string) {
	if query == "" {
		fmt.Println("⚠️ 请输入搜索关键词，例如: -mode=search -q 'agent'")
		return
	}

	projects, err := svc.Search(ctx, query)
	if err != nil {
		log.Fatalf("❌ 搜索失败: %v", err)
	}
	if len(projects) == 0 {
		fmt.Println("📭 没有匹配的项目。请先运行 -mode=daily 抓取一些数据！")
		return
	}

	fmt.Printf("🔎 找到 %d 个匹配项目:\n", len(projects))
	for _, p := range projects {
		fmt.Printf("   ⭐ %-6d %s (%s)\n", p.Stars, p.Name, p.URL)
		if p.Summary != nil && p.Summary.Summary != "" {
			fmt.Printf("      %s\n", p.Summary.Summary)
		}
	}
}
