package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"ai-trend-radar/internal/adapter/cleaner"
	"ai-trend-radar/internal/adapter/github"
	"ai-trend-radar/internal/adapter/rules"
	"ai-trend-radar/internal/adapter/standardizer"
	"ai-trend-radar/internal/domain"
)

// 调试入口：只走 抓取 → 标准化 → 清洗 → 规则分类，
// 不连数据库、不调模型 API，适合快速验证流水线前半段
func main() {
	githubToken := os.Getenv("RADAR_GITHUB_TOKEN")

	ctx := context.Background()

	source := github.NewSource(githubToken, "weekly", []string{"ai", "llm"})
	std := standardizer.New()
	clean := cleaner.New(0.85, []string{"name", "description", "url"})
	engine := rules.New([]string{
		"ai", "llm", "machine learning", "deep learning",
		"agent", "rag", "gpt", "transformer",
	}, 10, 3)

	fmt.Println("🔍 调试模式：抓取并分析项目")

	// 1. 抓取原始记录
	fmt.Println("📥 正在抓取 GitHub 数据...")
	records, err := source.Fetch(ctx)
	if err != nil {
		log.Printf("❌ 抓取失败: %v", err)
		return
	}
	fmt.Printf("✅ 成功获取 %d 条原始记录\n", len(records))

	if len(records) == 0 {
		fmt.Println("❌ 没有获取到任何记录")
		return
	}

	// 2. 标准化
	projects, dropped := std.StandardizeBatch(records)
	fmt.Printf("✅ 标准化完成: %d 个项目 (丢弃 %d 条畸形记录)\n", len(projects), dropped)

	// 3. 清洗去重
	projects = clean.CleanAndDeduplicate(projects)
	fmt.Printf("✅ 去重后剩余 %d 个项目\n", len(projects))

	if len(projects) == 0 {
		fmt.Println("❌ 去重后没有剩余项目")
		return
	}

	// 4. 规则分类：只看前几个项目，省得刷屏
	limit := 3
	if len(projects) < limit {
		limit = len(projects)
	}
	fmt.Printf("🧠 对前 %d 个项目做规则分类:\n", limit)
	for i := 0; i < limit; i++ {
		p := projects[i]
		fmt.Printf("  项目 #%d: %s (⭐ %d)\n", i+1, p.Name, p.Stars)

		classification := engine.Classify(p)
		keywords := engine.ExtractKeywords(p)
		printClassification(classification, keywords)
		fmt.Println()
	}
}

func printClassification(c *domain.AIClassification, k *domain.KeywordResult) {
	fmt.Printf("    AI 相关: %v (置信度 %.2f)\n", c.IsAIRelated, c.ConfidenceScore)
	fmt.Printf("    判定依据: %s\n", c.Reasoning)
	if len(c.TechStack) > 0 {
		fmt.Printf("    技术栈: %v\n", c.TechStack)
	}
	if len(k.Keywords) > 0 {
		fmt.Printf("    关键词: %v\n", k.Keywords)
	}
}
