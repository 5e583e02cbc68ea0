package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"ai-trend-radar/internal/common"
	"ai-trend-radar/internal/domain"
)

// FeishuNotifier 通过飞书 Webhook 推送每日趋势摘要
type FeishuNotifier struct {
	webhookURL string
}

func NewFeishuNotifier(webhook string) *FeishuNotifier {
	if webhook == "" {
		log.Println("⚠️ 警告: 飞书 Webhook 为空，推送功能将无法工作！")
	}
	return &FeishuNotifier{webhookURL: webhook}
}

// NotifyDigest 发送飞书卡片消息 (Schema 2.0)
func (n *FeishuNotifier) NotifyDigest(ctx context.Context, date string, stats *domain.DailyStats, snapshot *domain.TrendSnapshot) error {
	if n.webhookURL == "" {
		return common.NewError(common.ErrCodeNotification, "Webhook URL 为空")
	}

	title := fmt.Sprintf("📊 AI 趋势日报 %s", date)
	mdContent := digestMarkdown(stats, snapshot)

	// 构造 Schema 2.0 JSON 结构
	elements := []map[string]interface{}{
		{
			"tag":       "markdown",
			"content":   mdContent,
			"text_size": "normal",
		},
	}
	if stats != nil && stats.TopProjectURL != "" {
		elements = append(elements, map[string]interface{}{
			"tag": "button",
			"text": map[string]interface{}{
				"tag":     "plain_text",
				"content": "🔗 查看今日 Top 项目",
			},
			"type": "primary",
			"behaviors": []map[string]interface{}{
				{
					"type":        "open_url",
					"default_url": stats.TopProjectURL,
				},
			},
		})
	}

	payload := map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"schema": "2.0",
			"config": map[string]interface{}{
				"update_multi": true,
			},
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": title,
				},
				"template": "blue",
			},
			"body": map[string]interface{}{
				"direction": "vertical",
				"elements":  elements,
			},
		},
	}

	// 发送请求 (带重试机制)
	body, _ := json.Marshal(payload)
	err := common.Do(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, postErr := http.DefaultClient.Do(req)
		if postErr != nil {
			return postErr
		}
		defer resp.Body.Close()

		if resp.StatusCode != 200 {
			return fmt.Errorf("飞书 API 报错: 状态码 %d", resp.StatusCode)
		}
		return nil
	},
		common.WithMaxRetries(3),
		common.WithInitialDelay(500*time.Millisecond),
	)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "发送请求失败", err)
	}

	return nil
}

func digestMarkdown(stats *domain.DailyStats, snapshot *domain.TrendSnapshot) string {
	var sb strings.Builder

	if stats != nil {
		sb.WriteString(fmt.Sprintf("**📦 收录项目:** %d  |  **🤖 AI 相关:** %d  |  **⭐ 平均 Stars:** %.0f\n",
			stats.TotalProjects, stats.AIProjectsCount, stats.AverageStars))
		if stats.TopLanguage != "" {
			sb.WriteString(fmt.Sprintf("**🥇 热门语言:** %s\n", stats.TopLanguage))
		}
		if stats.TopProjectName != "" {
			sb.WriteString(fmt.Sprintf("\n**🏆 今日 Top 项目:** %s (%d stars)\n", stats.TopProjectName, stats.TopProjectStars))
		}
	}

	if snapshot != nil {
		if len(snapshot.Hot) > 0 {
			sb.WriteString(fmt.Sprintf("\n**🔥 热门关键词:**\n%s\n", strings.Join(snapshot.Hot, ", ")))
		}
		if len(snapshot.Emerging) > 0 {
			sb.WriteString(fmt.Sprintf("\n**🌱 新兴关键词:**\n%s\n", strings.Join(snapshot.Emerging, ", ")))
		}
	}

	if sb.Len() == 0 {
		sb.WriteString("今日暂无数据。")
	}
	return sb.String()
}
