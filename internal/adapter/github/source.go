package github

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"

	"ai-trend-radar/internal/common"
	"ai-trend-radar/internal/domain"
)

// Source 实现了 port.Source 接口
// GitHub 没有官方的 Trending API，用搜索按 Star 排序来模拟
type Source struct {
	client    *github.Client
	window    string   // daily / weekly / monthly
	topics    []string // 额外按话题补抓
	retryOpts []common.Option
	nowFunc   func() time.Time
}

// NewSource 初始化 GitHub 客户端
// token 为空时匿名访问，限制 60次/小时
func NewSource(token, window string, topics []string) *Source {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}

	return &Source{
		client: client,
		window: window,
		topics: topics,
		retryOpts: []common.Option{
			common.WithMaxRetries(3),
			common.WithInitialDelay(time.Second),
		},
		nowFunc: time.Now,
	}
}

func (s *Source) Name() string {
	return "github"
}

// Fetch 抓取趋势榜和配置话题下的热门项目，交付原始记录
// 话题抓取失败只记入错误不中断，趋势榜失败才算整体失败
func (s *Source) Fetch(ctx context.Context) ([]*domain.RawRecord, error) {
	records, err := s.fetchTrending(ctx)
	if err != nil {
		return nil, err
	}

	for _, topic := range s.topics {
		topicRecords, err := s.fetchTopic(ctx, topic)
		if err != nil {
			fmt.Printf("   ⚠️ [GitHub] 话题 %s 抓取失败: %v\n", topic, err)
			continue
		}
		records = append(records, topicRecords...)
	}

	return records, nil
}

// fetchTrending 搜索窗口期内新建且有热度的项目
func (s *Source) fetchTrending(ctx context.Context) ([]*domain.RawRecord, error) {
	var dateRange string
	switch s.window {
	case "daily":
		dateRange = s.nowFunc().AddDate(0, 0, -1).Format("2006-01-02")
	case "monthly":
		dateRange = s.nowFunc().AddDate(0, -1, 0).Format("2006-01-02")
	default: // weekly
		dateRange = s.nowFunc().AddDate(0, 0, -7).Format("2006-01-02")
	}

	query := fmt.Sprintf("created:>%s stars:>50", dateRange)
	return s.search(ctx, query, 30)
}

// fetchTopic 按话题取 Star 最高的几个项目
func (s *Source) fetchTopic(ctx context.Context, topic string) ([]*domain.RawRecord, error) {
	return s.search(ctx, fmt.Sprintf("topic:%s", topic), 10)
}

func (s *Source) search(ctx context.Context, query string, perPage int) ([]*domain.RawRecord, error) {
	opts := &github.SearchOptions{
		Sort:  "stars",
		Order: "desc",
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	var result *github.RepositoriesSearchResult
	err := common.Do(ctx, func() error {
		var apiErr error
		result, _, apiErr = s.client.Search.Repositories(ctx, query, opts)
		return apiErr
	}, s.retryOpts...)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeSource, "GitHub API 调用失败", err)
	}

	fetchedAt := s.nowFunc()
	var records []*domain.RawRecord
	for _, item := range result.Repositories {
		records = append(records, &domain.RawRecord{
			Source:    s.Name(),
			FetchedAt: fetchedAt,
			Payload:   repoPayload(item),
		})
	}
	return records, nil
}

// repoPayload 把 GitHub 仓库转成标准化器认识的 key/value 形式
func repoPayload(item *github.Repository) map[string]any {
	return map[string]any{
		"name":        item.GetFullName(),
		"url":         item.GetHTMLURL(),
		"description": item.GetDescription(),
		"author":      item.GetOwner().GetLogin(),
		"stars":       item.GetStargazersCount(),
		"forks":       item.GetForksCount(),
		"language":    item.GetLanguage(),
		"tags":        item.Topics,
		"created_at":  item.GetCreatedAt().Time,
		"updated_at":  item.GetUpdatedAt().Time,
	}
}
