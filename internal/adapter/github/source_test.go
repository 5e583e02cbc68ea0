package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v53/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-trend-radar/internal/common"
)

// setupMockGitHubServer 创建一个模拟的 GitHub API 服务器
func setupMockGitHubServer(t *testing.T, handler http.HandlerFunc, topics ...string) (*httptest.Server, *Source) {
	server := httptest.NewServer(handler)

	client := github.NewClient(nil)
	baseURL, _ := url.Parse(server.URL + "/")
	client.BaseURL = baseURL

	source := &Source{
		client: client,
		window: "weekly",
		topics: topics,
		// 测试里把重试间隔压到最低，失败用例不用等退避
		retryOpts: []common.Option{
			common.WithMaxRetries(1),
			common.WithInitialDelay(time.Millisecond),
		},
		nowFunc: func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) },
	}
	return server, source
}

// mockSearchResponse 创建模拟的 GitHub 搜索响应
func mockSearchResponse(repos []*github.Repository) *github.RepositoriesSearchResult {
	total := len(repos)
	return &github.RepositoriesSearchResult{
		Total:        github.Int(total),
		Repositories: repos,
	}
}

// createMockRepo 创建模拟的 GitHub 仓库对象
func createMockRepo(id int64, fullName, description, language string, stars int, topics []string) *github.Repository {
	created := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	return &github.Repository{
		ID:              github.Int64(id),
		FullName:        github.String(fullName),
		HTMLURL:         github.String("https://github.com/" + fullName),
		Description:     github.String(description),
		StargazersCount: github.Int(stars),
		ForksCount:      github.Int(stars / 10),
		Language:        github.String(language),
		Topics:          topics,
		Owner:           &github.User{Login: github.String("owner")},
		CreatedAt:       &github.Timestamp{Time: created},
		UpdatedAt:       &github.Timestamp{Time: created.AddDate(0, 0, 3)},
	}
}

func TestSource_Fetch(t *testing.T) {
	server, source := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)

		query := r.URL.Query().Get("q")
		assert.Contains(t, query, "created:>")
		assert.Contains(t, query, "stars:>50")

		response := mockSearchResponse([]*github.Repository{
			createMockRepo(1, "x/llm-kit", "An llm toolkit", "Python", 300, []string{"llm", "agents"}),
			createMockRepo(2, "x/radar", "Trend radar", "Go", 120, nil),
		})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	})
	defer server.Close()

	records, err := source.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "github", first.Source)
	assert.Equal(t, "x/llm-kit", first.Payload["name"])
	assert.Equal(t, "https://github.com/x/llm-kit", first.Payload["url"])
	assert.Equal(t, "An llm toolkit", first.Payload["description"])
	assert.Equal(t, "owner", first.Payload["author"])
	assert.Equal(t, 300, first.Payload["stars"])
	assert.Equal(t, 30, first.Payload["forks"])
	assert.Equal(t, "Python", first.Payload["language"])
	assert.Equal(t, []string{"llm", "agents"}, first.Payload["tags"])
	assert.False(t, first.FetchedAt.IsZero())
}

func TestSource_Fetch_WithTopics(t *testing.T) {
	var queries []string
	server, source := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		queries = append(queries, query)

		var repos []*github.Repository
		if query == "topic:llm" {
			repos = []*github.Repository{
				createMockRepo(10, "topic/llm-lib", "LLM library", "Python", 900, []string{"llm"}),
			}
		} else {
			repos = []*github.Repository{
				createMockRepo(1, "x/trending", "Trending project", "Go", 200, nil),
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockSearchResponse(repos))
	}, "llm")
	defer server.Close()

	records, err := source.Fetch(context.Background())

	require.NoError(t, err)
	// 趋势榜 1 条 + 话题 1 条
	require.Len(t, records, 2)
	assert.Len(t, queries, 2)
	assert.Contains(t, queries[1], "topic:llm")
	assert.Equal(t, "topic/llm-lib", records[1].Payload["name"])
}

func TestSource_Fetch_TopicFailureDoesNotAbort(t *testing.T) {
	server, source := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "topic:broken" {
			// 404 是不可重试的客户端错误
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message": "Not Found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mockSearchResponse([]*github.Repository{
			createMockRepo(1, "x/trending", "Trending project", "Go", 200, nil),
		}))
	}, "broken")
	defer server.Close()

	records, err := source.Fetch(context.Background())

	// 话题抓取失败只跳过，趋势榜结果照常返回
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSource_Fetch_TrendingWindows(t *testing.T) {
	tests := []struct {
		window       string
		expectedDate string
	}{
		{"daily", "2025-06-14"},
		{"weekly", "2025-06-08"},
		{"monthly", "2025-05-15"},
		{"", "2025-06-08"}, // 默认一周
	}

	for _, tt := range tests {
		t.Run("window_"+tt.window, func(t *testing.T) {
			server, source := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Contains(t, r.URL.Query().Get("q"), "created:>"+tt.expectedDate)
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(mockSearchResponse(nil))
			})
			defer server.Close()

			source.window = tt.window
			_, err := source.Fetch(context.Background())
			assert.NoError(t, err)
		})
	}
}

func TestSource_Fetch_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // 立即取消

	server, source := setupMockGitHubServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach here due to context cancellation")
	})
	defer server.Close()

	records, err := source.Fetch(ctx)

	assert.Error(t, err)
	assert.Nil(t, records)
	assert.Contains(t, err.Error(), "GitHub API 调用失败")
}

func TestNewSource(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"使用令牌创建", "ghp_test_token_1234567890"},
		{"无令牌创建", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := NewSource(tt.token, "weekly", []string{"ai"})
			assert.NotNil(t, source)
			assert.NotNil(t, source.client)
			assert.Equal(t, "github", source.Name())
		})
	}
}
