package classifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ai-trend-radar/internal/adapter/rules"
	"ai-trend-radar/internal/domain"
)

// MockBackend 模拟模型后端
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Classify(ctx context.Context, project *domain.Project) (*domain.AIClassification, error) {
	args := m.Called(ctx, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AIClassification), args.Error(1)
}

func (m *MockBackend) ExtractKeywords(ctx context.Context, project *domain.Project) (*domain.KeywordResult, error) {
	args := m.Called(ctx, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KeywordResult), args.Error(1)
}

func (m *MockBackend) Summarize(ctx context.Context, project *domain.Project) (*domain.SummaryResult, error) {
	args := m.Called(ctx, project)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SummaryResult), args.Error(1)
}

func testRules() *rules.Engine {
	return rules.New([]string{"ai", "llm", "machine learning", "deep learning"}, 10, 3)
}

func testProject(name string) *domain.Project {
	return &domain.Project{
		Name:        name,
		Description: "An llm agent framework",
		URL:         "https://github.com/x/" + name,
		Source:      "github",
		Language:    "Python",
	}
}

func TestEnrich_BackendSuccess(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Classify", mock.Anything, mock.Anything).Return(&domain.AIClassification{
		IsAIRelated:     true,
		ConfidenceScore: 0.95,
		Reasoning:       "LLM 框架",
		AICategories:    []string{"Conversational AI"},
		Method:          "ai",
	}, nil)
	backend.On("ExtractKeywords", mock.Anything, mock.Anything).Return(&domain.KeywordResult{
		Keywords:         []string{"llm", "framework"},
		Categories:       map[string][]string{"技术栈": []string{"LangChain"}},
		ExtractionMethod: "ai",
	}, nil)
	backend.On("Summarize", mock.Anything, mock.Anything).Return(&domain.SummaryResult{
		Summary:          "一个 LLM 框架",
		GenerationMethod: "ai",
	}, nil)

	enricher := NewTwoTierEnricher(backend, testRules())
	project := enricher.Enrich(context.Background(), testProject("llm-kit"))

	require.NotNil(t, project.AIClassification)
	assert.Equal(t, "ai", project.AIClassification.Method)
	assert.Equal(t, 0.95, project.AIClassification.ConfidenceScore)

	// 模型与规则的关键词合并，模型的排在前面
	require.NotNil(t, project.Keywords)
	assert.Equal(t, "merged", project.Keywords.ExtractionMethod)
	assert.Equal(t, "llm", project.Keywords.Keywords[0])
	assert.Contains(t, project.Keywords.Keywords, "framework")
	assert.Equal(t, []string{"LangChain"}, project.Keywords.Categories["技术栈"])

	require.NotNil(t, project.Summary)
	assert.Equal(t, "ai", project.Summary.GenerationMethod)
	backend.AssertExpectations(t)
}

func TestEnrich_FallbackOnBackendError(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Classify", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))
	backend.On("ExtractKeywords", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))
	backend.On("Summarize", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	enricher := NewTwoTierEnricher(backend, testRules())
	project := enricher.Enrich(context.Background(), testProject("llm-kit"))

	// 全部降级到规则，但每个维度都有结果
	require.NotNil(t, project.AIClassification)
	assert.Equal(t, "rules", project.AIClassification.Method)
	assert.True(t, project.AIClassification.IsAIRelated)

	require.NotNil(t, project.Keywords)
	assert.Equal(t, "rules", project.Keywords.ExtractionMethod)

	require.NotNil(t, project.Summary)
	assert.Equal(t, "basic", project.Summary.GenerationMethod)
}

func TestEnrich_NilBackend(t *testing.T) {
	enricher := NewTwoTierEnricher(nil, testRules())
	project := enricher.Enrich(context.Background(), testProject("plain-tool"))

	require.NotNil(t, project.AIClassification)
	assert.Equal(t, "rules", project.AIClassification.Method)
	require.NotNil(t, project.Keywords)
	assert.Equal(t, "rules", project.Keywords.ExtractionMethod)
	require.NotNil(t, project.Summary)
	assert.Equal(t, "basic", project.Summary.GenerationMethod)
}

func TestMergeKeywordResults(t *testing.T) {
	merged := mergeKeywordResults(
		&domain.KeywordResult{
			Keywords:   []string{"llm", "agent"},
			Categories: map[string][]string{"技术栈": []string{"LangChain"}},
		},
		&domain.KeywordResult{
			Keywords: []string{"agent", "automation"},
			Categories: map[string][]string{
				"技术栈":  []string{"OpenAI"},
				"编程语言": []string{"Python"},
			},
		},
		10,
	)

	// 去重后模型关键词在前，规则只补充新词
	assert.Equal(t, []string{"llm", "agent", "automation"}, merged.Keywords)
	assert.Equal(t, "merged", merged.ExtractionMethod)
	// 同名维度以模型为准，规则独有的维度保留
	assert.Equal(t, []string{"LangChain"}, merged.Categories["技术栈"])
	assert.Equal(t, []string{"Python"}, merged.Categories["编程语言"])
}

func TestMergeKeywordResults_RespectsLimit(t *testing.T) {
	ai := &domain.KeywordResult{
		Keywords: []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a10"},
	}
	ruled := &domain.KeywordResult{
		Keywords: []string{"r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8", "r9", "r10"},
	}

	merged := mergeKeywordResults(ai, ruled, 10)

	// 两边各 10 个不重复的词，合并后仍只保留上限个，模型关键词优先占位
	assert.Len(t, merged.Keywords, 10)
	assert.Equal(t, ai.Keywords, merged.Keywords)

	// 上限放宽时规则词才会被补进来
	merged = mergeKeywordResults(ai, ruled, 12)
	assert.Equal(t, append(append([]string{}, ai.Keywords...), "r1", "r2"), merged.Keywords)
}

// slowBackend 每个调用带随机延迟，用于验证并发下的顺序保持
type slowBackend struct{}

func (s *slowBackend) Classify(ctx context.Context, project *domain.Project) (*domain.AIClassification, error) {
	time.Sleep(time.Duration(rand.Intn(10)) * time.Millisecond)
	return &domain.AIClassification{
		IsAIRelated:     true,
		ConfidenceScore: 0.9,
		Reasoning:       project.Name,
		Method:          "ai",
	}, nil
}

func (s *slowBackend) ExtractKeywords(ctx context.Context, project *domain.Project) (*domain.KeywordResult, error) {
	return &domain.KeywordResult{Keywords: []string{project.Name}, ExtractionMethod: "ai"}, nil
}

func (s *slowBackend) Summarize(ctx context.Context, project *domain.Project) (*domain.SummaryResult, error) {
	return &domain.SummaryResult{Summary: project.Name, GenerationMethod: "ai"}, nil
}

func TestBatchEnrich_PreservesOrder(t *testing.T) {
	enricher := NewTwoTierEnricher(&slowBackend{}, testRules())
	enricher.SetMaxGoroutines(4)

	projects := make([]*domain.Project, 20)
	for i := range projects {
		projects[i] = testProject(fmt.Sprintf("project-%02d", i))
	}

	results := enricher.BatchEnrich(context.Background(), projects)

	require.Len(t, results, len(projects))
	for i, p := range results {
		assert.Equal(t, fmt.Sprintf("project-%02d", i), p.Name)
		require.NotNil(t, p.AIClassification)
		assert.Equal(t, p.Name, p.AIClassification.Reasoning)
	}
}

func TestBatchEnrich_Empty(t *testing.T) {
	enricher := NewTwoTierEnricher(nil, testRules())
	assert.Empty(t, enricher.BatchEnrich(context.Background(), nil))
}

func TestBatchEnrich_FallbackKeepsEveryProject(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Classify", mock.Anything, mock.Anything).Return(nil, errors.New("backend down"))
	backend.On("ExtractKeywords", mock.Anything, mock.Anything).Return(nil, errors.New("backend down"))
	backend.On("Summarize", mock.Anything, mock.Anything).Return(nil, errors.New("backend down"))

	enricher := NewTwoTierEnricher(backend, testRules())
	projects := []*domain.Project{
		testProject("alpha"),
		testProject("beta"),
		testProject("gamma"),
	}

	results := enricher.BatchEnrich(context.Background(), projects)

	require.Len(t, results, 3)
	for _, p := range results {
		// 后端全挂时规则兜底，分类结果不允许为空
		require.NotNil(t, p.AIClassification)
		assert.Equal(t, "rules", p.AIClassification.Method)
		assert.NotNil(t, p.Keywords)
		assert.NotNil(t, p.Summary)
	}
}
