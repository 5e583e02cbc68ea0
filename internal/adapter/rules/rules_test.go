package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-trend-radar/internal/domain"
)

var testKeywords = []string{
	"ai", "machine learning", "deep learning", "neural network",
	"llm", "gpt", "chatbot", "computer vision", "nlp", "transformer",
}

func newTestEngine() *Engine {
	return New(testKeywords, 10, 3)
}

func TestEngine_Classify(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name           string
		project        *domain.Project
		wantAIRelated  bool
		wantConfidence float64
		wantCategory   string
	}{
		{
			name: "命中多个关键词_置信度封顶",
			project: &domain.Project{
				Name:        "llm-toolkit",
				Description: "A deep learning toolkit for building neural network based chatbot systems",
			},
			wantAIRelated:  true,
			wantConfidence: 1.0,
			wantCategory:   "Deep Learning",
		},
		{
			name: "命中一个关键词",
			project: &domain.Project{
				Name:        "vision-utils",
				Description: "Utilities for computer vision pipelines",
			},
			wantAIRelated:  true,
			wantConfidence: 1.0 / 3.0,
			wantCategory:   "Computer Vision",
		},
		{
			name: "命中两个关键词",
			project: &domain.Project{
				Name:        "gpt-cli",
				Description: "Command line chatbot",
			},
			wantAIRelated:  true,
			wantConfidence: 2.0 / 3.0,
			wantCategory:   "Conversational AI",
		},
		{
			name: "无命中",
			project: &domain.Project{
				Name:        "fast-json",
				Description: "High performance JSON parser",
			},
			wantAIRelated:  false,
			wantConfidence: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Classify(tt.project)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantAIRelated, result.IsAIRelated)
			assert.InDelta(t, tt.wantConfidence, result.ConfidenceScore, 1e-9)
			assert.Equal(t, "rules", result.Method)
			if tt.wantCategory != "" {
				assert.Contains(t, result.AICategories, tt.wantCategory)
			}
		})
	}
}

func TestEngine_Classify_Deterministic(t *testing.T) {
	engine := newTestEngine()
	project := &domain.Project{
		Name:        "awesome-ml",
		Description: "Machine learning with pytorch and transformers",
		Tags:        []string{"ai", "python"},
	}

	first := engine.Classify(project)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, engine.Classify(project))
	}
}

func TestEngine_Classify_TagsAndLanguageSearched(t *testing.T) {
	engine := newTestEngine()

	// 关键词只出现在标签里，同样应被命中
	result := engine.Classify(&domain.Project{
		Name:        "cool-project",
		Description: "Does cool things",
		Tags:        []string{"nlp", "tooling"},
	})
	assert.True(t, result.IsAIRelated)
	assert.Contains(t, result.AICategories, "Natural Language Processing")
}

func TestEngine_Classify_TechStack(t *testing.T) {
	engine := newTestEngine()

	result := engine.Classify(&domain.Project{
		Name:        "trainer",
		Description: "Deep learning training loops for pytorch and tensorflow, huggingface compatible",
	})
	assert.Equal(t, []string{"PyTorch", "TensorFlow", "Hugging Face"}, result.TechStack)
}

func TestEngine_Classify_DefaultCategory(t *testing.T) {
	engine := newTestEngine()

	// 只命中宽泛的 "ai"，没有任何桶匹配时落到通用分类
	result := engine.Classify(&domain.Project{
		Name:        "ai-thing",
		Description: "does stuff",
	})
	assert.True(t, result.IsAIRelated)
	assert.Equal(t, []string{"Artificial Intelligence"}, result.AICategories)
}

func TestEngine_ExtractKeywords(t *testing.T) {
	engine := newTestEngine()

	result := engine.ExtractKeywords(&domain.Project{
		Name:        "llm-agent",
		Description: "An llm agent framework built on langchain for automation automation automation",
		Language:    "Python",
		Tags:        []string{"agents"},
	})

	require.NotNil(t, result)
	assert.Equal(t, "rules", result.ExtractionMethod)
	// 已知技术词优先于普通高频词
	assert.Contains(t, result.Keywords, "llm")
	assert.Contains(t, result.Keywords, "langchain")
	assert.Contains(t, result.Keywords, "automation")
	assert.True(t, len(result.Keywords) <= 10)

	assert.Equal(t, []string{"LangChain"}, result.Categories["技术栈"])
	assert.Equal(t, []string{"agents"}, result.Categories["应用领域"])
	assert.Equal(t, []string{"Python"}, result.Categories["编程语言"])
}

func TestEngine_ExtractKeywords_RespectsLimit(t *testing.T) {
	engine := New(testKeywords, 3, 3)

	result := engine.ExtractKeywords(&domain.Project{
		Name:        "everything-ai",
		Description: "machine learning deep learning neural network chatbot gpt transformer computer vision nlp",
	})
	assert.Len(t, result.Keywords, 3)
}

func TestFrequentWords(t *testing.T) {
	words := frequentWords("the cache cache cache layer layer with fast lookup", 3)
	// 频次降序，同频按字典序
	assert.Equal(t, []string{"cache", "layer", "fast", "lookup"}, words)
}

func TestEngine_Summarize(t *testing.T) {
	engine := newTestEngine()

	result := engine.Summarize(&domain.Project{
		Name:        "radar",
		Description: "Trending project tracker",
		Language:    "Go",
		Stars:       1200,
		Forks:       80,
		Tags:        []string{"trending", "cli", "infra", "extra"},
	})

	require.NotNil(t, result)
	assert.Equal(t, "basic", result.GenerationMethod)
	assert.Contains(t, result.Summary, "radar")
	assert.Contains(t, result.Summary, "Trending project tracker")
	assert.Contains(t, result.Highlights, "1200 stars")
	assert.Contains(t, result.Highlights, "80 forks")
	assert.Contains(t, result.Highlights, "Go")
	// 应用场景最多取前三个标签
	assert.Equal(t, []string{"trending", "cli", "infra"}, result.UseCases)
}

func TestEngine_Summarize_Minimal(t *testing.T) {
	engine := newTestEngine()

	result := engine.Summarize(&domain.Project{Name: "bare"})
	assert.Equal(t, "bare 是一个开源项目。", result.Summary)
	assert.Empty(t, result.Highlights)
	assert.Empty(t, result.UseCases)
}
