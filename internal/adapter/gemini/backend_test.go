package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-trend-radar/internal/common"
)

func TestDecodeClassifyResponse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
		expected    *classifyResponse
	}{
		{
			name:  "Valid JSON response",
			input: `{"is_ai_related": true, "confidence_score": 0.92, "reasoning": "LLM 框架"}`,
			expected: &classifyResponse{
				IsAIRelated:     true,
				ConfidenceScore: 0.92,
				Reasoning:       "LLM 框架",
			},
		},
		{
			name: "JSON with extra text",
			input: `Some introduction text
			{
				"is_ai_related": false,
				"confidence_score": 0.1,
				"reasoning": "普通工具库"
			}
			Some trailing text`,
			expected: &classifyResponse{
				IsAIRelated:     false,
				ConfidenceScore: 0.1,
				Reasoning:       "普通工具库",
			},
		},
		{
			name:  "Markdown fenced JSON",
			input: "```json\n{\"is_ai_related\": true, \"confidence_score\": 0.8, \"reasoning\": \"ok\"}\n```",
			expected: &classifyResponse{
				IsAIRelated:     true,
				ConfidenceScore: 0.8,
				Reasoning:       "ok",
			},
		},
		{
			name:        "Invalid JSON",
			input:       `{"invalid": json}`,
			expectError: true,
		},
		{
			name:        "No JSON content",
			input:       `Just some text without JSON`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result classifyResponse
			err := common.DecodeModelJSON(tt.input, &result)

			if tt.expectError {
				assert.Error(t, err)
				assert.True(t, common.HasCode(err, common.ErrCodeBackendFailure))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected.IsAIRelated, result.IsAIRelated)
				assert.Equal(t, tt.expected.ConfidenceScore, result.ConfidenceScore)
				assert.Equal(t, tt.expected.Reasoning, result.Reasoning)
			}
		})
	}
}

func TestDecodeKeywordResponse(t *testing.T) {
	var result keywordResponse
	err := common.DecodeModelJSON(`{"keywords": ["llm", "agent"], "categories": {"技术栈": ["LangChain"]}}`, &result)
	assert.NoError(t, err)
	assert.Equal(t, []string{"llm", "agent"}, result.Keywords)
	assert.Equal(t, []string{"LangChain"}, result.Categories["技术栈"])
}
