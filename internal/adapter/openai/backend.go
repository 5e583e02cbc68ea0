package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"ai-trend-radar/internal/common"
	"ai-trend-radar/internal/domain"
)

// Backend 基于 OpenAI 兼容接口实现模型后端
// baseURL 可指向任何兼容网关（OpenRouter、自建代理等）
type Backend struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) (*Backend, error) {
	if apiKey == "" {
		return nil, common.NewError(common.ErrCodeConfiguration, "OpenAI API key 未设置")
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Backend{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

const systemPrompt = "你是一个资深的 AI 技术分析师，所有回答必须是合法的 JSON 对象，不包含 Markdown 格式标记。"

type classifyResponse struct {
	IsAIRelated     bool     `json:"is_ai_related"`
	ConfidenceScore float64  `json:"confidence_score"`
	Reasoning       string   `json:"reasoning"`
	AICategories    []string `json:"ai_categories"`
	TechStack       []string `json:"tech_stack"`
}

type keywordResponse struct {
	Keywords   []string            `json:"keywords"`
	Categories map[string][]string `json:"categories"`
}

type summaryResponse struct {
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
	UseCases   []string `json:"use_cases"`
}

func (b *Backend) Classify(ctx context.Context, project *domain.Project) (*domain.AIClassification, error) {
	prompt := fmt.Sprintf(`请判断以下开源项目是否与人工智能相关：

项目名称: %s
项目描述: %s
编程语言: %s
标签: %s

返回 JSON 字段：is_ai_related (bool)、confidence_score (0.0-1.0)、reasoning (中文判定理由)、ai_categories (AI 细分领域列表)、tech_stack (技术栈列表)。`,
		project.Name, project.Description, project.Language, strings.Join(project.Tags, ", "))

	var res classifyResponse
	if err := b.chat(ctx, prompt, &res); err != nil {
		return nil, err
	}

	if res.ConfidenceScore < 0 {
		res.ConfidenceScore = 0
	}
	if res.ConfidenceScore > 1 {
		res.ConfidenceScore = 1
	}

	return &domain.AIClassification{
		IsAIRelated:     res.IsAIRelated,
		ConfidenceScore: res.ConfidenceScore,
		Reasoning:       res.Reasoning,
		AICategories:    res.AICategories,
		TechStack:       res.TechStack,
		Method:          "ai",
	}, nil
}

func (b *Backend) ExtractKeywords(ctx context.Context, project *domain.Project) (*domain.KeywordResult, error) {
	prompt := fmt.Sprintf(`请从以下开源项目信息中提取最多 10 个最能代表项目的关键词：

项目名称: %s
项目描述: %s
编程语言: %s
标签: %s

返回 JSON 字段：keywords (按显著性排序的关键词列表)、categories (键为 "技术栈" / "应用领域" / "编程语言" 的归类表)。`,
		project.Name, project.Description, project.Language, strings.Join(project.Tags, ", "))

	var res keywordResponse
	if err := b.chat(ctx, prompt, &res); err != nil {
		return nil, err
	}

	return &domain.KeywordResult{
		Keywords:         res.Keywords,
		Categories:       res.Categories,
		ExtractionMethod: "ai",
	}, nil
}

func (b *Backend) Summarize(ctx context.Context, project *domain.Project) (*domain.SummaryResult, error) {
	prompt := fmt.Sprintf(`请为以下开源项目生成简短的中文总结：

项目名称: %s
项目描述: %s
Star 数: %d
编程语言: %s

返回 JSON 字段：summary (两三句话的中文总结)、highlights (最多 3 条亮点)、use_cases (最多 3 条使用场景)。`,
		project.Name, project.Description, project.Stars, project.Language)

	var res summaryResponse
	if err := b.chat(ctx, prompt, &res); err != nil {
		return nil, err
	}

	return &domain.SummaryResult{
		Summary:          res.Summary,
		Highlights:       res.Highlights,
		UseCases:         res.UseCases,
		GenerationMethod: "ai",
	}, nil
}

func (b *Backend) chat(ctx context.Context, prompt string, out any) error {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     b.model,
		MaxTokens: 800,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return common.WrapError(common.ErrCodeBackendFailure, "OpenAI 调用失败", err)
	}

	if len(resp.Choices) == 0 {
		return common.NewError(common.ErrCodeBackendFailure, "OpenAI 返回内容为空")
	}

	return common.DecodeModelJSON(resp.Choices[0].Message.Content, out)
}
