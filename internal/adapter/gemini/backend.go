package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ai-trend-radar/internal/common"
	"ai-trend-radar/internal/domain"
)

// Backend 基于 Google Gemini 实现模型后端
type Backend struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func New(ctx context.Context, apiKey, modelName string) (*Backend, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeConfiguration, "创建 Gemini 客户端失败", err)
	}

	if modelName == "" {
		modelName = "gemini-2.5-flash-lite"
	}
	model := client.GenerativeModel(modelName)
	// 强制要求返回 JSON，降低解析错误的概率
	model.ResponseMIMEType = "application/json"

	return &Backend{
		client: client,
		model:  model,
	}, nil
}

func (b *Backend) Close() error {
	return b.client.Close()
}

// 与模型约定的返回结构

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

// Classify 判定项目是否 AI 相关并给出置信度
func (b *Backend) Classify(ctx context.Context, project *domain.Project) (*domain.AIClassification, error) {
	prompt := fmt.Sprintf(`
你是一个资深的 AI 技术分析师。请判断以下开源项目是否与人工智能相关：

项目名称: %s
项目描述: %s
编程语言: %s
标签: %s

请严格按照 JSON 格式返回分析结果，包含以下字段：
1. is_ai_related (bool): 是否与 AI 相关。
2. confidence_score (0.0-1.0): 判定置信度。
3. reasoning: 一句话的中文判定理由。
4. ai_categories: AI 细分领域列表（如 "Natural Language Processing", "Computer Vision"）。
5. tech_stack: 识别到的技术栈列表。

请直接返回 JSON，不要包含 Markdown 格式标记。
`, project.Name, project.Description, project.Language, strings.Join(project.Tags, ", "))

	var res classifyResponse
	if err := b.generate(ctx, prompt, &res); err != nil {
		return nil, err
	}

	// 置信度夹在 [0,1]，模型偶尔会给出界外值
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

// ExtractKeywords 提取项目关键词并按维度归类
func (b *Backend) ExtractKeywords(ctx context.Context, project *domain.Project) (*domain.KeywordResult, error) {
	prompt := fmt.Sprintf(`
请从以下开源项目信息中提取最多 10 个最能代表项目的关键词：

项目名称: %s
项目描述: %s
编程语言: %s
标签: %s

请严格按照 JSON 格式返回，包含以下字段：
1. keywords: 关键词列表，按显著性排序。
2. categories: 关键词归类，键为维度（"技术栈" / "应用领域" / "编程语言"），值为该维度下的关键词列表。

请直接返回 JSON，不要包含 Markdown 格式标记。
`, project.Name, project.Description, project.Language, strings.Join(project.Tags, ", "))

	var res keywordResponse
	if err := b.generate(ctx, prompt, &res); err != nil {
		return nil, err
	}

	return &domain.KeywordResult{
		Keywords:         res.Keywords,
		Categories:       res.Categories,
		ExtractionMethod: "ai",
	}, nil
}

// Summarize 生成项目的中文总结
func (b *Backend) Summarize(ctx context.Context, project *domain.Project) (*domain.SummaryResult, error) {
	prompt := fmt.Sprintf(`
请为以下开源项目生成简短的中文总结：

项目名称: %s
项目描述: %s
Star 数: %d
编程语言: %s

请严格按照 JSON 格式返回，包含以下字段：
1. summary: 两三句话的中文总结。
2. highlights: 项目亮点列表（最多 3 条）。
3. use_cases: 典型使用场景列表（最多 3 条）。

请直接返回 JSON，不要包含 Markdown 格式标记。
`, project.Name, project.Description, project.Stars, project.Language)

	var res summaryResponse
	if err := b.generate(ctx, prompt, &res); err != nil {
		return nil, err
	}

	return &domain.SummaryResult{
		Summary:          res.Summary,
		Highlights:       res.Highlights,
		UseCases:         res.UseCases,
		GenerationMethod: "ai",
	}, nil
}

// generate 调用模型并把返回的 JSON 解析进 out
func (b *Backend) generate(ctx context.Context, prompt string, out any) error {
	resp, err := b.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return common.WrapError(common.ErrCodeBackendFailure, "Gemini 调用失败", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return common.NewError(common.ErrCodeBackendFailure, "Gemini 返回内容为空")
	}

	part := resp.Candidates[0].Content.Parts[0]
	text, ok := part.(genai.Text)
	if !ok {
		return common.NewError(common.ErrCodeBackendFailure, "Gemini 返回格式错误")
	}

	return common.DecodeModelJSON(string(text), out)
}
