package rules

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"ai-trend-radar/internal/domain"
)

// Engine 是规则兜底层：不依赖任何外部服务，
// 同样的输入永远给出同样的分类/关键词/总结结果
type Engine struct {
	aiKeywords       []string
	maxKeywords      int
	minKeywordLength int
}

// New 创建规则引擎，keywords 为配置下发的 AI 关键词表
func New(aiKeywords []string, maxKeywords, minKeywordLength int) *Engine {
	if maxKeywords <= 0 {
		maxKeywords = 10
	}
	if minKeywordLength <= 0 {
		minKeywordLength = 3
	}
	return &Engine{
		aiKeywords:       aiKeywords,
		maxKeywords:      maxKeywords,
		minKeywordLength: minKeywordLength,
	}
}

// 关键词桶：命中哪个桶就归入哪个 AI 分类
var categoryBuckets = []struct {
	category string
	terms    []string
}{
	{"Natural Language Processing", []string{"nlp", "natural language", "text mining", "language model", "sentiment", "bert"}},
	{"Computer Vision", []string{"computer vision", "image", "vision", "opencv", "yolo", "object detection", "face recognition"}},
	{"Machine Learning", []string{"machine learning", "classification", "regression", "xgboost", "scikit"}},
	{"Deep Learning", []string{"deep learning", "neural network", "neural", "cnn", "transformer"}},
	{"Conversational AI", []string{"chatbot", "assistant", "llm", "gpt", "agent", "copilot"}},
	{"Generative AI", []string{"generative", "diffusion", "stable diffusion", "multimodal", "rag", "embedding"}},
}

// 技术栈识别表，顺序固定保证输出确定
var techStackTerms = []struct {
	term    string
	display string
}{
	{"pytorch", "PyTorch"},
	{"tensorflow", "TensorFlow"},
	{"keras", "Keras"},
	{"scikit-learn", "Scikit-learn"},
	{"opencv", "OpenCV"},
	{"transformers", "Transformers"},
	{"hugging face", "Hugging Face"},
	{"huggingface", "Hugging Face"},
	{"langchain", "LangChain"},
	{"openai", "OpenAI"},
	{"anthropic", "Anthropic"},
	{"llama", "LLaMA"},
	{"onnx", "ONNX"},
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {}, "this": {},
	"from": {}, "your": {}, "are": {}, "can": {}, "using": {}, "into": {},
	"was": {}, "were": {}, "has": {}, "have": {}, "not": {}, "all": {},
	"you": {}, "any": {}, "our": {}, "via": {}, "more": {}, "most": {},
}

var wordRe = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+-]*`)

// searchText 把参与匹配的字段拼成一段小写文本
func searchText(p *domain.Project) string {
	parts := []string{p.Name, p.Description}
	parts = append(parts, p.Tags...)
	parts = append(parts, p.Language)
	return strings.ToLower(strings.Join(parts, " "))
}

// Classify 基于关键词子串匹配判定 AI 相关性
// 置信度随命中数饱和增长：3 个不同关键词即达到 1.0，零命中为 0.0
func (e *Engine) Classify(p *domain.Project) *domain.AIClassification {
	text := searchText(p)

	var matched []string
	for _, kw := range e.aiKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}

	confidence := float64(len(matched)) / 3.0
	if confidence > 1.0 {
		confidence = 1.0
	}

	listed := matched
	if len(listed) > 5 {
		listed = listed[:5]
	}

	return &domain.AIClassification{
		IsAIRelated:     len(matched) > 0,
		ConfidenceScore: confidence,
		Reasoning:       fmt.Sprintf("基于关键词匹配，命中 %d 个AI关键词: %s", len(matched), strings.Join(listed, ", ")),
		AICategories:    categorize(text, matched),
		TechStack:       techStack(text),
		Method:          "rules",
	}
}

// categorize 按命中的关键词桶推导 AI 分类
// 有命中但没落进任何桶时归入通用的 "Artificial Intelligence"
func categorize(text string, matched []string) []string {
	if len(matched) == 0 {
		return nil
	}

	var categories []string
	for _, bucket := range categoryBuckets {
		for _, term := range bucket.terms {
			if strings.Contains(text, term) {
				categories = append(categories, bucket.category)
				break
			}
		}
	}

	if len(categories) == 0 {
		return []string{"Artificial Intelligence"}
	}
	return categories
}

func techStack(text string) []string {
	var stack []string
	seen := make(map[string]struct{})
	for _, ts := range techStackTerms {
		if strings.Contains(text, ts.term) {
			if _, dup := seen[ts.display]; dup {
				continue
			}
			seen[ts.display] = struct{}{}
			stack = append(stack, ts.display)
		}
	}
	return stack
}

// ExtractKeywords 规则版关键词提取：技术词优先，其余按词频补足
func (e *Engine) ExtractKeywords(p *domain.Project) *domain.KeywordResult {
	text := searchText(p)

	// 1. 先扫已知的 AI / 技术关键词，它们最能代表项目
	var primary []string
	seen := make(map[string]struct{})
	appendUnique := func(kw string) {
		kw = strings.ToLower(kw)
		if _, dup := seen[kw]; dup {
			return
		}
		seen[kw] = struct{}{}
		primary = append(primary, kw)
	}
	for _, kw := range e.aiKeywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			appendUnique(kw)
		}
	}
	for _, ts := range techStackTerms {
		if strings.Contains(text, ts.term) {
			appendUnique(ts.term)
		}
	}

	// 2. 再从描述里按词频提取普通词补足
	for _, word := range frequentWords(p.Description, e.minKeywordLength) {
		if len(primary) >= e.maxKeywords {
			break
		}
		appendUnique(word)
	}

	if len(primary) > e.maxKeywords {
		primary = primary[:e.maxKeywords]
	}

	categories := map[string][]string{}
	if stack := techStack(text); len(stack) > 0 {
		categories["技术栈"] = stack
	}
	if len(p.Tags) > 0 {
		categories["应用领域"] = append([]string(nil), p.Tags...)
	}
	if p.Language != "" {
		categories["编程语言"] = []string{p.Language}
	}

	return &domain.KeywordResult{
		Keywords:         primary,
		Categories:       categories,
		ExtractionMethod: "rules",
	}
}

// frequentWords 返回按频次降序（同频按字典序）的非停用词
func frequentWords(text string, minLen int) []string {
	freq := make(map[string]int)
	for _, word := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if len(word) < minLen {
			continue
		}
		if _, skip := stopwords[word]; skip {
			continue
		}
		freq[word]++
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] == freq[words[j]] {
			return words[i] < words[j]
		}
		return freq[words[i]] > freq[words[j]]
	})
	return words
}

// Summarize 规则版总结：把已有字段拼成一段可读描述，不编造内容
func (e *Engine) Summarize(p *domain.Project) *domain.SummaryResult {
	var sb strings.Builder
	sb.WriteString(p.Name)
	if p.Language != "" {
		sb.WriteString(fmt.Sprintf(" 是一个 %s 项目", p.Language))
	} else {
		sb.WriteString(" 是一个开源项目")
	}
	if p.Description != "" {
		sb.WriteString("：")
		sb.WriteString(p.Description)
	} else {
		sb.WriteString("。")
	}

	var highlights []string
	if p.Stars > 0 {
		highlights = append(highlights, fmt.Sprintf("%d stars", p.Stars))
	}
	if p.Forks > 0 {
		highlights = append(highlights, fmt.Sprintf("%d forks", p.Forks))
	}
	if p.Votes > 0 {
		highlights = append(highlights, fmt.Sprintf("%d votes", p.Votes))
	}
	if p.Language != "" {
		highlights = append(highlights, p.Language)
	}

	var useCases []string
	for _, tag := range p.Tags {
		useCases = append(useCases, tag)
		if len(useCases) >= 3 {
			break
		}
	}

	return &domain.SummaryResult{
		Summary:          sb.String(),
		Highlights:       highlights,
		UseCases:         useCases,
		GenerationMethod: "basic",
	}
}
