package standardizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ai-trend-radar/internal/common"
	"ai-trend-radar/internal/domain"
)

// Standardizer 把各数据源的原始记录映射成统一的 Project
// 纯内存转换：不做网络调用，不做 AI 调用
type Standardizer struct {
	nowFunc func() time.Time
}

// New 创建标准化器
func New() *Standardizer {
	return &Standardizer{nowFunc: time.Now}
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	trackingRe   = regexp.MustCompile(`[?&](utm_[^=&]*|ref|source)=[^&]*`)
	digitsRe     = regexp.MustCompile(`\d+`)
)

// 语言名称标准化映射：各站点写法五花八门，统一成常见名称
var languageAliases = map[string]string{
	"js":      "JavaScript",
	"node":    "JavaScript",
	"nodejs":  "JavaScript",
	"ts":      "TypeScript",
	"py":      "Python",
	"golang":  "Go",
	"cpp":     "C++",
	"c#":      "CSharp",
	"c sharp": "CSharp",
}

const maxTags = 10

// Standardize 把单条原始记录转成 Project
// 可选字段缺失时填默认值，绝不报错；只有 name 和 url 都推导不出来时
// 才返回 MALFORMED_RECORD，由调用方丢弃该条并继续处理批次
func (s *Standardizer) Standardize(rec *domain.RawRecord) (*domain.Project, error) {
	if rec == nil || rec.Source == "" {
		return nil, common.NewError(common.ErrCodeMalformedRecord, "记录缺少数据源标签")
	}

	payload := rec.Payload
	name := cleanText(stringField(payload, "name"))
	url := cleanURL(stringField(payload, "url"))

	if name == "" && url == "" {
		return nil, common.NewError(common.ErrCodeMalformedRecord,
			fmt.Sprintf("来自 %s 的记录既没有名称也没有 URL", rec.Source))
	}
	// 只缺一边时尽量补全：URL 可以兜底当名称用
	if name == "" {
		name = url
	}
	if url == "" {
		return nil, common.NewError(common.ErrCodeMalformedRecord,
			fmt.Sprintf("记录 %q 缺少 URL", name))
	}

	project := &domain.Project{
		Name:        name,
		Description: cleanText(stringField(payload, "description")),
		URL:         url,
		Author:      cleanText(stringField(payload, "author")),
		Source:      rec.Source,
		// 数字字段显式归一化：非数字内容取 0，绝不让整条记录失败
		Stars:     coerceCount(payload["stars"]),
		Forks:     coerceCount(payload["forks"]),
		Votes:     coerceCount(payload["votes"]),
		Language:  normalizeLanguage(stringField(payload, "language")),
		Tags:      cleanTags(tagField(payload)),
		CreatedAt: timeField(payload, "created_at"),
		UpdatedAt: timeField(payload, "updated_at"),
		CrawledAt: s.nowFunc(),
		RawData:   payload,
	}

	return project, nil
}

// StandardizeBatch 批量标准化，畸形记录被跳过并返回丢弃数
func (s *Standardizer) StandardizeBatch(records []*domain.RawRecord) (projects []*domain.Project, dropped int) {
	for _, rec := range records {
		p, err := s.Standardize(rec)
		if err != nil {
			dropped++
			continue
		}
		projects = append(projects, p)
	}
	return projects, dropped
}

func stringField(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

func tagField(payload map[string]any) []string {
	if payload == nil {
		return nil
	}
	switch v := payload["tags"].(type) {
	case []string:
		return v
	case []any:
		var tags []string
		for _, item := range v {
			if str, ok := item.(string); ok {
				tags = append(tags, str)
			}
		}
		return tags
	}
	return nil
}

func timeField(payload map[string]any, key string) time.Time {
	if payload == nil {
		return time.Time{}
	}
	switch v := payload[key].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts
			}
		}
	}
	return time.Time{}
}

// coerceCount 把 star/fork/vote 的各种写法转成非负整数
// "1.2k" -> 1200, "3,456" -> 3456, 乱七八糟的内容 -> 0
func coerceCount(v any) int {
	switch n := v.(type) {
	case int:
		return max(0, n)
	case int64:
		return max(0, int(n))
	case float64:
		return max(0, int(n))
	case string:
		return parseCountString(n)
	}
	return 0
}

func parseCountString(raw string) int {
	raw = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(raw, ",", "")))
	if raw == "" {
		return 0
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(raw, "k"):
		multiplier = 1_000
		raw = strings.TrimSuffix(raw, "k")
	case strings.HasSuffix(raw, "m"):
		multiplier = 1_000_000
		raw = strings.TrimSuffix(raw, "m")
	}

	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		if f < 0 {
			return 0
		}
		return int(f * multiplier)
	}

	// 退而求其次：取字符串里的第一段数字
	if m := digitsRe.FindString(raw); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return 0
}

func cleanText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

func cleanURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
	case strings.HasPrefix(url, "//"):
		url = "https:" + url
	case strings.HasPrefix(url, "/"):
		// 相对路径无法补全站点，保留原样交给上游适配器处理
		return url
	default:
		url = "https://" + url
	}

	// 去掉跟踪参数
	url = trackingRe.ReplaceAllString(url, "")
	return strings.TrimSuffix(url, "?")
}

func normalizeLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return ""
	}
	if canonical, ok := languageAliases[language]; ok {
		return canonical
	}
	runes := []rune(language)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tags))
	var cleaned []string
	for _, tag := range tags {
		tag = strings.ToLower(cleanText(tag))
		if len(tag) < 2 {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		cleaned = append(cleaned, tag)
		if len(cleaned) >= maxTags {
			break
		}
	}
	return cleaned
}
