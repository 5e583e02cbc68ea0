package trend

import (
	"sort"
	"strings"
	"time"

	"ai-trend-radar/internal/domain"
)

// Analyzer 从一批已分类的项目里提炼趋势快照
// 纯计算，不落库，随时可以对任意项目集合重算
type Analyzer struct {
	topK               int
	emergingWindow     time.Duration // 新兴判定窗口的上限
	relevanceThreshold float64
}

func New(topK int, emergingWindow time.Duration, relevanceThreshold float64) *Analyzer {
	if topK <= 0 {
		topK = 10
	}
	if emergingWindow <= 0 {
		emergingWindow = 6 * time.Hour
	}
	return &Analyzer{
		topK:               topK,
		emergingWindow:     emergingWindow,
		relevanceThreshold: relevanceThreshold,
	}
}

// Analyze 统计语言分布、关键词频次，并挑出热门与新兴关键词
func (a *Analyzer) Analyze(projects []*domain.Project) *domain.TrendSnapshot {
	snapshot := &domain.TrendSnapshot{
		TotalProjects: len(projects),
		Languages:     make(map[string]int),
		KeywordFreq:   make(map[string]int),
	}

	// 每个关键词出现在哪些项目的抓取时间点上，用于判断是否新兴
	keywordTimes := make(map[string][]time.Time)

	for _, p := range projects {
		if p.IsAIRelated(a.relevanceThreshold) {
			snapshot.AIProjects++
		}

		lang := strings.ToLower(strings.TrimSpace(p.Language))
		if lang == "" {
			lang = "unknown"
		}
		snapshot.Languages[lang]++

		if p.Keywords == nil {
			continue
		}
		counted := make(map[string]struct{}, len(p.Keywords.Keywords))
		for _, kw := range p.Keywords.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			// 同一项目里重复的关键词只算一次
			if _, dup := counted[kw]; dup {
				continue
			}
			counted[kw] = struct{}{}
			snapshot.KeywordFreq[kw]++
			keywordTimes[kw] = append(keywordTimes[kw], p.CrawledAt)
		}
	}

	snapshot.Hot = topKeywords(snapshot.KeywordFreq, a.topK)
	snapshot.Emerging = a.emerging(snapshot.Hot, keywordTimes)
	return snapshot
}

// topKeywords 按频次降序取前 k 个，同频按字典序保证结果稳定
func topKeywords(freq map[string]int, k int) []string {
	keywords := make([]string, 0, len(freq))
	for kw := range freq {
		keywords = append(keywords, kw)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if freq[keywords[i]] == freq[keywords[j]] {
			return keywords[i] < keywords[j]
		}
		return freq[keywords[i]] > freq[keywords[j]]
	})
	if len(keywords) > k {
		keywords = keywords[:k]
	}
	return keywords
}

// emerging 从热门关键词里筛出“最近才冒头”的子集
// 新旧是相对这批语料本身的：取语料时间跨度最近的四分之一（不超过配置窗口），
// 中位数落在其中的关键词才算新兴；所有项目同一时刻抓取时没有早晚可言，返回空
func (a *Analyzer) emerging(hot []string, keywordTimes map[string][]time.Time) []string {
	var earliest, latest time.Time
	for _, times := range keywordTimes {
		for _, ts := range times {
			if earliest.IsZero() || ts.Before(earliest) {
				earliest = ts
			}
			if ts.After(latest) {
				latest = ts
			}
		}
	}

	span := latest.Sub(earliest)
	if span <= 0 {
		return nil
	}
	window := span / 4
	if window > a.emergingWindow {
		window = a.emergingWindow
	}
	cutoff := latest.Add(-window)

	var emerging []string
	for _, kw := range hot {
		times := keywordTimes[kw]
		if len(times) == 0 {
			continue
		}
		if !median(times).Before(cutoff) {
			emerging = append(emerging, kw)
		}
	}
	return emerging
}

func median(times []time.Time) time.Time {
	sorted := append([]time.Time(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return sorted[len(sorted)/2]
}
