package matcher

import (
	"math"
	"sort"
	"unicode/utf8"

	"ai-resume-go/internal/types"
)

// MaxKeywords 关键词密度表最多包含的关键词数
const MaxKeywords = 20

// TopKeywords 岗位文本中去掉停用词和长度不超过 2 的词后，词频最高的前 n 个词。
// 同频词按首次出现顺序。
func TopKeywords(jobText string, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, tok := range Tokenize(jobText) {
		if utf8.RuneCountInString(tok) <= 2 || KeywordStopWords.Contains(tok) {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// KeywordDensity 计算岗位高频关键词在简历文本中的出现密度（百分比，保留两位小数）
func KeywordDensity(resumeText, jobText string) types.KeywordDensity {
	keywords := TopKeywords(jobText, MaxKeywords)

	resumeTokens := Tokenize(resumeText)
	resumeCounts := make(map[string]int, len(resumeTokens))
	for _, tok := range resumeTokens {
		resumeCounts[tok]++
	}

	density := make(types.KeywordDensity, 0, len(keywords))
	for _, kw := range keywords {
		var d float64
		if len(resumeTokens) > 0 {
			d = roundTo(100*float64(resumeCounts[kw])/float64(len(resumeTokens)), 2)
		}
		density = append(density, types.KeywordScore{Keyword: kw, Density: d})
	}
	return density
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
