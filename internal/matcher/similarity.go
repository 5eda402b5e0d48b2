package matcher

import (
	"fmt"
	"io"
	"log"
	"math"
	"sort"

	"ai-resume-go/internal/types"
)

// DefaultMaxFeatures 词表上限
const DefaultMaxFeatures = 1000

// TFIDFScorer 在两篇文档组成的语料上做 TF-IDF 向量化并计算余弦相似度
type TFIDFScorer struct {
	MaxFeatures int
	StopWords   StopWords
	logger      *log.Logger
}

// ScorerOption TFIDFScorer 的配置选项
type ScorerOption func(*TFIDFScorer)

// WithMaxFeatures 设置词表上限，n <= 0 时保留默认值
func WithMaxFeatures(n int) ScorerOption {
	return func(s *TFIDFScorer) {
		if n > 0 {
			s.MaxFeatures = n
		}
	}
}

// WithScorerLogger 设置日志记录器
func WithScorerLogger(logger *log.Logger) ScorerOption {
	return func(s *TFIDFScorer) {
		s.logger = logger
	}
}

// NewTFIDFScorer 创建使用默认停用词和词表上限的评分器
func NewTFIDFScorer(options ...ScorerOption) *TFIDFScorer {
	s := &TFIDFScorer{
		MaxFeatures: DefaultMaxFeatures,
		StopWords:   VectorizerStopWords,
		logger:      log.New(io.Discard, "[TFIDFScorer] ", log.LstdFlags),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Score 返回 [0,100] 的匹配分数，退化情况返回 0
func (s *TFIDFScorer) Score(resumeText, jobText string) float64 {
	sim, err := s.Similarity(resumeText, jobText)
	if err != nil {
		s.logger.Printf("相似度计算退化，按 0 分处理: %v", err)
		return 0
	}
	return math.Min(math.Max(sim*100, 0), 100)
}

// Similarity 返回两段文本的余弦相似度。
// 任一文档在去掉停用词后为空、或词表为空时返回 ErrScoringDegenerate。
func (s *TFIDFScorer) Similarity(a, b string) (float64, error) {
	docs := [2]map[string]int{termCounts(vectorizerTokens(a, s.StopWords)), termCounts(vectorizerTokens(b, s.StopWords))}
	if len(docs[0]) == 0 || len(docs[1]) == 0 {
		return 0, fmt.Errorf("%w: 文档去除停用词后为空", types.ErrScoringDegenerate)
	}

	vocab := s.vocabulary(docs[:])
	if len(vocab) == 0 {
		return 0, fmt.Errorf("%w: 词表为空", types.ErrScoringDegenerate)
	}

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for i, term := range vocab {
		df := 0
		for _, d := range docs {
			if d[term] > 0 {
				df++
			}
		}
		idf[i] = math.Log((1+n)/(1+float64(df))) + 1
	}

	va := weightVector(docs[0], vocab, idf)
	vb := weightVector(docs[1], vocab, idf)

	var dot float64
	for i := range va {
		dot += va[i] * vb[i]
	}
	if math.IsNaN(dot) || math.IsInf(dot, 0) {
		return 0, fmt.Errorf("%w: 相似度非法 %v", types.ErrScoringDegenerate, dot)
	}
	return dot, nil
}

// vocabulary 按文档频率（其次总词频、字母序）选出前 MaxFeatures 个词
func (s *TFIDFScorer) vocabulary(docs []map[string]int) []string {
	df := make(map[string]int)
	tf := make(map[string]int)
	for _, d := range docs {
		for term, c := range d {
			df[term]++
			tf[term] += c
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		ti, tj := terms[i], terms[j]
		if df[ti] != df[tj] {
			return df[ti] > df[tj]
		}
		if tf[ti] != tf[tj] {
			return tf[ti] > tf[tj]
		}
		return ti < tj
	})
	if s.MaxFeatures > 0 && len(terms) > s.MaxFeatures {
		terms = terms[:s.MaxFeatures]
	}
	sort.Strings(terms)
	return terms
}

func termCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

// weightVector 计算 L2 归一化后的 tf-idf 向量，全零时返回零向量
func weightVector(counts map[string]int, vocab []string, idf []float64) []float64 {
	v := make([]float64, len(vocab))
	var norm float64
	for i, term := range vocab {
		w := float64(counts[term]) * idf[i]
		v[i] = w
		norm += w * w
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}
