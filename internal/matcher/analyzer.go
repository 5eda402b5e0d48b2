package matcher

import (
	"io"
	"log"

	"ai-resume-go/internal/types"
)

// Analyzer 把投影、相似度、技能匹配和关键词密度组合为 MatchResult。
// 无状态，可被多个 goroutine 并发使用。
type Analyzer struct {
	scorer *TFIDFScorer
	logger *log.Logger
}

// AnalyzerOption Analyzer 的配置选项
type AnalyzerOption func(*Analyzer)

// WithScorer 替换相似度评分器
func WithScorer(s *TFIDFScorer) AnalyzerOption {
	return func(a *Analyzer) {
		if s != nil {
			a.scorer = s
		}
	}
}

// WithAnalyzerLogger 设置日志记录器
func WithAnalyzerLogger(logger *log.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// NewAnalyzer 创建 Analyzer
func NewAnalyzer(options ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		logger: log.New(io.Discard, "[MatchAnalyzer] ", log.LstdFlags),
	}
	for _, option := range options {
		option(a)
	}
	if a.scorer == nil {
		a.scorer = NewTFIDFScorer(WithScorerLogger(a.logger))
	}
	return a
}

// AnalyzeMatch 计算简历与岗位的匹配结果，不会失败
func (a *Analyzer) AnalyzeMatch(resume types.ParsedResume, job types.JobDescription) types.MatchResult {
	resumeText := ProjectResume(resume)
	jobText := ProjectJob(job)

	result := types.MatchResult{
		JobMatchScore:  a.scorer.Score(resumeText, jobText),
		SkillMatches:   MatchSkills(resume, job),
		MissingSkills:  MissingSkills(resume, job),
		KeywordDensity: KeywordDensity(resumeText, jobText),
	}
	a.logger.Printf("匹配分析完成: 分数=%.2f, 技能=%d, 缺失=%d, 关键词=%d",
		result.JobMatchScore, len(result.SkillMatches), len(result.MissingSkills), len(result.KeywordDensity))
	return result
}
