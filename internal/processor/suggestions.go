package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode"

	"ai-resume-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FallbackSuggestion 模型不可用时返回的唯一建议
const FallbackSuggestion = "Unable to generate suggestions at this time."

const (
	maxSuggestions                = 5
	suggestionTemperature float32 = 0.7
	suggestionMaxTokens           = 500
)

// SuggestionGenerator 针对职位生成简历改进建议，失败时也必须返回可展示的内容
type SuggestionGenerator interface {
	Suggest(ctx context.Context, resume types.ParsedResume, job types.JobDescription, missingSkills []string) []string
}

// LLMSuggestionGenerator 基于大模型生成改进建议
type LLMSuggestionGenerator struct {
	model  model.ToolCallingChatModel
	logger *log.Logger
}

// NewLLMSuggestionGenerator 创建建议生成器，logger 为 nil 时丢弃日志
func NewLLMSuggestionGenerator(chatModel model.ToolCallingChatModel, logger *log.Logger) *LLMSuggestionGenerator {
	if logger == nil {
		logger = log.New(io.Discard, "[Suggestions] ", log.LstdFlags)
	}
	return &LLMSuggestionGenerator{model: chatModel, logger: logger}
}

// Suggest 最多返回 5 条建议
func (g *LLMSuggestionGenerator) Suggest(ctx context.Context, resume types.ParsedResume, job types.JobDescription, missingSkills []string) []string {
	if g.model == nil {
		return []string{FallbackSuggestion}
	}

	prompt, err := buildSuggestionPrompt(resume, job, missingSkills)
	if err != nil {
		g.logger.Printf("构建建议提示词失败: %v", err)
		return []string{FallbackSuggestion}
	}

	resp, err := g.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)},
		model.WithTemperature(suggestionTemperature),
		model.WithMaxTokens(suggestionMaxTokens),
	)
	if err != nil {
		g.logger.Printf("生成改进建议失败: %v", err)
		return []string{FallbackSuggestion}
	}
	return SplitSuggestions(resp.Content, maxSuggestions)
}

func buildSuggestionPrompt(resume types.ParsedResume, job types.JobDescription, missingSkills []string) (string, error) {
	resumeJSON, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化简历失败: %w", err)
	}

	var b strings.Builder
	b.WriteString("Analyze this resume against the job description and provide specific improvement suggestions.\n\n")
	fmt.Fprintf(&b, "Job Title: %s\n", job.Title)
	fmt.Fprintf(&b, "Company: %s\n\n", job.Company)
	fmt.Fprintf(&b, "Job Requirements:\n%s\n\n", strings.Join(job.Requirements, " "))
	fmt.Fprintf(&b, "Required Skills:\n%s\n\n", strings.Join(job.SkillsRequired, " "))
	fmt.Fprintf(&b, "Resume Summary:\n%s\n\n", resumeJSON)
	fmt.Fprintf(&b, "Missing Skills: %s\n\n", strings.Join(missingSkills, ", "))
	b.WriteString("Provide 5 specific, actionable suggestions to improve this resume for this job:\n")
	return b.String(), nil
}

// SplitSuggestions 按行拆分模型回复，丢弃空行和纯数字行，最多保留 limit 条
func SplitSuggestions(text string, limit int) []string {
	suggestions := make([]string, 0, limit)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isDigits(line) {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) == limit {
			break
		}
	}
	return suggestions
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// GenericJobDescription 没有指定职位时用于生成通用建议
func GenericJobDescription() types.JobDescription {
	return types.JobDescription{
		Title:       "General Position",
		Company:     "Various Companies",
		Description: "General professional position requiring relevant skills and experience",
		Requirements: []string{
			"Relevant experience",
			"Strong communication skills",
			"Problem-solving abilities",
		},
		SkillsRequired: []string{"Communication", "Leadership", "Problem Solving", "Teamwork"},
	}
}
