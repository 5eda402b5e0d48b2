package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"

	"ai-resume-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// CustomizationLevel 简历定制的改动幅度
type CustomizationLevel string

const (
	LevelLight    CustomizationLevel = "light"
	LevelModerate CustomizationLevel = "moderate"
	LevelHeavy    CustomizationLevel = "heavy"
)

var levelInstructions = map[CustomizationLevel]string{
	LevelLight:    "Make minimal changes, focus on keyword optimization and summary adjustment",
	LevelModerate: "Make moderate changes including rephrasing experience descriptions and optimizing skills",
	LevelHeavy:    "Make significant changes including restructuring content and adding relevant details",
}

// ParseCustomizationLevel 解析定制级别，空字符串视为 moderate
func ParseCustomizationLevel(s string) (CustomizationLevel, error) {
	level := CustomizationLevel(strings.ToLower(strings.TrimSpace(s)))
	if level == "" {
		return LevelModerate, nil
	}
	if _, ok := levelInstructions[level]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCustomizationLevel, s)
	}
	return level, nil
}

// Instruction 返回该级别对应的改写要求
func (l CustomizationLevel) Instruction() string {
	return levelInstructions[l]
}

// RewriteRequest 一次改写所需的全部输入
type RewriteRequest struct {
	Resume   types.ParsedResume
	Job      types.JobDescription
	Analysis types.MatchResult
	Level    CustomizationLevel
}

// Rewriter 把简历改写得更贴合职位。
// 返回错误时调用方应回退到原简历。
type Rewriter interface {
	Rewrite(ctx context.Context, req RewriteRequest) (*types.ParsedResume, error)
}

const (
	rewriteTemperature float32 = 0.5
	defaultRewriteTokens       = 2000
)

// LLMRewriter 基于大模型的简历改写器
type LLMRewriter struct {
	model     model.ToolCallingChatModel
	maxTokens int
	logger    *log.Logger
}

// RewriterOption 配置 LLMRewriter
type RewriterOption func(*LLMRewriter)

// WithRewriterLogger 设置日志记录器
func WithRewriterLogger(logger *log.Logger) RewriterOption {
	return func(r *LLMRewriter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRewriteMaxTokens 设置改写回复的最大 token 数
func WithRewriteMaxTokens(n int) RewriterOption {
	return func(r *LLMRewriter) {
		if n > 0 {
			r.maxTokens = n
		}
	}
}

// NewLLMRewriter 创建改写器
func NewLLMRewriter(chatModel model.ToolCallingChatModel, options ...RewriterOption) *LLMRewriter {
	r := &LLMRewriter{
		model:     chatModel,
		maxTokens: defaultRewriteTokens,
		logger:    log.New(io.Discard, "[LLMRewriter] ", log.LstdFlags),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Rewrite 调用大模型改写简历，回复中找不到可用的 JSON 对象时返回 ErrRewriteUnusable
func (r *LLMRewriter) Rewrite(ctx context.Context, req RewriteRequest) (*types.ParsedResume, error) {
	if r.model == nil {
		return nil, fmt.Errorf("%w: 未配置模型", ErrRewriteUnusable)
	}
	if req.Level.Instruction() == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCustomizationLevel, req.Level)
	}

	prompt, err := buildRewritePrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := r.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)},
		model.WithTemperature(rewriteTemperature),
		model.WithMaxTokens(r.maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("调用模型改写简历失败: %w", err)
	}

	jsonStr, ok := ExtractJSONObject(resp.Content)
	if !ok {
		r.logger.Printf("模型回复中没有 JSON 对象，回复长度 %d", len(resp.Content))
		return nil, fmt.Errorf("%w: 回复中没有 JSON 对象", ErrRewriteUnusable)
	}

	var customized types.ParsedResume
	if err := json.Unmarshal([]byte(jsonStr), &customized); err != nil {
		r.logger.Printf("解析模型回复失败: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrRewriteUnusable, err)
	}
	if customized.RawText == "" {
		customized.RawText = req.Resume.RawText
	}
	customized.Normalize()
	if customized.IsEmpty() {
		return nil, fmt.Errorf("%w: 改写结果为空", ErrRewriteUnusable)
	}
	return &customized, nil
}

func buildRewritePrompt(req RewriteRequest) (string, error) {
	resumeJSON, err := json.MarshalIndent(req.Resume, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化简历失败: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Customize this resume for the following job opportunity.\n")
	fmt.Fprintf(&b, "Customization Level: %s - %s\n\n", req.Level, req.Level.Instruction())
	fmt.Fprintf(&b, "Job Title: %s\n", req.Job.Title)
	fmt.Fprintf(&b, "Company: %s\n", req.Job.Company)
	fmt.Fprintf(&b, "Job Description: %s\n\n", req.Job.Description)
	fmt.Fprintf(&b, "Required Skills: %s\n", strings.Join(req.Job.SkillsRequired, ", "))
	fmt.Fprintf(&b, "Requirements: %s\n\n", strings.Join(req.Job.Requirements, ", "))
	fmt.Fprintf(&b, "Current Resume:\n%s\n\n", resumeJSON)
	fmt.Fprintf(&b, "Current Match Score: %.1f%%\n", req.Analysis.JobMatchScore)
	fmt.Fprintf(&b, "Missing Skills: %s\n\n", strings.Join(req.Analysis.MissingSkills, ", "))
	b.WriteString("Return the customized resume in the same JSON format, making improvements to increase job match while maintaining truthfulness. Focus on:\n")
	b.WriteString("1. Optimizing the professional summary\n")
	b.WriteString("2. Rephrasing experience descriptions to highlight relevant skills\n")
	b.WriteString("3. Reorganizing skills to prioritize job-relevant ones\n")
	b.WriteString("4. Adding relevant keywords naturally\n\n")
	b.WriteString("Return only the JSON object:\n")
	return b.String(), nil
}

// ExtractJSONObject 截取第一个 '{' 到最后一个 '}' 之间的内容
func ExtractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// TrackChanges 对比改写前后的简历，给出人类可读的改动说明
func TrackChanges(original, customized types.ParsedResume) []string {
	var changes []string

	if original.PersonalInfo.Summary != customized.PersonalInfo.Summary {
		changes = append(changes, "Updated professional summary")
	}
	if !slices.Equal(original.Skills, customized.Skills) {
		changes = append(changes, "Reorganized and optimized skills section")
	}
	if len(original.Experience) == len(customized.Experience) {
		for i, orig := range original.Experience {
			if orig.Description != customized.Experience[i].Description {
				title := orig.Title
				if title == "" {
					title = "position"
				}
				changes = append(changes, fmt.Sprintf("Enhanced description for %s role", title))
			}
		}
	}

	if len(changes) == 0 {
		changes = append(changes, "Minor keyword and formatting optimizations")
	}
	return changes
}

// CustomizationSuggestions 定制完成后给出的后续建议
func CustomizationSuggestions(analysis types.MatchResult) []string {
	suggestions := []string{
		"Review and verify all customized content for accuracy",
		"Consider adding specific metrics and achievements",
		"Tailor your cover letter to complement the customized resume",
	}
	if analysis.JobMatchScore < 70 {
		suggestions = append(suggestions, "Consider gaining experience in missing key skills")
	}
	if len(analysis.MissingSkills) > 3 {
		suggestions = append(suggestions, "Focus on developing the most critical missing skills")
	}
	return suggestions
}
