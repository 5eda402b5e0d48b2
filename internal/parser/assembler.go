package parser

import (
	"fmt"
	"io"
	"log"
	"runtime/debug"

	"ai-resume-go/internal/types"
)

// DefaultResumeTitle 既没有姓名也没有文件名时使用的标题
const DefaultResumeTitle = "Resume"

// DefaultWindows 各章节的默认扫描窗口
var DefaultWindows = map[types.Section]int{
	types.SectionExperience:     ExperienceWindow,
	types.SectionEducation:      EducationWindow,
	types.SectionProjects:       ProjectsWindow,
	types.SectionSkills:         SkillsWindow,
	types.SectionCertifications: CertificationsWindow,
}

// Assembler 把分段、条目解析和联系人提取组合成 ParsedResume，自身从不返回错误
type Assembler struct {
	segmenter *Segmenter
	windows   map[types.Section]int
	logger    *log.Logger
}

// AssemblerOption Assembler 的配置选项
type AssemblerOption func(*Assembler)

// WithSectionKeywords 替换章节关键词表
func WithSectionKeywords(keywords SectionKeywords) AssemblerOption {
	return func(a *Assembler) {
		a.segmenter = NewSegmenter(keywords)
	}
}

// WithSectionWindow 修改某个章节的扫描窗口
func WithSectionWindow(section types.Section, size int) AssemblerOption {
	return func(a *Assembler) {
		a.windows[section] = size
	}
}

// WithAssemblerLogger 设置日志记录器
func WithAssemblerLogger(logger *log.Logger) AssemblerOption {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// NewAssembler 创建 Assembler
func NewAssembler(options ...AssemblerOption) *Assembler {
	a := &Assembler{
		segmenter: NewSegmenter(DefaultSectionKeywords),
		windows:   make(map[types.Section]int, len(DefaultWindows)),
		logger:    log.New(io.Discard, "[ResumeAssembler] ", log.LstdFlags),
	}
	for s, w := range DefaultWindows {
		a.windows[s] = w
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// Assemble 从提取出的文本构建结构化简历。
// 任何阶段出现异常都会得到一个只保留 RawText 并设置了 ParseError 的结果。
func (a *Assembler) Assemble(text string) (result types.ParsedResume) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Printf("简历结构化解析异常: %v\n%s", r, debug.Stack())
			result = a.AssembleDegraded(text, fmt.Errorf("%w: %v", types.ErrExtractionDegraded, r), "")
		}
	}()

	lines := SplitLines(text)
	result = types.NewParsedResume(text)
	result.PersonalInfo = ExtractPersonalInfo(lines)

	starts := a.segmenter.Locate(lines)
	section := func(s types.Section) []string {
		start, ok := starts[s]
		if !ok || start < 0 {
			return nil
		}
		return window(lines, start, a.windows[s])
	}

	result.Experience = ParseExperience(section(types.SectionExperience))
	result.Education = ParseEducation(section(types.SectionEducation))
	if start, ok := starts[types.SectionSkills]; ok && start >= 0 {
		result.Skills = ParseSkills(section(types.SectionSkills))
	} else {
		result.Skills = FallbackSkills(text)
	}
	result.Projects = ParseProjects(section(types.SectionProjects))
	result.Certifications = ParseCertifications(section(types.SectionCertifications))
	result.Title = DeriveTitle(result.PersonalInfo, "")
	return result
}

// AssembleDegraded 构建提取失败时的结果：结构化字段全部为空，保留原始文本并记录错误
func (a *Assembler) AssembleDegraded(rawText string, err error, fallbackTitle string) types.ParsedResume {
	result := types.NewParsedResume(rawText)
	result.Title = DeriveTitle(types.PersonalInfo{}, fallbackTitle)
	if err != nil {
		result.ParseError = err.Error()
	} else {
		result.ParseError = types.ErrExtractionDegraded.Error()
	}
	return result
}

// DeriveTitle 生成显示标题："姓名 - 职位"，否则姓名，否则 fallback，最后是 "Resume"
func DeriveTitle(info types.PersonalInfo, fallback string) string {
	switch {
	case info.Name != "" && info.Title != "":
		return info.Name + " - " + info.Title
	case info.Name != "":
		return info.Name
	case fallback != "":
		return fallback
	default:
		return DefaultResumeTitle
	}
}
