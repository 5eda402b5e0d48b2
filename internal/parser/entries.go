package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"ai-resume-go/internal/types"
	"ai-resume-go/pkg/utils"
)

// 各章节在标题行之后向下扫描的行数上限（含标题行），0 表示直到文末
const (
	ExperienceWindow     = 0
	EducationWindow      = 20
	ProjectsWindow       = 20
	SkillsWindow         = 15
	CertificationsWindow = 15

	// MaxSkills 技能章节最多收集的技能数
	MaxSkills = 20
)

// jobTitleIndicators 出现在职位名称中的常见词
var jobTitleIndicators = []string{
	"engineer", "developer", "manager", "analyst",
	"specialist", "coordinator", "director", "lead",
}

var (
	dateRangePattern = regexp.MustCompile(
		`\d{4}\s*[-–]\s*\d{4}` +
			`|\d{4}\s*[-–]\s*present` +
			`|\w+\s+\d{4}\s*[-–]\s*\w+\s+\d{4}` +
			`|\w+\s+\d{4}\s*[-–]\s*present`)

	degreePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(bachelor|master|phd|doctorate|associate|diploma|certificate)\b`),
		regexp.MustCompile(`\b(b\.?s\.?|m\.?s\.?|m\.?a\.?|ph\.?d\.?|b\.?a\.?)\b`),
	}

	skillDelimiters = regexp.MustCompile(`[,;•\-|]`)
)

// fallbackSkillVocabulary 简历中没有技能章节时，在全文中查找的常见技能
var fallbackSkillVocabulary = []string{
	"python", "java", "javascript", "react", "node.js", "sql", "html", "css",
	"git", "docker", "kubernetes", "aws", "azure", "linux", "windows",
	"machine learning", "data analysis", "project management", "agile",
	"scrum", "leadership", "communication", "problem solving",
}

// IsJobTitleLine 行中是否包含职位关键词
func IsJobTitleLine(line string) bool {
	return ContainsAny(line, jobTitleIndicators...)
}

// ContainsDateRange 行中是否包含时间段，如 2019-2021、Jan 2020 - Present
func ContainsDateRange(line string) bool {
	return dateRangePattern.MatchString(strings.ToLower(line))
}

// IsDegreeLine 行中是否包含学位名称或缩写
func IsDegreeLine(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range degreePatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

// IsBulletLine 是否以项目符号开头
func IsBulletLine(line string) bool {
	return strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-")
}

// StripBullet 去掉行首的所有项目符号并裁剪空白
func StripBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "•-"))
}

// HasCapitalizedWord 是否存在首字母大写的单词
func HasCapitalizedWord(line string) bool {
	for _, w := range strings.Fields(line) {
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func appendSpaced(dst, s string) string {
	if dst == "" {
		return s
	}
	return dst + " " + s
}

// ParseExperience 把工作经历章节的行分组为条目。
// 第一条职位行之前的内容会被忽略。
func ParseExperience(lines []string) []types.ExperienceEntry {
	entries := []types.ExperienceEntry{}
	var current *types.ExperienceEntry

	flush := func() {
		if current != nil {
			entries = append(entries, *current)
		}
	}

	for _, line := range lines {
		switch {
		case IsJobTitleLine(line):
			flush()
			current = &types.ExperienceEntry{Title: line, Responsibilities: []string{}}
		case current == nil:
			continue
		case ContainsDateRange(line):
			current.Duration = line
		case IsBulletLine(line):
			current.Responsibilities = append(current.Responsibilities, StripBullet(line))
		default:
			current.Description = appendSpaced(current.Description, line)
		}
	}
	flush()
	return entries
}

// ParseEducation 把教育章节的行分组为条目。
// 学位行开启新条目；之后的时间段行设置年份，第一条含大写单词的行设置院校。
func ParseEducation(lines []string) []types.EducationEntry {
	entries := []types.EducationEntry{}
	var current *types.EducationEntry

	for _, line := range lines {
		if IsDegreeLine(line) {
			if current != nil {
				entries = append(entries, *current)
			}
			current = &types.EducationEntry{Degree: line}
			continue
		}
		if current == nil {
			continue
		}
		if ContainsDateRange(line) {
			current.Year = line
		} else if current.Institution == "" && HasCapitalizedWord(line) {
			current.Institution = line
		}
	}
	if current != nil {
		entries = append(entries, *current)
	}
	return entries
}

// ParseProjects 非项目符号行开启新项目，项目符号行追加到描述
func ParseProjects(lines []string) []types.ProjectEntry {
	entries := []types.ProjectEntry{}
	var current *types.ProjectEntry

	for _, line := range lines {
		if !IsBulletLine(line) {
			if current != nil {
				entries = append(entries, *current)
			}
			current = &types.ProjectEntry{Name: line}
			continue
		}
		if current != nil {
			current.Description = appendSpaced(current.Description, StripBullet(line))
		}
	}
	if current != nil {
		entries = append(entries, *current)
	}
	return entries
}

// ParseCertifications 窗口内不像其他章节标题的行原样作为证书
func ParseCertifications(lines []string) []string {
	certs := []string{}
	for _, line := range lines {
		if ContainsAny(line, string(types.SectionExperience), string(types.SectionEducation), string(types.SectionSkills)) {
			continue
		}
		certs = append(certs, line)
	}
	return certs
}

// ParseSkills 按分隔符拆分技能行，遇到下一章节标题即停止，最多 MaxSkills 个
func ParseSkills(lines []string) []string {
	skills := []string{}
	for _, line := range lines {
		if ContainsAny(line, string(types.SectionExperience), string(types.SectionEducation), string(types.SectionProjects)) {
			break
		}
		for _, part := range skillDelimiters.Split(line, -1) {
			token := strings.TrimSpace(part)
			if utf8.RuneCountInString(token) <= 1 {
				continue
			}
			skills = append(skills, token)
			if len(skills) == MaxSkills {
				return skills
			}
		}
	}
	return skills
}

// FallbackSkills 在全文中查找常见技能词，结果首字母大写
func FallbackSkills(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, skill := range fallbackSkillVocabulary {
		if strings.Contains(lower, skill) {
			found = append(found, utils.TitleCase(skill))
		}
	}
	return found
}
