package parser

import (
	"strings"

	"ai-resume-go/internal/types"
)

// SectionKeywords 章节 -> 识别该章节标题的关键词（小写）
type SectionKeywords map[types.Section][]string

// DefaultSectionKeywords 英文简历常见的章节标题关键词
var DefaultSectionKeywords = SectionKeywords{
	types.SectionExperience:     {"experience", "work history", "employment", "professional experience"},
	types.SectionEducation:      {"education", "academic", "qualifications"},
	types.SectionSkills:         {"skills", "technical skills", "competencies", "technologies"},
	types.SectionProjects:       {"projects", "portfolio", "personal projects"},
	types.SectionCertifications: {"certifications", "certificates", "licenses"},
}

// Clone 返回一份可以独立修改的副本
func (k SectionKeywords) Clone() SectionKeywords {
	out := make(SectionKeywords, len(k))
	for s, kws := range k {
		out[s] = append([]string(nil), kws...)
	}
	return out
}

// Matches 判断行中是否包含该章节的任一关键词（不区分大小写）
func (k SectionKeywords) Matches(section types.Section, line string) bool {
	return ContainsAny(line, k[section]...)
}

// Segmenter 基于关键词定位各章节的起始行。
// 每个章节独立地从第一行开始扫描，取第一次命中的位置。
type Segmenter struct {
	Keywords SectionKeywords
}

// NewSegmenter 使用给定关键词表创建 Segmenter，nil 时使用默认表
func NewSegmenter(keywords SectionKeywords) *Segmenter {
	if keywords == nil {
		keywords = DefaultSectionKeywords
	}
	return &Segmenter{Keywords: keywords}
}

// Start 返回章节标题所在行的下标，未找到返回 -1
func (s *Segmenter) Start(lines []string, section types.Section) int {
	for i, line := range lines {
		if s.Keywords.Matches(section, line) {
			return i
		}
	}
	return -1
}

// Locate 返回 types.AllSections 以及关键词表中额外章节的起始行，未找到的章节值为 -1
func (s *Segmenter) Locate(lines []string) map[types.Section]int {
	out := make(map[types.Section]int, len(types.AllSections)+len(s.Keywords))
	for _, section := range types.AllSections {
		out[section] = s.Start(lines, section)
	}
	for section := range s.Keywords {
		if _, ok := out[section]; !ok {
			out[section] = s.Start(lines, section)
		}
	}
	return out
}

// SplitLines 按换行拆分文本，去掉首尾空白并丢弃空行
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if t := strings.TrimSpace(l); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

// ContainsAny 不区分大小写地判断 line 是否包含任一关键词
func ContainsAny(line string, keywords ...string) bool {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// window 返回章节标题之后、窗口范围内的行。
// size 从标题行起算，size <= 0 表示直到末尾。
func window(lines []string, start, size int) []string {
	if start < 0 || start >= len(lines) {
		return nil
	}
	end := len(lines)
	if size > 0 && start+size < end {
		end = start + size
	}
	return lines[start+1 : end]
}
