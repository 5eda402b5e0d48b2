package parser

import (
	"fmt"
	"testing"

	"ai-resume-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExperienceSeniorEngineerScenario(t *testing.T) {
	lines := []string{"Senior Software Engineer", "Jan 2020 - Present", "• Led a team of 5"}

	entries := ParseExperience(lines)
	require.Len(t, entries, 1)
	assert.Equal(t, "Senior Software Engineer", entries[0].Title)
	assert.Equal(t, "Jan 2020 - Present", entries[0].Duration)
	assert.Equal(t, []string{"Led a team of 5"}, entries[0].Responsibilities)
	assert.Empty(t, entries[0].Description)
}

func TestParseExperienceGroupsEntries(t *testing.T) {
	lines := []string{
		"Summary line before any title",
		"Backend Developer",
		"2018 – 2020",
		"Worked on billing",
		"and invoicing",
		"- Wrote Go services",
		"Data Analyst",
		"-- Built dashboards",
	}

	entries := ParseExperience(lines)
	require.Len(t, entries, 2, "第一条职位行之前的内容应被忽略")

	assert.Equal(t, "Backend Developer", entries[0].Title)
	assert.Equal(t, "2018 – 2020", entries[0].Duration, "支持 en-dash 分隔符")
	assert.Equal(t, "Worked on billing and invoicing", entries[0].Description)
	assert.Equal(t, []string{"Wrote Go services"}, entries[0].Responsibilities)

	assert.Equal(t, "Data Analyst", entries[1].Title)
	assert.Equal(t, []string{"Built dashboards"}, entries[1].Responsibilities, "连续的项目符号应全部去掉")
	assert.NotNil(t, entries[1].Responsibilities)
}

func TestParseExperienceEmpty(t *testing.T) {
	entries := ParseExperience(nil)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestContainsDateRange(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"2019-2021", true},
		{"2019 - present", true},
		{"2019 – Present", true},
		{"March 2018 - June 2020", true},
		{"Sep 2021 – PRESENT", true},
		{"Graduated 2019", false},
		{"Present day", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsDateRange(tt.line))
		})
	}
}

func TestIsJobTitleLine(t *testing.T) {
	assert.True(t, IsJobTitleLine("Team LEAD"))
	assert.True(t, IsJobTitleLine("Project Coordinator"))
	assert.False(t, IsJobTitleLine("Led a team of 5"))
}

func TestIsDegreeLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Bachelor of Science", true},
		{"M.S. Computer Science", true},
		{"PhD in Physics", true},
		{"Ph.D. Chemistry", true},
		{"BA English", true},
		{"Associate Degree", true},
		{"Stanford University", false},
		{"Certifications", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDegreeLine(tt.line))
		})
	}
}

func TestHasCapitalizedWord(t *testing.T) {
	assert.True(t, HasCapitalizedWord("the University of Texas"))
	assert.False(t, HasCapitalizedWord("lowercase only 2019"))
}

func TestParseEducation(t *testing.T) {
	lines := []string{
		"random text before degree",
		"Bachelor of Science in Computer Science",
		"University of Texas",
		"Another Capitalized Line",
		"2013 - 2017",
		"M.S. Data Science",
		"stanford university",
		"Stanford University",
	}

	entries := ParseEducation(lines)
	require.Len(t, entries, 2)

	assert.Equal(t, "Bachelor of Science in Computer Science", entries[0].Degree)
	assert.Equal(t, "University of Texas", entries[0].Institution, "院校只设置一次")
	assert.Equal(t, "2013 - 2017", entries[0].Year)

	assert.Equal(t, "M.S. Data Science", entries[1].Degree)
	assert.Equal(t, "Stanford University", entries[1].Institution, "不含大写单词的行不能作为院校")
	assert.Empty(t, entries[1].Year)
}

func TestParseProjects(t *testing.T) {
	lines := []string{
		"• orphan bullet",
		"Resume Parser",
		"• Parses resumes",
		"- Scores matches",
		"Chat Bot",
	}

	entries := ParseProjects(lines)
	require.Len(t, entries, 2)
	assert.Equal(t, "Resume Parser", entries[0].Name)
	assert.Equal(t, "Parses resumes Scores matches", entries[0].Description)
	assert.Equal(t, "Chat Bot", entries[1].Name)
	assert.Empty(t, entries[1].Description)
}

func TestParseCertifications(t *testing.T) {
	lines := []string{"AWS Certified Developer", "Work Experience", "CKA"}
	assert.Equal(t, []string{"AWS Certified Developer", "CKA"}, ParseCertifications(lines))
	assert.NotNil(t, ParseCertifications(nil))
}

func TestParseSkills(t *testing.T) {
	lines := []string{
		"Go, Python; SQL | Docker • Kubernetes - Git",
		"C, R, Rust",
		"Education",
		"Ignored, Skill",
	}

	skills := ParseSkills(lines)
	assert.Equal(t, []string{"Go", "Python", "SQL", "Docker", "Kubernetes", "Git", "Rust"}, skills,
		"单字符技能应被丢弃，遇到下一个章节标题应停止")
}

func TestParseSkillsCapsAtTwenty(t *testing.T) {
	var line string
	for i := 0; i < 30; i++ {
		if i > 0 {
			line += ", "
		}
		line += fmt.Sprintf("skill%02d", i)
	}

	skills := ParseSkills([]string{line})
	require.Len(t, skills, MaxSkills)
	assert.Equal(t, "skill00", skills[0])
	assert.Equal(t, "skill19", skills[19])
}

func TestFallbackSkills(t *testing.T) {
	text := "I know PYTHON and sql, and some Machine Learning."
	assert.Equal(t, []string{"Python", "Sql", "Machine Learning"}, FallbackSkills(text))
	assert.Equal(t, []string{}, FallbackSkills(""))
}

func TestStripBullet(t *testing.T) {
	assert.Equal(t, "Shipped v2", StripBullet("•-• Shipped v2 "))
	assert.True(t, IsBulletLine("- item"))
	assert.False(t, IsBulletLine("item - dash"))
}

func TestWindow(t *testing.T) {
	lines := []string{"h", "a", "b", "c"}
	assert.Equal(t, []string{"a", "b"}, window(lines, 0, 3))
	assert.Equal(t, []string{"a", "b", "c"}, window(lines, 0, 0))
	assert.Equal(t, []string{"a", "b", "c"}, window(lines, 0, 20))
	assert.Empty(t, window(lines, 3, 5))
	assert.Nil(t, window(lines, -1, 5))
}

func TestSegmenterIndependentPerSection(t *testing.T) {
	lines := []string{"Jane", "Skills", "Go", "Education", "BSc", "Work History"}
	seg := NewSegmenter(nil)

	assert.Equal(t, 5, seg.Start(lines, types.SectionExperience))
	assert.Equal(t, 3, seg.Start(lines, types.SectionEducation))
	assert.Equal(t, 1, seg.Start(lines, types.SectionSkills))
	assert.Equal(t, -1, seg.Start(lines, types.SectionProjects))

	starts := seg.Locate(lines)
	assert.Len(t, starts, len(DefaultSectionKeywords))
	assert.Equal(t, -1, starts[types.SectionCertifications])
}

func TestSegmenterInjectedKeywords(t *testing.T) {
	keywords := DefaultSectionKeywords.Clone()
	keywords[types.SectionExperience] = []string{"berufserfahrung"}
	seg := NewSegmenter(keywords)

	lines := []string{"Max Mustermann", "Experience", "BERUFSERFAHRUNG"}
	assert.Equal(t, 2, seg.Start(lines, types.SectionExperience))
	assert.Equal(t, []string{"experience", "work history", "employment", "professional experience"},
		DefaultSectionKeywords[types.SectionExperience], "默认关键词表不应被修改")
}

func TestSegmenterLocateCoversAllSections(t *testing.T) {
	seg := NewSegmenter(SectionKeywords{
		types.SectionExperience:  {"experience"},
		types.Section("summary"): {"summary"},
	})
	starts := seg.Locate([]string{"Jane", "Summary", "Experience", "Skills"})

	assert.Len(t, starts, len(types.AllSections)+1)
	for _, section := range types.AllSections {
		assert.Contains(t, starts, section)
	}
	assert.Equal(t, 2, starts[types.SectionExperience])
	assert.Equal(t, 1, starts[types.Section("summary")])
	assert.Equal(t, -1, starts[types.SectionSkills], "未配置关键词的章节不应命中")
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, SplitLines("  a \n\n\t\n b c  \n"))
	assert.Empty(t, SplitLines(""))
}
