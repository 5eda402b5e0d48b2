package matcher

import (
	"strings"

	"ai-resume-go/internal/types"
)

// joinNonEmpty 用空格拼接，跳过空字符串
func joinNonEmpty(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// ProjectResume 把结构化简历展开为一段用于评分的文本
func ProjectResume(r types.ParsedResume) string {
	parts := []string{
		r.PersonalInfo.Name,
		r.PersonalInfo.Title,
		r.PersonalInfo.Summary,
		r.PersonalInfo.Objective,
	}
	for _, exp := range r.Experience {
		parts = append(parts,
			exp.Title,
			exp.Company,
			exp.Description,
			strings.Join(exp.Responsibilities, " "),
		)
	}
	for _, edu := range r.Education {
		parts = append(parts, edu.Degree, edu.Institution, edu.Field)
	}
	parts = append(parts, r.Skills...)
	for _, p := range r.Projects {
		parts = append(parts, p.Name, p.Description, strings.Join(p.Technologies, " "))
	}
	return joinNonEmpty(parts)
}

// ProjectJob 把岗位描述展开为一段用于评分的文本
func ProjectJob(j types.JobDescription) string {
	return joinNonEmpty([]string{
		j.Title,
		j.Company,
		j.Description,
		strings.Join(j.Requirements, " "),
		strings.Join(j.PreferredQualifications, " "),
		strings.Join(j.SkillsRequired, " "),
		j.ExperienceLevel,
		j.Location,
	})
}
