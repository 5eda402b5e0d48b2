package matcher

import (
	"sort"

	"ai-resume-go/internal/types"
	"ai-resume-go/pkg/utils"
)

// orderedSet 保留首次插入顺序的字符串集合
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.index[v]; ok {
		return
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *orderedSet) has(v string) bool {
	_, ok := s.index[v]
	return ok
}

func normalizedSet(groups ...[]string) *orderedSet {
	set := newOrderedSet()
	for _, g := range groups {
		for _, skill := range g {
			set.add(utils.NormalizeSkill(skill))
		}
	}
	return set
}

// MatchSkills 比较简历技能与岗位技能（skills_required ∪ requirements）。
// 结果按相关度降序；相同相关度之间保持简历在前、岗位在后的首次出现顺序。
func MatchSkills(resume types.ParsedResume, job types.JobDescription) []types.SkillMatch {
	resumeSkills := normalizedSet(resume.Skills)
	jobSkills := normalizedSet(job.SkillsRequired, job.Requirements)

	universe := newOrderedSet()
	for _, s := range resumeSkills.items {
		universe.add(s)
	}
	for _, s := range jobSkills.items {
		universe.add(s)
	}

	matches := make([]types.SkillMatch, 0, len(universe.items))
	for _, skill := range universe.items {
		inResume := resumeSkills.has(skill)
		inJob := jobSkills.has(skill)

		relevance := types.RelevanceBase
		if inResume && inJob {
			relevance = types.RelevanceBoth
		} else if inResume || inJob {
			relevance = types.RelevanceSingle
		}

		matches = append(matches, types.SkillMatch{
			Skill:            utils.TitleCase(skill),
			RelevanceScore:   relevance,
			InResume:         inResume,
			InJobDescription: inJob,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].RelevanceScore > matches[j].RelevanceScore
	})
	return matches
}

// MissingSkills 岗位 skills_required 中简历没有的技能，首字母大写、去重并排序
func MissingSkills(resume types.ParsedResume, job types.JobDescription) []string {
	resumeSkills := normalizedSet(resume.Skills)
	required := normalizedSet(job.SkillsRequired)

	display := newOrderedSet()
	for _, skill := range required.items {
		if !resumeSkills.has(skill) {
			display.add(utils.TitleCase(skill))
		}
	}
	missing := append([]string{}, display.items...)
	sort.Strings(missing)
	return missing
}
