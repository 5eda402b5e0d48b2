package types

// Section 表示简历中的语义章节
type Section string

const (
	// SectionExperience 工作经历
	SectionExperience Section = "experience"
	// SectionEducation 教育经历
	SectionEducation Section = "education"
	// SectionSkills 技能
	SectionSkills Section = "skills"
	// SectionProjects 项目经历
	SectionProjects Section = "projects"
	// SectionCertifications 证书
	SectionCertifications Section = "certifications"
)

// AllSections 按解析顺序列出所有章节
var AllSections = []Section{
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionProjects,
	SectionCertifications,
}

// PersonalInfo 简历头部的联系人信息。
// Title/Summary/Objective 不由启发式解析器产生，只可能来自改写后的简历。
type PersonalInfo struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	SocialHandle string `json:"linkedin,omitempty"`
	Location     string `json:"location,omitempty"`
	Title        string `json:"title,omitempty"`
	Summary      string `json:"summary,omitempty"`
	Objective    string `json:"objective,omitempty"`
}

// ExperienceEntry 一段工作经历
type ExperienceEntry struct {
	Title            string   `json:"title"`
	Duration         string   `json:"duration,omitempty"`
	Company          string   `json:"company,omitempty"`
	Description      string   `json:"description"`
	Responsibilities []string `json:"responsibilities"`
}

// EducationEntry 一段教育经历
type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution,omitempty"`
	Year        string `json:"year,omitempty"`
	Field       string `json:"field,omitempty"`
}

// ProjectEntry 一个项目
type ProjectEntry struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies,omitempty"`
}

// ParsedResume 从原始文档中解析出的结构化简历。
// 所有切片字段始终非 nil，序列化后为 [] 而不是 null。
type ParsedResume struct {
	RawText        string            `json:"raw_text"`
	PersonalInfo   PersonalInfo      `json:"personal_info"`
	Experience     []ExperienceEntry `json:"experience"`
	Education      []EducationEntry  `json:"education"`
	Skills         []string          `json:"skills"`
	Projects       []ProjectEntry    `json:"projects"`
	Certifications []string          `json:"certifications"`
	Title          string            `json:"title"`
	ParseError     string            `json:"parse_error,omitempty"`
}

// NewParsedResume 返回所有容器字段都已初始化的空简历
func NewParsedResume(rawText string) ParsedResume {
	return ParsedResume{
		RawText:        rawText,
		Experience:     []ExperienceEntry{},
		Education:      []EducationEntry{},
		Skills:         []string{},
		Projects:       []ProjectEntry{},
		Certifications: []string{},
	}
}

// Normalize 把 nil 切片替换为空切片，用于处理外部（如 LLM）返回的 JSON
func (r *ParsedResume) Normalize() {
	if r.Experience == nil {
		r.Experience = []ExperienceEntry{}
	}
	for i := range r.Experience {
		if r.Experience[i].Responsibilities == nil {
			r.Experience[i].Responsibilities = []string{}
		}
	}
	if r.Education == nil {
		r.Education = []EducationEntry{}
	}
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.Projects == nil {
		r.Projects = []ProjectEntry{}
	}
	if r.Certifications == nil {
		r.Certifications = []string{}
	}
}

// Clone 深拷贝，定制流程基于副本生成新简历而不修改原值
func (r ParsedResume) Clone() ParsedResume {
	out := r
	out.Experience = make([]ExperienceEntry, len(r.Experience))
	for i, e := range r.Experience {
		e.Responsibilities = append([]string{}, e.Responsibilities...)
		out.Experience[i] = e
	}
	out.Education = append([]EducationEntry{}, r.Education...)
	out.Skills = append([]string{}, r.Skills...)
	out.Projects = make([]ProjectEntry, len(r.Projects))
	for i, p := range r.Projects {
		if p.Technologies != nil {
			p.Technologies = append([]string{}, p.Technologies...)
		}
		out.Projects[i] = p
	}
	out.Certifications = append([]string{}, r.Certifications...)
	return out
}

// IsEmpty 判断结构化字段是否全部为空（不考虑 RawText 和 Title）
func (r ParsedResume) IsEmpty() bool {
	return r.PersonalInfo == (PersonalInfo{}) &&
		len(r.Experience) == 0 &&
		len(r.Education) == 0 &&
		len(r.Skills) == 0 &&
		len(r.Projects) == 0 &&
		len(r.Certifications) == 0
}

// JobDescription 外部提供的岗位描述，核心逻辑只读
type JobDescription struct {
	Title                   string   `json:"title"`
	Company                 string   `json:"company"`
	Description             string   `json:"description"`
	Requirements            []string `json:"requirements"`
	PreferredQualifications []string `json:"preferred_qualifications"`
	SkillsRequired          []string `json:"skills_required"`
	ExperienceLevel         string   `json:"experience_level,omitempty"`
	Location                string   `json:"location,omitempty"`
	SalaryRange             string   `json:"salary_range,omitempty"`
}

// 技能相关度的三个固定档位
const (
	RelevanceBoth   = 1.0
	RelevanceSingle = 0.7
	RelevanceBase   = 0.5
)

// SkillMatch 单个技能在简历和岗位两侧的匹配情况
type SkillMatch struct {
	Skill            string  `json:"skill"`
	RelevanceScore   float64 `json:"relevance_score"`
	InResume         bool    `json:"in_resume"`
	InJobDescription bool    `json:"in_job_description"`
}

// MatchResult 一份简历与一个岗位的比较结果，每次分析重新生成
type MatchResult struct {
	JobMatchScore  float64        `json:"job_match_score"`
	SkillMatches   []SkillMatch   `json:"skill_matches"`
	MissingSkills  []string       `json:"missing_skills"`
	KeywordDensity KeywordDensity `json:"keyword_density"`
}
