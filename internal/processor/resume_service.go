package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"ai-resume-go/internal/constants"
	"ai-resume-go/internal/matcher"
	"ai-resume-go/internal/parser"
	"ai-resume-go/internal/storage"
	"ai-resume-go/internal/storage/models"
	"ai-resume-go/internal/tracing"
	"ai-resume-go/internal/types"
	"ai-resume-go/pkg/utils"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// ResumeService 简历解析、匹配分析与定制的服务层。
// 内部持有所有需要的组件，handler 只依赖这一个入口。
type ResumeService struct {
	comp     Components
	settings Settings
	logger   *zerolog.Logger
}

// NewResumeService 创建服务实例，未提供的解析器和分析器使用默认实现
func NewResumeService(comp *Components, set *Settings, opts ...SettingOpt) *ResumeService {
	s := &ResumeService{}
	if comp != nil {
		s.comp = *comp
	}
	if s.comp.Parser == nil {
		s.comp.Parser = parser.NewDocumentParser(nil)
	}
	if s.comp.Analyzer == nil {
		s.comp.Analyzer = matcher.NewAnalyzer()
	}

	defaults := DefaultSettings()
	if set != nil {
		s.settings = *set
	} else {
		s.settings = *defaults
	}
	for _, opt := range opts {
		opt(&s.settings)
	}
	if len(s.settings.AllowedTypes) == 0 {
		s.settings.AllowedTypes = defaults.AllowedTypes
	}
	if s.settings.MaxFileSize <= 0 {
		s.settings.MaxFileSize = defaults.MaxFileSize
	}
	if s.settings.MaxBatchSize <= 0 {
		s.settings.MaxBatchSize = defaults.MaxBatchSize
	}
	if s.settings.BatchWorkers <= 0 {
		s.settings.BatchWorkers = defaults.BatchWorkers
	}
	if s.settings.MaxProcessingLogs <= 0 {
		s.settings.MaxProcessingLogs = defaults.MaxProcessingLogs
	}
	if s.settings.Logger == nil {
		s.settings.Logger = defaults.Logger
	}
	s.logger = s.settings.Logger
	return s
}

// Settings 返回生效的设置
func (s *ResumeService) Settings() Settings {
	return s.settings
}

// ----- 纯计算入口 -----

// ParseDocument 解析文档字节，只有不支持的格式返回错误
func (s *ResumeService) ParseDocument(ctx context.Context, data []byte, format types.DocumentFormat) (types.ParsedResume, error) {
	return s.comp.Parser.ParseDocument(ctx, data, format)
}

// AnalyzeMatch 计算简历与职位的匹配结果，不会失败
func (s *ResumeService) AnalyzeMatch(ctx context.Context, resume types.ParsedResume, job types.JobDescription) types.MatchResult {
	_, span := tracing.StartSpan(ctx, "ResumeService.AnalyzeMatch",
		attribute.String("job.title", job.Title),
		attribute.Int("resume.skills", len(resume.Skills)),
	)
	defer span.End()

	result := s.comp.Analyzer.AnalyzeMatch(resume, job)
	span.SetAttributes(
		attribute.Float64("match.score", result.JobMatchScore),
		attribute.Int("match.missing_skills", len(result.MissingSkills)),
	)
	return result
}

// ResumeAnalysis 匹配分析结果加上改进建议
type ResumeAnalysis struct {
	ResumeID              string               `json:"resume_id"`
	JobMatchScore         float64              `json:"job_match_score"`
	SkillMatches          []types.SkillMatch   `json:"skill_matches"`
	MissingSkills         []string             `json:"missing_skills"`
	SuggestedImprovements []string             `json:"suggested_improvements"`
	KeywordDensity        types.KeywordDensity `json:"keyword_density"`
}

func (s *ResumeService) analyzeWithSuggestions(ctx context.Context, resumeID string, resume types.ParsedResume, job types.JobDescription) ResumeAnalysis {
	match := s.AnalyzeMatch(ctx, resume, job)
	return ResumeAnalysis{
		ResumeID:              resumeID,
		JobMatchScore:         match.JobMatchScore,
		SkillMatches:          match.SkillMatches,
		MissingSkills:         match.MissingSkills,
		SuggestedImprovements: s.suggest(ctx, resume, job, match.MissingSkills),
		KeywordDensity:        match.KeywordDensity,
	}
}

func (s *ResumeService) suggest(ctx context.Context, resume types.ParsedResume, job types.JobDescription, missing []string) []string {
	if s.comp.Suggester == nil {
		return []string{FallbackSuggestion}
	}
	return s.comp.Suggester.Suggest(ctx, resume, job, missing)
}

// CustomizationResult 一次定制的结果
type CustomizationResult struct {
	ResumeID         string             `json:"resume_id"`
	OriginalResumeID string             `json:"original_resume_id,omitempty"`
	CustomizedResume types.ParsedResume `json:"customized_resume"`
	ChangesMade      []string           `json:"changes_made"`
	MatchScore       float64            `json:"match_score"`
	Suggestions      []string           `json:"suggestions"`
	ProcessingTime   float64            `json:"processing_time"`
}

// CustomizeResume 先做匹配分析，再交给 Rewriter 改写。
// 改写失败或结果不可用时回退到原简历，不作为错误返回。
func (s *ResumeService) CustomizeResume(ctx context.Context, resume types.ParsedResume, job types.JobDescription, level CustomizationLevel) (*CustomizationResult, error) {
	if level.Instruction() == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCustomizationLevel, level)
	}
	ctx, span := tracing.StartSpan(ctx, "ResumeService.CustomizeResume",
		attribute.String("job.title", job.Title),
		attribute.String("customization.level", string(level)),
	)
	defer span.End()

	start := time.Now()
	analysis := s.AnalyzeMatch(ctx, resume, job)

	customized := resume.Clone()
	if s.comp.Rewriter == nil {
		s.logger.Warn().Msg("未配置简历改写器，返回原简历")
	} else {
		out, err := s.comp.Rewriter.Rewrite(ctx, RewriteRequest{
			Resume:   resume,
			Job:      job,
			Analysis: analysis,
			Level:    level,
		})
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeLLM)
			s.logger.Warn().Err(err).Str("job_title", job.Title).Msg("简历改写失败，回退到原简历")
		} else {
			customized = *out
		}
	}

	return &CustomizationResult{
		CustomizedResume: customized,
		ChangesMade:      TrackChanges(resume, customized),
		MatchScore:       analysis.JobMatchScore,
		Suggestions:      CustomizationSuggestions(analysis),
		ProcessingTime:   time.Since(start).Seconds(),
	}, nil
}

// ----- 上传 -----

// UploadResult 上传成功后的返回
type UploadResult struct {
	ResumeID      string             `json:"resume_id"`
	FileName      string             `json:"file_name"`
	FileSize      int64              `json:"file_size"`
	ParsedContent types.ParsedResume `json:"parsed_content"`
	Duplicate     bool               `json:"duplicate,omitempty"`
}

// UploadResume 校验、去重、解析并保存上传的简历
func (s *ResumeService) UploadResume(ctx context.Context, fileName string, data []byte) (*UploadResult, error) {
	ctx, span := tracing.StartSpan(ctx, "ResumeService.UploadResume",
		attribute.String("file.name", fileName),
		attribute.Int("file.size", len(data)),
	)
	defer span.End()

	if len(data) == 0 {
		return nil, newValidationError("No file provided")
	}
	if err := ValidateUpload(fileName, int64(len(data)), s.settings.AllowedTypes, s.settings.MaxFileSize); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}
	if s.comp.Resumes == nil {
		return nil, ErrStoreNotInit
	}
	if s.comp.Objects == nil {
		return nil, ErrObjectStoreNotInit
	}

	format, err := types.FormatFromFilename(fileName)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	resumeID := uuidV7.String()
	fileMD5 := utils.CalculateMD5(data)

	if dup := s.findDuplicate(ctx, fileMD5, resumeID); dup != nil {
		return dup, nil
	}

	parsed, err := s.comp.Parser.ParseNamedDocument(ctx, data, format, fileName)
	if err != nil {
		s.releaseMD5(ctx, fileMD5)
		tracing.RecordError(span, err, tracing.ErrorTypeParse)
		return nil, fmt.Errorf("解析简历失败: %w", err)
	}
	if parsed.ParseError != "" {
		s.logger.Warn().Str("resume_id", resumeID).Str("parse_error", parsed.ParseError).Msg("简历文本提取降级")
	}
	span.SetAttributes(
		attribute.String("resume.id", resumeID),
		tracing.SafeString("resume.name", parsed.PersonalInfo.Name),
		tracing.SafeString("resume.email", parsed.PersonalInfo.Email),
		tracing.SafeString("resume.phone", parsed.PersonalInfo.Phone),
		attribute.String("resume.text_preview", tracing.SafeResumeContent(parsed.RawText)),
		attribute.Int("resume.skills", len(parsed.Skills)),
	)

	ext := strings.ToLower(filepath.Ext(fileName))
	objectKey := resumeID + ext
	contentType := storage.ContentTypeForExt(ext)
	if err := s.comp.Objects.UploadFile(ctx, objectKey, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		s.releaseMD5(ctx, fileMD5)
		tracing.RecordError(span, err, tracing.ErrorTypeObject)
		return nil, fmt.Errorf("上传简历到对象存储失败: %w", err)
	}

	title := parsed.Title
	if title == "" || title == parser.DefaultResumeTitle {
		title = fileName
	}
	record := &models.Resume{
		ID:          resumeID,
		Title:       title,
		FileName:    fileName,
		ObjectKey:   objectKey,
		FileSize:    int64(len(data)),
		FileMD5:     fileMD5,
		ContentType: contentType,
		Status:      constants.StatusUploaded,
	}
	record.SetParsed(parsed)

	event := s.newEvent(resumeID, constants.EventResumeParsed, s.settings.ParsedRoutingKey, map[string]interface{}{
		"resume_id":    resumeID,
		"title":        title,
		"file_name":    fileName,
		"format":       string(format),
		"skills_count": len(parsed.Skills),
		"degraded":     parsed.ParseError != "",
	})
	if err := s.comp.Resumes.CreateResume(ctx, record, event); err != nil {
		if delErr := s.comp.Objects.DeleteFile(ctx, objectKey); delErr != nil {
			s.logger.Warn().Err(delErr).Str("object_key", objectKey).Msg("回滚已上传的简历文件失败")
		}
		s.releaseMD5(ctx, fileMD5)
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, NewPersistError(resumeID, "upload", err)
	}

	s.logger.Info().
		Str("resume_id", resumeID).
		Str("file_name", fileName).
		Int("file_size", len(data)).
		Msg("简历上传并解析完成")

	parsed.Normalize()
	return &UploadResult{
		ResumeID:      resumeID,
		FileName:      fileName,
		FileSize:      int64(len(data)),
		ParsedContent: parsed,
	}, nil
}

// findDuplicate 文件 MD5 已绑定到一份仍存在的简历时返回该简历
func (s *ResumeService) findDuplicate(ctx context.Context, fileMD5, resumeID string) *UploadResult {
	if s.comp.Dedup == nil {
		return nil
	}
	existingID, claimed, err := s.comp.Dedup.ClaimResumeMD5(ctx, fileMD5, resumeID)
	if err != nil {
		// 去重不可用时仍然继续上传
		s.logger.Warn().Err(err).Str("md5", fileMD5).Msg("查询文件MD5去重记录失败")
		return nil
	}
	if claimed {
		return nil
	}

	existing, err := s.comp.Resumes.GetResume(ctx, existingID)
	if err != nil {
		s.logger.Warn().Err(err).Str("md5", fileMD5).Str("existing_id", existingID).Msg("去重记录指向的简历不可用，按新文件处理")
		s.releaseMD5(ctx, fileMD5)
		if _, _, err := s.comp.Dedup.ClaimResumeMD5(ctx, fileMD5, resumeID); err != nil {
			s.logger.Warn().Err(err).Str("md5", fileMD5).Msg("重新写入文件MD5去重记录失败")
		}
		return nil
	}

	parsed, err := existing.Parsed()
	if err != nil {
		s.logger.Warn().Err(err).Str("resume_id", existing.ID).Msg("读取重复简历内容失败")
	}
	s.logger.Info().Str("md5", fileMD5).Str("resume_id", existing.ID).Msg("检测到重复的文件MD5，返回已有简历")
	return &UploadResult{
		ResumeID:      existing.ID,
		FileName:      existing.FileName,
		FileSize:      existing.FileSize,
		ParsedContent: parsed,
		Duplicate:     true,
	}
}

func (s *ResumeService) releaseMD5(ctx context.Context, fileMD5 string) {
	if s.comp.Dedup == nil || fileMD5 == "" {
		return
	}
	if err := s.comp.Dedup.ReleaseResumeMD5(ctx, fileMD5); err != nil {
		s.logger.Warn().Err(err).Str("md5", fileMD5).Msg("释放文件MD5去重记录失败")
	}
}

// ----- 简历 CRUD -----

// ResumePage 分页列表
type ResumePage struct {
	Items []models.Resume `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// 分页限制
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ListResumes 分页列出简历，page 从 1 开始
func (s *ResumeService) ListResumes(ctx context.Context, page, limit int) (*ResumePage, error) {
	if s.comp.Resumes == nil {
		return nil, ErrStoreNotInit
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	items, total, err := s.comp.Resumes.ListResumes(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return &ResumePage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// GetResume 按 ID 获取简历记录
func (s *ResumeService) GetResume(ctx context.Context, id string) (*models.Resume, error) {
	if s.comp.Resumes == nil {
		return nil, ErrStoreNotInit
	}
	return s.comp.Resumes.GetResume(ctx, id)
}

func (s *ResumeService) loadParsed(ctx context.Context, id string) (*models.Resume, types.ParsedResume, error) {
	record, err := s.GetResume(ctx, id)
	if err != nil {
		return nil, types.ParsedResume{}, err
	}
	parsed, err := record.Parsed()
	if err != nil {
		return nil, types.ParsedResume{}, err
	}
	return record, parsed, nil
}

// ResumeContent 简历的结构化内容
type ResumeContent struct {
	ResumeID   string                  `json:"resume_id"`
	Title      string                  `json:"title"`
	Content    types.ParsedResume      `json:"content"`
	Skills     []string                `json:"skills"`
	Experience []types.ExperienceEntry `json:"experience"`
	Education  []types.EducationEntry  `json:"education"`
	ParsedAt   time.Time               `json:"parsed_at"`
}

// GetResumeContent 返回简历的结构化内容
func (s *ResumeService) GetResumeContent(ctx context.Context, id string) (*ResumeContent, error) {
	record, parsed, err := s.loadParsed(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ResumeContent{
		ResumeID:   record.ID,
		Title:      record.Title,
		Content:    parsed,
		Skills:     parsed.Skills,
		Experience: parsed.Experience,
		Education:  parsed.Education,
		ParsedAt:   record.UpdatedAt,
	}, nil
}

// ResumeUpdate 可修改的字段，nil 表示不修改
type ResumeUpdate struct {
	Title      *string                  `json:"title"`
	Content    *types.ParsedResume      `json:"content"`
	Skills     *[]string                `json:"skills"`
	Experience *[]types.ExperienceEntry `json:"experience"`
	Education  *[]types.EducationEntry  `json:"education"`
}

// UpdateResume 修改标题或结构化内容，内容和冗余列保持一致
func (s *ResumeService) UpdateResume(ctx context.Context, id string, u ResumeUpdate) (*models.Resume, error) {
	record, err := s.GetResume(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if u.Title != nil && strings.TrimSpace(*u.Title) != "" {
		updates["title"] = strings.TrimSpace(*u.Title)
	}
	if u.Content != nil || u.Skills != nil || u.Experience != nil || u.Education != nil {
		parsed, err := record.Parsed()
		if err != nil {
			s.logger.Warn().Err(err).Str("resume_id", id).Msg("原简历内容损坏，以新内容覆盖")
			parsed = types.NewParsedResume("")
		}
		if u.Content != nil {
			parsed = u.Content.Clone()
		}
		if u.Skills != nil {
			parsed.Skills = *u.Skills
		}
		if u.Experience != nil {
			parsed.Experience = *u.Experience
		}
		if u.Education != nil {
			parsed.Education = *u.Education
		}
		record.SetParsed(parsed)
		updates["content"] = record.Content
		updates["skills"] = record.Skills
		updates["experience"] = record.Experience
		updates["education"] = record.Education
	}

	if err := s.comp.Resumes.UpdateResume(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.GetResume(ctx, id)
}

// customizedFilePrefix 定制简历的文件名前缀，定制简历与原简历共享同一个对象
const customizedFilePrefix = "customized_"

// DeleteResume 删除简历记录，原始上传的简历同时删除对象和去重记录
func (s *ResumeService) DeleteResume(ctx context.Context, id string) error {
	record, err := s.GetResume(ctx, id)
	if err != nil {
		return err
	}
	if err := s.comp.Resumes.DeleteResume(ctx, id); err != nil {
		return err
	}

	if strings.HasPrefix(record.FileName, customizedFilePrefix) {
		return nil
	}
	if s.comp.Objects != nil && record.ObjectKey != "" {
		if err := s.comp.Objects.DeleteFile(ctx, record.ObjectKey); err != nil {
			s.logger.Warn().Err(err).Str("object_key", record.ObjectKey).Msg("删除简历文件失败")
		}
	}
	s.releaseMD5(ctx, record.FileMD5)
	return nil
}

// DownloadedFile 下载得到的原始文件
type DownloadedFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// DownloadResume 从对象存储读取原始文件
func (s *ResumeService) DownloadResume(ctx context.Context, id string) (*DownloadedFile, error) {
	record, err := s.GetResume(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.comp.Objects == nil {
		return nil, ErrObjectStoreNotInit
	}
	data, err := s.comp.Objects.DownloadFile(ctx, record.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("下载简历 %s 失败: %w", id, err)
	}
	contentType := record.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForExt(filepath.Ext(record.FileName))
	}
	return &DownloadedFile{FileName: record.FileName, ContentType: contentType, Data: data}, nil
}

// ----- 持久化的 AI 操作 -----

// AnalyzeResume 分析已保存的简历与职位的匹配度，并记录处理日志
func (s *ResumeService) AnalyzeResume(ctx context.Context, resumeID string, job types.JobDescription) (*ResumeAnalysis, error) {
	_, parsed, err := s.loadParsed(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	analysis := s.analyzeWithSuggestions(ctx, resumeID, parsed, job)
	details := map[string]interface{}{
		"job_title":            job.Title,
		"company":              job.Company,
		"match_score":          analysis.JobMatchScore,
		"missing_skills_count": len(analysis.MissingSkills),
	}
	if count, ok := s.countJobAnalysis(ctx, job); ok {
		details["job_analysis_count"] = count
	}

	score := analysis.JobMatchScore
	s.logActivity(ctx, activity{
		resumeID:     resumeID,
		activityType: constants.ActivityJobMatchAnalysis,
		job:          &job,
		matchScore:   &score,
		suggestions:  analysis.SuggestedImprovements,
		details:      details,
		eventType:    constants.EventResumeAnalyzed,
		routingKey:   s.settings.AnalyzedRoutingKey,
	})

	s.logger.Info().
		Str("resume_id", resumeID).
		Str("job_title", job.Title).
		Float64("match_score", analysis.JobMatchScore).
		Msg("简历匹配分析完成")
	return &analysis, nil
}

// countJobAnalysis 同一份职位描述被分析的次数
func (s *ResumeService) countJobAnalysis(ctx context.Context, job types.JobDescription) (int64, bool) {
	if s.comp.Dedup == nil {
		return 0, false
	}
	jobMD5 := utils.CalculateMD5([]byte(matcher.ProjectJob(job)))
	count, err := s.comp.Dedup.IncrJobAnalysisCounter(ctx, jobMD5)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_md5", jobMD5).Msg("更新岗位分析计数失败")
		return 0, false
	}
	return count, true
}

// CustomizeStoredResume 定制已保存的简历，结果另存为一份新简历。
// 原简历状态依次经过 processing 和 completed，失败时为 failed。
func (s *ResumeService) CustomizeStoredResume(ctx context.Context, resumeID string, job types.JobDescription, levelTag string) (*CustomizationResult, error) {
	level, err := ParseCustomizationLevel(levelTag)
	if err != nil {
		return nil, err
	}
	record, err := s.GetResume(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if err := s.comp.Resumes.UpdateResumeStatus(ctx, resumeID, constants.StatusProcessing); err != nil {
		return nil, NewPersistError(resumeID, "status", err)
	}

	result, err := s.customizeAndSave(ctx, record, job, level)
	if err != nil {
		if statusErr := s.comp.Resumes.UpdateResumeStatus(ctx, resumeID, constants.StatusFailed); statusErr != nil {
			s.logger.Error().Err(statusErr).Str("resume_id", resumeID).Msg("更新简历状态为failed失败")
		}
		s.logActivity(ctx, activity{
			resumeID:     resumeID,
			activityType: constants.ActivityCustomizationFailed,
			job:          &job,
			level:        string(level),
			details: map[string]interface{}{
				"error":               err.Error(),
				"job_title":           job.Title,
				"customization_level": string(level),
			},
			err: err,
		})
		return nil, err
	}

	if err := s.comp.Resumes.UpdateResumeStatus(ctx, resumeID, constants.StatusCompleted); err != nil {
		s.logger.Error().Err(err).Str("resume_id", resumeID).Msg("更新简历状态为completed失败")
	}

	score, elapsed := result.MatchScore, result.ProcessingTime
	s.logActivity(ctx, activity{
		resumeID:       resumeID,
		activityType:   constants.ActivityResumeCustomization,
		job:            &job,
		level:          string(level),
		matchScore:     &score,
		processingTime: &elapsed,
		changes:        result.ChangesMade,
		suggestions:    result.Suggestions,
		details: map[string]interface{}{
			"job_title":            job.Title,
			"company":              job.Company,
			"customization_level":  string(level),
			"match_score":          score,
			"processing_time":      elapsed,
			"changes_count":        len(result.ChangesMade),
			"customized_resume_id": result.ResumeID,
		},
	})

	s.logger.Info().
		Str("resume_id", resumeID).
		Str("customized_resume_id", result.ResumeID).
		Str("level", string(level)).
		Int("changes", len(result.ChangesMade)).
		Msg("简历定制完成")
	return result, nil
}

func (s *ResumeService) customizeAndSave(ctx context.Context, record *models.Resume, job types.JobDescription, level CustomizationLevel) (*CustomizationResult, error) {
	parsed, err := record.Parsed()
	if err != nil {
		return nil, err
	}
	result, err := s.CustomizeResume(ctx, parsed, job, level)
	if err != nil {
		return nil, err
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	customizedID := uuidV7.String()
	customized := &models.Resume{
		ID:          customizedID,
		Title:       fmt.Sprintf("%s - Customized for %s", record.Title, job.Title),
		FileName:    customizedFilePrefix + record.FileName,
		ObjectKey:   record.ObjectKey,
		FileSize:    record.FileSize,
		ContentType: record.ContentType,
		Status:      constants.StatusCompleted,
	}
	customized.SetParsed(result.CustomizedResume)

	event := s.newEvent(record.ID, constants.EventResumeCustomized, s.settings.CustomizedRoutingKey, map[string]interface{}{
		"resume_id":            record.ID,
		"customized_resume_id": customizedID,
		"job_title":            job.Title,
		"company":              job.Company,
		"customization_level":  string(level),
		"match_score":          result.MatchScore,
		"changes_count":        len(result.ChangesMade),
	})
	if err := s.comp.Resumes.CreateResume(ctx, customized, event); err != nil {
		return nil, NewPersistError(customizedID, "customize", err)
	}

	result.ResumeID = customizedID
	result.OriginalResumeID = record.ID
	return result, nil
}

// ----- 处理日志 -----

// ProcessingLogs 某份简历的 AI 处理记录
type ProcessingLogs struct {
	ResumeID     string                   `json:"resume_id"`
	DatabaseLogs []models.AIProcessingLog `json:"database_logs"`
	TotalLogs    int                      `json:"total_logs"`
}

// GetProcessingLogs 返回最近的处理日志，最新的在前
func (s *ResumeService) GetProcessingLogs(ctx context.Context, resumeID string) (*ProcessingLogs, error) {
	if _, err := s.GetResume(ctx, resumeID); err != nil {
		return nil, err
	}
	logs := []models.AIProcessingLog{}
	if s.comp.Logs != nil {
		var err error
		logs, err = s.comp.Logs.ListProcessingLogs(ctx, resumeID, s.settings.MaxProcessingLogs)
		if err != nil {
			return nil, err
		}
	}
	return &ProcessingLogs{ResumeID: resumeID, DatabaseLogs: logs, TotalLogs: len(logs)}, nil
}

// ----- 建议 -----

// SuggestionsResult 改进建议及其上下文
type SuggestionsResult struct {
	ResumeID    string                 `json:"resume_id"`
	Suggestions []string               `json:"suggestions"`
	Context     map[string]interface{} `json:"context"`
	GeneratedAt string                 `json:"generated_at"`
}

// GetSuggestions 生成改进建议，job 为 nil 时针对通用职位
func (s *ResumeService) GetSuggestions(ctx context.Context, resumeID string, job *types.JobDescription) (*SuggestionsResult, error) {
	_, parsed, err := s.loadParsed(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	target := GenericJobDescription()
	if job != nil {
		target = *job
	}
	analysis := s.analyzeWithSuggestions(ctx, resumeID, parsed, target)

	suggestionCtx := map[string]interface{}{
		"type":        "general",
		"match_score": analysis.JobMatchScore,
	}
	if job != nil {
		suggestionCtx = map[string]interface{}{
			"type":           "job_specific",
			"job_title":      job.Title,
			"company":        job.Company,
			"match_score":    analysis.JobMatchScore,
			"missing_skills": analysis.MissingSkills,
		}
	}

	score := analysis.JobMatchScore
	s.logActivity(ctx, activity{
		resumeID:     resumeID,
		activityType: constants.ActivityImprovementSuggestions,
		job:          &target,
		matchScore:   &score,
		suggestions:  analysis.SuggestedImprovements,
		details:      suggestionCtx,
	})

	return &SuggestionsResult{
		ResumeID:    resumeID,
		Suggestions: analysis.SuggestedImprovements,
		Context:     suggestionCtx,
		GeneratedAt: time.Now().UTC().Format("2006-01-02T15:04:05.000000"),
	}, nil
}

// ----- 活动日志与事件 -----

type activity struct {
	resumeID       string
	activityType   string
	job            *types.JobDescription
	level          string
	matchScore     *float64
	processingTime *float64
	changes        []string
	suggestions    []string
	details        map[string]interface{}
	err            error

	eventType  string
	routingKey string
}

// logActivity 写入处理日志，失败只记录告警
func (s *ResumeService) logActivity(ctx context.Context, a activity) {
	if s.comp.Logs == nil {
		return
	}
	entry := newProcessingLog(a)

	var event *models.OutboxMessage
	if a.eventType != "" {
		event = s.newEvent(a.resumeID, a.eventType, a.routingKey, a.details)
	}
	if err := s.comp.Logs.CreateProcessingLog(ctx, entry, event); err != nil {
		s.logger.Error().Err(err).
			Str("resume_id", a.resumeID).
			Str("activity", a.activityType).
			Msg("记录AI处理日志失败")
	}
}

func newProcessingLog(a activity) *models.AIProcessingLog {
	entry := &models.AIProcessingLog{
		ID:                 newLogID(),
		ResumeID:           a.resumeID,
		ActivityType:       a.activityType,
		JobDescription:     utils.ToJSON(map[string]interface{}{}, "{}"),
		CustomizationLevel: a.level,
		MatchScore:         a.matchScore,
		ProcessingTime:     a.processingTime,
		ChangesMade:        utils.ConvertArrayToJSON(a.changes),
		Suggestions:        utils.ConvertArrayToJSON(a.suggestions),
		Details:            utils.ToJSON(a.details, "{}"),
		Status:             constants.StatusCompleted,
	}
	if a.job != nil {
		entry.JobDescription = utils.ToJSON(a.job, "{}")
	}
	if a.err != nil {
		entry.Status = constants.StatusFailed
		entry.ErrorMessage = a.err.Error()
	}
	return entry
}

// newEvent 未配置交换机时不产生事件
func (s *ResumeService) newEvent(aggregateID, eventType, routingKey string, payload interface{}) *models.OutboxMessage {
	if s.settings.EventExchange == "" {
		return nil
	}
	event, err := models.NewOutboxMessage(aggregateID, eventType, s.settings.EventExchange, routingKey, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("构造领域事件失败")
		return nil
	}
	return event
}

// IsNotFound 判断错误是否表示简历不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResumeNotFound)
}
