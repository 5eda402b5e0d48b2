package constants

// 领域事件类型，同时作为 outbox 的 event_type 和默认 routing key
const (
	EventResumeParsed     = "resume.parsed"
	EventResumeAnalyzed   = "resume.analyzed"
	EventResumeCustomized = "resume.customized"
)

// AI 处理日志的 activity 类型
const (
	ActivityJobMatchAnalysis       = "job_match_analysis"
	ActivityBatchJobMatchAnalysis  = "batch_job_match_analysis"
	ActivityResumeCustomization    = "resume_customization"
	ActivityCustomizationFailed    = "resume_customization_failed"
	ActivityImprovementSuggestions = "improvement_suggestions"
)

// 简历处理状态
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// MaxBatchResumes 单次批量分析允许的最大简历数
const MaxBatchResumes = 10
