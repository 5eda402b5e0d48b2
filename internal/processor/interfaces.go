package processor

import (
	"context"
	"io"

	"ai-resume-go/internal/storage/models"
)

//
// 存储相关接口，由 internal/storage 实现，测试中使用内存实现
//

// ResumeStore 简历记录的持久化
type ResumeStore interface {
	// CreateResume 保存简历，event 非空时与简历在同一事务内写入
	CreateResume(ctx context.Context, resume *models.Resume, event *models.OutboxMessage) error

	// GetResume 不存在时返回 ErrResumeNotFound
	GetResume(ctx context.Context, id string) (*models.Resume, error)

	ListResumes(ctx context.Context, offset, limit int) ([]models.Resume, int64, error)

	UpdateResume(ctx context.Context, id string, updates map[string]interface{}) error

	UpdateResumeStatus(ctx context.Context, id, status string) error

	DeleteResume(ctx context.Context, id string) error
}

// ProcessingLogStore AI 处理日志
type ProcessingLogStore interface {
	CreateProcessingLog(ctx context.Context, entry *models.AIProcessingLog, event *models.OutboxMessage) error

	// ListProcessingLogs 最新的在前
	ListProcessingLogs(ctx context.Context, resumeID string, limit int) ([]models.AIProcessingLog, error)
}

// ObjectStore 原始简历文件的对象存储
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, fileSize int64, contentType string) error
	DownloadFile(ctx context.Context, objectName string) ([]byte, error)
	DeleteFile(ctx context.Context, objectName string) error
}

// DedupCache 文件去重和岗位分析计数，可选组件
type DedupCache interface {
	// ClaimResumeMD5 已被占用时返回已有的简历 ID 和 false
	ClaimResumeMD5(ctx context.Context, md5Hex, resumeID string) (string, bool, error)
	ReleaseResumeMD5(ctx context.Context, md5Hex string) error
	IncrJobAnalysisCounter(ctx context.Context, jobMD5 string) (int64, error)
}
