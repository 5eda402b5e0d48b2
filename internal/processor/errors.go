package processor

import (
	"errors"
	"fmt"

	"ai-resume-go/internal/storage"
)

// 定义基础错误类型
var (
	ErrResumeNotFound            = storage.ErrResumeNotFound
	ErrInvalidUpload             = errors.New("上传文件校验失败")
	ErrBatchTooLarge             = errors.New("批量分析的简历数量超过上限")
	ErrEmptyBatch                = errors.New("批量分析的简历列表为空")
	ErrInvalidCustomizationLevel = errors.New("无效的定制级别")
	ErrRewriteUnusable           = errors.New("LLM 改写结果不可用")
	ErrStoreNotInit              = errors.New("简历存储未初始化")
	ErrObjectStoreNotInit        = errors.New("对象存储未初始化")
	ErrPersistFailed             = errors.New("保存处理结果失败")
)

// ResumeProcessError 包含详细错误信息的自定义错误
type ResumeProcessError struct {
	ResumeID string
	Op       string
	BaseErr  error
	Detail   string
}

func (e *ResumeProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, ID:%s): %s", e.BaseErr, e.Op, e.ResumeID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, ID:%s)", e.BaseErr, e.Op, e.ResumeID)
}

func (e *ResumeProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ResumeProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// ValidationError 上传校验失败，Message 可以直接返回给调用方
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is 让 errors.Is(err, ErrInvalidUpload) 成立
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidUpload
}

func newValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// 错误构造函数
func NewPersistError(resumeID, op string, err error) error {
	return &ResumeProcessError{
		ResumeID: resumeID,
		Op:       op,
		BaseErr:  ErrPersistFailed,
		Detail:   err.Error(),
	}
}

func NewBatchTooLargeError(size, limit int) error {
	return &ResumeProcessError{
		Op:      "batch",
		BaseErr: ErrBatchTooLarge,
		Detail:  fmt.Sprintf("收到 %d 份，上限 %d 份", size, limit),
	}
}
