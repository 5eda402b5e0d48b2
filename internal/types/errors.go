package types

import (
	"errors"
	"fmt"
)

// 解析与评分的三类基础错误
var (
	// ErrUnsupportedFormat 未知的文档格式标签，唯一会返回给调用方的解析错误
	ErrUnsupportedFormat = errors.New("不支持的文档格式")
	// ErrExtractionDegraded 文本提取部分或全部失败，只记录到 ParseError
	ErrExtractionDegraded = errors.New("文档解析降级")
	// ErrScoringDegenerate 文本为空或无法向量化，相似度按 0 处理
	ErrScoringDegenerate = errors.New("相似度计算退化")
)

// DocumentError 带有格式和操作上下文的文档处理错误
type DocumentError struct {
	Op      string
	Format  DocumentFormat
	BaseErr error
	Detail  string
}

func (e *DocumentError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 格式:%s): %s", e.BaseErr, e.Op, e.Format, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 格式:%s)", e.BaseErr, e.Op, e.Format)
}

func (e *DocumentError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *DocumentError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func NewUnsupportedFormatError(format string) error {
	return &DocumentError{
		Op:      "detect",
		Format:  DocumentFormat(format),
		BaseErr: ErrUnsupportedFormat,
	}
}

func NewExtractionError(format DocumentFormat, detail string) error {
	return &DocumentError{
		Op:      "extract",
		Format:  format,
		BaseErr: ErrExtractionDegraded,
		Detail:  detail,
	}
}
