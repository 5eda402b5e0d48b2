package processor

import (
	"fmt"
	"path/filepath"
	"strings"
)

// 上传默认限制
const (
	DefaultMaxFileSize int64 = 10 * 1024 * 1024
)

// DefaultAllowedTypes 默认允许上传的扩展名
var DefaultAllowedTypes = []string{"pdf", "docx", "doc"}

// ValidateUpload 校验文件名和大小，返回的 *ValidationError 信息可直接展示给用户
func ValidateUpload(fileName string, size int64, allowedTypes []string, maxFileSize int64) error {
	if len(allowedTypes) == 0 {
		allowedTypes = DefaultAllowedTypes
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	if strings.TrimSpace(fileName) == "" {
		return newValidationError("Invalid filename")
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	allowed := false
	for _, t := range allowedTypes {
		if strings.EqualFold(strings.TrimPrefix(t, "."), ext) {
			allowed = true
			break
		}
	}
	if ext == "" || !allowed {
		return newValidationError("File type not allowed. Supported types: %s", strings.Join(allowedTypes, ", "))
	}

	if size > maxFileSize {
		return newValidationError("File size exceeds maximum limit of %sMB", formatMB(maxFileSize))
	}
	return nil
}

func formatMB(bytes int64) string {
	return fmt.Sprintf("%.1f", float64(bytes)/(1024*1024))
}
