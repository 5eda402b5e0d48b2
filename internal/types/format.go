package types

import (
	"path/filepath"
	"strings"
)

// DocumentFormat 文档格式标签
type DocumentFormat string

const (
	FormatPDF  DocumentFormat = "pdf"
	FormatDOCX DocumentFormat = "docx"
	FormatDOC  DocumentFormat = "doc"
	FormatText DocumentFormat = "txt"
)

var mimeFormats = map[string]DocumentFormat{
	"application/pdf": FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
	"application/msword": FormatDOC,
	"text/plain":         FormatText,
}

// ParseDocumentFormat 把格式标签、文件扩展名或 MIME 类型转换为 DocumentFormat
func ParseDocumentFormat(tag string) (DocumentFormat, error) {
	t := strings.ToLower(strings.TrimSpace(tag))
	if mt, _, ok := strings.Cut(t, ";"); ok {
		t = strings.TrimSpace(mt)
	}
	if f, ok := mimeFormats[t]; ok {
		return f, nil
	}
	t = strings.TrimPrefix(t, ".")
	switch DocumentFormat(t) {
	case FormatPDF, FormatDOCX, FormatDOC, FormatText:
		return DocumentFormat(t), nil
	case "text":
		return FormatText, nil
	}
	return "", NewUnsupportedFormatError(tag)
}

// FormatFromFilename 根据文件扩展名推断格式
func FormatFromFilename(name string) (DocumentFormat, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		return "", NewUnsupportedFormatError(name)
	}
	return ParseDocumentFormat(ext)
}

// IsDocLike 判断是否为 Word 类文档
func (f DocumentFormat) IsDocLike() bool {
	return f == FormatDOCX || f == FormatDOC
}
