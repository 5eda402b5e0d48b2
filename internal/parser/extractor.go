package parser

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"ai-resume-go/internal/types"
)

// TextExtractor 把原始文档字节转换为换行分隔的 UTF-8 文本
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, format types.DocumentFormat) (string, error)
}

// oleMagic 旧版二进制 .doc（OLE2 复合文档）的文件头
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// errLegacyDoc 二进制 .doc 没有可用的读取器，只能走降级路径
var errLegacyDoc = errors.New("legacy binary .doc (OLE2) is not supported, convert to .docx")

// formatExtractor 单一格式的提取器
type formatExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// MultiFormatExtractor 按格式标签分发到具体提取器。
// PDF 先走主提取器，失败或无文本时再用兜底提取器。
type MultiFormatExtractor struct {
	pdfPrimary  formatExtractor
	pdfFallback formatExtractor
	docx        formatExtractor
	logger      *log.Logger
}

// ExtractorOption MultiFormatExtractor 的配置选项
type ExtractorOption func(*MultiFormatExtractor)

// WithExtractorLogger 设置日志记录器
func WithExtractorLogger(logger *log.Logger) ExtractorOption {
	return func(m *MultiFormatExtractor) {
		m.logger = logger
	}
}

// WithPrimaryPDFExtractor 设置主 PDF 提取器，传 nil 表示只使用兜底提取器
func WithPrimaryPDFExtractor(e *EinoPDFTextExtractor) ExtractorOption {
	return func(m *MultiFormatExtractor) {
		if e == nil {
			m.pdfPrimary = nil
			return
		}
		m.pdfPrimary = e
	}
}

// NewMultiFormatExtractor 创建多格式提取器，默认只启用 ledongthuc 和 docx 提取器
func NewMultiFormatExtractor(options ...ExtractorOption) *MultiFormatExtractor {
	m := &MultiFormatExtractor{
		pdfFallback: PlainPDFExtractor{},
		docx:        DocxExtractor{},
		logger:      log.New(io.Discard, "[TextExtractor] ", log.LstdFlags),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// ExtractText 实现 TextExtractor。
// 未知格式返回 ErrUnsupportedFormat；容器损坏或旧版二进制 .doc 返回 ErrExtractionDegraded 类错误；
// 容器有效但没有文本时返回空字符串。
func (m *MultiFormatExtractor) ExtractText(ctx context.Context, data []byte, format types.DocumentFormat) (string, error) {
	var (
		text string
		err  error
	)
	switch format {
	case types.FormatPDF:
		text, err = m.extractPDF(ctx, data)
	case types.FormatDOCX:
		text, err = m.docx.ExtractText(ctx, data)
	case types.FormatDOC:
		// 扩展名为 .doc 的 OOXML 文件仍交给 docx 读取器
		if bytes.HasPrefix(data, oleMagic) {
			err = errLegacyDoc
			break
		}
		text, err = m.docx.ExtractText(ctx, data)
	case types.FormatText:
		text = string(data)
	default:
		return "", types.NewUnsupportedFormatError(string(format))
	}
	if err != nil {
		return "", types.NewExtractionError(format, err.Error())
	}
	return normalizeText(text), nil
}

func (m *MultiFormatExtractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	if m.pdfPrimary != nil {
		text, err := m.pdfPrimary.ExtractText(ctx, data)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if err != nil {
			m.logger.Printf("主 PDF 提取器失败，改用兜底提取器: %v", err)
		} else {
			m.logger.Printf("主 PDF 提取器未得到文本，改用兜底提取器")
		}
	}
	return m.pdfFallback.ExtractText(ctx, data)
}

// normalizeText 统一换行符并剔除非法 UTF-8 字节
func normalizeText(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")
	return text
}
