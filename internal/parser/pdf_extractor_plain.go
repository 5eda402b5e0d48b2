package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PlainPDFExtractor 基于 ledongthuc/pdf 的逐页纯文本提取，作为 Eino 解析失败时的兜底
type PlainPDFExtractor struct{}

// ExtractText 逐页读取文本。单页失败会被跳过，整个容器无法打开时返回错误。
func (PlainPDFExtractor) ExtractText(_ context.Context, data []byte) (text string, err error) {
	// ledongthuc/pdf 遇到损坏的对象流会直接 panic
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf 读取异常: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("打开 pdf 失败: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, perr := page.GetPlainText(nil)
		if perr != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
