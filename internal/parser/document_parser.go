package parser

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"ai-resume-go/internal/types"
)

// DocumentParser 组合文本提取与结构化组装，对外提供 parse_document 入口
type DocumentParser struct {
	extractor TextExtractor
	assembler *Assembler
	logger    *log.Logger
}

// DocumentParserOption DocumentParser 的配置选项
type DocumentParserOption func(*DocumentParser)

// WithDocumentParserLogger 设置日志记录器
func WithDocumentParserLogger(logger *log.Logger) DocumentParserOption {
	return func(p *DocumentParser) {
		p.logger = logger
	}
}

// WithAssembler 替换默认的 Assembler
func WithAssembler(a *Assembler) DocumentParserOption {
	return func(p *DocumentParser) {
		if a != nil {
			p.assembler = a
		}
	}
}

// NewDocumentParser 创建 DocumentParser，extractor 为 nil 时使用不带 Eino 的多格式提取器
func NewDocumentParser(extractor TextExtractor, options ...DocumentParserOption) *DocumentParser {
	if extractor == nil {
		extractor = NewMultiFormatExtractor()
	}
	p := &DocumentParser{
		extractor: extractor,
		assembler: NewAssembler(),
		logger:    log.New(io.Discard, "[DocumentParser] ", log.LstdFlags),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// ParseDocument 解析文档字节。只有不支持的格式会返回错误。
func (p *DocumentParser) ParseDocument(ctx context.Context, data []byte, format types.DocumentFormat) (types.ParsedResume, error) {
	return p.ParseNamedDocument(ctx, data, format, "")
}

// ParseNamedDocument 同 ParseDocument，解析失败时以文件名（去掉扩展名）作为标题
func (p *DocumentParser) ParseNamedDocument(ctx context.Context, data []byte, format types.DocumentFormat, fileName string) (types.ParsedResume, error) {
	startTime := time.Now()
	var stem string
	if fileName != "" {
		stem = strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	}

	text, err := p.extractor.ExtractText(ctx, data, format)
	if err != nil {
		if errors.Is(err, types.ErrUnsupportedFormat) {
			return types.ParsedResume{}, err
		}
		p.logger.Printf("文本提取失败，返回降级结果 (格式:%s, 文件:%s): %v", format, fileName, err)
		return p.assembler.AssembleDegraded("", err, stem), nil
	}

	if strings.TrimSpace(text) == "" {
		p.logger.Printf("文档中没有可提取的文本 (格式:%s, 文件:%s)", format, fileName)
		return p.assembler.AssembleDegraded(text,
			types.NewExtractionError(format, "文档中没有可提取的文本"), stem), nil
	}

	resume := p.assembler.Assemble(text)
	if resume.ParseError != "" && resume.Title == DefaultResumeTitle && stem != "" {
		resume.Title = stem
	}
	p.logger.Printf("简历解析完成 (格式:%s, 字符:%d, 经历:%d, 教育:%d, 技能:%d, 用时:%s)",
		format, len(text), len(resume.Experience), len(resume.Education), len(resume.Skills), time.Since(startTime))
	return resume, nil
}

// ParseText 直接解析已经提取好的文本
func (p *DocumentParser) ParseText(text string) types.ParsedResume {
	return p.assembler.Assemble(normalizeText(text))
}
