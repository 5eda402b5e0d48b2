package processor

import (
	"context"
	"time"

	"ai-resume-go/internal/config"
	"ai-resume-go/internal/logger"
	"ai-resume-go/internal/matcher"
	"ai-resume-go/internal/parser"
	"ai-resume-go/internal/storage"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"
)

// NewParserFromConfig 创建文档解析器。Eino PDF 解析器创建失败时只使用 ledongthuc 提取器。
func NewParserFromConfig(ctx context.Context, zl *zerolog.Logger) *parser.DocumentParser {
	extractorOpts := []parser.ExtractorOption{
		parser.WithExtractorLogger(logger.Std("[Extractor] ")),
	}
	einoPDF, err := parser.NewEinoPDFTextExtractor(ctx,
		parser.WithEinoLogger(logger.Std("[EinoPDF] ")),
		parser.WithEinoTimeout(30*time.Second),
	)
	if err != nil {
		zl.Warn().Err(err).Msg("Eino PDF 解析器不可用，使用备用 PDF 提取器")
	} else {
		extractorOpts = append(extractorOpts, parser.WithPrimaryPDFExtractor(einoPDF))
	}

	return parser.NewDocumentParser(
		parser.NewMultiFormatExtractor(extractorOpts...),
		parser.WithDocumentParserLogger(logger.Std("[DocumentParser] ")),
	)
}

// NewResumeServiceFromConfig 根据配置和已初始化的存储组装服务。
// chatModel 为 nil 时不做 LLM 改写，建议返回兜底内容。
func NewResumeServiceFromConfig(ctx context.Context, cfg *config.Config, st *storage.Storage, chatModel model.ToolCallingChatModel, zl *zerolog.Logger) *ResumeService {
	if zl == nil {
		nop := zerolog.Nop()
		zl = &nop
	}

	comp := &Components{
		Parser: NewParserFromConfig(ctx, zl),
		Analyzer: matcher.NewAnalyzer(
			matcher.WithScorer(matcher.NewTFIDFScorer(
				matcher.WithMaxFeatures(cfg.Analysis.MaxFeatures),
				matcher.WithScorerLogger(logger.Std("[TFIDF] ")),
			)),
			matcher.WithAnalyzerLogger(logger.Std("[Analyzer] ")),
		),
	}

	if chatModel != nil {
		comp.Rewriter = NewLLMRewriter(chatModel,
			WithRewriteMaxTokens(cfg.LLM.MaxTokens),
			WithRewriterLogger(logger.Std("[LLMRewriter] ")),
		)
		comp.Suggester = NewLLMSuggestionGenerator(chatModel, logger.Std("[Suggestions] "))
	} else {
		zl.Warn().Msg("未配置 LLM，简历定制将返回原简历")
	}

	if st != nil {
		if st.MySQL != nil {
			comp.Resumes = st.MySQL
			comp.Logs = st.MySQL
		}
		if st.MinIO != nil {
			comp.Objects = st.MinIO
		}
		if st.Redis != nil {
			comp.Dedup = st.Redis
		}
	}

	opts := append(SettingsFromConfig(cfg), WithServiceLogger(zl))
	return NewResumeService(comp, DefaultSettings(), opts...)
}
