package processor

import (
	"ai-resume-go/internal/config"
	"ai-resume-go/internal/constants"
	"ai-resume-go/internal/matcher"
	"ai-resume-go/internal/parser"

	"github.com/rs/zerolog"
)

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// Components 服务依赖的业务组件和存储
type Components struct {
	Parser    *parser.DocumentParser
	Analyzer  *matcher.Analyzer
	Rewriter  Rewriter
	Suggester SuggestionGenerator

	Resumes ResumeStore
	Logs    ProcessingLogStore
	Objects ObjectStore
	Dedup   DedupCache
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	AllowedTypes      []string
	MaxFileSize       int64
	MaxBatchSize      int
	BatchWorkers      int
	MaxProcessingLogs int

	EventExchange        string
	ParsedRoutingKey     string
	AnalyzedRoutingKey   string
	CustomizedRoutingKey string

	Logger *zerolog.Logger
}

// 默认设置
const (
	DefaultMaxBatchSize      = constants.MaxBatchResumes
	DefaultBatchWorkers      = 4
	DefaultMaxProcessingLogs = 50
)

// DefaultSettings 返回一份默认设置
func DefaultSettings() *Settings {
	nop := zerolog.Nop()
	return &Settings{
		AllowedTypes:      append([]string(nil), DefaultAllowedTypes...),
		MaxFileSize:       DefaultMaxFileSize,
		MaxBatchSize:      DefaultMaxBatchSize,
		BatchWorkers:      DefaultBatchWorkers,
		MaxProcessingLogs: DefaultMaxProcessingLogs,
		Logger:            &nop,
	}
}

// ----- 组件选项 -----

// WithParser 设置文档解析器
func WithParser(p *parser.DocumentParser) ComponentOpt {
	return func(c *Components) {
		c.Parser = p
	}
}

// WithAnalyzer 设置匹配分析器
func WithAnalyzer(a *matcher.Analyzer) ComponentOpt {
	return func(c *Components) {
		c.Analyzer = a
	}
}

// WithRewriter 设置简历改写器
func WithRewriter(r Rewriter) ComponentOpt {
	return func(c *Components) {
		c.Rewriter = r
	}
}

// WithSuggestionGenerator 设置建议生成器
func WithSuggestionGenerator(g SuggestionGenerator) ComponentOpt {
	return func(c *Components) {
		c.Suggester = g
	}
}

// WithResumeStore 设置简历存储
func WithResumeStore(s ResumeStore) ComponentOpt {
	return func(c *Components) {
		c.Resumes = s
	}
}

// WithLogStore 设置处理日志存储
func WithLogStore(s ProcessingLogStore) ComponentOpt {
	return func(c *Components) {
		c.Logs = s
	}
}

// WithObjectStore 设置对象存储
func WithObjectStore(s ObjectStore) ComponentOpt {
	return func(c *Components) {
		c.Objects = s
	}
}

// WithDedupCache 设置去重缓存
func WithDedupCache(d DedupCache) ComponentOpt {
	return func(c *Components) {
		c.Dedup = d
	}
}

// ----- 设置选项 -----

// WithUploadLimits 设置上传允许的类型和大小上限
func WithUploadLimits(allowedTypes []string, maxFileSize int64) SettingOpt {
	return func(s *Settings) {
		if len(allowedTypes) > 0 {
			s.AllowedTypes = allowedTypes
		}
		if maxFileSize > 0 {
			s.MaxFileSize = maxFileSize
		}
	}
}

// WithBatchLimits 设置批量分析的上限和并发数，上限不超过 constants.MaxBatchResumes
func WithBatchLimits(maxBatchSize, workers int) SettingOpt {
	return func(s *Settings) {
		if maxBatchSize > 0 {
			s.MaxBatchSize = min(maxBatchSize, constants.MaxBatchResumes)
		}
		if workers > 0 {
			s.BatchWorkers = workers
		}
	}
}

// WithEventRouting 设置领域事件发布的交换机和路由键
func WithEventRouting(exchange, parsedKey, analyzedKey, customizedKey string) SettingOpt {
	return func(s *Settings) {
		s.EventExchange = exchange
		s.ParsedRoutingKey = parsedKey
		s.AnalyzedRoutingKey = analyzedKey
		s.CustomizedRoutingKey = customizedKey
	}
}

// WithServiceLogger 设置日志记录器
func WithServiceLogger(logger *zerolog.Logger) SettingOpt {
	return func(s *Settings) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// SettingsFromConfig 把配置文件中的相关字段转换为设置选项
func SettingsFromConfig(cfg *config.Config) []SettingOpt {
	if cfg == nil {
		return nil
	}
	return []SettingOpt{
		WithUploadLimits(cfg.Upload.AllowedTypes, cfg.Upload.MaxFileSize),
		WithBatchLimits(cfg.Analysis.MaxBatchSize, cfg.Analysis.BatchWorkers),
		WithEventRouting(
			cfg.RabbitMQ.ResumeEventsExchange,
			cfg.RabbitMQ.ParsedRoutingKey,
			cfg.RabbitMQ.AnalyzedRoutingKey,
			cfg.RabbitMQ.CustomizedRoutingKey,
		),
	}
}
