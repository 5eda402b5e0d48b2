package logger

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var (
	// Logger 全局日志实例
	Logger = zlog.Logger
)

// Config 日志配置
type Config struct {
	Level        string `json:"level" yaml:"level"`                 // debug, info, warn, error
	Format       string `json:"format" yaml:"format"`               // json 或 pretty
	TimeFormat   string `json:"time_format" yaml:"time_format"`     // 时间戳格式
	ReportCaller bool   `json:"report_caller" yaml:"report_caller"` // 是否记录调用位置
	// FilePath 非空时同时写入该文件
	FilePath string `json:"file_path" yaml:"file_path"`
}

// Init 根据配置初始化全局日志，返回需要在退出时关闭的文件（可能为 nil）
func Init(config Config) (io.Closer, error) {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil || config.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	var output io.Writer = os.Stdout
	if config.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: config.TimeFormat,
		}
	}

	var closer io.Closer
	if config.FilePath != "" {
		f, err := os.OpenFile(config.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		output = zerolog.MultiLevelWriter(output, f)
		closer = f
	}

	ctxLogger := zerolog.New(output).Level(level).With().Timestamp()
	if config.ReportCaller {
		ctxLogger = ctxLogger.Caller()
	}

	Logger = ctxLogger.Logger()
	zlog.Logger = Logger
	return closer, nil
}

// BridgeHertz 让 Hertz 的 hlog 输出到全局 zerolog
func BridgeHertz() {
	hlog.SetLogger(hertzadapter.From(Logger))
	switch Logger.GetLevel() {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		hlog.SetLevel(hlog.LevelDebug)
	case zerolog.WarnLevel:
		hlog.SetLevel(hlog.LevelWarn)
	case zerolog.ErrorLevel:
		hlog.SetLevel(hlog.LevelError)
	default:
		hlog.SetLevel(hlog.LevelInfo)
	}
}

// Std 返回写入全局 zerolog 的标准库 *log.Logger，供各组件的 WithXxxLogger 选项使用。
// 每行按 info 级别输出，受配置的日志级别过滤。
func Std(prefix string) *log.Logger {
	return StdLevel(prefix, zerolog.InfoLevel)
}

// StdLevel 与 Std 相同，但使用指定级别
func StdLevel(prefix string, level zerolog.Level) *log.Logger {
	return log.New(levelWriter{level: level}, prefix, 0)
}

// levelWriter 把标准库日志的每一行转成一条固定级别的 zerolog 事件。
// 写入时才读取全局 Logger，Init 之前创建的 *log.Logger 也会跟随之后的配置。
type levelWriter struct {
	level zerolog.Level
}

func (w levelWriter) Write(p []byte) (int, error) {
	Logger.WithLevel(w.level).Msg(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Debug 开始一条调试级别的日志事件
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info 开始一条信息级别的日志事件
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn 开始一条警告级别的日志事件
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error 开始一条错误级别的日志事件
func Error() *zerolog.Event {
	return Logger.Error()
}

// Fatal 记录后程序退出
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// Ctx 从上下文中获取日志记录器
func Ctx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// WithContext 将全局日志记录器放入上下文
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}
