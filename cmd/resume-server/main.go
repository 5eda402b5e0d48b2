package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-resume-go/internal/agent"
	"ai-resume-go/internal/api/handler"
	"ai-resume-go/internal/api/router"
	"ai-resume-go/internal/config"
	"ai-resume-go/internal/logger"
	"ai-resume-go/internal/outbox"
	"ai-resume-go/internal/processor"
	"ai-resume-go/internal/storage"
	"ai-resume-go/internal/tracing"
	"ai-resume-go/pkg/ratelimit"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

var (
	version     = "1.0.0"        //nolint:gochecknoglobals
	serviceName = "ai-resume-go" //nolint:gochecknoglobals
)

// 上传请求体在文件上限之外预留的空间，用于 multipart 边界和表单字段
const multipartOverhead = 1 << 20

// @title AI Resume API
// @version 1.0
// @description Resume parsing, job matching and AI customization.
// @BasePath /api/v1
func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}

	logCloser, err := logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化日志失败")
	}
	if logCloser != nil {
		defer logCloser.Close()
	}
	logger.Logger = logger.Logger.With().
		Str("app", serviceName).
		Str("version", version).
		Logger()
	logger.BridgeHertz()
	logger.Info().Str("config", configPath).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdownTracing, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
			Endpoint:       cfg.Tracing.Endpoint,
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: version,
			SampleRatio:    cfg.Tracing.SampleRatio,
			Insecure:       cfg.Tracing.Insecure,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("初始化链路追踪失败，继续运行")
		} else {
			defer func() {
				flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer flushCancel()
				if err := shutdownTracing(flushCtx); err != nil {
					logger.Warn().Err(err).Msg("关闭链路追踪失败")
				}
			}()
			logger.Info().Str("endpoint", cfg.Tracing.Endpoint).Msg("链路追踪已启用")
		}
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()
	logger.Info().Msg("存储服务初始化成功")

	var messageRelay *outbox.MessageRelay
	if cfg.Outbox.Enabled && storageManager.RabbitMQ != nil {
		messageRelay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ,
			outbox.WithPollingInterval(config.GetDuration(cfg.Outbox.PollInterval, 2*time.Second)),
			outbox.WithBatchSize(cfg.Outbox.BatchSize),
			outbox.WithRelayLogger(logger.Std("[MessageRelay] ")),
		)
		messageRelay.Start()
		logger.Info().Msg("消息中继服务已启动")
	} else {
		logger.Warn().Msg("RabbitMQ 不可用或 outbox 未启用，领域事件只写入 outbox 表")
	}

	svc := processor.NewResumeServiceFromConfig(ctx, cfg, storageManager, newChatModel(cfg), &logger.Logger)
	logger.Info().Msg("ResumeService初始化成功")

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(int(cfg.Upload.MaxFileSize)+multipartOverhead),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		hlog.CtxInfof(c, "%s %s -> %d (%s)", ctx.Method(), ctx.Path(), ctx.Response.StatusCode(), time.Since(start))
	})

	router.RegisterRoutes(h, cfg.Auth, handler.NewResumeHandler(svc), handler.NewAIHandler(svc))
	logger.Info().Bool("auth", cfg.Auth.Enabled).Msg("HTTP路由注册成功")

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("HTTP 服务器启动中")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	if messageRelay != nil {
		messageRelay.Stop()
		logger.Info().Msg("消息中继服务已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(),
		config.GetDuration(cfg.Server.ShutdownTimeout, 10*time.Second))
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	logger.Info().Msg("优雅退出完成")
}

// newChatModel 未配置 API 密钥时返回 nil，服务以无 LLM 模式运行
func newChatModel(cfg *config.Config) model.ToolCallingChatModel {
	if cfg.LLM.APIKey == "" {
		logger.Warn().Msg("未配置 LLM API 密钥，简历定制和建议将使用兜底结果")
		return nil
	}
	chatModel, err := agent.NewChatModel(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL,
		agent.WithDefaults(cfg.LLM.Temperature, cfg.LLM.MaxTokens),
		agent.WithHTTPClient(&http.Client{Timeout: config.GetDuration(cfg.LLM.Timeout, 60*time.Second)}),
		agent.WithChatLogger(logger.Std("[ChatModel] ")),
	)
	if err != nil {
		logger.Warn().Err(err).Msg("初始化LLM模型失败，继续以无 LLM 模式运行")
		return nil
	}
	logger.Info().Str("model", cfg.LLM.Model).Int("qpm", cfg.LLM.QPM).Msg("LLM模型初始化成功")
	return ratelimit.NewRateLimitedChatModel(chatModel, cfg.LLM.QPM, time.Second, 3)
}
