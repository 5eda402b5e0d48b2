package router

import (
	"context"

	"ai-resume-go/internal/api/handler"
	"ai-resume-go/internal/config"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// RegisterRoutes 注册 API 路由，auth.Enabled 时 /api/v1 下的接口需要 API Key
func RegisterRoutes(h *server.Hertz, auth config.AuthConfig, resumeHandler *handler.ResumeHandler, aiHandler *handler.AIHandler) {
	// 健康检查不需要鉴权
	h.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api := h.Group("/api/v1")
	if auth.Enabled {
		api.Use(NewKeyAuth(auth))
	}

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	resume := api.Group("/resume")
	resume.POST("/upload", resumeHandler.HandleUpload)
	resume.GET("/", resumeHandler.HandleList)
	resume.GET("/:resume_id", resumeHandler.HandleGet)
	resume.PUT("/:resume_id", resumeHandler.HandleUpdate)
	resume.DELETE("/:resume_id", resumeHandler.HandleDelete)
	resume.GET("/:resume_id/download", resumeHandler.HandleDownload)
	resume.GET("/:resume_id/content", resumeHandler.HandleContent)

	ai := api.Group("/ai")
	ai.POST("/analyze-match", aiHandler.HandleAnalyzeMatch)
	ai.POST("/customize-resume", aiHandler.HandleCustomize)
	ai.POST("/batch-analyze", aiHandler.HandleBatchAnalyze)
	ai.GET("/processing-logs/:resume_id", aiHandler.HandleProcessingLogs)
	ai.GET("/suggestions/:resume_id", aiHandler.HandleSuggestions)
	ai.POST("/suggestions/:resume_id", aiHandler.HandleSuggestions)
}

// NewKeyAuth 基于静态 API Key 列表的鉴权中间件
func NewKeyAuth(auth config.AuthConfig) app.HandlerFunc {
	header := auth.Header
	if header == "" {
		header = "X-API-Key"
	}
	keys := make(map[string]struct{}, len(auth.APIKeys))
	for _, k := range auth.APIKeys {
		keys[k] = struct{}{}
	}

	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+header, ""),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			_, ok := keys[key]
			return ok, nil
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			hlog.CtxWarnf(ctx, "API Key 鉴权失败: %s %s: %v", c.Method(), c.Path(), err)
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "Invalid or missing API key"})
		}),
	)
}
