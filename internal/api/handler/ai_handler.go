package handler

import (
	"context"
	"errors"
	"strings"

	"ai-resume-go/internal/processor"
	"ai-resume-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// AIHandler 匹配分析、定制和建议接口
type AIHandler struct {
	svc *processor.ResumeService
}

// NewAIHandler 创建 AI 接口处理器
func NewAIHandler(svc *processor.ResumeService) *AIHandler {
	return &AIHandler{svc: svc}
}

// AnalyzeMatchRequest 匹配分析请求
type AnalyzeMatchRequest struct {
	ResumeID       string                `json:"resume_id"`
	JobDescription *types.JobDescription `json:"job_description"`
}

// CustomizeRequest 定制请求，customization_level 为空时按 moderate 处理
type CustomizeRequest struct {
	ResumeID           string                `json:"resume_id"`
	JobDescription     *types.JobDescription `json:"job_description"`
	CustomizationLevel string                `json:"customization_level"`
}

// BatchAnalyzeRequest 批量分析请求
type BatchAnalyzeRequest struct {
	ResumeIDs      []string              `json:"resume_ids"`
	JobDescription *types.JobDescription `json:"job_description"`
}

// SuggestionsRequest 建议请求，job_description 可选
type SuggestionsRequest struct {
	JobDescription *types.JobDescription `json:"job_description"`
}

// HandleAnalyzeMatch 分析简历与职位的匹配度
func (h *AIHandler) HandleAnalyzeMatch(ctx context.Context, c *app.RequestContext) {
	var req AnalyzeMatchRequest
	if err := bindJSON(c, &req); err != nil {
		writeJSONError(c, consts.StatusBadRequest, MsgInvalidBody)
		return
	}
	if !checkTarget(c, req.ResumeID, req.JobDescription) {
		return
	}

	analysis, err := h.svc.AnalyzeResume(ctx, req.ResumeID, *req.JobDescription)
	if err != nil {
		writeServiceError(ctx, c, err, MsgAnalyzeFailed)
		return
	}
	c.JSON(consts.StatusOK, analysis)
}

// HandleCustomize 按职位定制简历，结果另存为新简历
func (h *AIHandler) HandleCustomize(ctx context.Context, c *app.RequestContext) {
	var req CustomizeRequest
	if err := bindJSON(c, &req); err != nil {
		writeJSONError(c, consts.StatusBadRequest, MsgInvalidBody)
		return
	}
	if !checkTarget(c, req.ResumeID, req.JobDescription) {
		return
	}

	result, err := h.svc.CustomizeStoredResume(ctx, req.ResumeID, *req.JobDescription, req.CustomizationLevel)
	if err != nil {
		writeServiceError(ctx, c, err, MsgCustomizeFailed)
		return
	}
	c.JSON(consts.StatusOK, result)
}

// HandleBatchAnalyze 批量分析多份简历
func (h *AIHandler) HandleBatchAnalyze(ctx context.Context, c *app.RequestContext) {
	var req BatchAnalyzeRequest
	if err := bindJSON(c, &req); err != nil {
		writeJSONError(c, consts.StatusBadRequest, MsgInvalidBody)
		return
	}
	if req.JobDescription == nil {
		writeJSONError(c, consts.StatusBadRequest, MsgMissingJob)
		return
	}

	result, err := h.svc.BatchAnalyzeStored(ctx, req.ResumeIDs, *req.JobDescription)
	if errors.Is(err, processor.ErrBatchTooLarge) {
		writeJSONError(c, consts.StatusBadRequest, batchTooLargeMessage(h.svc.Settings().MaxBatchSize))
		return
	}
	if err != nil {
		writeServiceError(ctx, c, err, MsgBatchFailed)
		return
	}
	c.JSON(consts.StatusOK, result)
}

// HandleProcessingLogs 返回简历最近的处理日志
func (h *AIHandler) HandleProcessingLogs(ctx context.Context, c *app.RequestContext) {
	logs, err := h.svc.GetProcessingLogs(ctx, c.Param("resume_id"))
	if err != nil {
		writeServiceError(ctx, c, err, MsgLogsFailed)
		return
	}
	c.JSON(consts.StatusOK, logs)
}

// HandleSuggestions 生成改进建议。GET 和 POST 都可以携带可选的职位描述。
func (h *AIHandler) HandleSuggestions(ctx context.Context, c *app.RequestContext) {
	var req SuggestionsRequest
	if err := bindJSON(c, &req); err != nil {
		writeJSONError(c, consts.StatusBadRequest, MsgInvalidBody)
		return
	}

	result, err := h.svc.GetSuggestions(ctx, c.Param("resume_id"), req.JobDescription)
	if err != nil {
		writeServiceError(ctx, c, err, MsgSuggestionsFailed)
		return
	}
	c.JSON(consts.StatusOK, result)
}

func checkTarget(c *app.RequestContext, resumeID string, job *types.JobDescription) bool {
	if strings.TrimSpace(resumeID) == "" {
		writeJSONError(c, consts.StatusBadRequest, MsgMissingResumeID)
		return false
	}
	if job == nil {
		writeJSONError(c, consts.StatusBadRequest, MsgMissingJob)
		return false
	}
	return true
}
