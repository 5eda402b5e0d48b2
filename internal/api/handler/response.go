package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ai-resume-go/internal/processor"
	"ai-resume-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// SuccessResponse 上传、删除等操作的统一返回
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// 返回给调用方的固定错误信息
const (
	MsgResumeNotFound     = processor.MsgResumeNotFound
	MsgInvalidBody        = "Invalid request body"
	MsgMissingResumeID    = "resume_id is required"
	MsgMissingJob         = "job_description is required"
	MsgEmptyBatch         = "resume_ids must not be empty"
	MsgInvalidLevel       = "Invalid customization level. Supported levels: light, moderate, heavy"
	MsgUploadFailed       = "Failed to upload resume"
	MsgListFailed         = "Failed to retrieve resumes"
	MsgGetFailed          = "Failed to retrieve resume"
	MsgContentFailed      = "Failed to retrieve resume content"
	MsgUpdateFailed       = "Failed to update resume"
	MsgDeleteFailed       = "Failed to delete resume"
	MsgDownloadFailed     = "Failed to download resume"
	MsgAnalyzeFailed      = "Failed to analyze resume-job match"
	MsgCustomizeFailed    = "Failed to customize resume"
	MsgBatchFailed        = "Failed to perform batch analysis"
	MsgLogsFailed         = "Failed to retrieve processing logs"
	MsgSuggestionsFailed  = "Failed to generate suggestions"
	MsgStorageUnavailable = "Storage service temporarily unavailable"
)

// batchTooLargeMessage 批量数量超限时的提示
func batchTooLargeMessage(limit int) string {
	return fmt.Sprintf("Maximum %d resumes allowed per batch", limit)
}

func writeJSONError(c *app.RequestContext, status int, msg string) {
	c.JSON(status, utils.H{"error": msg})
}

// writeServiceError 把服务层错误映射为 HTTP 状态码，未识别的错误使用 fallback 信息返回 500
func writeServiceError(ctx context.Context, c *app.RequestContext, err error, fallback string) {
	var vErr *processor.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSONError(c, consts.StatusBadRequest, vErr.Message)
	case processor.IsNotFound(err):
		writeJSONError(c, consts.StatusNotFound, MsgResumeNotFound)
	case errors.Is(err, processor.ErrEmptyBatch):
		writeJSONError(c, consts.StatusBadRequest, MsgEmptyBatch)
	case errors.Is(err, processor.ErrInvalidCustomizationLevel):
		writeJSONError(c, consts.StatusBadRequest, MsgInvalidLevel)
	case errors.Is(err, types.ErrUnsupportedFormat):
		writeJSONError(c, consts.StatusBadRequest, err.Error())
	case errors.Is(err, processor.ErrStoreNotInit), errors.Is(err, processor.ErrObjectStoreNotInit):
		hlog.CtxErrorf(ctx, "%s: %v", fallback, err)
		writeJSONError(c, consts.StatusServiceUnavailable, MsgStorageUnavailable)
	default:
		hlog.CtxErrorf(ctx, "%s: %v", fallback, err)
		writeJSONError(c, consts.StatusInternalServerError, fallback)
	}
}

// bindJSON 解析请求体，空请求体视为 {}
func bindJSON(c *app.RequestContext, v interface{}) error {
	body := c.Request.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("解析请求体失败: %w", err)
	}
	return nil
}
