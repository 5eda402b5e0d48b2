package handler

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"ai-resume-go/internal/processor"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ResumeHandler 简历上传与管理接口
type ResumeHandler struct {
	svc *processor.ResumeService
}

// NewResumeHandler 创建简历处理器
func NewResumeHandler(svc *processor.ResumeService) *ResumeHandler {
	return &ResumeHandler{svc: svc}
}

// HandleUpload 上传并解析简历，表单字段为 file
func (h *ResumeHandler) HandleUpload(ctx context.Context, c *app.RequestContext) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeJSONError(c, consts.StatusBadRequest, "No file provided")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		hlog.CtxErrorf(ctx, "打开上传文件失败: %v", err)
		writeJSONError(c, consts.StatusInternalServerError, MsgUploadFailed)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		hlog.CtxErrorf(ctx, "读取上传文件内容失败: %v", err)
		writeJSONError(c, consts.StatusInternalServerError, MsgUploadFailed)
		return
	}

	result, err := h.svc.UploadResume(ctx, fileHeader.Filename, data)
	if err != nil {
		writeServiceError(ctx, c, err, MsgUploadFailed)
		return
	}

	message := "Resume uploaded and parsed successfully"
	if result.Duplicate {
		message = "Resume already uploaded"
	}
	c.JSON(consts.StatusOK, SuccessResponse{Success: true, Message: message, Data: result})
}

// HandleList 分页列出简历，查询参数 page、limit
func (h *ResumeHandler) HandleList(ctx context.Context, c *app.RequestContext) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", processor.DefaultPageLimit)

	result, err := h.svc.ListResumes(ctx, page, limit)
	if err != nil {
		writeServiceError(ctx, c, err, MsgListFailed)
		return
	}
	c.JSON(consts.StatusOK, result)
}

// HandleGet 获取简历记录
func (h *ResumeHandler) HandleGet(ctx context.Context, c *app.RequestContext) {
	record, err := h.svc.GetResume(ctx, c.Param("resume_id"))
	if err != nil {
		writeServiceError(ctx, c, err, MsgGetFailed)
		return
	}
	c.JSON(consts.StatusOK, record)
}

// HandleContent 获取简历的结构化内容
func (h *ResumeHandler) HandleContent(ctx context.Context, c *app.RequestContext) {
	content, err := h.svc.GetResumeContent(ctx, c.Param("resume_id"))
	if err != nil {
		writeServiceError(ctx, c, err, MsgContentFailed)
		return
	}
	c.JSON(consts.StatusOK, content)
}

// HandleUpdate 修改标题或结构化内容
func (h *ResumeHandler) HandleUpdate(ctx context.Context, c *app.RequestContext) {
	var req processor.ResumeUpdate
	if err := bindJSON(c, &req); err != nil {
		writeJSONError(c, consts.StatusBadRequest, MsgInvalidBody)
		return
	}

	record, err := h.svc.UpdateResume(ctx, c.Param("resume_id"), req)
	if err != nil {
		writeServiceError(ctx, c, err, MsgUpdateFailed)
		return
	}
	c.JSON(consts.StatusOK, record)
}

// HandleDelete 删除简历
func (h *ResumeHandler) HandleDelete(ctx context.Context, c *app.RequestContext) {
	resumeID := c.Param("resume_id")
	if err := h.svc.DeleteResume(ctx, resumeID); err != nil {
		writeServiceError(ctx, c, err, MsgDeleteFailed)
		return
	}
	c.JSON(consts.StatusOK, SuccessResponse{
		Success: true,
		Message: "Resume deleted successfully",
		Data:    map[string]string{"resume_id": resumeID},
	})
}

// HandleDownload 返回原始上传文件
func (h *ResumeHandler) HandleDownload(ctx context.Context, c *app.RequestContext) {
	file, err := h.svc.DownloadResume(ctx, c.Param("resume_id"))
	if err != nil {
		writeServiceError(ctx, c, err, MsgDownloadFailed)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(consts.StatusOK, file.ContentType, file.Data)
}

// queryInt 读取整数查询参数，缺失或非法时返回默认值
func queryInt(c *app.RequestContext, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
