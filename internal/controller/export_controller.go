package controller

import (
	"errors"

	"llm_tutor_backend/internal/service"
	"llm_tutor_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ExportController struct {
	ExportService *service.ExportService
}

func NewExportController(exportService *service.ExportService) *ExportController {
	return &ExportController{ExportService: exportService}
}

// @Summary 导出学习进度
// @Description structured 为完整 JSON 文档，tabular 为逐条练习记录的 CSV
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Param format query string false "导出格式" default(structured)
// @Success 200 {file} binary
// @Router /api/progress/export [get]
func (c *ExportController) ExportProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	format := service.ExportFormat(ctx.DefaultQuery("format", string(service.ExportStructured)))
	payload, err := c.ExportService.Export(user.UserID, format)
	if err != nil {
		if errors.Is(err, util.ErrUnsupportedExportFormat) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", "attachment; filename="+payload.Filename)
	ctx.Data(200, payload.ContentType, payload.Data)
}

// @Summary 归档导出文件
// @Description 渲染导出内容并上传到存储层，返回下载地址
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Param format query string false "导出格式" default(structured)
// @Success 200 {object} util.Response
// @Router /api/progress/export/archive [post]
func (c *ExportController) ArchiveExport(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	format := service.ExportFormat(ctx.DefaultQuery("format", string(service.ExportStructured)))
	url, err := c.ExportService.Archive(ctx.Request.Context(), user.UserID, format)
	if err != nil {
		if errors.Is(err, util.ErrUnsupportedExportFormat) {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"url": url})
}
