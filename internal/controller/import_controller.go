package controller

import (
	"net/http"

	"training_backend/internal/service"
	"training_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// 导入文件上限 4MB
const maxImportBytes = 4 << 20

type ImportController struct {
	ImportService *service.ImportService
}

func NewImportController(importService *service.ImportService) *ImportController {
	return &ImportController{ImportService: importService}
}

// @Summary 批量导入培训、关卡与学员
// @Description 请求体为 YAML，按标题更新培训、按关卡编号更新关卡、按邮箱更新用户
// @Tags 关卡管理
// @Accept application/x-yaml
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/trainings/import [post]
func (c *ImportController) Import(ctx *gin.Context) {
	body := http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxImportBytes)
	summary, err := c.ImportService.Import(ctx.Request.Context(), body)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
