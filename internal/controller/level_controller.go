package controller

import (
	"training_backend/internal/service"
	"training_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LevelController struct {
	LevelService *service.LevelService
}

func NewLevelController(levelService *service.LevelService) *LevelController {
	return &LevelController{LevelService: levelService}
}

// @Summary 创建关卡
// @Tags 关卡管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trainingId path int true "培训ID"
// @Param level body service.LevelRequest true "关卡信息"
// @Success 201 {object} util.Response
// @Router /api/trainings/{trainingId}/levels [post]
func (c *LevelController) CreateLevel(ctx *gin.Context) {
	trainingID, ok := util.ParseUintParam(ctx.Param("trainingId"))
	if !ok {
		util.BadRequest(ctx, "invalid trainingId")
		return
	}

	var req service.LevelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	level, err := c.LevelService.CreateLevel(ctx.Request.Context(), trainingID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, level)
}

// @Summary 更新关卡
// @Tags 关卡管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trainingId path int true "培训ID"
// @Param levelId path int true "关卡ID"
// @Param level body service.LevelRequest true "关卡信息"
// @Success 200 {object} util.Response
// @Router /api/trainings/{trainingId}/levels/{levelId} [put]
func (c *LevelController) UpdateLevel(ctx *gin.Context) {
	trainingID, levelID, ok := trainingAndLevel(ctx)
	if !ok {
		return
	}

	var req service.LevelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	level, err := c.LevelService.UpdateLevel(ctx.Request.Context(), trainingID, levelID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, level)
}

// @Summary 获取关卡详情
// @Tags 关卡管理
// @Security BearerAuth
// @Produce json
// @Param trainingId path int true "培训ID"
// @Param levelId path int true "关卡ID"
// @Success 200 {object} util.Response
// @Router /api/trainings/{trainingId}/levels/{levelId} [get]
func (c *LevelController) GetLevel(ctx *gin.Context) {
	trainingID, levelID, ok := trainingAndLevel(ctx)
	if !ok {
		return
	}
	level, err := c.LevelService.GetLevel(ctx.Request.Context(), trainingID, levelID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, level)
}

// @Summary 关卡列表
// @Tags 关卡管理
// @Security BearerAuth
// @Produce json
// @Param trainingId path int true "培训ID"
// @Success 200 {object} util.Response
// @Router /api/trainings/{trainingId}/levels [get]
func (c *LevelController) ListLevels(ctx *gin.Context) {
	trainingID, ok := util.ParseUintParam(ctx.Param("trainingId"))
	if !ok {
		util.BadRequest(ctx, "invalid trainingId")
		return
	}
	levels, err := c.LevelService.ListLevels(ctx.Request.Context(), trainingID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, levels)
}
