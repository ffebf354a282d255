package controller

import (
	"strconv"

	"training_backend/internal/middleware"
	"training_backend/internal/model"
	"training_backend/internal/service"
	"training_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StatisticsController struct {
	StatisticsService *service.StatisticsService
}

func NewStatisticsController(statisticsService *service.StatisticsService) *StatisticsController {
	return &StatisticsController{StatisticsService: statisticsService}
}

// @Summary 关卡统计
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param trainingId path int true "培训ID"
// @Param levelId path int true "关卡ID"
// @Param recent query int false "最近作答条数" default(10)
// @Success 200 {object} util.Response
// @Router /api/trainings/{trainingId}/levels/{levelId}/statistics [get]
func (c *StatisticsController) GetLevelStatistics(ctx *gin.Context) {
	trainingID, levelID, ok := trainingAndLevel(ctx)
	if !ok {
		return
	}
	recent, _ := strconv.Atoi(ctx.Query("recent"))

	stats, err := c.StatisticsService.GetLevelStatistics(ctx.Request.Context(), trainingID, levelID, recent)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary 学员培训统计
// @Description 学员只能查看自己的统计，讲师与管理员可查看任意学员
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param trainingId path int true "培训ID"
// @Param userId path int true "学员ID"
// @Success 200 {object} util.Response
// @Router /api/trainings/{trainingId}/users/{userId}/statistics [get]
func (c *StatisticsController) GetUserStatistics(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	userID, ok := util.ParseUintParam(ctx.Param("userId"))
	if !ok {
		util.BadRequest(ctx, "invalid userId")
		return
	}
	if userID != user.UserID && !middleware.HasRole(user, model.Instructor) {
		util.Forbidden(ctx)
		return
	}
	c.userStatistics(ctx, userID)
}

// @Summary 我的培训统计
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param trainingId path int true "培训ID"
// @Success 200 {object} util.Response
// @Router /api/trainings/{trainingId}/me/statistics [get]
func (c *StatisticsController) GetMyStatistics(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	c.userStatistics(ctx, user.UserID)
}

func (c *StatisticsController) userStatistics(ctx *gin.Context, userID uint) {
	trainingID, ok := util.ParseUintParam(ctx.Param("trainingId"))
	if !ok {
		util.BadRequest(ctx, "invalid trainingId")
		return
	}
	stats, err := c.StatisticsService.GetUserTrainingStatistics(ctx.Request.Context(), userID, trainingID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// @Summary 培训整体进度
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param trainingId path int true "培训ID"
// @Success 200 {object} util.Response
// @Router /api/trainings/{trainingId}/progress [get]
func (c *StatisticsController) GetTrainingProgress(ctx *gin.Context) {
	trainingID, ok := util.ParseUintParam(ctx.Param("trainingId"))
	if !ok {
		util.BadRequest(ctx, "invalid trainingId")
		return
	}
	progress, err := c.StatisticsService.GetTrainingProgress(ctx.Request.Context(), trainingID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary 全部培训进度
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/trainings/progress [get]
func (c *StatisticsController) GetAllTrainingProgress(ctx *gin.Context) {
	list, err := c.StatisticsService.GetAllTrainingProgress(ctx.Request.Context())
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, list)
}
