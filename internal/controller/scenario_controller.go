package controller

import (
	"training_backend/internal/service"
	"training_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ScenarioController struct {
	ScenarioService *service.ScenarioService
}

func NewScenarioController(scenarioService *service.ScenarioService) *ScenarioController {
	return &ScenarioController{ScenarioService: scenarioService}
}

// @Summary 提交情景关卡作答
// @Description 评分并仅保留该学员在该关卡的最佳成绩
// @Tags 情景训练
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trainingId path int true "培训ID"
// @Param attempt body service.EvaluateRequest true "作答轨迹"
// @Success 200 {object} util.Response
// @Router /api/trainings/{trainingId}/levels/attempts [post]
func (c *ScenarioController) SubmitAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	trainingID, ok := util.ParseUintParam(ctx.Param("trainingId"))
	if !ok {
		util.BadRequest(ctx, "invalid trainingId")
		return
	}

	var req service.EvaluateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.ScenarioService.EvaluateAndStore(ctx.Request.Context(), user.UserID, trainingID, req)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 获取关卡最优路径
// @Tags 情景训练
// @Produce json
// @Security BearerAuth
// @Param trainingId path int true "培训ID"
// @Param levelId path int true "关卡ID"
// @Success 200 {object} util.Response
// @Router /api/trainings/{trainingId}/levels/{levelId}/optimal-path [get]
func (c *ScenarioController) GetOptimalPath(ctx *gin.Context) {
	trainingID, levelID, ok := trainingAndLevel(ctx)
	if !ok {
		return
	}
	path, err := c.ScenarioService.GetOptimalPath(ctx.Request.Context(), trainingID, levelID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, path)
}

// trainingAndLevel 解析路径中的 trainingId 与 levelId，失败时已写入 400
func trainingAndLevel(ctx *gin.Context) (uint, uint, bool) {
	trainingID, ok := util.ParseUintParam(ctx.Param("trainingId"))
	if !ok {
		util.BadRequest(ctx, "invalid trainingId")
		return 0, 0, false
	}
	levelID, ok := util.ParseUintParam(ctx.Param("levelId"))
	if !ok {
		util.BadRequest(ctx, "invalid levelId")
		return 0, 0, false
	}
	return trainingID, levelID, true
}
