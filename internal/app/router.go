package app

import (
	"time"

	"training_backend/docs"
	"training_backend/internal/config"
	"training_backend/internal/middleware"
	"training_backend/internal/model"
	"training_backend/pkg/monitoring"
	"training_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		// 学员/通用 授权接口
		a.registerLearnerRoutes(authGroup, c, cfg)

		// 讲师相关接口
		a.registerInstructorRoutes(authGroup, c)

		// 管理员相关接口
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	router.GET("/api/health", c.health.HealthCheck)
}

func (a *App) registerLearnerRoutes(r *gin.RouterGroup, c *controllers, cfg *config.Config) {
	// 按学员限流，防止刷分
	submitLimit := security.KeyedRateLimiter(cfg.RateLimit.AttemptsPerMinute, time.Minute, security.KeyByUser)

	r.GET("/trainings/progress", c.statistics.GetAllTrainingProgress)

	training := r.Group("/trainings/:trainingId")
	{
		training.POST("/levels/attempts", submitLimit, c.scenario.SubmitAttempt)
		training.GET("/levels", c.level.ListLevels)
		training.GET("/levels/:levelId", c.level.GetLevel)
		training.GET("/levels/:levelId/optimal-path", c.scenario.GetOptimalPath)
		training.GET("/me/statistics", c.statistics.GetMyStatistics)
		training.GET("/users/:userId/statistics", c.statistics.GetUserStatistics)
		training.GET("/progress", c.statistics.GetTrainingProgress)
	}
}

func (a *App) registerInstructorRoutes(r *gin.RouterGroup, c *controllers) {
	instructor := r.Group("/trainings/:trainingId")
	instructor.Use(middleware.RoleMiddleware(model.Instructor))
	{
		instructor.GET("/levels/:levelId/statistics", c.statistics.GetLevelStatistics)
		instructor.POST("/levels", c.level.CreateLevel)
		instructor.PUT("/levels/:levelId", c.level.UpdateLevel)
	}
}

func (a *App) registerAdminRoutes(r *gin.RouterGroup, c *controllers) {
	admin := r.Group("")
	admin.Use(middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/trainings/import", c.importer.Import)
	}
}
