package app

import (
	"llm_tutor_backend/internal/config"
	"llm_tutor_backend/internal/middleware"
	"llm_tutor_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.POST("/progress/exercises", c.progress.CompleteExercise)
		authGroup.GET("/progress", c.progress.GetProgress)
		authGroup.GET("/progress/history", c.statistics.GetHistory)
		authGroup.GET("/progress/statistics", c.statistics.GetStatistics)
		authGroup.GET("/progress/export", c.export.ExportProgress)
		authGroup.POST("/progress/export/archive", c.export.ArchiveExport)

		authGroup.GET("/achievements", c.achievement.GetAchievements)
	}
}
