package handler

import (
	"rentsystem/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := NewHandler(db, rdb, cfg)
	RegisterRoutes(r, h)

	return r
}

// RegisterRoutes 注册所有业务路由
func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		accounts := api.Group("/accounts")
		{
			accounts.GET("", h.ListAccounts)
			accounts.POST("", h.CreateAccount)

			// 批量接口要排在 :id 前面注册，路径是静态段 batch
			accounts.PUT("/batch/status", h.BatchUpdateStatus)
			accounts.DELETE("/batch", h.BatchDelete)

			accounts.GET("/:id", h.GetAccount)
			accounts.PUT("/:id", h.UpdateAccount)
			accounts.DELETE("/:id", h.DeleteAccount)
			accounts.POST("/:id/rent", h.RentAccount)
			accounts.POST("/:id/complete", h.CompleteAccount)
		}

		api.GET("/statistics", h.GetStatistics)
		api.POST("/reports/profit", h.GetProfitReport)
		api.PUT("/config/password", h.ChangePassword)
		api.GET("/export", h.ExportAccounts)
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
