package router

import (
	"github.com/gin-gonic/gin"

	"shopstream.app/sync/internal/http/handler"
	"shopstream.app/sync/internal/service"
)

type RouterConfig struct {
	AdminAPIKey string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	syncHandler := handler.NewSyncHandler(services.Sync(), cfg.AdminAPIKey)
	failureHandler := handler.NewFailureHandler(services.Failures())

	v1 := router.Group("/api/v1")
	v1.Use(syncHandler.RequireAdminAPIKey())
	{
		SyncRouter(v1.Group("/sync"), syncHandler)
		FailureRouter(v1.Group("/failures"), failureHandler)
	}
}
