package router

import (
	"github.com/gin-gonic/gin"

	"shopstream.app/sync/internal/http/handler"
)

// SyncRouter sets up sync trigger routes. Runs are synchronous: the response
// carries the finished run's counts.
func SyncRouter(rg *gin.RouterGroup, h *handler.SyncHandler) {
	rg.POST("/run", h.RunAll)
	rg.POST("/:entity/run", h.Run)
}
