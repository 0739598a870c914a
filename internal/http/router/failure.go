package router

import (
	"github.com/gin-gonic/gin"

	"shopstream.app/sync/internal/http/handler"
)

// FailureRouter sets up failure ledger triage routes.
func FailureRouter(rg *gin.RouterGroup, h *handler.FailureHandler) {
	rg.GET("", h.List)
	rg.GET("/summary", h.Summary)
	rg.POST("/:id/resolve", h.Resolve)
}
