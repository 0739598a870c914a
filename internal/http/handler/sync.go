package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopstream.app/sync/internal/http/dto"
	"shopstream.app/sync/internal/model"
	"shopstream.app/sync/internal/service"
)

type SyncHandler struct {
	service     service.SyncService
	adminAPIKey string
}

func NewSyncHandler(service service.SyncService, adminAPIKey string) *SyncHandler {
	return &SyncHandler{
		service:     service,
		adminAPIKey: adminAPIKey,
	}
}

// Run triggers a sync run for one entity type and blocks until it finishes.
func (h *SyncHandler) Run(c *gin.Context) {
	ctx := c.Request.Context()

	entityType := model.EntityType(c.Param("entity"))
	run, err := h.service.RunSync(ctx, entityType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownEntityType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown entity type"})
		case errors.Is(err, service.ErrRunInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "sync run already in progress"})
		default:
			slog.ErrorContext(ctx, "sync run failed", "entity_type", entityType, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sync run failed"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToSyncRunResponse(run))
}

// RunAll triggers sync runs for every entity type in dependency order.
func (h *SyncHandler) RunAll(c *gin.Context) {
	ctx := c.Request.Context()

	runs, err := h.service.RunAll(ctx)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "sync run already in progress"})
			return
		}
		slog.ErrorContext(ctx, "sync run failed", "error", err)
		// Partial results still go back so the caller can see what landed.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "sync run failed",
			"runs":  dto.ToSyncAllResponse(runs).Runs,
		})
		return
	}

	c.JSON(http.StatusOK, dto.ToSyncAllResponse(runs))
}

// RequireAdminAPIKey middleware checks for valid admin API key
func (h *SyncHandler) RequireAdminAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.adminAPIKey == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin API not configured"})
			c.Abort()
			return
		}

		apiKey := c.GetHeader("X-Admin-API-Key")
		if apiKey == "" {
			apiKey = c.GetHeader("Authorization")
			if len(apiKey) > 7 && apiKey[:7] == "Bearer " {
				apiKey = apiKey[7:]
			}
		}

		if apiKey != h.adminAPIKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
