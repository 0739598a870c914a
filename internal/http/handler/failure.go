package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shopstream.app/sync/internal/http/dto"
	"shopstream.app/sync/internal/service"
	"shopstream.app/sync/internal/store"
)

type FailureHandler struct {
	service service.FailureService
}

func NewFailureHandler(service service.FailureService) *FailureHandler {
	return &FailureHandler{service: service}
}

// List returns unresolved failure records, newest first.
func (h *FailureHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var limit int32
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = int32(parsed)
	}

	failures, err := h.service.ListUnresolved(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list failures", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list failures"})
		return
	}

	c.JSON(http.StatusOK, dto.ToFailureListResponse(failures))
}

// Summary returns unresolved failure counts grouped by category and entity.
func (h *FailureHandler) Summary(c *gin.Context) {
	ctx := c.Request.Context()

	summary, err := h.service.Summary(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to summarize failures", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to summarize failures"})
		return
	}

	c.JSON(http.StatusOK, dto.ToFailureSummaryResponse(summary))
}

// Resolve marks a failure record as handled by an operator.
func (h *FailureHandler) Resolve(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid failure id"})
		return
	}

	if err := h.service.Resolve(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "failure record not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to resolve failure", "failure_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve failure"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"resolved": id})
}
