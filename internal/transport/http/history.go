package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/transport/http/middleware"
)

// HistoryStore is satisfied by the postgres repo, optionally wrapped in
// the redis cache.
type HistoryStore interface {
	ListHistory(ctx context.Context, username string) ([]domain.HistoryRecord, error)
	ClearHistory(ctx context.Context, username string) error
}

type HistoryHandler struct {
	History HistoryStore
}

func NewHistoryHandler(history HistoryStore) *HistoryHandler {
	return &HistoryHandler{History: history}
}

func (h *HistoryHandler) GetHistory(c *gin.Context) {
	records, err := h.History.ListHistory(c.Request.Context(), middleware.Username(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

func (h *HistoryHandler) ClearHistory(c *gin.Context) {
	if err := h.History.ClearHistory(c.Request.Context(), middleware.Username(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
