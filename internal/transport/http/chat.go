package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spck/arcade-backend/internal/repository/postgres"
	"github.com/spck/arcade-backend/internal/transport/http/middleware"
)

type ChatHandler struct {
	Chat *postgres.ChatRepo
}

func NewChatHandler(chat *postgres.ChatRepo) *ChatHandler {
	return &ChatHandler{Chat: chat}
}

// GetConversation returns the caller's DM history with one friend.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	username := middleware.Username(c)
	other := c.Param("friendUsername")

	messages, err := h.Chat.ListConversation(c.Request.Context(), username, other)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
