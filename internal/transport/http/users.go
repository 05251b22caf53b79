package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spck/arcade-backend/internal/repository/postgres"
	"github.com/spck/arcade-backend/internal/transport/http/middleware"
)

type UsersHandler struct {
	Users *postgres.UserRepo
}

func NewUsersHandler(users *postgres.UserRepo) *UsersHandler {
	return &UsersHandler{Users: users}
}

// Search finds users by username prefix for the add-friend flow.
func (h *UsersHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"users": []string{}})
		return
	}

	usernames, err := h.Users.SearchUsers(c.Request.Context(), middleware.Username(c), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": usernames})
}
