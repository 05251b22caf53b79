package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spck/arcade-backend/internal/domain"
	"github.com/spck/arcade-backend/internal/registry"
	"github.com/spck/arcade-backend/internal/repository/postgres"
	"github.com/spck/arcade-backend/internal/transport/http/middleware"
)

type FriendsHandler struct {
	Friends  *postgres.FriendRepo
	Registry *registry.Registry
}

func NewFriendsHandler(friends *postgres.FriendRepo, reg *registry.Registry) *FriendsHandler {
	return &FriendsHandler{Friends: friends, Registry: reg}
}

func (h *FriendsHandler) List(c *gin.Context) {
	friends, err := h.Friends.ListFriends(c.Request.Context(), middleware.Username(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch friends"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

type friendTargetRequest struct {
	Username string `json:"username" binding:"required"`
}

func (h *FriendsHandler) SendRequest(c *gin.Context) {
	username := middleware.Username(c)

	var req friendTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	target := strings.TrimSpace(req.Username)
	if target == username {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot add yourself"})
		return
	}

	err := h.Friends.CreateRequest(c.Request.Context(), username, target)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, domain.ErrRelationExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send friend request"})
		return
	}

	_ = h.Registry.Send(target, domain.NewEvent("friend:new_request", gin.H{"username": username}))
	_ = h.Registry.Send(target, domain.NewEvent("notification:new", gin.H{
		"message": username + " sent you a friend request",
	}))

	c.JSON(http.StatusCreated, gin.H{"status": "request sent"})
}

type friendRespondRequest struct {
	Username string `json:"username" binding:"required"`
	Accept   bool   `json:"accept"`
}

// Respond accepts or declines a pending request addressed to the caller.
func (h *FriendsHandler) Respond(c *gin.Context) {
	username := middleware.Username(c)

	var req friendRespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	requester := strings.TrimSpace(req.Username)

	if req.Accept {
		err := h.Friends.AcceptRequest(c.Request.Context(), username, requester)
		if errors.Is(err, domain.ErrRelationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept friend request"})
			return
		}

		_ = h.Registry.Send(requester, domain.NewEvent("friend:request_accepted", gin.H{"username": username}))
		_ = h.Registry.Send(requester, domain.NewEvent("notification:new", gin.H{
			"message": username + " accepted your friend request",
		}))

		// Fresh friends see each other's presence immediately instead of
		// waiting for the next reconnect.
		if h.Registry.IsOnline(requester) {
			_ = h.Registry.Send(username, domain.NewEvent("friend:online", gin.H{"username": requester}))
		}
		if h.Registry.IsOnline(username) {
			_ = h.Registry.Send(requester, domain.NewEvent("friend:online", gin.H{"username": username}))
		}

		c.JSON(http.StatusOK, gin.H{"status": "accepted"})
		return
	}

	err := h.Friends.DeleteRelation(c.Request.Context(), username, requester)
	if errors.Is(err, domain.ErrRelationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decline friend request"})
		return
	}

	_ = h.Registry.Send(requester, domain.NewEvent("friend:request_declined", gin.H{"username": username}))
	c.JSON(http.StatusOK, gin.H{"status": "declined"})
}

func (h *FriendsHandler) Remove(c *gin.Context) {
	username := middleware.Username(c)
	target := c.Param("friendUsername")

	err := h.Friends.DeleteRelation(c.Request.Context(), username, target)
	if errors.Is(err, domain.ErrRelationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove friend"})
		return
	}

	_ = h.Registry.Send(target, domain.NewEvent("friend:removed", gin.H{"username": username}))
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
