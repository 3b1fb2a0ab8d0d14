package handler

import (
	"net/http"

	"Voxline/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type UserHandler interface {
	GetAllUsers(c *gin.Context)
	GetUser(c *gin.Context)
	UpdateStatus(c *gin.Context)
}

type userHandler struct {
	service service.UserService
	logger  *zap.Logger
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func NewUserHandler(service service.UserService, logger *zap.Logger) UserHandler {
	return &userHandler{
		service: service,
		logger:  logger,
	}
}

// GetAllUsers lists every user except the caller, sorted by name
// @Router /api/users [get]
func (h *userHandler) GetAllUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Router /api/users/:id [get]
func (h *userHandler) GetUser(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateStatus persists the caller's presence and announces it to live
// sessions
// @Router /api/users/status [put]
func (h *userHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateStatus(c.Request.Context(), currentUser(c), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
