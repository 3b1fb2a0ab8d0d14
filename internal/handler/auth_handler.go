package handler

import (
	"net/http"

	"Voxline/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Profile(c *gin.Context)
}

type authHandler struct {
	service service.UserService
	logger  *zap.Logger
}

func NewAuthHandler(service service.UserService, logger *zap.Logger) AuthHandler {
	return &authHandler{
		service: service,
		logger:  logger,
	}
}

// Register creates an account
// @Router /api/auth/register [post]
func (h *authHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login exchanges credentials for a token
// @Router /api/auth/login [post]
func (h *authHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Router /api/auth/logout [post]
func (h *authHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), currentUser(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// @Router /api/auth/profile [get]
func (h *authHandler) Profile(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
