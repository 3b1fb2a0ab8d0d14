package handler

import (
	"net/http"

	"Voxline/internal/event"
	"Voxline/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CallHandler interface {
	StartCall(c *gin.Context)
	UpdateCall(c *gin.Context)
	GetCallHistory(c *gin.Context)
	GetCall(c *gin.Context)
}

type callHandler struct {
	service service.CallService
	logger  *zap.Logger
}

func NewCallHandler(service service.CallService, logger *zap.Logger) CallHandler {
	return &callHandler{
		service: service,
		logger:  logger,
	}
}

// StartCall creates a call and rings the receiver
// @Router /api/calls [post]
func (h *callHandler) StartCall(c *gin.Context) {
	var req event.CallRequestPayload
	if !bindJSON(c, &req) {
		return
	}

	call, err := h.service.StartCall(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, call)
}

// UpdateCall moves a call through its lifecycle or changes its media flags
// @Router /api/calls/:id [put]
func (h *callHandler) UpdateCall(c *gin.Context) {
	var req service.UpdateCallRequest
	if !bindJSON(c, &req) {
		return
	}

	call, err := h.service.UpdateCall(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

// @Router /api/calls [get]
func (h *callHandler) GetCallHistory(c *gin.Context) {
	calls, err := h.service.GetHistory(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, calls)
}

// @Router /api/calls/:id [get]
func (h *callHandler) GetCall(c *gin.Context) {
	call, err := h.service.GetCall(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, call)
}
