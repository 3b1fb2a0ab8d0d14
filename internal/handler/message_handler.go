package handler

import (
	"net/http"

	"Voxline/internal/event"
	"Voxline/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessageHandler interface {
	GetMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	DeleteMessage(c *gin.Context)
}

type messageHandler struct {
	service service.MessageService
	logger  *zap.Logger
}

func NewMessageHandler(service service.MessageService, logger *zap.Logger) MessageHandler {
	return &messageHandler{
		service: service,
		logger:  logger,
	}
}

// GetMessages returns the conversation with :userId and marks it read
// @Router /api/messages/:userId [get]
func (h *messageHandler) GetMessages(c *gin.Context) {
	msgs, err := h.service.GetConversation(c.Request.Context(), currentUser(c), c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SendMessage stores a message and relays it to an online receiver
// @Router /api/messages [post]
func (h *messageHandler) SendMessage(c *gin.Context) {
	var req event.SendMessagePayload
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// @Router /api/messages/:id [delete]
func (h *messageHandler) DeleteMessage(c *gin.Context) {
	if err := h.service.DeleteMessage(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}
