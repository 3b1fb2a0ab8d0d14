package hub

import (
	"context"
	"errors"
	"strings"

	"Voxline/internal/event"
	"Voxline/internal/model"
	"Voxline/internal/repo"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const failedToSendMessage = "Failed to send message"

func (h *Hub) handleSendMessage(ctx context.Context, c *Client, ev event.WsEvent) error {
	var payload event.SendMessagePayload
	if err := ev.Decode(&payload); err != nil {
		return validationError("invalid send_message payload")
	}

	populated, err := h.SendMessage(ctx, c.userID, payload)
	if err != nil {
		return err
	}

	c.Send(event.EventMessageSent, populated)
	return nil
}

// SendMessage validates and persists a direct message, then delivers it to
// the receiver's live session if there is one. The returned message is the
// sender's acknowledgement.
func (h *Hub) SendMessage(ctx context.Context, senderID primitive.ObjectID, payload event.SendMessagePayload) (model.PopulatedMessage, error) {
	receiverHex := strings.TrimSpace(payload.ReceiverID)
	if receiverHex == "" {
		return model.PopulatedMessage{}, validationError("receiverId is required")
	}
	content := strings.TrimSpace(payload.Content)
	if content == "" {
		return model.PopulatedMessage{}, validationError("content is required")
	}
	msgType := payload.Type
	if msgType == "" {
		msgType = model.MessageTypeText
	}
	if !model.IsValidMessageType(msgType) {
		return model.PopulatedMessage{}, validationError("invalid message type: %s", msgType)
	}

	receiverID, err := primitive.ObjectIDFromHex(receiverHex)
	if err != nil {
		return model.PopulatedMessage{}, notFoundError("Receiver not found")
	}

	receiver, err := h.directory.Lookup(ctx, receiverID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.PopulatedMessage{}, notFoundError("Receiver not found")
		}
		return model.PopulatedMessage{}, internalError(failedToSendMessage, err)
	}
	sender, err := h.directory.Lookup(ctx, senderID)
	if err != nil {
		return model.PopulatedMessage{}, internalError(failedToSendMessage, err)
	}

	msg := &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Type:       msgType,
		MediaURL:   payload.MediaURL,
		CreatedAt:  h.clock.Now(),
	}
	if err := h.messages.InsertMessage(ctx, msg); err != nil {
		return model.PopulatedMessage{}, internalError(failedToSendMessage, err)
	}

	populated := msg.Populate(sender, receiver)
	if h.sendToUser(receiverID, event.EventReceiveMessage, populated) {
		h.logger.Debug("message delivered",
			zap.String("message_id", msg.ID.Hex()),
			zap.String("receiver_id", receiverID.Hex()))
	}
	return populated, nil
}

// handleTyping forwards a typing indicator; nothing is stored and an
// unreachable receiver drops it
func (h *Hub) handleTyping(c *Client, ev event.WsEvent) error {
	var payload event.TypingPayload
	if err := ev.Decode(&payload); err != nil {
		return validationError("invalid typing payload")
	}
	if strings.TrimSpace(payload.ReceiverID) == "" {
		return validationError("receiverId is required")
	}

	receiverID, err := primitive.ObjectIDFromHex(strings.TrimSpace(payload.ReceiverID))
	if err != nil {
		return nil
	}

	h.sendToUser(receiverID, event.EventUserTyping, event.UserTypingEvent{
		UserID:   c.userID.Hex(),
		IsTyping: payload.IsTyping,
	})
	return nil
}
