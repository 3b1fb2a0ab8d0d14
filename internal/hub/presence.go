package hub

import (
	"context"
	"fmt"

	"Voxline/internal/event"
	"Voxline/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// announcePresence persists status for userID and tells every live session.
// A failed write is logged; the announcement still goes out.
func (h *Hub) announcePresence(ctx context.Context, userID primitive.ObjectID, status string) {
	if err := h.users.UpdatePresence(ctx, userID, status, h.clock.Now()); err != nil {
		h.logger.Error("failed to persist presence",
			zap.String("user_id", userID.Hex()),
			zap.String("status", status),
			zap.Error(err))
	}
	h.broadcastStatus(userID, status)
}

// SetStatus persists an explicit status change and announces it
func (h *Hub) SetStatus(ctx context.Context, userID primitive.ObjectID, status string) error {
	if !model.IsValidStatus(status) {
		return validationError("invalid status: %s", status)
	}
	if err := h.users.UpdatePresence(ctx, userID, status, h.clock.Now()); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if c, ok := h.registry.Lookup(userID); ok {
		c.SetStatus(status)
	}
	h.broadcastStatus(userID, status)
	return nil
}

// broadcastStatus sends user_status to every registered session, including
// the subject's own. Sends never block; a full queue drops the event for that
// recipient only.
func (h *Hub) broadcastStatus(userID primitive.ObjectID, status string) {
	ev, err := event.New(event.EventUserStatus, event.UserStatusEvent{
		UserID: userID.Hex(),
		Status: status,
	})
	if err != nil {
		h.logger.Error("failed to encode user_status", zap.Error(err))
		return
	}

	for _, c := range h.registry.Snapshot() {
		if !c.TrySend(ev) {
			h.metrics.OutboundDropped(event.EventUserStatus)
			c.logger.Debug("user_status dropped", zap.String("subject", userID.Hex()))
		}
	}
}
