package hub

import (
	"context"
	"strings"

	"Voxline/internal/event"
	"Voxline/internal/media"
	"Voxline/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// -----------------------------------------------------------------
// Notification Methods - Send Events to Clients
// -----------------------------------------------------------------

func (ch *CallHandler) notifyIncoming(call *model.Call, caller model.UserRef) {
	ch.hub.sendToUser(call.ReceiverID, event.EventCallRequest, event.CallIncomingEvent{
		Call:         call,
		CallerID:     call.CallerID.Hex(),
		CallerName:   caller.Name,
		CallerAvatar: caller.Avatar,
		Type:         call.Type,
	})
}

// notifyAccepted tells the caller the call was answered. With a media
// server configured each participant also gets its own room grant.
func (ch *CallHandler) notifyAccepted(ctx context.Context, call *model.Call) {
	callerGrant := ch.grantFor(ctx, call, call.CallerID)
	ch.hub.sendToUser(call.CallerID, event.EventCallAccepted, event.CallStateEvent{
		Call:  call,
		Media: callerGrant,
	})

	if receiverGrant := ch.grantFor(ctx, call, call.ReceiverID); receiverGrant != nil {
		ch.hub.sendToUser(call.ReceiverID, event.EventCallRoom, event.CallRoomEvent{
			CallID: call.ID.Hex(),
			Media:  *receiverGrant,
		})
	}
}

func (ch *CallHandler) notifyRejected(call *model.Call) {
	ch.hub.sendToUser(call.CallerID, event.EventCallRejected, event.CallStateEvent{Call: call})
}

// notifyEnded tells the participant that did not hang up
func (ch *CallHandler) notifyEnded(call *model.Call, endedBy primitive.ObjectID) {
	ch.hub.sendToUser(call.OtherParticipant(endedBy), event.EventCallEnded, event.CallEndedEvent{
		CallID: call.ID.Hex(),
	})
}

func (ch *CallHandler) notifyMissed(call *model.Call) {
	missed := event.CallStateEvent{Call: call}
	ch.hub.sendToUser(call.CallerID, event.EventCallMissed, missed)
	ch.hub.sendToUser(call.ReceiverID, event.EventCallMissed, missed)
}

// relaySignal passes negotiation data through to the receiver untouched,
// annotated with who sent it
func (ch *CallHandler) relaySignal(ctx context.Context, c *Client, payload event.CallSignalPayload) error {
	receiverHex := strings.TrimSpace(payload.ReceiverID)
	if receiverHex == "" {
		return validationError("receiverId is required")
	}
	receiverID, err := primitive.ObjectIDFromHex(receiverHex)
	if err != nil {
		return nil
	}

	receiver, ok := ch.hub.registry.Lookup(receiverID)
	if !ok {
		return nil
	}

	sender, err := ch.hub.directory.Lookup(ctx, c.userID)
	if err != nil {
		ch.logger.Warn("call_signal sender lookup failed", zap.String("user_id", c.userID.Hex()), zap.Error(err))
	}

	receiver.Send(event.EventCallSignal, event.CallSignalEvent{
		CallerID:     c.userID.Hex(),
		CallerName:   sender.Name,
		CallerAvatar: sender.Avatar,
		Signal:       payload.Signal,
		Type:         payload.Type,
	})
	return nil
}

// -----------------------------------------------------------------
// Media room grants
// -----------------------------------------------------------------

// grantFor signs a room grant for userID, or returns nil when no media
// server is configured
func (ch *CallHandler) grantFor(ctx context.Context, call *model.Call, userID primitive.ObjectID) *event.MediaGrant {
	if !ch.hub.media.Enabled() {
		return nil
	}

	name := ""
	if ref, err := ch.hub.directory.Lookup(ctx, userID); err == nil {
		name = ref.Name
	}

	room := media.RoomName(call.ID.Hex())
	token, err := ch.hub.media.Token(room, userID.Hex(), name)
	if err != nil {
		ch.logger.Error("failed to sign media grant",
			zap.String("call_id", call.ID.Hex()),
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		return nil
	}

	return &event.MediaGrant{
		RoomName: room,
		Token:    token,
		URL:      ch.hub.media.URL(),
	}
}
