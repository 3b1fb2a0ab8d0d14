package hub

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"Voxline/internal/event"
	"Voxline/internal/model"
	"Voxline/internal/repo"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CallHandler drives call records through their lifecycle and notifies the
// participants. Every transition is a conditional update in the store, so
// concurrent accept, reject, end and ring expiry settle on exactly one winner.
type CallHandler struct {
	hub         *Hub
	calls       repo.CallRepository
	ringTimeout time.Duration
	logger      *zap.Logger

	// Active calls - maps call id to its in-memory view
	activeCalls   map[primitive.ObjectID]*ActiveCall
	activeCallsMu sync.RWMutex
}

func NewCallHandler(h *Hub, calls repo.CallRepository, ringTimeout time.Duration) *CallHandler {
	return &CallHandler{
		hub:         h,
		calls:       calls,
		ringTimeout: ringTimeout,
		logger:      h.logger.Named("calls"),
		activeCalls: make(map[primitive.ObjectID]*ActiveCall),
	}
}

// IsCallEvent reports whether name is an inbound call event
func IsCallEvent(name string) bool {
	switch name {
	case event.EventCallRequest,
		event.EventCallAccept,
		event.EventCallReject,
		event.EventCallEnd,
		event.EventCallSignal:
		return true
	}
	return false
}

// HandleCallEvent processes call-related WebSocket events. Operations on an
// unknown call, by a non-participant, or on a call that already moved on are
// dropped silently.
func (ch *CallHandler) HandleCallEvent(ctx context.Context, ev event.WsEvent, c *Client) error {
	var err error
	switch ev.Event {
	case event.EventCallRequest:
		var payload event.CallRequestPayload
		if decodeErr := ev.Decode(&payload); decodeErr != nil {
			return validationError("invalid call_request payload")
		}
		_, err = ch.RequestCall(ctx, c.userID, payload)
		if KindOf(err) == KindNotFound {
			return nil
		}
		return err

	case event.EventCallAccept:
		var payload event.CallAcceptPayload
		if decodeErr := ev.Decode(&payload); decodeErr != nil {
			return validationError("invalid call_accept payload")
		}
		err = ch.withCallID(payload.CallID, func(id primitive.ObjectID) error {
			_, err := ch.AcceptCall(ctx, c.userID, id)
			return err
		})

	case event.EventCallReject:
		var payload event.CallRejectPayload
		if decodeErr := ev.Decode(&payload); decodeErr != nil {
			return validationError("invalid call_reject payload")
		}
		err = ch.withCallID(payload.CallID, func(id primitive.ObjectID) error {
			_, err := ch.RejectCall(ctx, c.userID, id)
			return err
		})

	case event.EventCallEnd:
		var payload event.CallEndPayload
		if decodeErr := ev.Decode(&payload); decodeErr != nil {
			return validationError("invalid call_end payload")
		}
		err = ch.withCallID(payload.CallID, func(id primitive.ObjectID) error {
			_, err := ch.EndCall(ctx, c.userID, id)
			return err
		})

	case event.EventCallSignal:
		var payload event.CallSignalPayload
		if decodeErr := ev.Decode(&payload); decodeErr != nil {
			return validationError("invalid call_signal payload")
		}
		return ch.relaySignal(ctx, c, payload)

	default:
		return validationError("unknown event: %s", ev.Event)
	}

	switch KindOf(err) {
	case KindNotFound, KindConflict, KindForbidden:
		ch.logger.Debug("call event ignored", zap.String("event", ev.Event), zap.Error(err))
		return nil
	}
	return err
}

func (ch *CallHandler) withCallID(raw string, fn func(primitive.ObjectID) error) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return validationError("callId is required")
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return notFoundError("Call not found")
	}
	return fn(id)
}

// -----------------------------------------------------------------
// Lifecycle operations
// -----------------------------------------------------------------

// RequestCall creates an initiated call from callerID to the payload's
// receiver and rings the receiver if reachable
func (ch *CallHandler) RequestCall(ctx context.Context, callerID primitive.ObjectID, payload event.CallRequestPayload) (*model.Call, error) {
	receiverHex := strings.TrimSpace(payload.ReceiverID)
	if receiverHex == "" {
		return nil, validationError("receiverId is required")
	}
	callType := payload.Type
	if callType == "" {
		callType = model.CallTypeAudio
	}
	if !model.IsValidCallType(callType) {
		return nil, validationError("invalid call type: %s", callType)
	}

	receiverID, err := primitive.ObjectIDFromHex(receiverHex)
	if err != nil {
		return nil, notFoundError("Receiver not found")
	}
	if receiverID == callerID {
		return nil, validationError("cannot call yourself")
	}

	if _, err := ch.hub.directory.Lookup(ctx, receiverID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, notFoundError("Receiver not found")
		}
		return nil, internalError("Failed to start call", err)
	}
	caller, err := ch.hub.directory.Lookup(ctx, callerID)
	if err != nil {
		return nil, internalError("Failed to start call", err)
	}

	existing, err := ch.calls.GetActiveCall(ctx, callerID, receiverID)
	switch {
	case err == nil && ch.isStale(existing):
		ch.expireCall(existing.ID)
	case err == nil:
		return nil, conflictError(repo.ErrActiveCallExists.Error(), repo.ErrActiveCallExists)
	case !errors.Is(err, repo.ErrNotFound):
		return nil, internalError("Failed to start call", err)
	}

	call := model.NewCall(callerID, receiverID, callType, ch.hub.clock.Now())
	if err := ch.calls.InsertCall(ctx, call); err != nil {
		if errors.Is(err, repo.ErrActiveCallExists) {
			return nil, conflictError(err.Error(), err)
		}
		return nil, internalError("Failed to start call", err)
	}

	ch.trackCall(call)
	ch.hub.metrics.CallTransition(string(call.Status))
	ch.logger.Info("call initiated",
		zap.String("call_id", call.ID.Hex()),
		zap.String("caller_id", callerID.Hex()),
		zap.String("receiver_id", receiverID.Hex()),
		zap.String("type", callType))

	ch.notifyIncoming(call, caller)
	return call, nil
}

// AcceptCall moves an initiated call to ongoing; only its receiver may
// accept
func (ch *CallHandler) AcceptCall(ctx context.Context, userID, callID primitive.ObjectID) (*model.Call, error) {
	call, err := ch.participantCall(ctx, userID, callID)
	if err != nil {
		return nil, err
	}
	if call.ReceiverID != userID {
		return nil, forbiddenError("Only the receiver can accept the call")
	}

	now := ch.hub.clock.Now()
	updated, err := ch.transition(ctx, callID, []model.CallStatus{model.CallStatusInitiated}, model.CallUpdate{
		Status:    model.CallStatusOngoing,
		StartTime: &now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	ch.markOngoing(callID)
	ch.logger.Info("call accepted", zap.String("call_id", callID.Hex()))

	ch.notifyAccepted(ctx, updated)
	return updated, nil
}

// RejectCall moves an initiated call to rejected; only its receiver may
// reject
func (ch *CallHandler) RejectCall(ctx context.Context, userID, callID primitive.ObjectID) (*model.Call, error) {
	call, err := ch.participantCall(ctx, userID, callID)
	if err != nil {
		return nil, err
	}
	if call.ReceiverID != userID {
		return nil, forbiddenError("Only the receiver can reject the call")
	}

	now := ch.hub.clock.Now()
	zero := 0
	updated, err := ch.transition(ctx, callID, []model.CallStatus{model.CallStatusInitiated}, model.CallUpdate{
		Status:    model.CallStatusRejected,
		EndTime:   &now,
		Duration:  &zero,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	ch.untrackCall(callID)
	ch.logger.Info("call rejected", zap.String("call_id", callID.Hex()))

	ch.notifyRejected(updated)
	return updated, nil
}

// EndCall ends a call on behalf of either participant. An ongoing call
// completes with its duration; a call still ringing becomes missed.
func (ch *CallHandler) EndCall(ctx context.Context, userID, callID primitive.ObjectID) (*model.Call, error) {
	call, err := ch.participantCall(ctx, userID, callID)
	if err != nil {
		return nil, err
	}

	now := ch.hub.clock.Now()
	var (
		from   []model.CallStatus
		update model.CallUpdate
	)
	switch call.Status {
	case model.CallStatusOngoing:
		start := now
		if call.StartTime != nil {
			start = *call.StartTime
		}
		duration := model.CallDuration(start, now)
		from = []model.CallStatus{model.CallStatusOngoing}
		update = model.CallUpdate{Status: model.CallStatusCompleted, EndTime: &now, Duration: &duration, UpdatedAt: now}
	case model.CallStatusInitiated:
		zero := 0
		from = []model.CallStatus{model.CallStatusInitiated}
		update = model.CallUpdate{Status: model.CallStatusMissed, EndTime: &now, Duration: &zero, UpdatedAt: now}
	default:
		return nil, conflictError("Call has already ended", repo.ErrCallStateConflict)
	}

	updated, err := ch.transition(ctx, callID, from, update)
	if err != nil {
		return nil, err
	}

	ch.untrackCall(callID)
	if updated.Status == model.CallStatusCompleted {
		ch.hub.metrics.CallCompleted(updated.Duration)
	}
	ch.logger.Info("call ended",
		zap.String("call_id", callID.Hex()),
		zap.String("status", string(updated.Status)),
		zap.Int("duration", updated.Duration))

	ch.notifyEnded(updated, userID)
	return updated, nil
}

// UpdateMediaSettings applies patch to a call's media snapshot; participants
// only
func (ch *CallHandler) UpdateMediaSettings(ctx context.Context, userID, callID primitive.ObjectID, patch model.MediaSettingsPatch) (*model.Call, error) {
	call, err := ch.participantCall(ctx, userID, callID)
	if err != nil {
		return nil, err
	}

	updated, err := ch.calls.UpdateMediaSettings(ctx, callID, patch.Apply(call.MediaSettings), ch.hub.clock.Now())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, notFoundError("Call not found")
		}
		return nil, internalError("Failed to update call", err)
	}
	return updated, nil
}

// GetCall returns a call visible to userID
func (ch *CallHandler) GetCall(ctx context.Context, userID, callID primitive.ObjectID) (*model.Call, error) {
	return ch.participantCall(ctx, userID, callID)
}

// expireCall is the ring timeout: a call nobody answered becomes missed
func (ch *CallHandler) expireCall(callID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := ch.hub.clock.Now()
	zero := 0
	updated, err := ch.transition(ctx, callID, []model.CallStatus{model.CallStatusInitiated}, model.CallUpdate{
		Status:    model.CallStatusMissed,
		EndTime:   &now,
		Duration:  &zero,
		UpdatedAt: now,
	})
	ch.untrackCall(callID)
	if err != nil {
		if KindOf(err) == KindInternal {
			ch.logger.Error("failed to expire call", zap.String("call_id", callID.Hex()), zap.Error(err))
		}
		return
	}

	ch.logger.Info("call missed", zap.String("call_id", callID.Hex()))
	ch.notifyMissed(updated)
}

// participantCall loads callID and checks that userID takes part in it
func (ch *CallHandler) participantCall(ctx context.Context, userID, callID primitive.ObjectID) (*model.Call, error) {
	call, err := ch.calls.GetCall(ctx, callID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, notFoundError("Call not found")
		}
		return nil, internalError("Failed to load call", err)
	}
	if !call.IsParticipant(userID) {
		return nil, forbiddenError("Not authorized to access this call")
	}
	return call, nil
}

func (ch *CallHandler) transition(ctx context.Context, callID primitive.ObjectID, from []model.CallStatus, update model.CallUpdate) (*model.Call, error) {
	updated, err := ch.calls.TransitionCall(ctx, callID, from, update)
	switch {
	case err == nil:
		ch.hub.metrics.CallTransition(string(update.Status))
		return updated, nil
	case errors.Is(err, repo.ErrNotFound):
		return nil, notFoundError("Call not found")
	case errors.Is(err, repo.ErrCallStateConflict):
		return nil, conflictError("Call is no longer "+string(from[0]), err)
	default:
		return nil, internalError("Failed to update call", err)
	}
}
