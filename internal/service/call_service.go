package service

import (
	"context"
	"errors"

	"Voxline/internal/event"
	"Voxline/internal/model"
	"Voxline/internal/repo"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CallLifecycle is the call state machine shared with the socket events
type CallLifecycle interface {
	RequestCall(ctx context.Context, callerID primitive.ObjectID, payload event.CallRequestPayload) (*model.Call, error)
	AcceptCall(ctx context.Context, userID, callID primitive.ObjectID) (*model.Call, error)
	RejectCall(ctx context.Context, userID, callID primitive.ObjectID) (*model.Call, error)
	EndCall(ctx context.Context, userID, callID primitive.ObjectID) (*model.Call, error)
	UpdateMediaSettings(ctx context.Context, userID, callID primitive.ObjectID, patch model.MediaSettingsPatch) (*model.Call, error)
	GetCall(ctx context.Context, userID, callID primitive.ObjectID) (*model.Call, error)
}

// UpdateCallRequest is the body of PUT /api/calls/:id
type UpdateCallRequest struct {
	Status        model.CallStatus          `json:"status"`
	MediaSettings *model.MediaSettingsPatch `json:"mediaSettings"`
}

type CallService interface {
	StartCall(ctx context.Context, userID primitive.ObjectID, req event.CallRequestPayload) (model.PopulatedCall, error)
	UpdateCall(ctx context.Context, userID primitive.ObjectID, callID string, req UpdateCallRequest) (model.PopulatedCall, error)
	GetCall(ctx context.Context, userID primitive.ObjectID, callID string) (model.PopulatedCall, error)
	GetHistory(ctx context.Context, userID primitive.ObjectID) ([]model.PopulatedCall, error)
}

type callService struct {
	repo      repo.CallRepository
	lifecycle CallLifecycle
	users     UserLookup
	logger    *zap.Logger
}

func NewCallService(repo repo.CallRepository, lifecycle CallLifecycle, users UserLookup, logger *zap.Logger) CallService {
	return &callService{
		repo:      repo,
		lifecycle: lifecycle,
		users:     users,
		logger:    logger,
	}
}

func (s *callService) StartCall(ctx context.Context, userID primitive.ObjectID, req event.CallRequestPayload) (model.PopulatedCall, error) {
	call, err := s.lifecycle.RequestCall(ctx, userID, req)
	if err != nil {
		return model.PopulatedCall{}, err
	}
	return s.populate(ctx, call)
}

// UpdateCall applies a status change through the state machine, then any
// media flags. A status the call cannot move to from where it is fails.
func (s *callService) UpdateCall(ctx context.Context, userID primitive.ObjectID, callID string, req UpdateCallRequest) (model.PopulatedCall, error) {
	id, err := primitive.ObjectIDFromHex(callID)
	if err != nil {
		return model.PopulatedCall{}, notFound("Call not found")
	}
	if req.Status != "" && !req.Status.IsValid() {
		return model.PopulatedCall{}, invalid("Invalid call status")
	}

	var call *model.Call
	switch req.Status {
	case "":
	case model.CallStatusOngoing:
		call, err = s.lifecycle.AcceptCall(ctx, userID, id)
	case model.CallStatusRejected:
		call, err = s.lifecycle.RejectCall(ctx, userID, id)
	case model.CallStatusCompleted, model.CallStatusMissed:
		call, err = s.lifecycle.EndCall(ctx, userID, id)
	default:
		err = invalid("Cannot move a call back to %s", req.Status)
	}
	if err != nil {
		return model.PopulatedCall{}, err
	}

	if req.MediaSettings != nil {
		call, err = s.lifecycle.UpdateMediaSettings(ctx, userID, id, *req.MediaSettings)
		if err != nil {
			return model.PopulatedCall{}, err
		}
	}

	if call == nil {
		if call, err = s.lifecycle.GetCall(ctx, userID, id); err != nil {
			return model.PopulatedCall{}, err
		}
	}
	return s.populate(ctx, call)
}

// GetCall returns a call to one of its participants
func (s *callService) GetCall(ctx context.Context, userID primitive.ObjectID, callID string) (model.PopulatedCall, error) {
	id, err := primitive.ObjectIDFromHex(callID)
	if err != nil {
		return model.PopulatedCall{}, notFound("Call not found")
	}
	call, err := s.lifecycle.GetCall(ctx, userID, id)
	if err != nil {
		return model.PopulatedCall{}, err
	}
	return s.populate(ctx, call)
}

// GetHistory returns userID's calls, newest first
func (s *callService) GetHistory(ctx context.Context, userID primitive.ObjectID) ([]model.PopulatedCall, error) {
	calls, err := s.repo.ListCallsForUser(ctx, userID)
	if err != nil {
		return nil, internal("Server error", err)
	}

	history := make([]model.PopulatedCall, 0, len(calls))
	for i := range calls {
		p, err := s.populate(ctx, &calls[i])
		if err != nil {
			return nil, err
		}
		history = append(history, p)
	}
	return history, nil
}

func (s *callService) populate(ctx context.Context, call *model.Call) (model.PopulatedCall, error) {
	caller, err := s.ref(ctx, call.CallerID)
	if err != nil {
		return model.PopulatedCall{}, internal("Server error", err)
	}
	receiver, err := s.ref(ctx, call.ReceiverID)
	if err != nil {
		return model.PopulatedCall{}, internal("Server error", err)
	}
	return call.Populate(caller, receiver), nil
}

func (s *callService) ref(ctx context.Context, id primitive.ObjectID) (model.UserRef, error) {
	ref, err := s.users.Lookup(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.UserRef{ID: id}, nil
	}
	return ref, err
}
