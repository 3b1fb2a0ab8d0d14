package service

import (
	"context"
	"errors"

	"Voxline/internal/event"
	"Voxline/internal/model"
	"Voxline/internal/repo"

	"github.com/benbjohnson/clock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserLookup resolves display info for populating records
type UserLookup interface {
	Lookup(ctx context.Context, id primitive.ObjectID) (model.UserRef, error)
}

// Relay persists and delivers a direct message
type Relay interface {
	SendMessage(ctx context.Context, senderID primitive.ObjectID, payload event.SendMessagePayload) (model.PopulatedMessage, error)
}

type MessageService interface {
	GetConversation(ctx context.Context, userID primitive.ObjectID, otherID string) ([]model.PopulatedMessage, error)
	SendMessage(ctx context.Context, senderID primitive.ObjectID, payload event.SendMessagePayload) (model.PopulatedMessage, error)
	DeleteMessage(ctx context.Context, userID primitive.ObjectID, messageID string) error
}

type messageService struct {
	repo   repo.MessageRepository
	users  UserLookup
	relay  Relay
	clock  clock.Clock
	logger *zap.Logger
}

func NewMessageService(repo repo.MessageRepository, users UserLookup, relay Relay, clk clock.Clock, logger *zap.Logger) MessageService {
	if clk == nil {
		clk = clock.New()
	}
	return &messageService{
		repo:   repo,
		users:  users,
		relay:  relay,
		clock:  clk,
		logger: logger,
	}
}

// GetConversation returns both directions of the conversation oldest first,
// then marks what the other user sent to userID as read. The returned
// messages reflect the state before marking.
func (s *messageService) GetConversation(ctx context.Context, userID primitive.ObjectID, otherID string) ([]model.PopulatedMessage, error) {
	other, err := primitive.ObjectIDFromHex(otherID)
	if err != nil {
		return nil, notFound("Receiver user not found")
	}
	if _, err := s.users.Lookup(ctx, other); err != nil {
		return nil, lookupError(err, "Receiver user not found", "Server error")
	}

	msgs, err := s.repo.GetConversation(ctx, userID, other)
	if err != nil {
		return nil, internal("Server error", err)
	}

	populated := make([]model.PopulatedMessage, 0, len(msgs))
	for i := range msgs {
		p, err := s.populate(ctx, &msgs[i])
		if err != nil {
			return nil, internal("Server error", err)
		}
		populated = append(populated, p)
	}

	marked, err := s.repo.MarkConversationRead(ctx, userID, other, s.clock.Now())
	if err != nil {
		s.logger.Error("failed to mark conversation read",
			zap.String("user_id", userID.Hex()),
			zap.String("other_id", other.Hex()),
			zap.Error(err))
	} else if marked > 0 {
		s.logger.Debug("conversation marked read", zap.String("user_id", userID.Hex()), zap.Int64("count", marked))
	}

	return populated, nil
}

// SendMessage goes through the relay so an online receiver still gets
// receive_message
func (s *messageService) SendMessage(ctx context.Context, senderID primitive.ObjectID, payload event.SendMessagePayload) (model.PopulatedMessage, error) {
	return s.relay.SendMessage(ctx, senderID, payload)
}

// DeleteMessage removes a message; only its sender may
func (s *messageService) DeleteMessage(ctx context.Context, userID primitive.ObjectID, messageID string) error {
	id, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return notFound("Message not found")
	}

	msg, err := s.repo.GetMessage(ctx, id)
	if err != nil {
		return lookupError(err, "Message not found", "Server error")
	}
	if msg.SenderID != userID {
		return forbidden("Not authorized to delete this message")
	}

	if err := s.repo.DeleteMessage(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("Message not found")
		}
		return internal("Server error", err)
	}
	return nil
}

func (s *messageService) populate(ctx context.Context, msg *model.Message) (model.PopulatedMessage, error) {
	sender, err := s.ref(ctx, msg.SenderID)
	if err != nil {
		return model.PopulatedMessage{}, err
	}
	receiver, err := s.ref(ctx, msg.ReceiverID)
	if err != nil {
		return model.PopulatedMessage{}, err
	}
	return msg.Populate(sender, receiver), nil
}

// ref tolerates a deleted account by falling back to the bare id
func (s *messageService) ref(ctx context.Context, id primitive.ObjectID) (model.UserRef, error) {
	ref, err := s.users.Lookup(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.UserRef{ID: id}, nil
	}
	return ref, err
}
