package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Voxline/internal/db"
	"Voxline/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

func NewMessageRepository(repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// EnsureMessageIndexes creates the conversation lookup index
func EnsureMessageIndexes(ctx context.Context, repo *db.Repository[model.Message]) error {
	return repo.EnsureIndexes(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sender_id", Value: 1},
			{Key: "receiver_id", Value: 1},
			{Key: "created_at", Value: 1},
		},
	})
}

// -----------------------------------------------------------------------------
// InsertMessage
// -----------------------------------------------------------------------------
func (m *messageRepository) InsertMessage(ctx context.Context, msg *model.Message) error {
	if msg == nil {
		return ErrInvalidMessage
	}
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if _, err := m.mongoRepo.Create(ctx, *msg); err != nil {
		m.logger.Error("failed to insert message",
			zap.String("sender_id", msg.SenderID.Hex()),
			zap.String("receiver_id", msg.ReceiverID.Hex()),
			zap.Error(err))
		return fmt.Errorf("failed to insert message: %w", err)
	}

	m.logger.Debug("message inserted", zap.String("message_id", msg.ID.Hex()))
	return nil
}

func (m *messageRepository) GetMessage(ctx context.Context, id primitive.ObjectID) (*model.Message, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msg, err := m.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// -----------------------------------------------------------------------------
// GetConversation - messages between a and b, oldest first
// -----------------------------------------------------------------------------
func (m *messageRepository) GetConversation(ctx context.Context, a, b primitive.ObjectID) ([]model.Message, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Between("sender_id", "receiver_id", a, b).Build()
	messages, err := m.mongoRepo.FindAll(ctx, filter, bson.D{{Key: "created_at", Value: 1}})
	if err != nil {
		m.logger.Error("failed to query conversation", zap.Error(err))
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	m.logger.Debug("conversation retrieved", zap.Int("count", len(messages)))
	return messages, nil
}

// MarkConversationRead marks every unread message otherID sent to readerID
func (m *messageRepository) MarkConversationRead(ctx context.Context, readerID, otherID primitive.ObjectID, at time.Time) (int64, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("sender_id", otherID).
		Eq("receiver_id", readerID).
		Eq("is_read", false).
		Build()

	result, err := m.mongoRepo.UpdateMany(ctx, filter, bson.M{"is_read": true, "read_at": at})
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (m *messageRepository) DeleteMessage(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := m.mongoRepo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
