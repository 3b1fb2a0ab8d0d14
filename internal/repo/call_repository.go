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
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type callRepository struct {
	mongoRepo *db.Repository[model.Call]
	logger    *zap.Logger
}

func NewCallRepository(repo *db.Repository[model.Call], logger *zap.Logger) CallRepository {
	return &callRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// EnsureCallIndexes creates the one-active-call-per-pair index and the
// history lookups
func EnsureCallIndexes(ctx context.Context, repo *db.Repository[model.Call]) error {
	return repo.EnsureIndexes(ctx,
		mongo.IndexModel{
			Keys: bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().
				SetName("active_pair").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		mongo.IndexModel{Keys: bson.D{{Key: "caller_id", Value: 1}, {Key: "created_at", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}}},
	)
}

// -----------------------------------------------------------------------------
// InsertCall
// -----------------------------------------------------------------------------
func (c *callRepository) InsertCall(ctx context.Context, call *model.Call) error {
	if call == nil {
		return ErrInvalidCall
	}
	if call.ID.IsZero() {
		call.ID = primitive.NewObjectID()
	}
	call.PairKey = model.PairKey(call.CallerID.Hex(), call.ReceiverID.Hex())
	call.Active = call.Status.IsActive()

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if _, err := c.mongoRepo.Create(ctx, *call); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrActiveCallExists
		}
		c.logger.Error("failed to insert call",
			zap.String("caller_id", call.CallerID.Hex()),
			zap.String("receiver_id", call.ReceiverID.Hex()),
			zap.Error(err))
		return fmt.Errorf("failed to insert call: %w", err)
	}
	return nil
}

func (c *callRepository) GetCall(ctx context.Context, id primitive.ObjectID) (*model.Call, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	call, err := c.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	return call, nil
}

func (c *callRepository) GetActiveCall(ctx context.Context, a, b primitive.ObjectID) (*model.Call, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("pair_key", model.PairKey(a.Hex(), b.Hex())).
		Eq("active", true).
		Build()

	call, err := c.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active call: %w", err)
	}
	return call, nil
}

// -----------------------------------------------------------------------------
// TransitionCall - compare-and-set on status
// -----------------------------------------------------------------------------
func (c *callRepository) TransitionCall(ctx context.Context, id primitive.ObjectID, from []model.CallStatus, update model.CallUpdate) (*model.Call, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	set := bson.M{
		"status":     update.Status,
		"active":     update.Status.IsActive(),
		"updated_at": update.UpdatedAt,
	}
	if update.StartTime != nil {
		set["start_time"] = *update.StartTime
	}
	if update.EndTime != nil {
		set["end_time"] = *update.EndTime
	}
	if update.Duration != nil {
		set["duration"] = *update.Duration
	}

	filter := db.NewFilter().
		Eq("_id", id).
		In("status", statusStrings(from)).
		Build()

	call, err := c.mongoRepo.FindOneAndUpdate(ctx, filter, bson.M{"$set": set})
	if err == nil {
		c.logger.Debug("call transitioned",
			zap.String("call_id", id.Hex()),
			zap.String("status", string(update.Status)))
		return call, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		c.logger.Error("failed to transition call", zap.String("call_id", id.Hex()), zap.Error(err))
		return nil, fmt.Errorf("failed to transition call: %w", err)
	}

	exists, err := c.mongoRepo.Exists(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to transition call: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrCallStateConflict
}

func (c *callRepository) UpdateMediaSettings(ctx context.Context, id primitive.ObjectID, settings model.MediaSettings, at time.Time) (*model.Call, error) {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	call, err := c.mongoRepo.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"media_settings": settings,
		"updated_at":     at,
	}})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update media settings: %w", err)
	}
	return call, nil
}

// ListCallsForUser returns the calls userID took part in, newest first
func (c *callRepository) ListCallsForUser(ctx context.Context, userID primitive.ObjectID) ([]model.Call, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Involving("caller_id", "receiver_id", userID).Build()
	calls, err := c.mongoRepo.FindAll(ctx, filter, bson.D{{Key: "created_at", Value: -1}})
	if err != nil {
		c.logger.Error("failed to list calls", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	return calls, nil
}
