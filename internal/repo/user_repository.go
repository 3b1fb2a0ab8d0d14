package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Voxline/internal/db"
	"Voxline/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type userRepository struct {
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

func NewUserRepository(repo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// EnsureUserIndexes creates the unique email index
func EnsureUserIndexes(ctx context.Context, repo *db.Repository[model.User]) error {
	return repo.EnsureIndexes(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
}

// -----------------------------------------------------------------------------
// CreateUser
// -----------------------------------------------------------------------------
func (r *userRepository) CreateUser(ctx context.Context, user *model.User) error {
	if user == nil {
		return errors.New("invalid user: user cannot be nil")
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	if _, err := r.mongoRepo.Create(ctx, *user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		r.logger.Error("failed to insert user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to insert user: %w", err)
	}

	r.logger.Debug("user created", zap.String("user_id", user.ID.Hex()))
	return nil
}

// -----------------------------------------------------------------------------
// GetUser / GetUserByEmail
// -----------------------------------------------------------------------------
func (r *userRepository) GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// -----------------------------------------------------------------------------
// ListUsers - every user except exclude, by name
// -----------------------------------------------------------------------------
func (r *userRepository) ListUsers(ctx context.Context, exclude primitive.ObjectID) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter()
	if !exclude.IsZero() {
		filter.Ne("_id", exclude)
	}

	users, err := r.mongoRepo.FindAll(ctx, filter.Build(), bson.D{{Key: "name", Value: 1}})
	if err != nil {
		r.logger.Error("failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// -----------------------------------------------------------------------------
// UpdatePresence
// -----------------------------------------------------------------------------
func (r *userRepository) UpdatePresence(ctx context.Context, id primitive.ObjectID, status string, lastActive time.Time) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := r.mongoRepo.UpdateByID(ctx, id, bson.M{
		"status":      status,
		"last_active": lastActive,
	})
	if err != nil {
		r.logger.Error("failed to update presence",
			zap.String("user_id", id.Hex()),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update presence: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
