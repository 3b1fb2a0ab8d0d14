package repo

import (
	"context"
	"fmt"
	"time"

	"Voxline/internal/db"
	"Voxline/internal/model"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MongoCollections names the collections backing each repository
type MongoCollections struct {
	Users    string
	Messages string
	Calls    string
}

// NewMongoStore builds a Store over database and ensures its indexes
func NewMongoStore(database *mongo.Database, names MongoCollections, logger *zap.Logger) (*Store, error) {
	users := db.NewRepository[model.User](database, names.Users)
	messages := db.NewRepository[model.Message](database, names.Messages)
	calls := db.NewRepository[model.Call](database, names.Calls)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := EnsureUserIndexes(ctx, users); err != nil {
		return nil, fmt.Errorf("users indexes: %w", err)
	}
	if err := EnsureMessageIndexes(ctx, messages); err != nil {
		return nil, fmt.Errorf("messages indexes: %w", err)
	}
	if err := EnsureCallIndexes(ctx, calls); err != nil {
		return nil, fmt.Errorf("calls indexes: %w", err)
	}

	return &Store{
		Users:    NewUserRepository(users, logger),
		Messages: NewMessageRepository(messages, logger),
		Calls:    NewCallRepository(calls, logger),
		closer: func(ctx context.Context) error {
			return database.Client().Disconnect(ctx)
		},
	}, nil
}
