package repo

import (
	"context"
	"errors"
	"time"

	"Voxline/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEmail    = errors.New("user already exists")
	ErrActiveCallExists  = errors.New("there is already an active call between these users")
	ErrCallStateConflict = errors.New("call is not in the expected state")
	ErrInvalidMessage    = errors.New("invalid message: message cannot be nil")
	ErrInvalidCall       = errors.New("invalid call: call cannot be nil")
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 10 * time.Second
)

// UserRepository is the user directory the relay reads display info from and
// writes presence to
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, exclude primitive.ObjectID) ([]model.User, error)
	UpdatePresence(ctx context.Context, id primitive.ObjectID, status string, lastActive time.Time) error
}

// MessageRepository is the durable store of direct messages
type MessageRepository interface {
	InsertMessage(ctx context.Context, msg *model.Message) error
	GetMessage(ctx context.Context, id primitive.ObjectID) (*model.Message, error)
	GetConversation(ctx context.Context, a, b primitive.ObjectID) ([]model.Message, error)
	MarkConversationRead(ctx context.Context, readerID, otherID primitive.ObjectID, at time.Time) (int64, error)
	DeleteMessage(ctx context.Context, id primitive.ObjectID) error
}

// CallRepository is the durable store of call records. TransitionCall is a
// conditional update: it applies only while the stored status is one of from.
type CallRepository interface {
	InsertCall(ctx context.Context, call *model.Call) error
	GetCall(ctx context.Context, id primitive.ObjectID) (*model.Call, error)
	GetActiveCall(ctx context.Context, a, b primitive.ObjectID) (*model.Call, error)
	TransitionCall(ctx context.Context, id primitive.ObjectID, from []model.CallStatus, update model.CallUpdate) (*model.Call, error)
	UpdateMediaSettings(ctx context.Context, id primitive.ObjectID, settings model.MediaSettings, at time.Time) (*model.Call, error)
	ListCallsForUser(ctx context.Context, userID primitive.ObjectID) ([]model.Call, error)
}

// Store bundles the repositories of one backend
type Store struct {
	Users    UserRepository
	Messages MessageRepository
	Calls    CallRepository

	closer func(ctx context.Context) error
}

// Close releases the backend connection
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func statusStrings(statuses []model.CallStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
