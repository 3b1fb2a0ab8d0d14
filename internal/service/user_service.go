package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"Voxline/internal/hub"
	"Voxline/internal/model"
	"Voxline/internal/repo"

	"github.com/benbjohnson/clock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// TokenIssuer signs bearer tokens for a user
type TokenIssuer interface {
	Issue(userID primitive.ObjectID) (string, error)
}

// Presence persists and announces status changes
type Presence interface {
	SetStatus(ctx context.Context, userID primitive.ObjectID, status string) error
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, userID primitive.ObjectID) error
	GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	ListUsers(ctx context.Context, userID primitive.ObjectID) ([]model.User, error)
	UpdateStatus(ctx context.Context, userID primitive.ObjectID, status string) (*model.User, error)
}

type userService struct {
	repo       repo.UserRepository
	tokens     TokenIssuer
	presence   Presence
	clock      clock.Clock
	logger     *zap.Logger
	bcryptCost int
}

type UserServiceOption func(*userService)

// WithBcryptCost overrides the password hashing cost
func WithBcryptCost(cost int) UserServiceOption {
	return func(s *userService) { s.bcryptCost = cost }
}

func NewUserService(repo repo.UserRepository, tokens TokenIssuer, presence Presence, clk clock.Clock, logger *zap.Logger, opts ...UserServiceOption) UserService {
	if clk == nil {
		clk = clock.New()
	}
	s := &userService{
		repo:       repo,
		tokens:     tokens,
		presence:   presence,
		clock:      clk,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		return nil, invalid("name, email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return nil, invalid("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, internal("Server error", err)
	}

	now := s.clock.Now()
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Avatar:       strings.TrimSpace(req.Avatar),
		Status:       model.StatusOffline,
		LastActive:   now,
		CreatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, &hub.EventError{Kind: hub.KindConflict, Message: "User already exists", Err: err}
		}
		return nil, internal("Server error", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.Hex()))
	return s.authResponse(user)
}

// Login checks the password and marks the user online
func (s *userService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, invalid("email and password are required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidLogin
		}
		return nil, internal("Server error", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidLogin
	}

	now := s.clock.Now()
	if err := s.repo.UpdatePresence(ctx, user.ID, model.StatusOnline, now); err != nil {
		return nil, internal("Server error", err)
	}
	user.Status = model.StatusOnline
	user.LastActive = now

	return s.authResponse(user)
}

// Logout persists the user offline and announces it
func (s *userService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.presence.SetStatus(ctx, userID, model.StatusOffline); err != nil {
		return lookupError(err, "User not found", "Server error")
	}
	s.logger.Info("user logged out", zap.String("user_id", userID.Hex()))
	return nil
}

func (s *userService) GetUser(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, lookupError(err, "User not found", "Server error")
	}
	return user, nil
}

// ListUsers returns everyone but userID, sorted by name
func (s *userService) ListUsers(ctx context.Context, userID primitive.ObjectID) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx, userID)
	if err != nil {
		return nil, internal("Server error", err)
	}
	return users, nil
}

func (s *userService) UpdateStatus(ctx context.Context, userID primitive.ObjectID, status string) (*model.User, error) {
	if !model.IsValidStatus(status) {
		return nil, invalid("Invalid status")
	}
	if err := s.presence.SetStatus(ctx, userID, status); err != nil {
		if hub.KindOf(err) != 0 {
			return nil, err
		}
		return nil, lookupError(err, "User not found", "Server error")
	}
	return s.GetUser(ctx, userID)
}

func (s *userService) authResponse(user *model.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, internal("Server error", err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}
