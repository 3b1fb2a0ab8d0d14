package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrMissingCredentials = errors.New("not authorized, no token")
	ErrInvalidCredentials = errors.New("not authorized, token failed")
)

// Verifier resolves a bearer token to the user it was issued for
type Verifier interface {
	Verify(token string) (primitive.ObjectID, error)
}

type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 tokens
type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenService(secret string, ttl time.Duration, clk clock.Clock) *TokenService {
	if clk == nil {
		clk = clock.New()
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clk,
	}
}

// Issue signs a token for userID
func (s *TokenService) Issue(userID primitive.ObjectID) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) Verify(token string) (primitive.ObjectID, error) {
	if token == "" {
		return primitive.NilObjectID, ErrMissingCredentials
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: bad subject", ErrInvalidCredentials)
	}
	return id, nil
}

// CredentialFromRequest extracts the bearer token from the Authorization
// header, falling back to the token query parameter
func CredentialFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}
