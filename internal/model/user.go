package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Presence status values persisted on the user document
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusAway    = "away"
)

// User represents a user document in MongoDB
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	Avatar       string             `json:"avatar" bson:"avatar"`
	Status       string             `json:"status" bson:"status"`
	LastActive   time.Time          `json:"lastActive" bson:"last_active"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
}

// UserRef is the display subset used to populate messages and calls
type UserRef struct {
	ID     primitive.ObjectID `json:"id"`
	Name   string             `json:"name"`
	Avatar string             `json:"avatar"`
	Email  string             `json:"email,omitempty"`
}

// Ref returns the display subset of the user.
func (u *User) Ref() UserRef {
	return UserRef{
		ID:     u.ID,
		Name:   u.Name,
		Avatar: u.Avatar,
		Email:  u.Email,
	}
}

// IsValidStatus reports whether status is one a user may be set to.
func IsValidStatus(status string) bool {
	switch status {
	case StatusOnline, StatusOffline, StatusAway:
		return true
	default:
		return false
	}
}
