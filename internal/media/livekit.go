package media

import (
	"errors"
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"
)

var ErrNotConfigured = errors.New("livekit is not configured")

// LiveKit issues room-join grants for accepted calls. Media never flows
// through the relay; participants join the room named after the call.
type LiveKit struct {
	url       string
	apiKey    string
	apiSecret string
	tokenTTL  time.Duration
}

// NewLiveKit returns nil when any credential is missing, which disables
// media grants
func NewLiveKit(url, apiKey, apiSecret string, tokenTTL time.Duration) *LiveKit {
	if url == "" || apiKey == "" || apiSecret == "" {
		return nil
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &LiveKit{
		url:       url,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		tokenTTL:  tokenTTL,
	}
}

func (l *LiveKit) Enabled() bool {
	return l != nil
}

func (l *LiveKit) URL() string {
	if l == nil {
		return ""
	}
	return l.url
}

// RoomName is the room both participants of callID join
func RoomName(callID string) string {
	return "call_" + callID
}

// Token signs a join token for identity in room
func (l *LiveKit) Token(room, identity, name string) (string, error) {
	if l == nil {
		return "", ErrNotConfigured
	}

	at := auth.NewAccessToken(l.apiKey, l.apiSecret)
	at.AddGrant(&auth.VideoGrant{
		RoomJoin: true,
		Room:     room,
	}).
		SetIdentity(identity).
		SetName(name).
		SetValidFor(l.tokenTTL)

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("livekit token: %w", err)
	}
	return token, nil
}
