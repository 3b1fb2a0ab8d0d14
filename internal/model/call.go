package model

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Call types
const (
	CallTypeAudio = "audio"
	CallTypeVideo = "video"
)

// CallStatus is the lifecycle state of a call record
type CallStatus string

const (
	CallStatusInitiated CallStatus = "initiated"
	CallStatusOngoing   CallStatus = "ongoing"
	CallStatusCompleted CallStatus = "completed"
	CallStatusMissed    CallStatus = "missed"
	CallStatusRejected  CallStatus = "rejected"
)

// IsActive reports whether the call still occupies its participant pair.
func (s CallStatus) IsActive() bool {
	return s == CallStatusInitiated || s == CallStatusOngoing
}

// IsTerminal reports whether no further transitions are permitted.
func (s CallStatus) IsTerminal() bool {
	return s == CallStatusCompleted || s == CallStatusMissed || s == CallStatusRejected
}

func (s CallStatus) IsValid() bool {
	return s.IsActive() || s.IsTerminal()
}

// MediaSettings is the media snapshot stored with a call
type MediaSettings struct {
	AudioEnabled   bool `json:"audioEnabled" bson:"audio_enabled"`
	VideoEnabled   bool `json:"videoEnabled" bson:"video_enabled"`
	SpeakerEnabled bool `json:"speakerEnabled" bson:"speaker_enabled"`
}

// MediaSettingsPatch carries optional media flag changes
type MediaSettingsPatch struct {
	AudioEnabled   *bool `json:"audioEnabled"`
	VideoEnabled   *bool `json:"videoEnabled"`
	SpeakerEnabled *bool `json:"speakerEnabled"`
}

// Apply returns m with the non-nil fields of p applied.
func (p MediaSettingsPatch) Apply(m MediaSettings) MediaSettings {
	if p.AudioEnabled != nil {
		m.AudioEnabled = *p.AudioEnabled
	}
	if p.VideoEnabled != nil {
		m.VideoEnabled = *p.VideoEnabled
	}
	if p.SpeakerEnabled != nil {
		m.SpeakerEnabled = *p.SpeakerEnabled
	}
	return m
}

// DefaultMediaSettings returns the settings a new call of callType starts with.
func DefaultMediaSettings(callType string) MediaSettings {
	return MediaSettings{
		AudioEnabled:   true,
		VideoEnabled:   callType == CallTypeVideo,
		SpeakerEnabled: false,
	}
}

// Call represents one call attempt between two users
type Call struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CallerID      primitive.ObjectID `json:"caller" bson:"caller_id"`
	ReceiverID    primitive.ObjectID `json:"receiver" bson:"receiver_id"`
	Type          string             `json:"type" bson:"type"`
	Status        CallStatus         `json:"status" bson:"status"`
	StartTime     *time.Time         `json:"startTime" bson:"start_time"`
	EndTime       *time.Time         `json:"endTime" bson:"end_time"`
	Duration      int                `json:"duration" bson:"duration"` // seconds
	MediaSettings MediaSettings      `json:"mediaSettings" bson:"media_settings"`
	CreatedAt     time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updated_at"`

	// PairKey and Active back the one-active-call-per-pair unique index.
	PairKey string `json:"-" bson:"pair_key"`
	Active  bool   `json:"-" bson:"active"`
}

// NewCall builds an initiated call record.
func NewCall(callerID, receiverID primitive.ObjectID, callType string, now time.Time) *Call {
	return &Call{
		ID:            primitive.NewObjectID(),
		CallerID:      callerID,
		ReceiverID:    receiverID,
		Type:          callType,
		Status:        CallStatusInitiated,
		MediaSettings: DefaultMediaSettings(callType),
		CreatedAt:     now,
		UpdatedAt:     now,
		PairKey:       PairKey(callerID.Hex(), receiverID.Hex()),
		Active:        true,
	}
}

// IsParticipant reports whether userID is the caller or the receiver.
func (c *Call) IsParticipant(userID primitive.ObjectID) bool {
	return c.CallerID == userID || c.ReceiverID == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Call) OtherParticipant(userID primitive.ObjectID) primitive.ObjectID {
	if c.CallerID == userID {
		return c.ReceiverID
	}
	return c.CallerID
}

// CallUpdate is the set of fields a lifecycle transition writes
type CallUpdate struct {
	Status    CallStatus
	StartTime *time.Time
	EndTime   *time.Time
	Duration  *int
	UpdatedAt time.Time
}

// PopulatedCall is a Call with caller and receiver resolved to display info
type PopulatedCall struct {
	ID            primitive.ObjectID `json:"id"`
	Caller        UserRef            `json:"caller"`
	Receiver      UserRef            `json:"receiver"`
	Type          string             `json:"type"`
	Status        CallStatus         `json:"status"`
	StartTime     *time.Time         `json:"startTime"`
	EndTime       *time.Time         `json:"endTime"`
	Duration      int                `json:"duration"`
	MediaSettings MediaSettings      `json:"mediaSettings"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

func (c *Call) Populate(caller, receiver UserRef) PopulatedCall {
	return PopulatedCall{
		ID:            c.ID,
		Caller:        caller,
		Receiver:      receiver,
		Type:          c.Type,
		Status:        c.Status,
		StartTime:     c.StartTime,
		EndTime:       c.EndTime,
		Duration:      c.Duration,
		MediaSettings: c.MediaSettings,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// PairKey returns an order-independent key for two participants.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

// CallDuration returns the whole seconds between start and end.
func CallDuration(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

func IsValidCallType(t string) bool {
	return t == CallTypeAudio || t == CallTypeVideo
}
