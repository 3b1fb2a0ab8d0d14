package event

import (
	"encoding/json"

	"Voxline/internal/model"
)

// Call Event Types - Client to Server
const (
	// EventCallRequest - Caller asks to call a user (also the name of the server notification)
	EventCallRequest = "call_request"

	// EventCallAccept - Receiver accepts the incoming call
	EventCallAccept = "call_accept"

	// EventCallReject - Receiver rejects the incoming call
	EventCallReject = "call_reject"

	// EventCallEnd - Either party ends the call
	EventCallEnd = "call_end"

	// EventCallSignal - Opaque session negotiation data, relayed both ways
	EventCallSignal = "call_signal"
)

// Call Event Types - Server to Client
const (
	EventCallAccepted = "call_accepted"
	EventCallRejected = "call_rejected"
	EventCallEnded    = "call_ended"

	// EventCallMissed - Ring timeout expired before the receiver answered
	EventCallMissed = "call_missed"

	// EventCallRoom - Media room grant for the participant that accepted
	EventCallRoom = "call_room"
)

// -----------------------------------------------------------------
// WebSocket Event Payloads - Client to Server
// -----------------------------------------------------------------

// CallRequestPayload is sent by the caller
type CallRequestPayload struct {
	ReceiverID string `json:"receiverId"`
	Type       string `json:"type,omitempty"` // "audio" (default) or "video"
}

// CallAcceptPayload is sent by the receiver to accept
type CallAcceptPayload struct {
	CallID   string `json:"callId"`
	CallerID string `json:"callerId"`
}

// CallRejectPayload is sent by the receiver to reject
type CallRejectPayload struct {
	CallID   string `json:"callId"`
	CallerID string `json:"callerId"`
}

// CallEndPayload is sent by either participant
type CallEndPayload struct {
	CallID        string `json:"callId"`
	ParticipantID string `json:"participantId"`
}

// CallSignalPayload carries signaling data to the other participant
type CallSignalPayload struct {
	ReceiverID string          `json:"receiverId"`
	Signal     json.RawMessage `json:"signal"`
	Type       string          `json:"type,omitempty"`
}

// -----------------------------------------------------------------
// WebSocket Event Payloads - Server to Client
// -----------------------------------------------------------------

// CallIncomingEvent is sent to the receiver of a call request
type CallIncomingEvent struct {
	Call         *model.Call `json:"call"`
	CallerID     string      `json:"callerId"`
	CallerName   string      `json:"callerName"`
	CallerAvatar string      `json:"callerAvatar"`
	Type         string      `json:"type"`
}

// CallStateEvent carries the persisted call after accept, reject, or miss
type CallStateEvent struct {
	Call  *model.Call `json:"call"`
	Media *MediaGrant `json:"media,omitempty"`
}

// CallEndedEvent is sent to the other participant when a call ends
type CallEndedEvent struct {
	CallID string `json:"callId"`
}

// CallSignalEvent is the relayed form of CallSignalPayload
type CallSignalEvent struct {
	CallerID     string          `json:"callerId"`
	CallerName   string          `json:"callerName"`
	CallerAvatar string          `json:"callerAvatar"`
	Signal       json.RawMessage `json:"signal"`
	Type         string          `json:"type,omitempty"`
}

// MediaGrant contains media room details for joining a call
type MediaGrant struct {
	RoomName string `json:"roomName"`
	Token    string `json:"token"` // JWT for the participant
	URL      string `json:"url"`   // media server URL
}

// CallRoomEvent is sent to the participant that accepted the call
type CallRoomEvent struct {
	CallID string     `json:"callId"`
	Media  MediaGrant `json:"media"`
}
