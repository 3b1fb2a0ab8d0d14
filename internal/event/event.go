package event

import "encoding/json"

// Chat and presence events
const (
	// client -> server
	EventSendMessage = "send_message"
	EventTyping      = "typing"

	// server -> client
	EventReceiveMessage = "receive_message"
	EventMessageSent    = "message_sent"
	EventUserTyping     = "user_typing"
	EventUserStatus     = "user_status"
	EventError          = "error"
)

// WsEvent is the envelope for every frame in both directions
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// New marshals payload into an envelope named name.
func New(name string, payload any) (WsEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return WsEvent{}, err
	}
	return WsEvent{Event: name, Payload: raw}, nil
}

// Decode unmarshals the payload into v. An empty payload decodes as {}.
func (ev WsEvent) Decode(v any) error {
	if len(ev.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(ev.Payload, v)
}

// SendMessagePayload is sent by a client to deliver a direct message
type SendMessagePayload struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Type       string `json:"type,omitempty"`
	MediaURL   string `json:"mediaUrl,omitempty"`
}

// TypingPayload is sent by a client while composing
type TypingPayload struct {
	ReceiverID string `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}

// UserTypingEvent is forwarded to the receiver of a typing indicator
type UserTypingEvent struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// UserStatusEvent announces a presence transition
type UserStatusEvent struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

// ErrorEvent reports a failed inbound event to its originator
type ErrorEvent struct {
	Message string `json:"message"`
}
