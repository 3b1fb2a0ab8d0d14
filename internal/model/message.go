package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message types
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeAudio = "audio"
	MessageTypeVideo = "video"
	MessageTypeFile  = "file"
)

// Message represents a direct message in MongoDB
type Message struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SenderID   primitive.ObjectID `json:"sender" bson:"sender_id"`
	ReceiverID primitive.ObjectID `json:"receiver" bson:"receiver_id"`
	Content    string             `json:"content" bson:"content"`
	Type       string             `json:"type" bson:"type"`
	MediaURL   string             `json:"mediaUrl" bson:"media_url"`
	IsRead     bool               `json:"isRead" bson:"is_read"`
	ReadAt     *time.Time         `json:"readAt" bson:"read_at"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
}

// PopulatedMessage is a Message with sender and receiver resolved to display info
type PopulatedMessage struct {
	ID        primitive.ObjectID `json:"id"`
	Sender    UserRef            `json:"sender"`
	Receiver  UserRef            `json:"receiver"`
	Content   string             `json:"content"`
	Type      string             `json:"type"`
	MediaURL  string             `json:"mediaUrl"`
	IsRead    bool               `json:"isRead"`
	ReadAt    *time.Time         `json:"readAt"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Populate builds the enriched view of m.
func (m *Message) Populate(sender, receiver UserRef) PopulatedMessage {
	return PopulatedMessage{
		ID:        m.ID,
		Sender:    sender,
		Receiver:  receiver,
		Content:   m.Content,
		Type:      m.Type,
		MediaURL:  m.MediaURL,
		IsRead:    m.IsRead,
		ReadAt:    m.ReadAt,
		CreatedAt: m.CreatedAt,
	}
}

func IsValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeAudio, MessageTypeVideo, MessageTypeFile:
		return true
	default:
		return false
	}
}
