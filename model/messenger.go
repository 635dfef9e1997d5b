package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MessageTypeText  = "TEXT"
	MessageTypeImage = "IMAGE"
	MessageTypeFile  = "FILE"
)

// Conversation is the unique thread between two users. ParticipantA is always
// the lexicographically smaller id, the unique index on the pair enforces one
// conversation per unordered pair.
type Conversation struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	ParticipantA string    `gorm:"not null;size:36;uniqueIndex:idx_conversation_pair,priority:1" json:"participantA"`
	ParticipantB string    `gorm:"not null;size:36;uniqueIndex:idx_conversation_pair,priority:2" json:"participantB"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (c *Conversation) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Peer returns the other participant.
func (c *Conversation) Peer(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// NormalizePair orders two user ids the way they are stored on a Conversation.
func NormalizePair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

type Message struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string     `gorm:"not null;size:36;index:idx_message_unread,priority:1;index:idx_message_history,priority:1" json:"conversationId"`
	SenderID       string     `gorm:"not null;size:36" json:"senderId"`
	ReceiverID     string     `gorm:"not null;size:36;index:idx_message_unread,priority:2" json:"receiverId"`
	Content        string     `gorm:"not null" json:"content"`
	Type           string     `gorm:"not null;default:TEXT" json:"type"`
	ReplyToID      *string    `gorm:"size:36" json:"replyToId,omitempty"`
	AttachmentURL  *string    `json:"attachmentUrl,omitempty"`
	CreatedAt      time.Time  `gorm:"index:idx_message_history,priority:2" json:"createdAt"`
	IsRead         bool       `gorm:"not null;default:false;index:idx_message_unread,priority:3" json:"isRead"`
	ReadAt         *time.Time `json:"readAt"`
}

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
