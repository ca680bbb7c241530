package entity

import (
	"fmt"
	"strings"
	"time"
)

const (
	MessageStatusSending   = "sending"
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
	MessageStatusFailed    = "failed"
)

const tempIDPrefix = "temp-"

type Message struct {
	ID           string    `json:"id"`
	SenderID     string    `json:"sender_id"`
	ReceiverID   string    `json:"receiver_id"`
	Content      string    `json:"content"`
	AttachmentID string    `json:"attachment_id,omitempty"`
	ParentID     string    `json:"parent_id,omitempty"`
	ThreadTitle  string    `json:"thread_title,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`

	// Client-only fields, present while Status == failed. Retry replays the
	// original request from scratch with the attempt count reset.
	SendError string       `json:"-"`
	Retry     func() error `json:"-"`
}

// TempMessageID builds the client-generated placeholder id used until the
// server-issued id replaces it on reconciliation.
func TempMessageID(now time.Time) string {
	return fmt.Sprintf("%s%d", tempIDPrefix, now.UnixMilli())
}

// IsOptimistic reports whether the message still carries a client-generated id.
func (m *Message) IsOptimistic() bool {
	return strings.HasPrefix(m.ID, tempIDPrefix)
}

func IsValidMessageStatus(status string) bool {
	switch status {
	case MessageStatusSending, MessageStatusSent, MessageStatusDelivered, MessageStatusRead, MessageStatusFailed:
		return true
	}
	return false
}
