package entity

import "time"

type Thread struct {
	ID            string         `json:"id"`
	Participants  []string       `json:"participants"`
	LastMessage   string         `json:"last_message,omitempty"`
	LastMessageAt time.Time      `json:"last_message_at"`
	UnreadCount   map[string]int `json:"unread_count"` // Map of userID to unread count
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type TypingState struct {
	UserID    string    `json:"user_id"`
	PeerID    string    `json:"peer_id"`
	IsTyping  bool      `json:"is_typing"`
	UpdatedAt time.Time `json:"updated_at"`
}
