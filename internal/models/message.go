package models

import "time"

// Message is a note sent by a user to the platform admins.
type Message struct {
	ID        MessageID `json:"id"`
	Sender    UserID    `json:"sender"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageView is a message with its sender populated.
type MessageView struct {
	Message
	SenderRef *UserRef `json:"sender_ref,omitempty"`
}

// CreateMessageRequest represents the request to send a message.
type CreateMessageRequest struct {
	Content string `json:"content"`
}
