package model

import "time"

// ChatMessage is one turn of the assistant conversation. Content is stored
// AES-GCM encrypted when an encryption key is configured.
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	Role      ChatRole  `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateChatMessageParams struct {
	ID      string
	UserID  string
	Role    ChatRole
	Content string
}
