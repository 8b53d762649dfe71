package repository

import (
	"context"

	"github.com/saludvia/portal-server-go/internal/database"
	"github.com/saludvia/portal-server-go/internal/model"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, params model.CreateChatMessageParams) (*model.ChatMessage, error)
	// ListRecentByUser returns up to limit messages, newest first. Callers
	// that need chronological order reverse the slice.
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.ChatMessage, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.ChatMessage, error)
}

type chatMessageRepo struct {
	db database.DBTX
}

func NewChatMessageRepository(db database.DBTX) ChatMessageRepository {
	return &chatMessageRepo{db: db}
}

func (r *chatMessageRepo) Create(ctx context.Context, params model.CreateChatMessageParams) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO chat_messages (id, user_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ID, params.UserID, params.Role, params.Content)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *chatMessageRepo) ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM chat_messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	return msgs, err
}

func (r *chatMessageRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM chat_messages
		WHERE user_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return msgs, err
}
