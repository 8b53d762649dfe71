package repository

import (
	"context"

	"github.com/saludvia/portal-server-go/internal/database"
	"github.com/saludvia/portal-server-go/internal/model"
)

// GuestLogRepository handles the append-only guest_access_logs table. There
// are no update or delete operations; every guest action against a share
// token leaves exactly one row.
type GuestLogRepository interface {
	Create(ctx context.Context, params model.CreateGuestAccessLogParams) (*model.GuestAccessLog, error)
	ListByToken(ctx context.Context, tokenID string) ([]model.GuestAccessLog, error)
	CountByToken(ctx context.Context, tokenID string) (int, error)
}

type guestLogRepo struct {
	db database.DBTX
}

func NewGuestLogRepository(db database.DBTX) GuestLogRepository {
	return &guestLogRepo{db: db}
}

func (r *guestLogRepo) Create(ctx context.Context, params model.CreateGuestAccessLogParams) (*model.GuestAccessLog, error) {
	var row model.GuestAccessLog
	err := r.db.GetContext(ctx, &row, `
		INSERT INTO guest_access_logs
			(token_id, ip, user_agent, action, action_details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *
	`, params.TokenID, params.IP, params.UserAgent, params.Action, params.ActionDetails)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *guestLogRepo) ListByToken(ctx context.Context, tokenID string) ([]model.GuestAccessLog, error) {
	var rows []model.GuestAccessLog
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM guest_access_logs
		WHERE token_id = $1
		ORDER BY created_at DESC
	`, tokenID)
	return rows, err
}

func (r *guestLogRepo) CountByToken(ctx context.Context, tokenID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM guest_access_logs WHERE token_id = $1
	`, tokenID)
	return count, err
}
