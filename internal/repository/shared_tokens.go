package repository

import (
	"context"
	"time"

	"github.com/saludvia/portal-server-go/internal/database"
	"github.com/saludvia/portal-server-go/internal/model"
)

// SharedTokenRepository handles shared_access_tokens rows. Tokens are looked
// up by their opaque value for guest access and by id for owner operations.
type SharedTokenRepository interface {
	Create(ctx context.Context, params model.CreateSharedTokenParams) (*model.SharedAccessToken, error)
	// FindByToken returns the unrevoked token with the given value, including
	// expired tokens so callers can report expiry separately from absence.
	FindByToken(ctx context.Context, token string) (*model.SharedAccessToken, error)
	FindByID(ctx context.Context, id string) (*model.SharedAccessToken, error)
	ListByPatient(ctx context.Context, patientUserID string) ([]model.SharedAccessToken, error)
	// RecordAccess bumps access_count and last_accessed_at in a single UPDATE
	// so concurrent guest requests never lose increments.
	RecordAccess(ctx context.Context, id string) (*model.SharedAccessToken, error)
	Revoke(ctx context.Context, id string) (revoked bool, err error)
	// DeleteExpired removes tokens whose expiry is older than the cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type sharedTokenRepo struct {
	db database.DBTX
}

func NewSharedTokenRepository(db database.DBTX) SharedTokenRepository {
	return &sharedTokenRepo{db: db}
}

func (r *sharedTokenRepo) Create(ctx context.Context, params model.CreateSharedTokenParams) (*model.SharedAccessToken, error) {
	var token model.SharedAccessToken
	err := r.db.GetContext(ctx, &token, `
		INSERT INTO shared_access_tokens
			(id, token, patient_user_id, expires_at, allow_download, allow_chat, allow_notebook)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`, params.ID, params.Token, params.PatientUserID, params.ExpiresAt,
		params.Permissions.AllowDownload, params.Permissions.AllowChat, params.Permissions.AllowNotebook)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *sharedTokenRepo) FindByToken(ctx context.Context, token string) (*model.SharedAccessToken, error) {
	var row model.SharedAccessToken
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM shared_access_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	return HandleNotFound(&row, err)
}

func (r *sharedTokenRepo) FindByID(ctx context.Context, id string) (*model.SharedAccessToken, error) {
	var row model.SharedAccessToken
	err := r.db.GetContext(ctx, &row, `
		SELECT * FROM shared_access_tokens WHERE id = $1
	`, id)
	return HandleNotFound(&row, err)
}

func (r *sharedTokenRepo) ListByPatient(ctx context.Context, patientUserID string) ([]model.SharedAccessToken, error) {
	var rows []model.SharedAccessToken
	err := r.db.SelectContext(ctx, &rows, `
		SELECT * FROM shared_access_tokens
		WHERE patient_user_id = $1
		ORDER BY created_at DESC
	`, patientUserID)
	return rows, err
}

func (r *sharedTokenRepo) RecordAccess(ctx context.Context, id string) (*model.SharedAccessToken, error) {
	var row model.SharedAccessToken
	err := r.db.GetContext(ctx, &row, `
		UPDATE shared_access_tokens
		SET access_count = access_count + 1, last_accessed_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id)
	return HandleNotFound(&row, err)
}

func (r *sharedTokenRepo) Revoke(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE shared_access_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *sharedTokenRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM shared_access_tokens WHERE expires_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
