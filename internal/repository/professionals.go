package repository

import (
	"context"
	"time"

	"github.com/saludvia/portal-server-go/internal/database"
	"github.com/saludvia/portal-server-go/internal/model"
)

type ProfessionalRepository interface {
	Create(ctx context.Context, params model.CreateProfessionalParams) (*model.Professional, error)
	FindByUserID(ctx context.Context, userID string) (*model.Professional, error)
	FindByDocumentNumber(ctx context.Context, documentNumber string) (*model.Professional, error)
	UpdateRethusStatus(ctx context.Context, userID string, status model.RethusStatus) error
}

type professionalRepo struct {
	db database.DBTX
}

func NewProfessionalRepository(db database.DBTX) ProfessionalRepository {
	return &professionalRepo{db: db}
}

func (r *professionalRepo) Create(ctx context.Context, params model.CreateProfessionalParams) (*model.Professional, error) {
	var prof model.Professional
	err := r.db.GetContext(ctx, &prof, `
		INSERT INTO profesionales_clinicos
			(user_id, document_type, document_number, first_name, last_name, specialty, rethus_status)
		VALUES ($1, $2, $3, $4, $5, $6, 'unverified')
		RETURNING *
	`, params.UserID, params.DocumentType, params.DocumentNumber,
		params.FirstName, params.LastName, params.Specialty)
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

func (r *professionalRepo) FindByUserID(ctx context.Context, userID string) (*model.Professional, error) {
	var prof model.Professional
	err := r.db.GetContext(ctx, &prof, `
		SELECT * FROM profesionales_clinicos WHERE user_id = $1
	`, userID)
	return HandleNotFound(&prof, err)
}

func (r *professionalRepo) FindByDocumentNumber(ctx context.Context, documentNumber string) (*model.Professional, error) {
	var prof model.Professional
	err := r.db.GetContext(ctx, &prof, `
		SELECT * FROM profesionales_clinicos WHERE document_number = $1
	`, documentNumber)
	return HandleNotFound(&prof, err)
}

func (r *professionalRepo) UpdateRethusStatus(ctx context.Context, userID string, status model.RethusStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profesionales_clinicos
		SET rethus_status = $2, rethus_verified_at = $3
		WHERE user_id = $1
	`, userID, status, time.Now())
	return err
}
