package repository

import (
	"context"

	"github.com/saludvia/portal-server-go/internal/database"
	"github.com/saludvia/portal-server-go/internal/model"
)

type PatientRepository interface {
	Create(ctx context.Context, params model.CreatePatientProfileParams) (*model.PatientProfile, error)
	FindByUserID(ctx context.Context, userID string) (*model.PatientProfile, error)
	FindByDocumentNumber(ctx context.Context, documentNumber string) (*model.PatientProfile, error)
}

type patientRepo struct {
	db database.DBTX
}

func NewPatientRepository(db database.DBTX) PatientRepository {
	return &patientRepo{db: db}
}

func (r *patientRepo) Create(ctx context.Context, params model.CreatePatientProfileParams) (*model.PatientProfile, error) {
	var profile model.PatientProfile
	err := r.db.GetContext(ctx, &profile, `
		INSERT INTO patient_profiles
			(user_id, document_type, document_number, first_name, last_name, email, phone, birth_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.UserID, params.DocumentType, params.DocumentNumber,
		params.FirstName, params.LastName, params.Email, params.Phone, params.BirthDate)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *patientRepo) FindByUserID(ctx context.Context, userID string) (*model.PatientProfile, error) {
	var profile model.PatientProfile
	err := r.db.GetContext(ctx, &profile, `
		SELECT * FROM patient_profiles WHERE user_id = $1
	`, userID)
	return HandleNotFound(&profile, err)
}

func (r *patientRepo) FindByDocumentNumber(ctx context.Context, documentNumber string) (*model.PatientProfile, error) {
	var profile model.PatientProfile
	err := r.db.GetContext(ctx, &profile, `
		SELECT * FROM patient_profiles WHERE document_number = $1
	`, documentNumber)
	return HandleNotFound(&profile, err)
}
