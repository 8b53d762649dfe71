package repository

import (
	"context"

	"github.com/saludvia/portal-server-go/internal/database"
)

// ClinicPatientRepository handles clinica_pacientes association rows. The
// (clinic, patient) pair is unique; Upsert reports whether a row was actually
// inserted so callers can distinguish first-time association from a repeat.
type ClinicPatientRepository interface {
	Upsert(ctx context.Context, clinicID, patientUserID string) (inserted bool, err error)
	Exists(ctx context.Context, clinicID, patientUserID string) (bool, error)
}

type clinicPatientRepo struct {
	db database.DBTX
}

func NewClinicPatientRepository(db database.DBTX) ClinicPatientRepository {
	return &clinicPatientRepo{db: db}
}

func (r *clinicPatientRepo) Upsert(ctx context.Context, clinicID, patientUserID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO clinica_pacientes (clinica_id, patient_user_id)
		VALUES ($1, $2)
		ON CONFLICT (clinica_id, patient_user_id) DO NOTHING
	`, clinicID, patientUserID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *clinicPatientRepo) Exists(ctx context.Context, clinicID, patientUserID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM clinica_pacientes
		WHERE clinica_id = $1 AND patient_user_id = $2
	`, clinicID, patientUserID)
	return count > 0, err
}

// ClinicProfessionalRepository handles clinica_profesionales association rows.
type ClinicProfessionalRepository interface {
	Upsert(ctx context.Context, clinicID, professionalUserID string) (inserted bool, err error)
	Exists(ctx context.Context, clinicID, professionalUserID string) (bool, error)
}

type clinicProfessionalRepo struct {
	db database.DBTX
}

func NewClinicProfessionalRepository(db database.DBTX) ClinicProfessionalRepository {
	return &clinicProfessionalRepo{db: db}
}

func (r *clinicProfessionalRepo) Upsert(ctx context.Context, clinicID, professionalUserID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO clinica_profesionales (clinica_id, professional_user_id)
		VALUES ($1, $2)
		ON CONFLICT (clinica_id, professional_user_id) DO NOTHING
	`, clinicID, professionalUserID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *clinicProfessionalRepo) Exists(ctx context.Context, clinicID, professionalUserID string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM clinica_profesionales
		WHERE clinica_id = $1 AND professional_user_id = $2
	`, clinicID, professionalUserID)
	return count > 0, err
}
