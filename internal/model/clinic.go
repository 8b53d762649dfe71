package model

import "time"

type Clinic struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	NIT         string    `db:"nit" json:"nit"`
	Address     *string   `db:"address" json:"address,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	AdminUserID string    `db:"admin_user_id" json:"adminUserId"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type CreateClinicParams struct {
	ID          string
	Name        string
	NIT         string
	Address     *string
	Phone       *string
	AdminUserID string
}

// ClinicPatient links a clinic to a patient (clinica_pacientes). The pair is
// unique; association creation is idempotent via ON CONFLICT DO NOTHING.
type ClinicPatient struct {
	ClinicID      string    `db:"clinica_id" json:"clinicaId"`
	PatientUserID string    `db:"patient_user_id" json:"patientUserId"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// ClinicProfessional links a clinic to a professional (clinica_profesionales).
type ClinicProfessional struct {
	ClinicID           string    `db:"clinica_id" json:"clinicaId"`
	ProfessionalUserID string    `db:"professional_user_id" json:"professionalUserId"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}
