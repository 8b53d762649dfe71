package model

import "time"

type PatientProfile struct {
	UserID         string       `db:"user_id" json:"userId"`
	DocumentType   DocumentType `db:"document_type" json:"documentType"`
	DocumentNumber string       `db:"document_number" json:"documentNumber"`
	FirstName      string       `db:"first_name" json:"firstName"`
	LastName       string       `db:"last_name" json:"lastName"`
	Email          string       `db:"email" json:"email"`
	Phone          *string      `db:"phone" json:"phone,omitempty"`
	BirthDate      *time.Time   `db:"birth_date" json:"birthDate,omitempty"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updatedAt"`
}

type CreatePatientProfileParams struct {
	UserID         string
	DocumentType   DocumentType
	DocumentNumber string
	FirstName      string
	LastName       string
	Email          string
	Phone          *string
	BirthDate      *time.Time
}
