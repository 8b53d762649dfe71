package model

import "time"

// Professional is a clinical professional profile (profesionales_clinicos).
type Professional struct {
	UserID           string       `db:"user_id" json:"userId"`
	DocumentType     DocumentType `db:"document_type" json:"documentType"`
	DocumentNumber   string       `db:"document_number" json:"documentNumber"`
	FirstName        string       `db:"first_name" json:"firstName"`
	LastName         string       `db:"last_name" json:"lastName"`
	Specialty        *string      `db:"specialty" json:"specialty,omitempty"`
	RethusStatus     RethusStatus `db:"rethus_status" json:"rethusStatus"`
	RethusVerifiedAt *time.Time   `db:"rethus_verified_at" json:"rethusVerifiedAt,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"createdAt"`
}

type CreateProfessionalParams struct {
	UserID         string
	DocumentType   DocumentType
	DocumentNumber string
	FirstName      string
	LastName       string
	Specialty      *string
}
