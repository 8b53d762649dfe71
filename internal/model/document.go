package model

import (
	"encoding/json"
	"time"
)

type ClinicalDocument struct {
	ID            string          `db:"id" json:"id"`
	PatientUserID string          `db:"patient_user_id" json:"patientUserId"`
	FileName      string          `db:"file_name" json:"fileName"`
	ContentType   string          `db:"content_type" json:"contentType"`
	SizeBytes     int64           `db:"size_bytes" json:"sizeBytes"`
	StorageKey    string          `db:"storage_key" json:"-"`
	Category      *string         `db:"category" json:"category,omitempty"`
	Extracted     json.RawMessage `db:"extracted" json:"extracted,omitempty"`
	UploadedBy    string          `db:"uploaded_by" json:"uploadedBy"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

type CreateDocumentParams struct {
	ID            string
	PatientUserID string
	FileName      string
	ContentType   string
	SizeBytes     int64
	StorageKey    string
	Category      *string
	UploadedBy    string
}
