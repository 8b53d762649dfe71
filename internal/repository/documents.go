package repository

import (
	"context"
	"encoding/json"

	"github.com/saludvia/portal-server-go/internal/database"
	"github.com/saludvia/portal-server-go/internal/model"
)

type DocumentRepository interface {
	Create(ctx context.Context, params model.CreateDocumentParams) (*model.ClinicalDocument, error)
	FindByID(ctx context.Context, id string) (*model.ClinicalDocument, error)
	ListByPatient(ctx context.Context, patientUserID string) ([]model.ClinicalDocument, error)
	UpdateExtracted(ctx context.Context, id string, data json.RawMessage) error
}

type documentRepo struct {
	db database.DBTX
}

func NewDocumentRepository(db database.DBTX) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, params model.CreateDocumentParams) (*model.ClinicalDocument, error) {
	var doc model.ClinicalDocument
	err := r.db.GetContext(ctx, &doc, `
		INSERT INTO clinical_documents
			(id, patient_user_id, file_name, content_type, size_bytes, storage_key, category, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *
	`, params.ID, params.PatientUserID, params.FileName, params.ContentType,
		params.SizeBytes, params.StorageKey, params.Category, params.UploadedBy)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) FindByID(ctx context.Context, id string) (*model.ClinicalDocument, error) {
	var doc model.ClinicalDocument
	err := r.db.GetContext(ctx, &doc, `
		SELECT * FROM clinical_documents WHERE id = $1
	`, id)
	return HandleNotFound(&doc, err)
}

func (r *documentRepo) ListByPatient(ctx context.Context, patientUserID string) ([]model.ClinicalDocument, error) {
	var docs []model.ClinicalDocument
	err := r.db.SelectContext(ctx, &docs, `
		SELECT * FROM clinical_documents
		WHERE patient_user_id = $1
		ORDER BY created_at DESC
	`, patientUserID)
	return docs, err
}

func (r *documentRepo) UpdateExtracted(ctx context.Context, id string, data json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE clinical_documents SET extracted = $2 WHERE id = $1
	`, id, data)
	return err
}
