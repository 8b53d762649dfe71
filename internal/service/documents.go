package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/saludvia/portal-server-go/internal/blobstore"
	"github.com/saludvia/portal-server-go/internal/config"
	apperrors "github.com/saludvia/portal-server-go/internal/errors"
	"github.com/saludvia/portal-server-go/internal/model"
	"github.com/saludvia/portal-server-go/internal/repository"
)

// DocumentService handles clinical document upload, listing and retrieval.
// Bytes go to the blob store under an opaque key; metadata goes to Postgres.
type DocumentService struct {
	documents repository.DocumentRepository
	patients  repository.PatientRepository
	blobs     blobstore.Store
}

func NewDocumentService(
	documents repository.DocumentRepository,
	patients repository.PatientRepository,
	blobs blobstore.Store,
) *DocumentService {
	return &DocumentService{
		documents: documents,
		patients:  patients,
		blobs:     blobs,
	}
}

type UploadDocumentInput struct {
	PatientUserID string
	UploadedBy    string
	FileName      string
	ContentType   string
	SizeBytes     int64
	Category      *string
	Body          io.Reader
}

func (s *DocumentService) Upload(ctx context.Context, input UploadDocumentInput) (*model.ClinicalDocument, error) {
	if input.FileName == "" {
		return nil, apperrors.MissingRequired("fileName")
	}
	if input.SizeBytes <= 0 || input.SizeBytes > config.MaxDocumentSize {
		return nil, apperrors.InvalidInput("file", fmt.Sprintf("size must be between 1 byte and %d bytes", config.MaxDocumentSize))
	}

	patient, err := s.patients.FindByUserID(ctx, input.PatientUserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if patient == nil {
		return nil, apperrors.PatientNotFound()
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("documents/%s/%s", input.PatientUserID, id)

	if err := s.blobs.Put(ctx, storageKey, input.ContentType, input.Body); err != nil {
		return nil, apperrors.Storage(err)
	}

	doc, err := s.documents.Create(ctx, model.CreateDocumentParams{
		ID:            id,
		PatientUserID: input.PatientUserID,
		FileName:      input.FileName,
		ContentType:   input.ContentType,
		SizeBytes:     input.SizeBytes,
		StorageKey:    storageKey,
		Category:      input.Category,
		UploadedBy:    input.UploadedBy,
	})
	if err != nil {
		// The blob is orphaned if this fails; best effort removal.
		if delErr := s.blobs.Delete(ctx, storageKey); delErr != nil {
			log.Error().Err(delErr).Str("storageKey", storageKey).Msg("failed to remove orphaned blob")
		}
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("documentId", doc.ID).
		Str("patientUserId", doc.PatientUserID).
		Int64("sizeBytes", doc.SizeBytes).
		Msg("document uploaded")

	return doc, nil
}

func (s *DocumentService) ListByPatient(ctx context.Context, patientUserID string) ([]model.ClinicalDocument, error) {
	docs, err := s.documents.ListByPatient(ctx, patientUserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return docs, nil
}

// Download returns the document metadata and a reader over its bytes. The
// caller must have verified access to the owning patient's records.
func (s *DocumentService) Download(ctx context.Context, documentID string) (*model.ClinicalDocument, io.ReadCloser, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	if doc == nil {
		return nil, nil, apperrors.NotFound("Document")
	}

	body, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, apperrors.Storage(err)
	}
	return doc, body, nil
}

// Get returns document metadata without the body.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*model.ClinicalDocument, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if doc == nil {
		return nil, apperrors.NotFound("Document")
	}
	return doc, nil
}
