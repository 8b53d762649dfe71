package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saludvia/portal-server-go/internal/audit"
	"github.com/saludvia/portal-server-go/internal/config"
	apperrors "github.com/saludvia/portal-server-go/internal/errors"
	"github.com/saludvia/portal-server-go/internal/middleware"
	"github.com/saludvia/portal-server-go/internal/model"
	"github.com/saludvia/portal-server-go/internal/service"
)

// DocumentHandler exposes clinical document upload, listing and download for
// authenticated users. Patients can only touch their own records; clinic
// staff can touch any patient they manage.
type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// PatientRoutes covers the per-patient document collection, mounted under
// /patients.
func (h *DocumentHandler) PatientRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/{patientUserID}/documents", h.Upload)
	r.Get("/{patientUserID}/documents", h.List)

	return r
}

// DocumentRoutes covers single-document operations, mounted under /documents.
func (h *DocumentHandler) DocumentRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{documentID}/download", h.Download)

	return r
}

// canAccessPatient reports whether the caller may read or write the given
// patient's documents. A plain patient only reaches their own records.
func canAccessPatient(identity *middleware.Identity, patientUserID string) bool {
	if identity == nil {
		return false
	}
	if identity.UserID == patientUserID {
		return true
	}
	return identity.HasRole(model.RoleProfessional) || identity.HasRole(model.RoleClinicAdmin)
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	patientUserID, err := uuidParam(r, "patientUserID")
	if err != nil {
		writeError(w, err)
		return
	}
	if !canAccessPatient(identity, patientUserID) {
		writeError(w, apperrors.Forbidden("Cannot upload documents for this patient"))
		return
	}

	if err := r.ParseMultipartForm(config.MaxDocumentSize); err != nil {
		writeError(w, apperrors.InvalidInput("file", "multipart form expected"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperrors.MissingRequired("file"))
		return
	}
	defer file.Close()

	var category *string
	if c := r.FormValue("category"); c != "" {
		category = &c
	}

	doc, err := h.documents.Upload(r.Context(), service.UploadDocumentInput{
		PatientUserID: patientUserID,
		UploadedBy:    identity.UserID,
		FileName:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		SizeBytes:     header.Size,
		Category:      category,
		Body:          file,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventDocumentUpload,
		UserID:  identity.UserID,
		Details: map[string]interface{}{"documentId": doc.ID, "patientUserId": patientUserID},
	})

	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	patientUserID, err := uuidParam(r, "patientUserID")
	if err != nil {
		writeError(w, err)
		return
	}
	if !canAccessPatient(identity, patientUserID) {
		writeError(w, apperrors.Forbidden("Cannot list documents for this patient"))
		return
	}

	docs, err := h.documents.ListByPatient(r.Context(), patientUserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     len(docs),
	})
}

func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	documentID, err := uuidParam(r, "documentID")
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.documents.Get(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !canAccessPatient(identity, doc.PatientUserID) {
		writeError(w, apperrors.Forbidden("Cannot download this document"))
		return
	}

	doc, body, err := h.documents.Download(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventDocumentDownload,
		UserID:  identity.UserID,
		Details: map[string]interface{}{"documentId": doc.ID},
	})

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", doc.SizeBytes))
	io.Copy(w, body)
}
