package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saludvia/portal-server-go/internal/audit"
	apperrors "github.com/saludvia/portal-server-go/internal/errors"
	"github.com/saludvia/portal-server-go/internal/middleware"
	"github.com/saludvia/portal-server-go/internal/model"
	"github.com/saludvia/portal-server-go/internal/service"
)

// SharingHandler exposes the patient-facing share-link endpoints. All routes
// require an authenticated patient.
type SharingHandler struct {
	sharing *service.SharingService
}

func NewSharingHandler(sharing *service.SharingService) *SharingHandler {
	return &SharingHandler{sharing: sharing}
}

func (h *SharingHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/{tokenID}/revoke", h.Revoke)

	return r
}

type createShareLinkRequest struct {
	DurationMinutes int  `json:"durationMinutes" validate:"required"`
	AllowDownload   bool `json:"allowDownload"`
	AllowChat       bool `json:"allowChat"`
	AllowNotebook   bool `json:"allowNotebook"`
}

func (h *SharingHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	var req createShareLinkRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	link, err := h.sharing.Issue(r.Context(), identity.UserID, req.DurationMinutes, model.SharePermissions{
		AllowDownload: req.AllowDownload,
		AllowChat:     req.AllowChat,
		AllowNotebook: req.AllowNotebook,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventShareCreate,
		UserID:  identity.UserID,
		TokenID: link.Token.ID,
		Details: map[string]interface{}{"durationMinutes": req.DurationMinutes},
	})

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":            link.Token.ID,
		"token":         link.Token.Token,
		"url":           link.URL,
		"expiresAt":     link.Token.ExpiresAt,
		"allowDownload": link.Token.AllowDownload,
		"allowChat":     link.Token.AllowChat,
		"allowNotebook": link.Token.AllowNotebook,
	})
}

func (h *SharingHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	tokens, err := h.sharing.List(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"shareLinks": tokens,
		"total":      len(tokens),
	})
}

func (h *SharingHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	tokenID, err := uuidParam(r, "tokenID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.sharing.Revoke(r.Context(), identity.UserID, tokenID); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventShareRevoke,
		UserID:  identity.UserID,
		TokenID: tokenID,
	})

	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}
