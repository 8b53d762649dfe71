package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saludvia/portal-server-go/internal/audit"
	"github.com/saludvia/portal-server-go/internal/service"
)

// GuestHandler exposes the unauthenticated guest endpoints. The share token
// travels in the request body, never in the URL, so it does not leak into
// access logs or referrer headers.
type GuestHandler struct {
	sharing   *service.SharingService
	assistant *service.AssistantService
}

func NewGuestHandler(sharing *service.SharingService, assistant *service.AssistantService) *GuestHandler {
	return &GuestHandler{sharing: sharing, assistant: assistant}
}

func (h *GuestHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/validate", h.Validate)
	r.Post("/download", h.Download)
	r.Post("/chat", h.Chat)

	return r
}

type guestTokenRequest struct {
	Token string `json:"token" validate:"required"`
	// Action is a free-form descriptor of what the guest UI is doing with
	// the validation; it lands in the access log, not in authorization.
	Action string `json:"action"`
}

func (h *GuestHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req guestTokenRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	session, err := h.sharing.Validate(r.Context(), req.Token, req.Action, audit.GetClientIP(r), r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventGuestValidate})
	writeJSON(w, http.StatusOK, session)
}

type guestDownloadRequest struct {
	Token      string `json:"token" validate:"required"`
	DocumentID string `json:"documentId" validate:"required"`
}

func (h *GuestHandler) Download(w http.ResponseWriter, r *http.Request) {
	var req guestDownloadRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	doc, body, err := h.sharing.Download(r.Context(), req.Token, req.DocumentID, audit.GetClientIP(r), r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventGuestDownload,
		Details: map[string]interface{}{"documentId": doc.ID},
	})

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", doc.SizeBytes))
	io.Copy(w, body)
}

type guestChatRequest struct {
	Token   string `json:"token" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (h *GuestHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req guestChatRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.sharing.ResolveToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	reply, err := h.assistant.GuestChat(r.Context(), token, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	h.sharing.LogChat(r.Context(), token.ID, audit.GetClientIP(r), r.UserAgent())
	audit.LogFromRequest(r, audit.Event{Type: audit.EventGuestChat, TokenID: token.ID})

	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
