package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/saludvia/portal-server-go/internal/errors"
	"github.com/saludvia/portal-server-go/internal/middleware"
	"github.com/saludvia/portal-server-go/internal/service"
)

// AssistantHandler exposes the authenticated AI endpoints.
type AssistantHandler struct {
	assistant *service.AssistantService
	documents *service.DocumentService
}

func NewAssistantHandler(assistant *service.AssistantService, documents *service.DocumentService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, documents: documents}
}

func (h *AssistantHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/chat", h.Chat)
	r.Get("/messages", h.Messages)
	r.Post("/title", h.Title)
	r.Post("/structured", h.Structured)
	r.Post("/documents/{documentID}/extract", h.ExtractDocument)

	return r
}

type chatRequest struct {
	Message string `json:"message" validate:"required"`
}

func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	var req chatRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	reply, err := h.assistant.Chat(r.Context(), identity.UserID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (h *AssistantHandler) Messages(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, apperrors.Unauthorized("Authentication required"))
		return
	}

	page := ParsePagination(r)
	messages, err := h.assistant.History(r.Context(), identity.UserID, page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"limit":    page.Limit,
		"offset":   page.Offset,
	})
}

type titleRequest struct {
	Text string `json:"text" validate:"required"`
}

func (h *AssistantHandler) Title(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	title, err := h.assistant.GenerateTitle(r.Context(), req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"title": title})
}

type structuredRequest struct {
	Prompt     string          `json:"prompt" validate:"required"`
	SchemaName string          `json:"schemaName" validate:"required"`
	Schema     json.RawMessage `json:"schema" validate:"required"`
}

func (h *AssistantHandler) Structured(w http.ResponseWriter, r *http.Request) {
	var req structuredRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.assistant.Structured(r.Context(), req.Prompt, req.SchemaName, req.Schema)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (h *AssistantHandler) ExtractDocument(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	documentID, err := uuidParam(r, "documentID")
	if err != nil {
		writeError(w, err)
		return
	}

	// Extraction returns clinical content, so it is gated exactly like a
	// document download.
	doc, err := h.documents.Get(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !canAccessPatient(identity, doc.PatientUserID) {
		writeError(w, apperrors.Forbidden("Cannot extract this document"))
		return
	}

	result, err := h.assistant.ExtractDocument(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
