package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/saludvia/portal-server-go/internal/ai"
	"github.com/saludvia/portal-server-go/internal/blobstore"
	"github.com/saludvia/portal-server-go/internal/config"
	apperrors "github.com/saludvia/portal-server-go/internal/errors"
	"github.com/saludvia/portal-server-go/internal/model"
	"github.com/saludvia/portal-server-go/internal/repository"
	"github.com/saludvia/portal-server-go/internal/util"
)

const assistantSystemPrompt = "Eres un asistente de salud del portal de pacientes. " +
	"Respondes preguntas sobre los documentos clínicos y datos del paciente de forma clara y breve. " +
	"No das diagnósticos; ante síntomas graves recomiendas consultar a un profesional."

const guestSystemPrompt = "Eres un asistente que responde preguntas de un invitado sobre los " +
	"registros clínicos compartidos con él. Responde únicamente con base en los documentos listados; " +
	"si la respuesta no está en ellos, dilo."

// documentExtractionSchema is the strict output contract for clinical
// document extraction. The gateway enforces it; responses that do not decode
// are failures, never salvaged from free text.
var documentExtractionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"documentDate": {"type": ["string", "null"]},
		"institution": {"type": ["string", "null"]},
		"professional": {"type": ["string", "null"]},
		"documentKind": {"type": ["string", "null"]},
		"diagnoses": {"type": "array", "items": {"type": "string"}},
		"medications": {"type": "array", "items": {"type": "string"}},
		"summary": {"type": "string"}
	},
	"required": ["documentDate", "institution", "professional", "documentKind", "diagnoses", "medications", "summary"],
	"additionalProperties": false
}`)

// AssistantService fronts the AI gateway for patient chat, guest chat, title
// generation and document extraction. Chat content is stored AES-GCM
// encrypted when an encryption key is configured.
type AssistantService struct {
	client        *ai.Client
	messages      repository.ChatMessageRepository
	documents     repository.DocumentRepository
	patients      repository.PatientRepository
	blobs         blobstore.Store
	encryptionKey string
}

func NewAssistantService(
	client *ai.Client,
	messages repository.ChatMessageRepository,
	documents repository.DocumentRepository,
	patients repository.PatientRepository,
	blobs blobstore.Store,
	encryptionKey string,
) *AssistantService {
	return &AssistantService{
		client:        client,
		messages:      messages,
		documents:     documents,
		patients:      patients,
		blobs:         blobs,
		encryptionKey: encryptionKey,
	}
}

// Chat answers one patient message with recent history as context and
// persists both turns.
func (s *AssistantService) Chat(ctx context.Context, userID, message string) (string, error) {
	if message == "" {
		return "", apperrors.MissingRequired("message")
	}

	history, err := s.messages.ListRecentByUser(ctx, userID, config.AssistantHistoryLimit)
	if err != nil {
		return "", apperrors.Database(err)
	}

	msgs := make([]ai.Message, 0, len(history)+2)
	msgs = append(msgs, ai.Text(ai.RoleSystem, assistantSystemPrompt))
	// History arrives newest first; replay oldest first.
	for i := len(history) - 1; i >= 0; i-- {
		content, err := s.decrypt(history[i].Content)
		if err != nil {
			log.Error().Err(err).Str("messageId", history[i].ID).Msg("failed to decrypt chat message, skipping")
			continue
		}
		msgs = append(msgs, ai.Text(string(history[i].Role), content))
	}
	msgs = append(msgs, ai.Text(ai.RoleUser, message))

	reply, err := s.client.Complete(ctx, msgs)
	if err != nil {
		return "", err
	}

	s.persistTurn(ctx, userID, model.ChatRoleUser, message)
	s.persistTurn(ctx, userID, model.ChatRoleAssistant, reply)

	return reply, nil
}

// History returns the caller's stored conversation, oldest first, with
// content decrypted. Messages that fail to decrypt are returned with empty
// content rather than failing the whole page.
func (s *AssistantService) History(ctx context.Context, userID string, limit, offset int) ([]model.ChatMessage, error) {
	messages, err := s.messages.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	for i := range messages {
		content, err := s.decrypt(messages[i].Content)
		if err != nil {
			log.Error().Err(err).Str("messageId", messages[i].ID).Msg("failed to decrypt chat message")
			messages[i].Content = ""
			continue
		}
		messages[i].Content = content
	}
	return messages, nil
}

// GuestChat answers one guest question about the records a share token
// exposes. The caller resolves the token first; this checks the chat
// permission and keeps no history.
func (s *AssistantService) GuestChat(ctx context.Context, token *model.SharedAccessToken, message string) (string, error) {
	if !token.AllowChat {
		return "", apperrors.ChatNotPermitted()
	}
	if message == "" {
		return "", apperrors.MissingRequired("message")
	}

	patient, err := s.patients.FindByUserID(ctx, token.PatientUserID)
	if err != nil {
		return "", apperrors.Database(err)
	}
	if patient == nil {
		return "", apperrors.PatientNotFound()
	}

	docs, err := s.documents.ListByPatient(ctx, token.PatientUserID)
	if err != nil {
		return "", apperrors.Database(err)
	}

	contextBlock := fmt.Sprintf("Paciente: %s %s.\nDocumentos compartidos:\n", patient.FirstName, patient.LastName)
	for _, d := range docs {
		contextBlock += fmt.Sprintf("- %s (%s)", d.FileName, d.ContentType)
		if len(d.Extracted) > 0 {
			contextBlock += fmt.Sprintf("\n  Datos extraídos: %s", string(d.Extracted))
		}
		contextBlock += "\n"
	}

	return s.client.Complete(ctx, []ai.Message{
		ai.Text(ai.RoleSystem, guestSystemPrompt),
		ai.Text(ai.RoleSystem, contextBlock),
		ai.Text(ai.RoleUser, message),
	})
}

// GenerateTitle produces a short title for a conversation or document.
func (s *AssistantService) GenerateTitle(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", apperrors.MissingRequired("text")
	}

	var result struct {
		Title string `json:"title"`
	}
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {"title": {"type": "string"}},
		"required": ["title"],
		"additionalProperties": false
	}`)

	err := s.client.CompleteStructured(ctx, []ai.Message{
		ai.Text(ai.RoleSystem, "Genera un título corto (máximo 8 palabras) para el siguiente texto."),
		ai.Text(ai.RoleUser, text),
	}, "conversation_title", schema, &result)
	if err != nil {
		return "", err
	}
	return result.Title, nil
}

// ExtractedDocument is the structured extraction result for one clinical
// document.
type ExtractedDocument struct {
	DocumentDate *string  `json:"documentDate"`
	Institution  *string  `json:"institution"`
	Professional *string  `json:"professional"`
	DocumentKind *string  `json:"documentKind"`
	Diagnoses    []string `json:"diagnoses"`
	Medications  []string `json:"medications"`
	Summary      string   `json:"summary"`
}

// ExtractDocument runs structured extraction over a stored document image
// and persists the result on the document row.
func (s *AssistantService) ExtractDocument(ctx context.Context, documentID string) (*ExtractedDocument, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if doc == nil {
		return nil, apperrors.NotFound("Document")
	}

	body, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, config.MaxDocumentSize))
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", doc.ContentType, base64.StdEncoding.EncodeToString(raw))

	var result ExtractedDocument
	err = s.client.CompleteStructured(ctx, []ai.Message{
		ai.Text(ai.RoleSystem, "Extrae los datos clínicos del documento adjunto."),
		{
			Role: ai.RoleUser,
			Content: []ai.ContentPart{
				{Type: "text", Text: "Documento: " + doc.FileName},
				{Type: "image_url", ImageURL: &ai.ImageURL{URL: dataURL}},
			},
		},
	}, "clinical_document_extraction", documentExtractionSchema, &result)
	if err != nil {
		return nil, err
	}

	extracted, err := json.Marshal(result)
	if err != nil {
		return nil, apperrors.ExtractionFailed(err)
	}
	if err := s.documents.UpdateExtracted(ctx, documentID, extracted); err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Str("documentId", documentID).Msg("document extraction completed")
	return &result, nil
}

// Structured answers an arbitrary prompt under a caller-supplied strict
// schema, decoding into a raw JSON document.
func (s *AssistantService) Structured(ctx context.Context, prompt, schemaName string, schema json.RawMessage) (json.RawMessage, error) {
	if prompt == "" {
		return nil, apperrors.MissingRequired("prompt")
	}
	if len(schema) == 0 {
		return nil, apperrors.MissingRequired("schema")
	}

	var result json.RawMessage
	err := s.client.CompleteStructured(ctx, []ai.Message{
		ai.Text(ai.RoleUser, prompt),
	}, schemaName, schema, &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *AssistantService) persistTurn(ctx context.Context, userID string, role model.ChatRole, content string) {
	stored, err := s.encrypt(content)
	if err != nil {
		log.Error().Err(err).Msg("failed to encrypt chat message, not persisting")
		return
	}
	if _, err := s.messages.Create(ctx, model.CreateChatMessageParams{
		ID:      uuid.NewString(),
		UserID:  userID,
		Role:    role,
		Content: stored,
	}); err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("failed to persist chat message")
	}
}

func (s *AssistantService) encrypt(content string) (string, error) {
	if s.encryptionKey == "" {
		return content, nil
	}
	return util.Encrypt(s.encryptionKey, content)
}

func (s *AssistantService) decrypt(content string) (string, error) {
	if s.encryptionKey == "" {
		return content, nil
	}
	return util.Decrypt(s.encryptionKey, content)
}
