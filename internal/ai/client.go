// Package ai is a thin client for the upstream completion gateway
// (OpenAI-compatible chat completions). One call per request, no retries,
// no streaming.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/saludvia/portal-server-go/internal/errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// Message is one chat turn. Content is either a plain string or a slice of
// ContentPart for multimodal requests.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

func Text(role, content string) Message {
	return Message{Role: role, Content: content}
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete performs a single plain-text completion call.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	return c.do(ctx, chatRequest{Model: c.model, Messages: messages})
}

// CompleteStructured requests a strict-schema JSON response and decodes it
// into out. The gateway enforces the schema; a decode failure here means the
// contract was violated and is surfaced as an extraction error, not patched
// over with text recovery.
func (c *Client) CompleteStructured(ctx context.Context, messages []Message, schemaName string, schema json.RawMessage, out any) error {
	content, err := c.do(ctx, chatRequest{
		Model:    c.model,
		Messages: messages,
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   schemaName,
				Strict: true,
				Schema: schema,
			},
		},
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(content), out); err != nil {
		log.Error().Err(err).Str("schema", schemaName).Msg("structured completion did not match schema")
		return apperrors.ExtractionFailed(err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, reqBody chatRequest) (string, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("completion gateway request failed")
		return "", apperrors.External("ai gateway", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		log.Warn().Dur("elapsed", elapsed).Msg("completion gateway rate limited")
		return "", apperrors.AIRateLimited()
	case resp.StatusCode == http.StatusPaymentRequired:
		log.Warn().Dur("elapsed", elapsed).Msg("completion gateway quota exceeded")
		return "", apperrors.AIQuotaExceeded()
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		log.Error().
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("completion gateway error")
		return "", apperrors.External("ai gateway", fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", apperrors.External("ai gateway", fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", apperrors.External("ai gateway", fmt.Errorf("empty choices"))
	}

	log.Debug().
		Dur("elapsed", elapsed).
		Int("choices", len(parsed.Choices)).
		Msg("completion gateway call ok")

	return parsed.Choices[0].Message.Content, nil
}
