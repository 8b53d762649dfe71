// Package registry holds thin clients for the national health and identity
// lookup services (RETHUS, Topus, HiSmart). Each performs one timeout-bounded
// HTTP call; absence of a configured key disables the client.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

type Client struct {
	httpClient *http.Client
	rethusURL  string
	rethusKey  string
	topusURL   string
	topusKey   string
	hismartURL string
	hismartKey string
}

type Config struct {
	RethusURL  string
	RethusKey  string
	TopusURL   string
	TopusKey   string
	HiSmartURL string
	HiSmartKey string
}

func NewClient(cfg Config, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		rethusURL:  cfg.RethusURL,
		rethusKey:  cfg.RethusKey,
		topusURL:   cfg.TopusURL,
		topusKey:   cfg.TopusKey,
		hismartURL: cfg.HiSmartURL,
		hismartKey: cfg.HiSmartKey,
	}
}

// RethusResult is the professional-registry answer for one document number.
type RethusResult struct {
	Registered bool   `json:"registered"`
	FullName   string `json:"fullName"`
	Profession string `json:"profession"`
}

// LookupRethus checks a professional's registration in RETHUS.
func (c *Client) LookupRethus(ctx context.Context, documentType, documentNumber string) (*RethusResult, error) {
	if c.rethusURL == "" || c.rethusKey == "" {
		return nil, fmt.Errorf("rethus client not configured")
	}

	var result RethusResult
	if err := c.get(ctx, c.rethusURL, c.rethusKey, url.Values{
		"tipoDocumento":   {documentType},
		"numeroDocumento": {documentNumber},
	}, &result); err != nil {
		return nil, fmt.Errorf("rethus lookup: %w", err)
	}

	log.Info().
		Str("documentType", documentType).
		Bool("registered", result.Registered).
		Msg("rethus lookup completed")

	return &result, nil
}

// IdentityResult is a basic-identity answer from Topus or HiSmart.
type IdentityResult struct {
	Found     bool   `json:"found"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Source    string `json:"source"`
}

// LookupIdentity resolves an identity document, trying Topus first and
// falling back to HiSmart.
func (c *Client) LookupIdentity(ctx context.Context, documentType, documentNumber string) (*IdentityResult, error) {
	params := url.Values{
		"tipoDocumento":   {documentType},
		"numeroDocumento": {documentNumber},
	}

	if c.topusURL != "" && c.topusKey != "" {
		var result IdentityResult
		if err := c.get(ctx, c.topusURL, c.topusKey, params, &result); err == nil && result.Found {
			result.Source = "topus"
			return &result, nil
		} else if err != nil {
			log.Warn().Err(err).Msg("topus lookup failed, trying hismart")
		}
	}

	if c.hismartURL != "" && c.hismartKey != "" {
		var result IdentityResult
		if err := c.get(ctx, c.hismartURL, c.hismartKey, params, &result); err != nil {
			return nil, fmt.Errorf("hismart lookup: %w", err)
		}
		result.Source = "hismart"
		return &result, nil
	}

	return nil, fmt.Errorf("no identity lookup service configured")
}

func (c *Client) get(ctx context.Context, baseURL, apiKey string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
