package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saludvia/portal-server-go/internal/blobstore"
	"github.com/saludvia/portal-server-go/internal/model"
	"github.com/saludvia/portal-server-go/internal/service"
)

// Stub repositories with overridable lookups.

type stubTokenRepo struct {
	findByToken  func(token string) (*model.SharedAccessToken, error)
	recordAccess func(id string) (*model.SharedAccessToken, error)
}

func (s *stubTokenRepo) Create(ctx context.Context, params model.CreateSharedTokenParams) (*model.SharedAccessToken, error) {
	return nil, nil
}

func (s *stubTokenRepo) FindByToken(ctx context.Context, token string) (*model.SharedAccessToken, error) {
	if s.findByToken != nil {
		return s.findByToken(token)
	}
	return nil, nil
}

func (s *stubTokenRepo) FindByID(ctx context.Context, id string) (*model.SharedAccessToken, error) {
	return nil, nil
}

func (s *stubTokenRepo) ListByPatient(ctx context.Context, patientUserID string) ([]model.SharedAccessToken, error) {
	return nil, nil
}

func (s *stubTokenRepo) RecordAccess(ctx context.Context, id string) (*model.SharedAccessToken, error) {
	if s.recordAccess != nil {
		return s.recordAccess(id)
	}
	return nil, nil
}

func (s *stubTokenRepo) Revoke(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func (s *stubTokenRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

type stubPatientRepo struct {
	profile *model.PatientProfile
}

func (s *stubPatientRepo) Create(ctx context.Context, params model.CreatePatientProfileParams) (*model.PatientProfile, error) {
	return nil, nil
}

func (s *stubPatientRepo) FindByUserID(ctx context.Context, userID string) (*model.PatientProfile, error) {
	return s.profile, nil
}

func (s *stubPatientRepo) FindByDocumentNumber(ctx context.Context, documentNumber string) (*model.PatientProfile, error) {
	return nil, nil
}

type stubDocumentRepo struct {
	docs []model.ClinicalDocument
}

func (s *stubDocumentRepo) Create(ctx context.Context, params model.CreateDocumentParams) (*model.ClinicalDocument, error) {
	return nil, nil
}

func (s *stubDocumentRepo) FindByID(ctx context.Context, id string) (*model.ClinicalDocument, error) {
	for i := range s.docs {
		if s.docs[i].ID == id {
			return &s.docs[i], nil
		}
	}
	return nil, nil
}

func (s *stubDocumentRepo) ListByPatient(ctx context.Context, patientUserID string) ([]model.ClinicalDocument, error) {
	return s.docs, nil
}

func (s *stubDocumentRepo) UpdateExtracted(ctx context.Context, id string, data json.RawMessage) error {
	return nil
}

type stubGuestLogRepo struct {
	created []model.CreateGuestAccessLogParams
}

func (s *stubGuestLogRepo) Create(ctx context.Context, params model.CreateGuestAccessLogParams) (*model.GuestAccessLog, error) {
	s.created = append(s.created, params)
	return &model.GuestAccessLog{}, nil
}

func (s *stubGuestLogRepo) ListByToken(ctx context.Context, tokenID string) ([]model.GuestAccessLog, error) {
	return nil, nil
}

func (s *stubGuestLogRepo) CountByToken(ctx context.Context, tokenID string) (int, error) {
	return len(s.created), nil
}

const guestTestToken = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func guestTestServer(tokens *stubTokenRepo, patients *stubPatientRepo, docs *stubDocumentRepo, logs *stubGuestLogRepo) *httptest.Server {
	sharing := service.NewSharingService(tokens, patients, docs, logs, blobstore.NewMemoryStore(), "https://portal.example.com")
	h := NewGuestHandler(sharing, nil)
	return httptest.NewServer(h.Routes())
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestGuestValidateUnknownToken(t *testing.T) {
	server := guestTestServer(&stubTokenRepo{}, &stubPatientRepo{}, &stubDocumentRepo{}, &stubGuestLogRepo{})
	defer server.Close()

	resp := postJSON(t, server.URL+"/validate", map[string]string{"token": guestTestToken})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "TOKEN_NOT_FOUND", body["code"])
}

func TestGuestValidateExpiredToken(t *testing.T) {
	tokens := &stubTokenRepo{
		findByToken: func(token string) (*model.SharedAccessToken, error) {
			return &model.SharedAccessToken{
				ID:            "tok-1",
				Token:         token,
				PatientUserID: "patient-1",
				ExpiresAt:     time.Now().Add(-time.Minute),
			}, nil
		},
	}
	server := guestTestServer(tokens, &stubPatientRepo{}, &stubDocumentRepo{}, &stubGuestLogRepo{})
	defer server.Close()

	resp := postJSON(t, server.URL+"/validate", map[string]string{"token": guestTestToken})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "TOKEN_EXPIRED", body["code"])
}

func TestGuestValidateMissingToken(t *testing.T) {
	server := guestTestServer(&stubTokenRepo{}, &stubPatientRepo{}, &stubDocumentRepo{}, &stubGuestLogRepo{})
	defer server.Close()

	resp := postJSON(t, server.URL+"/validate", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGuestValidateReturnsSessionAndLogsAccess(t *testing.T) {
	active := &model.SharedAccessToken{
		ID:            "tok-1",
		Token:         guestTestToken,
		PatientUserID: "patient-1",
		ExpiresAt:     time.Now().Add(time.Hour),
		AllowDownload: true,
		AccessCount:   1,
	}
	tokens := &stubTokenRepo{
		findByToken: func(string) (*model.SharedAccessToken, error) { return active, nil },
		recordAccess: func(string) (*model.SharedAccessToken, error) {
			bumped := *active
			bumped.AccessCount = 2
			return &bumped, nil
		},
	}
	logs := &stubGuestLogRepo{}
	server := guestTestServer(tokens, &stubPatientRepo{
		profile: &model.PatientProfile{UserID: "patient-1", FirstName: "Ana", LastName: "García"},
	}, &stubDocumentRepo{
		docs: []model.ClinicalDocument{{ID: "doc-1", PatientUserID: "patient-1", FileName: "lab.pdf"}},
	}, logs)
	defer server.Close()

	resp := postJSON(t, server.URL+"/validate", map[string]string{"token": guestTestToken})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["accessCount"])
	assert.Greater(t, body["timeRemaining"].(float64), float64(0))

	require.Len(t, logs.created, 1)
	assert.Equal(t, model.GuestActionView, logs.created[0].Action)
}

func TestGuestValidateRecordsActionDescriptor(t *testing.T) {
	active := &model.SharedAccessToken{
		ID:            "tok-1",
		Token:         guestTestToken,
		PatientUserID: "patient-1",
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	tokens := &stubTokenRepo{
		findByToken:  func(string) (*model.SharedAccessToken, error) { return active, nil },
		recordAccess: func(string) (*model.SharedAccessToken, error) { return active, nil },
	}
	logs := &stubGuestLogRepo{}
	server := guestTestServer(tokens, &stubPatientRepo{
		profile: &model.PatientProfile{UserID: "patient-1"},
	}, &stubDocumentRepo{}, logs)
	defer server.Close()

	resp := postJSON(t, server.URL+"/validate", map[string]string{
		"token":  guestTestToken,
		"action": "view_labs",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, logs.created, 1)
	assert.Equal(t, model.GuestActionView, logs.created[0].Action)
	assert.JSONEq(t, `{"action":"view_labs"}`, string(logs.created[0].ActionDetails))
}

func TestGuestDownloadNotPermitted(t *testing.T) {
	tokens := &stubTokenRepo{
		findByToken: func(string) (*model.SharedAccessToken, error) {
			return &model.SharedAccessToken{
				ID:            "tok-1",
				PatientUserID: "patient-1",
				ExpiresAt:     time.Now().Add(time.Hour),
				AllowDownload: false,
			}, nil
		},
	}
	server := guestTestServer(tokens, &stubPatientRepo{}, &stubDocumentRepo{}, &stubGuestLogRepo{})
	defer server.Close()

	resp := postJSON(t, server.URL+"/download", map[string]string{
		"token":      guestTestToken,
		"documentId": "doc-1",
	})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "DOWNLOAD_NOT_PERMITTED", body["code"])
}

func TestGuestDownloadStreamsDocument(t *testing.T) {
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "documents/patient-1/doc-1", "application/pdf", strings.NewReader("pdf-bytes")))

	tokens := &stubTokenRepo{
		findByToken: func(string) (*model.SharedAccessToken, error) {
			return &model.SharedAccessToken{
				ID:            "tok-1",
				PatientUserID: "patient-1",
				ExpiresAt:     time.Now().Add(time.Hour),
				AllowDownload: true,
			}, nil
		},
	}
	docs := &stubDocumentRepo{docs: []model.ClinicalDocument{{
		ID:            "doc-1",
		PatientUserID: "patient-1",
		FileName:      "lab.pdf",
		ContentType:   "application/pdf",
		SizeBytes:     9,
		StorageKey:    "documents/patient-1/doc-1",
	}}}

	sharing := service.NewSharingService(tokens, &stubPatientRepo{}, docs, &stubGuestLogRepo{}, store, "https://portal.example.com")
	h := NewGuestHandler(sharing, nil)
	server := httptest.NewServer(h.Routes())
	defer server.Close()

	resp := postJSON(t, server.URL+"/download", map[string]string{
		"token":      guestTestToken,
		"documentId": "doc-1",
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "lab.pdf")
}
