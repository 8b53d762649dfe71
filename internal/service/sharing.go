package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/saludvia/portal-server-go/internal/blobstore"
	"github.com/saludvia/portal-server-go/internal/config"
	apperrors "github.com/saludvia/portal-server-go/internal/errors"
	"github.com/saludvia/portal-server-go/internal/model"
	"github.com/saludvia/portal-server-go/internal/repository"
	"github.com/saludvia/portal-server-go/internal/util"
)

// ShareLink is an issued guest credential plus the URL a patient hands out.
type ShareLink struct {
	Token *model.SharedAccessToken `json:"token"`
	URL   string                   `json:"url"`
}

// GuestSession is the payload a guest receives after presenting a valid
// share token: the patient's profile, their documents, and what the token
// still allows.
type GuestSession struct {
	Patient       *model.PatientProfile    `json:"patient"`
	Documents     []model.ClinicalDocument `json:"documents"`
	Permissions   model.SharePermissions   `json:"permissions"`
	TimeRemaining int64                    `json:"timeRemaining"`
	AccessCount   int                      `json:"accessCount"`
}

// SharingService handles share-link issuance, guest validation, downloads
// and revocation.
type SharingService struct {
	tokens        repository.SharedTokenRepository
	patients      repository.PatientRepository
	documents     repository.DocumentRepository
	guestLogs     repository.GuestLogRepository
	blobs         blobstore.Store
	publicBaseURL string
}

func NewSharingService(
	tokens repository.SharedTokenRepository,
	patients repository.PatientRepository,
	documents repository.DocumentRepository,
	guestLogs repository.GuestLogRepository,
	blobs blobstore.Store,
	publicBaseURL string,
) *SharingService {
	return &SharingService{
		tokens:        tokens,
		patients:      patients,
		documents:     documents,
		guestLogs:     guestLogs,
		blobs:         blobs,
		publicBaseURL: publicBaseURL,
	}
}

// Issue creates a share token for the calling patient's own records.
func (s *SharingService) Issue(
	ctx context.Context,
	patientUserID string,
	durationMinutes int,
	perms model.SharePermissions,
) (*ShareLink, error) {
	if !allowedDuration(durationMinutes) {
		return nil, apperrors.InvalidDuration(durationMinutes)
	}

	profile, err := s.patients.FindByUserID(ctx, patientUserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if profile == nil {
		return nil, apperrors.PatientNotFound()
	}

	tokenValue, err := util.GenerateToken()
	if err != nil {
		return nil, apperrors.Internal("failed to generate token").WithCause(err)
	}

	token, err := s.tokens.Create(ctx, model.CreateSharedTokenParams{
		ID:            uuid.NewString(),
		Token:         tokenValue,
		PatientUserID: patientUserID,
		ExpiresAt:     time.Now().Add(time.Duration(durationMinutes) * time.Minute),
		Permissions:   perms,
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Str("tokenId", token.ID).
		Str("token", util.MaskToken(tokenValue)).
		Int("durationMinutes", durationMinutes).
		Bool("allowDownload", perms.AllowDownload).
		Bool("allowChat", perms.AllowChat).
		Msg("share link issued")

	return &ShareLink{
		Token: token,
		URL:   fmt.Sprintf("%s/guest/%s", s.publicBaseURL, tokenValue),
	}, nil
}

// List returns all share tokens the patient has issued, newest first.
func (s *SharingService) List(ctx context.Context, patientUserID string) ([]model.SharedAccessToken, error) {
	tokens, err := s.tokens.ListByPatient(ctx, patientUserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return tokens, nil
}

// Revoke invalidates a share token. Only the issuing patient may revoke it.
// Revoking an already-revoked token succeeds without effect.
func (s *SharingService) Revoke(ctx context.Context, patientUserID, tokenID string) error {
	token, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return apperrors.Database(err)
	}
	if token == nil {
		return apperrors.TokenNotFound()
	}
	if token.PatientUserID != patientUserID {
		return apperrors.NotTokenOwner()
	}

	revoked, err := s.tokens.Revoke(ctx, tokenID)
	if err != nil {
		return apperrors.Database(err)
	}
	if revoked {
		log.Info().Str("tokenId", tokenID).Msg("share link revoked")
	}
	return nil
}

// ResolveToken looks up a share token by value and checks it is usable.
// Revoked and unknown tokens are indistinguishable to guests; expired ones
// get their own error so the guest UI can say why the link stopped working.
func (s *SharingService) ResolveToken(ctx context.Context, tokenValue string) (*model.SharedAccessToken, error) {
	if !util.IsValidShareToken(tokenValue) {
		return nil, apperrors.TokenNotFound()
	}

	token, err := s.tokens.FindByToken(ctx, tokenValue)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if token == nil {
		return nil, apperrors.TokenNotFound()
	}
	if token.IsExpired(time.Now()) {
		return nil, apperrors.TokenExpired()
	}
	return token, nil
}

// Validate resolves a guest's share token and returns the shared records.
// Each successful validation bumps the token's access count once and leaves
// exactly one guest log row. The optional action descriptor supplied by the
// guest UI is recorded in that row's details.
func (s *SharingService) Validate(ctx context.Context, tokenValue, action, ip, userAgent string) (*GuestSession, error) {
	token, err := s.ResolveToken(ctx, tokenValue)
	if err != nil {
		return nil, err
	}

	token, err = s.tokens.RecordAccess(ctx, token.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if token == nil {
		// Deleted between lookup and access; treat as gone.
		return nil, apperrors.TokenNotFound()
	}

	profile, err := s.patients.FindByUserID(ctx, token.PatientUserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if profile == nil {
		return nil, apperrors.PatientNotFound()
	}

	docs, err := s.documents.ListByPatient(ctx, token.PatientUserID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	var details json.RawMessage
	if action != "" {
		details, _ = json.Marshal(map[string]string{"action": action})
	}
	s.logGuestAction(ctx, token.ID, model.GuestActionView, ip, userAgent, details)

	return &GuestSession{
		Patient:       profile,
		Documents:     docs,
		Permissions:   token.Permissions(),
		TimeRemaining: token.TimeRemaining(time.Now()),
		AccessCount:   token.AccessCount,
	}, nil
}

// Download streams one shared document to a guest. The token must allow
// downloads and the document must belong to the shared patient.
func (s *SharingService) Download(ctx context.Context, tokenValue, documentID, ip, userAgent string) (*model.ClinicalDocument, io.ReadCloser, error) {
	token, err := s.ResolveToken(ctx, tokenValue)
	if err != nil {
		return nil, nil, err
	}
	if !token.AllowDownload {
		return nil, nil, apperrors.DownloadNotPermitted()
	}

	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		return nil, nil, apperrors.Database(err)
	}
	if doc == nil || doc.PatientUserID != token.PatientUserID {
		// A document outside the shared patient's records does not exist as
		// far as the guest is concerned.
		return nil, nil, apperrors.NotFound("Document")
	}

	body, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, apperrors.Storage(err)
	}

	details, _ := json.Marshal(map[string]string{"documentId": doc.ID, "fileName": doc.FileName})
	s.logGuestAction(ctx, token.ID, model.GuestActionDownload, ip, userAgent, details)

	return doc, body, nil
}

// LogChat records a guest chat turn against the token's audit trail.
func (s *SharingService) LogChat(ctx context.Context, tokenID, ip, userAgent string) {
	s.logGuestAction(ctx, tokenID, model.GuestActionChat, ip, userAgent, nil)
}

func (s *SharingService) logGuestAction(ctx context.Context, tokenID string, action model.GuestAction, ip, userAgent string, details json.RawMessage) {
	if _, err := s.guestLogs.Create(ctx, model.CreateGuestAccessLogParams{
		TokenID:       tokenID,
		IP:            ip,
		UserAgent:     userAgent,
		Action:        action,
		ActionDetails: details,
	}); err != nil {
		// The guest already got their answer; losing the audit row is worth
		// an error log, not a failed request.
		log.Error().Err(err).Str("tokenId", tokenID).Str("action", string(action)).Msg("failed to write guest access log")
	}
}

func allowedDuration(minutes int) bool {
	for _, d := range config.AllowedShareDurations {
		if minutes == d {
			return true
		}
	}
	return false
}
