package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saludvia/portal-server-go/internal/blobstore"
	apperrors "github.com/saludvia/portal-server-go/internal/errors"
	"github.com/saludvia/portal-server-go/internal/model"
)

// Mock repositories

type mockSharedTokenRepo struct {
	mock.Mock
}

func (m *mockSharedTokenRepo) Create(ctx context.Context, params model.CreateSharedTokenParams) (*model.SharedAccessToken, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SharedAccessToken), args.Error(1)
}

func (m *mockSharedTokenRepo) FindByToken(ctx context.Context, token string) (*model.SharedAccessToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SharedAccessToken), args.Error(1)
}

func (m *mockSharedTokenRepo) FindByID(ctx context.Context, id string) (*model.SharedAccessToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SharedAccessToken), args.Error(1)
}

func (m *mockSharedTokenRepo) ListByPatient(ctx context.Context, patientUserID string) ([]model.SharedAccessToken, error) {
	args := m.Called(ctx, patientUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SharedAccessToken), args.Error(1)
}

func (m *mockSharedTokenRepo) RecordAccess(ctx context.Context, id string) (*model.SharedAccessToken, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SharedAccessToken), args.Error(1)
}

func (m *mockSharedTokenRepo) Revoke(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockSharedTokenRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockPatientRepo struct {
	mock.Mock
}

func (m *mockPatientRepo) Create(ctx context.Context, params model.CreatePatientProfileParams) (*model.PatientProfile, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientProfile), args.Error(1)
}

func (m *mockPatientRepo) FindByUserID(ctx context.Context, userID string) (*model.PatientProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientProfile), args.Error(1)
}

func (m *mockPatientRepo) FindByDocumentNumber(ctx context.Context, documentNumber string) (*model.PatientProfile, error) {
	args := m.Called(ctx, documentNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PatientProfile), args.Error(1)
}

type mockDocumentRepo struct {
	mock.Mock
}

func (m *mockDocumentRepo) Create(ctx context.Context, params model.CreateDocumentParams) (*model.ClinicalDocument, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClinicalDocument), args.Error(1)
}

func (m *mockDocumentRepo) FindByID(ctx context.Context, id string) (*model.ClinicalDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClinicalDocument), args.Error(1)
}

func (m *mockDocumentRepo) ListByPatient(ctx context.Context, patientUserID string) ([]model.ClinicalDocument, error) {
	args := m.Called(ctx, patientUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ClinicalDocument), args.Error(1)
}

func (m *mockDocumentRepo) UpdateExtracted(ctx context.Context, id string, data json.RawMessage) error {
	args := m.Called(ctx, id, data)
	return args.Error(0)
}

type mockGuestLogRepo struct {
	mock.Mock
}

func (m *mockGuestLogRepo) Create(ctx context.Context, params model.CreateGuestAccessLogParams) (*model.GuestAccessLog, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GuestAccessLog), args.Error(1)
}

func (m *mockGuestLogRepo) ListByToken(ctx context.Context, tokenID string) ([]model.GuestAccessLog, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.GuestAccessLog), args.Error(1)
}

func (m *mockGuestLogRepo) CountByToken(ctx context.Context, tokenID string) (int, error) {
	args := m.Called(ctx, tokenID)
	return args.Int(0), args.Error(1)
}

func newTestSharingService(tokens *mockSharedTokenRepo, patients *mockPatientRepo, docs *mockDocumentRepo, logs *mockGuestLogRepo) *SharingService {
	return NewSharingService(tokens, patients, docs, logs, blobstore.NewMemoryStore(), "https://portal.example.com")
}

const testTokenValue = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func activeToken(patientUserID string) *model.SharedAccessToken {
	return &model.SharedAccessToken{
		ID:            "tok-1",
		Token:         testTokenValue,
		PatientUserID: patientUserID,
		ExpiresAt:     time.Now().Add(30 * time.Minute),
		AllowDownload: true,
		AllowChat:     true,
		AccessCount:   0,
		CreatedAt:     time.Now(),
	}
}

func TestIssueRejectsInvalidDuration(t *testing.T) {
	tokens := new(mockSharedTokenRepo)
	patients := new(mockPatientRepo)
	svc := newTestSharingService(tokens, patients, new(mockDocumentRepo), new(mockGuestLogRepo))

	_, err := svc.Issue(context.Background(), "patient-1", 45, model.SharePermissions{})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidDuration, apperrors.GetCode(err))
	tokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIssueCreatesToken(t *testing.T) {
	tokens := new(mockSharedTokenRepo)
	patients := new(mockPatientRepo)
	svc := newTestSharingService(tokens, patients, new(mockDocumentRepo), new(mockGuestLogRepo))

	patients.On("FindByUserID", mock.Anything, "patient-1").Return(&model.PatientProfile{UserID: "patient-1"}, nil)
	tokens.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateSharedTokenParams) bool {
		return p.PatientUserID == "patient-1" && len(p.Token) == 64 && p.Permissions.AllowDownload
	})).Return(activeToken("patient-1"), nil)

	link, err := svc.Issue(context.Background(), "patient-1", 30, model.SharePermissions{AllowDownload: true})

	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com/guest/"+testTokenValue, link.URL)
	tokens.AssertExpectations(t)
}

func TestRevokeRejectsNonOwner(t *testing.T) {
	tokens := new(mockSharedTokenRepo)
	svc := newTestSharingService(tokens, new(mockPatientRepo), new(mockDocumentRepo), new(mockGuestLogRepo))

	tokens.On("FindByID", mock.Anything, "tok-1").Return(activeToken("patient-1"), nil)

	err := svc.Revoke(context.Background(), "someone-else", "tok-1")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotTokenOwner, apperrors.GetCode(err))
	tokens.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
}

func TestRevokeUnknownToken(t *testing.T) {
	tokens := new(mockSharedTokenRepo)
	svc := newTestSharingService(tokens, new(mockPatientRepo), new(mockDocumentRepo), new(mockGuestLogRepo))

	tokens.On("FindByID", mock.Anything, "missing").Return(nil, nil)

	err := svc.Revoke(context.Background(), "patient-1", "missing")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenNotFound, apperrors.GetCode(err))
}

func TestValidateUnknownToken(t *testing.T) {
	tokens := new(mockSharedTokenRepo)
	svc := newTestSharingService(tokens, new(mockPatientRepo), new(mockDocumentRepo), new(mockGuestLogRepo))

	tokens.On("FindByToken", mock.Anything, testTokenValue).Return(nil, nil)

	_, err := svc.Validate(context.Background(), testTokenValue, "", "1.2.3.4", "ua")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenNotFound, apperrors.GetCode(err))
}

func TestValidateMalformedTokenNeverHitsDatabase(t *testing.T) {
	tokens := new(mockSharedTokenRepo)
	svc := newTestSharingService(tokens, new(mockPatientRepo), new(mockDocumentRepo), new(mockGuestLogRepo))

	_, err := svc.Validate(context.Background(), "not-a-token", "", "1.2.3.4", "ua")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenNotFound, apperrors.GetCode(err))
	tokens.AssertNotCalled(t, "FindByToken", mock.Anything, mock.Anything)
}

func TestValidateExpiredToken(t *testing.T) {
	tokens := new(mockSharedTokenRepo)
	svc := newTestSharingService(tokens, new(mockPatientRepo), new(mockDocumentRepo), new(mockGuestLogRepo))

	expired := activeToken("patient-1")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	tokens.On("FindByToken", mock.Anything, testTokenValue).Return(expired, nil)

	_, err := svc.Validate(context.Background(), testTokenValue, "", "1.2.3.4", "ua")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTokenExpired, apperrors.GetCode(err))
	tokens.AssertNotCalled(t, "RecordAccess", mock.Anything, mock.Anything)
}

func TestValidateRecordsAccessAndLogsOnce(t *testing.T) {
	tokens := new(mockSharedTokenRepo)
	patients := new(mockPatientRepo)
	docs := new(mockDocumentRepo)
	logs := new(mockGuestLogRepo)
	svc := newTestSharingService(tokens, patients, docs, logs)

	token := activeToken("patient-1")
	bumped := *token
	bumped.AccessCount = 3

	tokens.On("FindByToken", mock.Anything, testTokenValue).Return(token, nil)
	tokens.On("RecordAccess", mock.Anything, "tok-1").Return(&bumped, nil).Once()
	patients.On("FindByUserID", mock.Anything, "patient-1").Return(&model.PatientProfile{UserID: "patient-1", FirstName: "Ana"}, nil)
	docs.On("ListByPatient", mock.Anything, "patient-1").Return([]model.ClinicalDocument{{ID: "doc-1"}}, nil)
	logs.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateGuestAccessLogParams) bool {
		return p.TokenID == "tok-1" && p.Action == model.GuestActionView && p.IP == "1.2.3.4" && p.ActionDetails == nil
	})).Return(&model.GuestAccessLog{}, nil).Once()

	session, err := svc.Validate(context.Background(), testTokenValue, "", "1.2.3.4", "ua")

	require.NoError(t, err)
	assert.Equal(t, 3, session.AccessCount)
	assert.Len(t, session.Documents, 1)
	assert.True(t, session.Permissions.AllowDownload)
	assert.Greater(t, session.TimeRemaining, int64(0))
	tokens.AssertExpectations(t)
	logs.AssertExpectations(t)
}

func TestValidateRecordsActionDescriptor(t *testing.T) {
	tokens := new(mockSharedTokenRepo)
	patients := new(mockPatientRepo)
	docs := new(mockDocumentRepo)
	logs := new(mockGuestLogRepo)
	svc := newTestSharingService(tokens, patients, docs, logs)

	token := activeToken("patient-1")
	tokens.On("FindByToken", mock.Anything, testTokenValue).Return(token, nil)
	tokens.On("RecordAccess", mock.Anything, "tok-1").Return(token, nil)
	patients.On("FindByUserID", mock.Anything, "patient-1").Return(&model.PatientProfile{UserID: "patient-1"}, nil)
	docs.On("ListByPatient", mock.Anything, "patient-1").Return([]model.ClinicalDocument{}, nil)
	logs.On("Create", mock.Anything, mock.MatchedBy(func(p model.CreateGuestAccessLogParams) bool {
		if p.Action != model.GuestActionView {
			return false
		}
		var details map[string]string
		if err := json.Unmarshal(p.ActionDetails, &details); err != nil {
			return false
		}
		return details["action"] == "view_labs"
	})).Return(&model.GuestAccessLog{}, nil).Once()

	_, err := svc.Validate(context.Background(), testTokenValue, "view_labs", "1.2.3.4", "ua")

	require.NoError(t, err)
	logs.AssertExpectations(t)
}

func TestDownloadRequiresPermission(t *testing.T) {
	tokens := new(mockSharedTokenRepo)
	svc := newTestSharingService(tokens, new(mockPatientRepo), new(mockDocumentRepo), new(mockGuestLogRepo))

	token := activeToken("patient-1")
	token.AllowDownload = false
	tokens.On("FindByToken", mock.Anything, testTokenValue).Return(token, nil)

	_, _, err := svc.Download(context.Background(), testTokenValue, "doc-1", "1.2.3.4", "ua")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDownloadNotPermitted, apperrors.GetCode(err))
}

func TestDownloadHidesForeignDocuments(t *testing.T) {
	tokens := new(mockSharedTokenRepo)
	docs := new(mockDocumentRepo)
	svc := newTestSharingService(tokens, new(mockPatientRepo), docs, new(mockGuestLogRepo))

	tokens.On("FindByToken", mock.Anything, testTokenValue).Return(activeToken("patient-1"), nil)
	docs.On("FindByID", mock.Anything, "doc-other").Return(&model.ClinicalDocument{
		ID:            "doc-other",
		PatientUserID: "patient-2",
	}, nil)

	_, _, err := svc.Download(context.Background(), testTokenValue, "doc-other", "1.2.3.4", "ua")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
}
