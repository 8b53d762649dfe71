package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saludvia/portal-server-go/internal/model"
)

type mockTokenRepo struct {
	deleteExpiredCalls atomic.Int64
	lastCutoff         atomic.Value
	deleted            int64
}

func (m *mockTokenRepo) Create(ctx context.Context, params model.CreateSharedTokenParams) (*model.SharedAccessToken, error) {
	return nil, nil
}

func (m *mockTokenRepo) FindByToken(ctx context.Context, token string) (*model.SharedAccessToken, error) {
	return nil, nil
}

func (m *mockTokenRepo) FindByID(ctx context.Context, id string) (*model.SharedAccessToken, error) {
	return nil, nil
}

func (m *mockTokenRepo) ListByPatient(ctx context.Context, patientUserID string) ([]model.SharedAccessToken, error) {
	return nil, nil
}

func (m *mockTokenRepo) RecordAccess(ctx context.Context, id string) (*model.SharedAccessToken, error) {
	return nil, nil
}

func (m *mockTokenRepo) Revoke(ctx context.Context, id string) (bool, error) {
	return false, nil
}

func (m *mockTokenRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	m.deleteExpiredCalls.Add(1)
	m.lastCutoff.Store(cutoff)
	return m.deleted, nil
}

func TestCleanupRunsImmediatelyOnStart(t *testing.T) {
	repo := &mockTokenRepo{deleted: 2}
	job := NewCleanupJob(repo, time.Hour, 30*24*time.Hour)

	job.Start()
	defer job.Stop()

	assert.Eventually(t, func() bool {
		return repo.deleteExpiredCalls.Load() >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestCleanupUsesRetentionCutoff(t *testing.T) {
	repo := &mockTokenRepo{}
	retention := 30 * 24 * time.Hour
	job := NewCleanupJob(repo, time.Hour, retention)

	job.cleanup()

	cutoff, ok := repo.lastCutoff.Load().(time.Time)
	assert.True(t, ok)
	expected := time.Now().Add(-retention)
	assert.WithinDuration(t, expected, cutoff, time.Minute)
}

func TestCleanupStops(t *testing.T) {
	repo := &mockTokenRepo{}
	job := NewCleanupJob(repo, 10*time.Millisecond, time.Hour)

	job.Start()
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	// Give any in-flight tick time to finish, then verify no further runs.
	time.Sleep(30 * time.Millisecond)
	calls := repo.deleteExpiredCalls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, repo.deleteExpiredCalls.Load())
}
