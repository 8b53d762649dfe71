package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSharedAccessTokenUsability(t *testing.T) {
	now := time.Now()

	active := SharedAccessToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, active.IsUsable(now))

	expired := SharedAccessToken{ExpiresAt: now.Add(-time.Minute)}
	assert.False(t, expired.IsUsable(now))
	assert.True(t, expired.IsExpired(now))
	assert.False(t, expired.IsRevoked())

	revokedAt := now.Add(-time.Minute)
	revoked := SharedAccessToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}
	assert.False(t, revoked.IsUsable(now))
	assert.True(t, revoked.IsRevoked())
	assert.False(t, revoked.IsExpired(now))
}

func TestTimeRemainingNeverNegative(t *testing.T) {
	now := time.Now()

	token := SharedAccessToken{ExpiresAt: now.Add(90 * time.Second)}
	assert.Equal(t, int64(90), token.TimeRemaining(now))

	expired := SharedAccessToken{ExpiresAt: now.Add(-time.Hour)}
	assert.Equal(t, int64(0), expired.TimeRemaining(now))
}

func TestIsValidDocumentType(t *testing.T) {
	assert.True(t, IsValidDocumentType(DocTypeCC))
	assert.True(t, IsValidDocumentType(DocTypeRC))
	assert.False(t, IsValidDocumentType("XX"))
	assert.False(t, IsValidDocumentType(""))
}
