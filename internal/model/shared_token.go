package model

import "time"

// SharePermissions are the per-token capability flags a patient grants to a
// guest.
type SharePermissions struct {
	AllowDownload bool `json:"allowDownload"`
	AllowChat     bool `json:"allowChat"`
	AllowNotebook bool `json:"allowNotebook"`
}

// SharedAccessToken is a time-bounded guest credential for one patient's
// records. It is usable only while revoked_at is null and now < expires_at.
type SharedAccessToken struct {
	ID             string     `db:"id" json:"id"`
	Token          string     `db:"token" json:"token"`
	PatientUserID  string     `db:"patient_user_id" json:"patientUserId"`
	ExpiresAt      time.Time  `db:"expires_at" json:"expiresAt"`
	AllowDownload  bool       `db:"allow_download" json:"allowDownload"`
	AllowChat      bool       `db:"allow_chat" json:"allowChat"`
	AllowNotebook  bool       `db:"allow_notebook" json:"allowNotebook"`
	AccessCount    int        `db:"access_count" json:"accessCount"`
	LastAccessedAt *time.Time `db:"last_accessed_at" json:"lastAccessedAt,omitempty"`
	RevokedAt      *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

type CreateSharedTokenParams struct {
	ID            string
	Token         string
	PatientUserID string
	ExpiresAt     time.Time
	Permissions   SharePermissions
}

func (t *SharedAccessToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *SharedAccessToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *SharedAccessToken) IsUsable(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}

// TimeRemaining returns the seconds until expiry, never negative.
func (t *SharedAccessToken) TimeRemaining(now time.Time) int64 {
	remaining := int64(t.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (t *SharedAccessToken) Permissions() SharePermissions {
	return SharePermissions{
		AllowDownload: t.AllowDownload,
		AllowChat:     t.AllowChat,
		AllowNotebook: t.AllowNotebook,
	}
}
