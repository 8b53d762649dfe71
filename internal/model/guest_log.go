package model

import (
	"encoding/json"
	"time"
)

// GuestAccessLog is an append-only audit row for guest activity on a share
// token. Rows are never updated or deleted.
type GuestAccessLog struct {
	ID            string          `db:"id" json:"id"`
	TokenID       string          `db:"token_id" json:"tokenId"`
	IP            string          `db:"ip" json:"ip"`
	UserAgent     string          `db:"user_agent" json:"userAgent"`
	Action        GuestAction     `db:"action" json:"action"`
	ActionDetails json.RawMessage `db:"action_details" json:"actionDetails,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

type CreateGuestAccessLogParams struct {
	TokenID       string
	IP            string
	UserAgent     string
	Action        GuestAction
	ActionDetails json.RawMessage
}
