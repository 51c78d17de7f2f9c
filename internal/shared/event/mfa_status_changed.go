package event

import "time"

const MFAStatusChangedDestination string = "mfa_status_changed"

// MFAStatusChangedMessage is published after MFA is enabled or disabled.
type MFAStatusChangedMessage struct {
	UserID     int64     `json:"user_id"`
	Method     string    `json:"method"`
	Enabled    bool      `json:"enabled"`
	OccurredAt time.Time `json:"occurred_at"`
}
