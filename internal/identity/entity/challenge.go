package entity

import "time"

// ChallengeCode is an issued out-of-band code. Only the HMAC digest of the
// code is kept.
type ChallengeCode struct {
	ID        int64
	UserID    int64
	CodeHash  string
	Method    MFAMethod
	Purpose   CodePurpose
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
	// EnrollmentVersion is the enrollment version the code was issued for.
	EnrollmentVersion int64
}

// Acceptable reports whether the code may still be consumed for purpose
// against the given enrollment version.
func (c *ChallengeCode) Acceptable(now time.Time, purpose CodePurpose, version int64) bool {
	return !c.IsUsed && now.Before(c.ExpiresAt) && c.Purpose == purpose && c.EnrollmentVersion == version
}

// ConsumeCode selects the code to mark used inside a state change.
type ConsumeCode struct {
	UserID   int64
	Method   MFAMethod
	Purpose  CodePurpose
	CodeHash string
	Now      time.Time

	EnrollmentVersion int64
}

// CodeMessage is what a delivery channel renders for the user.
type CodeMessage struct {
	Code     string
	Purpose  CodePurpose
	ValidFor time.Duration
}

// StatusChange describes an enable or disable transition.
type StatusChange struct {
	UserID     int64
	Method     MFAMethod
	Enabled    bool
	OccurredAt time.Time
}
