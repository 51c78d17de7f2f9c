package mfacrypto

import (
	"crypto/sha256"
	"fmt"
)

// Purpose names what a sealed value is used for.
type Purpose string

const (
	// PurposeTOTPSecret scopes encryption to authenticator shared secrets.
	PurposeTOTPSecret Purpose = "totp_secret"
)

// Scope binds a ciphertext to its owner and purpose.
type Scope struct {
	UserID  int64
	Purpose Purpose
}

// aad hashes a labelled canonical form so the AAD has a fixed length.
func (s Scope) aad() []byte {
	sum := sha256.Sum256(fmt.Appendf(nil, "uid=%d\npurpose=%s\n", s.UserID, s.Purpose))
	return sum[:]
}
