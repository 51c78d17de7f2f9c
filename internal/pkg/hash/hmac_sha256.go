package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACSHA256 implements Hash with a keyed SHA-256 MAC, hex encoded.
type HMACSHA256 struct {
	key []byte
}

// NewHMACSHA256 returns a hasher keyed with key.
func NewHMACSHA256(key []byte) *HMACSHA256 {
	return &HMACSHA256{key: append([]byte(nil), key...)}
}

// Hash returns the hex encoded MAC of str.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return s.sum(str), nil
}

// Verify reports whether hashed is the MAC of str, in constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	return subtle.ConstantTimeCompare([]byte(hashed), s.sum(str)) == 1
}

func (s *HMACSHA256) sum(str string) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(str))
	return hex.AppendEncode(nil, mac.Sum(nil))
}
