package mfacrypto

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MasterKeySize is the required length of the configured master key.
const MasterKeySize = 32

// ErrInvalidMasterKey indicates the master key is not 32 bytes.
var ErrInvalidMasterKey = fmt.Errorf("mfacrypto: master key must be %d bytes", MasterKeySize)

var errEmptyInfo = errors.New("mfacrypto: derivation info is empty")

const infoPrefix = "mfacore/v1/"

// DeriveKey expands master into a size-byte subkey bound to info.
func DeriveKey(master []byte, info string, size int) ([]byte, error) {
	if len(master) != MasterKeySize {
		return nil, ErrInvalidMasterKey
	}
	if info == "" {
		return nil, errEmptyInfo
	}

	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(infoPrefix+info)), key); err != nil {
		return nil, fmt.Errorf("mfacrypto: hkdf expand: %w", err)
	}
	return key, nil
}

// HKDFKeyProvider derives one AES key per purpose from a master key.
type HKDFKeyProvider struct {
	keys map[Purpose][]byte
}

// NewHKDFKeyProvider precomputes the subkeys for every known purpose.
func NewHKDFKeyProvider(master []byte) (*HKDFKeyProvider, error) {
	key, err := DeriveKey(master, "aes/"+string(PurposeTOTPSecret), keySize)
	if err != nil {
		return nil, err
	}

	return &HKDFKeyProvider{keys: map[Purpose][]byte{PurposeTOTPSecret: key}}, nil
}

// Key returns a copy of the subkey for scope.Purpose.
func (p *HKDFKeyProvider) Key(scope Scope) ([]byte, error) {
	key, ok := p.keys[scope.Purpose]
	if !ok {
		return nil, fmt.Errorf("mfacrypto: no key for purpose %q", scope.Purpose)
	}
	return append([]byte(nil), key...), nil
}
