package mfacrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Layout: [uint16 version][12-byte nonce][ciphertext + tag].
const (
	formatVersion uint16 = 1
	nonceSize            = 12
	headerSize           = 2 + nonceSize
	keySize              = 32
)

var (
	// ErrNotConfigured indicates the encryptor has no key provider.
	ErrNotConfigured = errors.New("mfacrypto: encryptor not configured")
	// ErrEmptyPlaintext indicates there is nothing to encrypt.
	ErrEmptyPlaintext = errors.New("mfacrypto: plaintext is empty")
	// ErrInvalidKeyLength indicates the key is not an AES-256 key.
	ErrInvalidKeyLength = errors.New("mfacrypto: invalid key length")
	// ErrCiphertextTooShort indicates a truncated ciphertext.
	ErrCiphertextTooShort = errors.New("mfacrypto: ciphertext too short")
	// ErrUnsupportedVersion indicates an unknown ciphertext layout.
	ErrUnsupportedVersion = errors.New("mfacrypto: unsupported ciphertext version")
	// ErrDecryptFailed is returned for any authentication failure on open.
	ErrDecryptFailed = errors.New("mfacrypto: decrypt failed")
)

// AESGCM is an Encryptor backed by AES-256-GCM.
type AESGCM struct {
	keys   KeyProvider
	random io.Reader
}

// NewAESGCM returns an AES-GCM encryptor. Nonces are read from random, or
// crypto/rand when random is nil.
func NewAESGCM(keys KeyProvider, random io.Reader) *AESGCM {
	if random == nil {
		random = rand.Reader
	}
	return &AESGCM{keys: keys, random: random}
}

// Encrypt seals plaintext for scope.
func (e *AESGCM) Encrypt(plaintext []byte, scope Scope) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrEmptyPlaintext
	}

	gcm, err := e.aead(scope)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(e.random, nonce); err != nil {
		return nil, fmt.Errorf("mfacrypto: read nonce: %w", err)
	}

	out := make([]byte, headerSize, headerSize+len(plaintext)+gcm.Overhead())
	binary.BigEndian.PutUint16(out[:2], formatVersion)
	copy(out[2:], nonce)

	return gcm.Seal(out, nonce, plaintext, scope.aad()), nil
}

// Decrypt opens a ciphertext produced by Encrypt for the same scope.
//
// Wrong key, wrong scope and tampering are indistinguishable to the caller.
func (e *AESGCM) Decrypt(ciphertext []byte, scope Scope) ([]byte, error) {
	if len(ciphertext) <= headerSize {
		return nil, ErrCiphertextTooShort
	}
	if v := binary.BigEndian.Uint16(ciphertext[:2]); v != formatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	gcm, err := e.aead(scope)
	if err != nil {
		return nil, err
	}

	plain, err := gcm.Open(nil, ciphertext[2:headerSize], ciphertext[headerSize:], scope.aad())
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}

func (e *AESGCM) aead(scope Scope) (cipher.AEAD, error) {
	if e == nil || e.keys == nil {
		return nil, ErrNotConfigured
	}

	key, err := e.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("mfacrypto: key provider: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d want %d", ErrInvalidKeyLength, len(key), keySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("mfacrypto: aes init: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("mfacrypto: gcm init: %w", err)
	}
	return gcm, nil
}
