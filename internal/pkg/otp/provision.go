package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
)

// SecretSize is the number of random bytes in a provisioned secret.
const SecretSize = 20

const defaultQRSize = 256

// ErrEmptyURI is returned when a QR code is requested for an empty URI.
var ErrEmptyURI = errors.New("otp: provisioning uri is empty")

// Key is a freshly provisioned authenticator secret.
type Key struct {
	// Secret is the Base32 encoded shared secret without padding.
	Secret string
	// URI is the otpauth:// provisioning URI.
	URI string
}

// Provisioner creates authenticator secrets that match the TOTP engine:
// HMAC-SHA256, six digits, same period.
type Provisioner struct {
	issuer string
	period time.Duration
	random io.Reader
}

// NewProvisioner returns a Provisioner. A nil random source means crypto/rand.
func NewProvisioner(issuer string, period time.Duration, random io.Reader) *Provisioner {
	if random == nil {
		random = rand.Reader
	}
	if period <= 0 {
		period = DefaultPeriod
	}

	return &Provisioner{issuer: issuer, period: period, random: random}
}

// Provision generates a new secret and provisioning URI for accountName.
func (p *Provisioner) Provision(accountName string) (Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      p.issuer,
		AccountName: accountName,
		Period:      uint(p.period / time.Second),
		SecretSize:  SecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA256,
		Rand:        p.random,
	})
	if err != nil {
		return Key{}, fmt.Errorf("otp: provision: %w", err)
	}

	return Key{Secret: key.Secret(), URI: key.URL()}, nil
}

// QRCode renders uri as a PNG image of size pixels (256 when size <= 0).
func QRCode(uri string, size int) ([]byte, error) {
	if strings.TrimSpace(uri) == "" {
		return nil, ErrEmptyURI
	}
	if size <= 0 {
		size = defaultQRSize
	}

	png, err := qrcode.Encode(uri, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("otp: encode qr: %w", err)
	}
	return png, nil
}
