package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

const (
	// MinCodeLength is the shortest numeric code that may be issued.
	MinCodeLength = 4
	// MaxCodeLength is the longest numeric code that may be issued.
	MaxCodeLength = 10
)

// ErrInvalidCodeLength is returned when a code length is out of bounds.
var ErrInvalidCodeLength = fmt.Errorf("otp: code length must be between %d and %d", MinCodeLength, MaxCodeLength)

// ErrNilRandom is returned when the generator has no random source.
var ErrNilRandom = errors.New("otp: random source is required")

// CodeGenerator produces uniformly distributed numeric codes for out-of-band
// delivery from an injected random source.
type CodeGenerator struct {
	random io.Reader
}

// NewCodeGenerator returns a generator reading from r, or crypto/rand when r is nil.
func NewCodeGenerator(r io.Reader) *CodeGenerator {
	if r == nil {
		r = rand.Reader
	}
	return &CodeGenerator{random: r}
}

// Generate returns a code of exactly length decimal digits, leading zeros kept.
func (g *CodeGenerator) Generate(length int) (string, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return "", ErrInvalidCodeLength
	}
	if g.random == nil {
		return "", ErrNilRandom
	}

	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(g.random, upper)
	if err != nil {
		return "", fmt.Errorf("otp: read random: %w", err)
	}

	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}
