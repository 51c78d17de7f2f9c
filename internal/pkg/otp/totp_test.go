package otp_test

import (
	"testing"
	"time"

	libotp "github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/shandysiswandi/mfacore/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleSecret = "JBSWY3DPEHPK3PXP"

func newTOTP(t *testing.T, skew int) *otp.TOTP {
	t.Helper()

	engine, err := otp.NewTOTP(otp.DefaultPeriod, skew)
	require.NoError(t, err)
	return engine
}

func generate(t *testing.T, key []byte, step uint64) string {
	t.Helper()

	code, err := otp.GenerateCode(key, step)
	require.NoError(t, err)
	return code
}

func verify(t *testing.T, engine *otp.TOTP, key []byte, code string, at time.Time) bool {
	t.Helper()

	ok, err := engine.Verify(key, code, at)
	require.NoError(t, err)
	return ok
}

func TestGenerateCode_KnownVectors(t *testing.T) {
	t.Parallel()

	// SHA-256 seed from the RFC 6238 reference vectors, truncated to six digits.
	rfcKey := []byte("12345678901234567890123456789012")

	tests := []struct {
		unix int64
		want string
	}{
		{unix: 59, want: "119246"},
		{unix: 1111111109, want: "084774"},
		{unix: 1111111111, want: "062674"},
		{unix: 1234567890, want: "819424"},
		{unix: 2000000000, want: "698825"},
		{unix: 20000000000, want: "737706"},
	}

	for _, tt := range tests {
		got := generate(t, rfcKey, uint64(tt.unix/30))
		assert.Equal(t, tt.want, got, "unix %d", tt.unix)
	}
}

func TestGenerateCode_LenientSecretMatchesHOTPSHA256(t *testing.T) {
	t.Parallel()

	key := otp.DecodeBase32("jbsw y3dp-ehpk 3pxp")
	for _, counter := range []uint64{0, 1, 2, 59, 56666666, 1 << 40} {
		want, err := hotp.GenerateCodeCustom(exampleSecret, counter, hotp.ValidateOpts{
			Digits:    libotp.DigitsSix,
			Algorithm: libotp.AlgorithmSHA256,
		})
		require.NoError(t, err)
		assert.Equal(t, want, generate(t, key, counter), "counter %d", counter)
	}
}

func TestGenerateCode_Deterministic(t *testing.T) {
	t.Parallel()

	key := otp.DecodeBase32(exampleSecret)
	first := generate(t, key, 56666666)
	second := generate(t, key, 56666666)

	assert.Equal(t, first, second)
	assert.Equal(t, "049486", first)
	assert.Regexp(t, `^[0-9]{6}$`, first)
}

func TestNewTOTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		period  time.Duration
		skew    int
		wantErr error
	}{
		{name: "defaults", period: otp.DefaultPeriod, skew: otp.DefaultSkew},
		{name: "no skew", period: otp.DefaultPeriod, skew: 0},
		{name: "max skew", period: 60 * time.Second, skew: otp.MaxSkew},
		{name: "negative skew", period: otp.DefaultPeriod, skew: -1, wantErr: otp.ErrInvalidSkew},
		{name: "skew too wide", period: otp.DefaultPeriod, skew: otp.MaxSkew + 1, wantErr: otp.ErrInvalidSkew},
		{name: "zero period", period: 0, skew: 1, wantErr: otp.ErrInvalidPeriod},
		{name: "sub-second period", period: 1500 * time.Millisecond, skew: 1, wantErr: otp.ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine, err := otp.NewTOTP(tt.period, tt.skew)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, engine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.period, engine.Period())
		})
	}
}

func TestTOTP_Step(t *testing.T) {
	t.Parallel()

	engine := newTOTP(t, 1)
	assert.Equal(t, int64(56666666), engine.Step(time.Unix(1700000000, 0)))
	assert.Equal(t, int64(56666666), engine.Step(time.Unix(1700000009, 999)))
	assert.Equal(t, int64(56666667), engine.Step(time.Unix(1700000010, 0)))
	assert.Equal(t, int64(0), engine.Step(time.Unix(29, 0)))
	assert.Equal(t, int64(-1), engine.Step(time.Unix(-1, 0)))
}

func TestTOTP_Verify_Scenario(t *testing.T) {
	t.Parallel()

	engine := newTOTP(t, 1)
	key := otp.DecodeBase32(exampleSecret)

	code, err := engine.Generate(key, time.Unix(1700000000, 0))
	require.NoError(t, err)
	assert.Equal(t, "049486", code)

	assert.True(t, verify(t, engine, key, code, time.Unix(1700000000, 0)))
	assert.True(t, verify(t, engine, key, code, time.Unix(1700000029, 0)))
	assert.False(t, verify(t, engine, key, code, time.Unix(1700000091, 0)))
}

func TestTOTP_Verify_SkewWindow(t *testing.T) {
	t.Parallel()

	key := otp.DecodeBase32(exampleSecret)
	const step = int64(56666666)
	code := generate(t, key, uint64(step))
	at := func(s int64) time.Time { return time.Unix(s*30+7, 0) }

	tests := []struct {
		name   string
		skew   int
		offset int64
		want   bool
	}{
		{name: "same step", skew: 1, offset: 0, want: true},
		{name: "one step later", skew: 1, offset: 1, want: true},
		{name: "one step earlier", skew: 1, offset: -1, want: true},
		{name: "two steps later", skew: 1, offset: 2, want: false},
		{name: "two steps earlier", skew: 1, offset: -2, want: false},
		{name: "no skew rejects neighbour", skew: 0, offset: 1, want: false},
		{name: "no skew accepts current", skew: 0, offset: 0, want: true},
		{name: "skew two accepts two later", skew: 2, offset: 2, want: true},
		{name: "skew two rejects three earlier", skew: 2, offset: -3, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := newTOTP(t, tt.skew)
			assert.Equal(t, tt.want, verify(t, engine, key, code, at(step+tt.offset)))
		})
	}
}

func TestTOTP_Verify_MalformedCodes(t *testing.T) {
	t.Parallel()

	engine := newTOTP(t, 1)
	key := otp.DecodeBase32(exampleSecret)
	now := time.Unix(1700000000, 0)

	for _, code := range []string{"", "49486", "0494860", "04948a", " 049486", "049 486", "０４９４８６"} {
		assert.False(t, verify(t, engine, key, code, now), "code %q", code)
	}
}

func TestTOTP_Verify_NearEpoch(t *testing.T) {
	t.Parallel()

	engine := newTOTP(t, 1)
	key := otp.DecodeBase32(exampleSecret)

	assert.True(t, verify(t, engine, key, "023015", time.Unix(10, 0)))
	assert.True(t, verify(t, engine, key, "344551", time.Unix(10, 0)))
}

func TestGenerateCode_OddLengthKey(t *testing.T) {
	t.Parallel()

	// 7 bytes encode to a Base32 string that needs padding restored.
	key := []byte("7 bytes")
	code := generate(t, key, 1)
	assert.Regexp(t, `^[0-9]{6}$`, code)
	assert.Equal(t, code, generate(t, key, 1))
}

func TestIsNumeric(t *testing.T) {
	t.Parallel()

	assert.True(t, otp.IsNumeric("000000", 6))
	assert.True(t, otp.IsNumeric("0123", 4))
	assert.False(t, otp.IsNumeric("0123", 6))
	assert.False(t, otp.IsNumeric("12a4", 4))
	assert.False(t, otp.IsNumeric("", 0+1))
}
