package usecase_test

import (
	"strings"
	"testing"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/identity/usecase"
	"github.com/shandysiswandi/mfacore/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		yaml    string
		mutate  func(*usecase.Dependency)
		wantErr error
		wantMsg string
	}{
		"ok": {yaml: testConfig},
		"missing sms sender": {
			yaml:    testConfig,
			mutate:  func(d *usecase.Dependency) { d.SMSSender = nil },
			wantErr: entity.ErrMisconfiguredChannel,
		},
		"missing sender for method not offered is fine": {
			yaml:   strings.Replace(testConfig, "authenticator,sms,email", "authenticator,email", 1),
			mutate: func(d *usecase.Dependency) { d.SMSSender = nil },
		},
		"unknown method": {
			yaml:    strings.Replace(testConfig, "authenticator,sms,email", "authenticator,push", 1),
			wantErr: entity.ErrInvalidMethod,
		},
		"skew out of range": {
			yaml:    strings.Replace(testConfig, "skew: 1", "skew: 3", 1),
			wantErr: otp.ErrInvalidSkew,
		},
		"zero period": {
			yaml:    strings.Replace(testConfig, "period_seconds: 30", "period_seconds: 0", 1),
			wantErr: otp.ErrInvalidPeriod,
		},
		"code too short": {
			yaml:    strings.Replace(testConfig, "length: 6", "length: 3", 1),
			wantErr: otp.ErrInvalidCodeLength,
		},
		"zero expiry": {
			yaml:    strings.Replace(testConfig, "expiration_minutes: 10", "expiration_minutes: 0", 1),
			wantMsg: "expiration_minutes",
		},
		"missing repo": {
			yaml:    testConfig,
			mutate:  func(d *usecase.Dependency) { d.RepoDB = nil },
			wantMsg: "repo_db",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dep, _ := newDependency(t, tt.yaml)
			if tt.mutate != nil {
				tt.mutate(&dep)
			}

			uc, err := usecase.New(dep)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				require.ErrorContains(t, err, tt.wantMsg)
			default:
				require.NoError(t, err)
				assert.NotNil(t, uc)
			}
		})
	}
}
