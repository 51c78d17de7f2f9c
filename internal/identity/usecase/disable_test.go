package usecase_test

import (
	"context"
	"testing"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/identity/usecase"
	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisable_OutOfBand(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.seedOutOfBand(t, 9, entity.MFAMethodSMS, "+15550001111", true)

	enableCode := f.issue(t, 9, entity.CodePurposeLogin, f.sms)
	err := f.uc.Disable(ctx, usecase.CodeInput{UserID: 9, Code: enableCode})
	assert.ErrorIs(t, err, entity.ErrInvalidCode)

	code := f.issue(t, 9, entity.CodePurposeDisable2FA, f.sms)
	require.NoError(t, f.uc.Disable(ctx, usecase.CodeInput{UserID: 9, Code: code}))

	got := f.repo.get(9)
	assert.False(t, got.IsEnabled)
	assert.True(t, got.IsVerified)
	assert.Equal(t, "+15550001111", got.PhoneNumber)

	err = f.uc.Disable(ctx, usecase.CodeInput{UserID: 9, Code: code})
	assert.ErrorIs(t, err, entity.ErrNotEnabled)
	requireCode(t, err, goerror.CodeForbidden)

	require.NoError(t, f.gm.Wait())
	changes := f.mq.published()
	require.Len(t, changes, 1)
	assert.False(t, changes[0].Enabled)
	assert.Equal(t, entity.MFAMethodSMS, changes[0].Method)
}

func TestDisable_Authenticator(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.seedAuthenticator(t, 7, scenarioSecret, true)

	require.NoError(t, f.uc.Disable(context.Background(), usecase.CodeInput{UserID: 7, Code: scenarioCode}))
	assert.False(t, f.repo.get(7).IsEnabled)
}

func TestDisable_NotConfigured(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	err := f.uc.Disable(context.Background(), usecase.CodeInput{UserID: 1, Code: scenarioCode})
	assert.ErrorIs(t, err, entity.ErrNotConfigured)
}
