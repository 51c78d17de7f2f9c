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

func TestStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	offered := []entity.MFAMethod{entity.MFAMethodAuthenticator, entity.MFAMethodSMS, entity.MFAMethodEmail}

	out, err := f.uc.Status(ctx, usecase.StatusInput{UserID: 4})
	require.NoError(t, err)
	assert.False(t, out.Configured)
	assert.Equal(t, offered, out.Offered)

	f.seedOutOfBand(t, 4, entity.MFAMethodSMS, "+15550004321", true)
	code := f.issue(t, 4, entity.CodePurposeLogin, f.sms)
	require.NoError(t, f.uc.VerifyForLogin(ctx, usecase.CodeInput{UserID: 4, Code: code}))

	out, err = f.uc.Status(ctx, usecase.StatusInput{UserID: 4})
	require.NoError(t, err)
	assert.True(t, out.Configured)
	assert.Equal(t, entity.MFAMethodSMS, out.Method)
	assert.Equal(t, "********4321", out.Destination)
	assert.True(t, out.IsVerified)
	assert.True(t, out.IsEnabled)
	require.NotNil(t, out.LastUsedAt)
	assert.Equal(t, f.clock.Now(), *out.LastUsedAt)

	_, err = f.uc.Status(ctx, usecase.StatusInput{})
	requireCode(t, err, goerror.CodeInvalidInput)
}
