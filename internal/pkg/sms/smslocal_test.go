package sms_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shandysiswandi/mfacore/internal/pkg/sms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMSLocal(t *testing.T) {
	t.Parallel()

	_, err := sms.NewSMSLocal(sms.SMSLocalConfig{})
	require.ErrorIs(t, err, sms.ErrAPIKeyRequired)

	c, err := sms.NewSMSLocal(sms.SMSLocalConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestSMSLocal_SendOTP(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-api-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	t.Cleanup(srv.Close)

	c, err := sms.NewSMSLocal(sms.SMSLocalConfig{APIKey: "test-api-key", BaseURL: srv.URL, Sender: "MFA"})
	require.NoError(t, err)

	require.NoError(t, c.SendOTP(context.Background(), "+6281234567890", "123456"))
	assert.Equal(t, "otp", got["route"])
	assert.Equal(t, "6281234567890", got["numbers"])
	assert.Equal(t, "123456", got["variables"])
	assert.Equal(t, "MFA", got["sender_id"])
}

func TestSMSLocal_SendOTPFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"down","variables":"123456"}`))
	}))
	t.Cleanup(srv.Close)

	c, err := sms.NewSMSLocal(sms.SMSLocalConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	err = c.SendOTP(context.Background(), "+6281234567890", "123456")
	var se *sms.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.True(t, se.Temporary())
	assert.NotContains(t, err.Error(), "123456")

	assert.ErrorIs(t, c.SendOTP(context.Background(), " ", "123456"), sms.ErrEmptyNumber)
}
