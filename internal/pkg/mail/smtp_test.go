package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTP(t *testing.T) {
	t.Parallel()

	_, err := NewSMTP(SMTPConfig{Host: "localhost"})
	require.ErrorIs(t, err, ErrSMTPHostPortRequired)

	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:1025", s.addr)
	assert.NotNil(t, s.auth)
	assert.NoError(t, s.Close())
}

func TestSMTP_Send(t *testing.T) {
	t.Parallel()

	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025, From: "no-reply@example.com"})
	require.NoError(t, err)

	var gotFrom string
	var gotTo []string
	var gotRaw string
	s.send = func(_ string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotFrom, gotTo, gotRaw = from, to, string(msg)
		return nil
	}

	err = s.Send(context.Background(), Message{
		To:       []string{"a@example.com"},
		Subject:  "Your verification code",
		TextBody: "plain",
		HTMLBody: "<p>html</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "no-reply@example.com", gotFrom)
	assert.Equal(t, []string{"a@example.com"}, gotTo)
	assert.Contains(t, gotRaw, "Subject: Your verification code\r\n")
	assert.Contains(t, gotRaw, "multipart/alternative; boundary=mfacore-")
	assert.Contains(t, gotRaw, "Content-Type: text/html; charset=UTF-8\r\n\r\n<p>html</p>")

	s.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("dial") }
	err = s.Send(context.Background(), Message{To: []string{"a@example.com"}, TextBody: "x"})
	assert.ErrorContains(t, err, "dial")
}

func TestSMTP_SendRejectsBadMessage(t *testing.T) {
	t.Parallel()

	s, err := NewSMTP(SMTPConfig{Host: "localhost", Port: 1025})
	require.NoError(t, err)

	ctx := context.Background()
	assert.ErrorIs(t, s.Send(ctx, Message{TextBody: "x"}), ErrNoRecipients)
	assert.ErrorIs(t, s.Send(ctx, Message{To: []string{"a@example.com"}}), ErrEmptyBody)
	assert.ErrorIs(t, s.Send(ctx, Message{To: []string{"a@example.com"}, TextBody: "x"}), ErrNoSender)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.Send(canceled, Message{To: []string{"a@example.com"}, TextBody: "x"}), context.Canceled)
}
