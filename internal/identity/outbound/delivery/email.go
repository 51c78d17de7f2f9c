package delivery

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"math"
	"text/template"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/pkg/instrument"
	"github.com/shandysiswandi/mfacore/internal/pkg/mail"
)

var (
	textBody = template.Must(template.New("code.txt").Option("missingkey=zero").Parse(
		"Your verification code is {{.code}}. It expires in {{.minutes}} minutes.\n\n" +
			"If you did not request this code, you can ignore this email.\n"))

	htmlBody = htmltemplate.Must(htmltemplate.New("code.html").Option("missingkey=zero").Parse(
		"<p>Your verification code is <strong>{{.code}}</strong>.</p>" +
			"<p>It expires in {{.minutes}} minutes.</p>" +
			"<p>If you did not request this code, you can ignore this email.</p>"))
)

type Email struct {
	client mail.Mail
	from   string
	retry  RetryConfig
	ins    instrument.Instrumentation
}

// NewEmail returns an Email sender. An empty from defers to the client's
// configured sender.
func NewEmail(client mail.Mail, from string, retry RetryConfig, ins instrument.Instrumentation) *Email {
	return &Email{client: client, from: from, retry: retry, ins: ins}
}

func (e *Email) SendCode(ctx context.Context, destination string, msg entity.CodeMessage) error {
	m, err := composeEmail(destination, msg)
	if err != nil {
		return err
	}
	m.From = e.from

	return send(ctx, e.ins, "SendEmail", e.retry, func(ctx context.Context) error {
		return e.client.Send(ctx, m)
	})
}

func subjectFor(purpose entity.CodePurpose) string {
	switch purpose {
	case entity.CodePurposeEnable2FA:
		return "Confirm two-factor authentication"
	case entity.CodePurposeDisable2FA:
		return "Confirm turning off two-factor authentication"
	default:
		return "Your sign-in verification code"
	}
}

func composeEmail(to string, msg entity.CodeMessage) (mail.Message, error) {
	data := map[string]any{
		"code":    msg.Code,
		"minutes": int(math.Ceil(msg.ValidFor.Minutes())),
	}

	var text, html bytes.Buffer
	if err := textBody.Execute(&text, data); err != nil {
		return mail.Message{}, err
	}
	if err := htmlBody.Execute(&html, data); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		To:       []string{to},
		Subject:  subjectFor(msg.Purpose),
		TextBody: text.String(),
		HTMLBody: html.String(),
		Tag:      "mfa-" + msg.Purpose.String(),
	}, nil
}
