package delivery

import (
	"context"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/pkg/instrument"
	"github.com/shandysiswandi/mfacore/internal/pkg/sms"
)

// SMS sends codes through an SMS provider. The provider template carries
// the surrounding text, so only the code goes over the wire.
type SMS struct {
	sender sms.Sender
	retry  RetryConfig
	ins    instrument.Instrumentation
}

func NewSMS(sender sms.Sender, retry RetryConfig, ins instrument.Instrumentation) *SMS {
	return &SMS{sender: sender, retry: retry, ins: ins}
}

func (s *SMS) SendCode(ctx context.Context, destination string, msg entity.CodeMessage) error {
	return send(ctx, s.ins, "SendSMS", s.retry, func(ctx context.Context) error {
		return s.sender.SendOTP(ctx, destination, msg.Code)
	})
}
