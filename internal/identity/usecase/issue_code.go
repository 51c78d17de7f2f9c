package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type IssueCodeInput struct {
	UserID  int64 `validate:"required,gt=0"`
	Purpose entity.CodePurpose
}

// IssueCodeOutput describes the issued code. The code value itself only
// leaves through the delivery channel.
type IssueCodeOutput struct {
	CodeID      int64
	Method      entity.MFAMethod
	Destination string
	ExpiresAt   time.Time
}

// IssueCode generates, stores and delivers an out-of-band code. Earlier
// unused codes for the same purpose stay valid until they expire.
//
// A delivery failure does not roll the stored code back; it is returned as
// a retryable unavailable error.
func (s *Usecase) IssueCode(ctx context.Context, in IssueCodeInput) (*IssueCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueCode")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if !in.Purpose.IsValid() {
		return nil, goerror.NewInvalidInput(nil, "purpose", "purpose must be login, enable2fa or disable2fa")
	}

	enr, err := s.getEnrollment(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	switch {
	case in.Purpose == entity.CodePurposeEnable2FA && enr.IsEnabled:
		return nil, goerror.NewBusinessCause(entity.ErrAlreadyEnabled, "mfa is already enabled", goerror.CodeConflict)
	case in.Purpose != entity.CodePurposeEnable2FA && !enr.IsEnabled:
		return nil, notEnabled()
	}

	var sender codeSender
	switch enr.Method {
	case entity.MFAMethodSMS, entity.MFAMethodEmail:
		var ok bool
		if sender, ok = s.senders[enr.Method]; !ok {
			slog.ErrorContext(ctx, "no sender bound for mfa method", "user_id", in.UserID, "method", enr.Method.String())
			return nil, goerror.NewServer(entity.ErrMisconfiguredChannel)
		}
	case entity.MFAMethodAuthenticator:
		return nil, goerror.NewBusinessCause(entity.ErrInvalidMethod, "authenticator enrollments do not use issued codes", goerror.CodeInvalidInput)
	default:
		slog.ErrorContext(ctx, "enrollment has unknown mfa method", "user_id", in.UserID, "method", enr.Method.String())
		return nil, goerror.NewServer(entity.ErrInvalidMethod)
	}

	code, err := s.codeGen.Generate(s.codeLength)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate verification code", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	digest, err := s.codeHash.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash verification code", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	cc := entity.ChallengeCode{
		ID:        s.uid.Generate(),
		UserID:    in.UserID,
		CodeHash:  string(digest),
		Method:    enr.Method,
		Purpose:   in.Purpose,
		ExpiresAt: now.Add(s.codeTTL),
		CreatedAt: now,

		EnrollmentVersion: enr.Version,
	}

	if err := s.repoDB.CreateChallengeCode(ctx, cc); err != nil {
		slog.ErrorContext(ctx, "failed to repo create challenge code", "user_id", in.UserID, "purpose", in.Purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	s.issued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("purpose", in.Purpose.String()),
		attribute.String("method", enr.Method.String()),
	))

	if err := sender.SendCode(ctx, enr.Destination(), entity.CodeMessage{
		Code:     code,
		Purpose:  in.Purpose,
		ValidFor: s.codeTTL,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to deliver verification code", "user_id", in.UserID,
			"method", enr.Method.String(), "purpose", in.Purpose.String(), "error", err)
		return nil, goerror.NewUnavailable(fmt.Errorf("%w: %w", entity.ErrDeliveryFailed, err), "failed to deliver verification code")
	}

	slog.InfoContext(ctx, "verification code issued", "user_id", in.UserID, "method", enr.Method.String(), "purpose", in.Purpose.String())

	return &IssueCodeOutput{
		CodeID:      cc.ID,
		Method:      enr.Method,
		Destination: enr.MaskedDestination(),
		ExpiresAt:   cc.ExpiresAt,
	}, nil
}
