package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
)

// Enable proves the enrollment with code and turns MFA on. The code is
// consumed in the same transaction that sets IsVerified and IsEnabled.
func (s *Usecase) Enable(ctx context.Context, in CodeInput) error {
	ctx, span := s.startSpan(ctx, "Enable")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	purpose := entity.CodePurposeEnable2FA

	enr, err := s.getEnrollment(ctx, in.UserID)
	if err != nil {
		return err
	}

	if enr.IsEnabled {
		return goerror.NewBusinessCause(entity.ErrAlreadyEnabled, "mfa is already enabled", goerror.CodeConflict)
	}

	if err := s.allowAttempt(ctx, in.UserID, purpose); err != nil {
		s.recordAttempt(ctx, purpose, enr.Method, "throttled")
		return err
	}

	now := s.clock.Now()
	consume, err := s.checkCode(ctx, enr, purpose, in.Code, now)
	if err != nil {
		s.recordAttempt(ctx, purpose, enr.Method, resultOf(err))
		if errors.Is(err, entity.ErrInvalidCode) {
			slog.WarnContext(ctx, "invalid mfa code", "user_id", in.UserID, "method", enr.Method.String(), "purpose", purpose.String())
		}
		return err
	}

	enr.Verify()
	if err := enr.Enable(); err != nil {
		return goerror.NewServer(err)
	}

	err = s.repoDB.EnableEnrollment(ctx, in.UserID, enr.Version, consume, now)
	switch {
	case errors.Is(err, entity.ErrInvalidCode):
		s.recordAttempt(ctx, purpose, enr.Method, "invalid")
		slog.WarnContext(ctx, "invalid mfa code", "user_id", in.UserID, "method", enr.Method.String(), "purpose", purpose.String())
		return invalidCode()
	case errors.Is(err, goerror.ErrConflict):
		s.recordAttempt(ctx, purpose, enr.Method, "conflict")
		return goerror.NewBusinessCause(entity.ErrAlreadyEnabled, "mfa is already enabled", goerror.CodeConflict)
	case err != nil:
		s.recordAttempt(ctx, purpose, enr.Method, "error")
		slog.ErrorContext(ctx, "failed to repo enable mfa enrollment", "user_id", in.UserID, "method", enr.Method.String(), "error", err)
		return goerror.NewServer(err)
	}

	s.recordAttempt(ctx, purpose, enr.Method, "success")
	s.resetAttempts(ctx, in.UserID, purpose)
	slog.InfoContext(ctx, "mfa enabled", "user_id", in.UserID, "method", enr.Method.String())

	s.publishStatusChanged(ctx, entity.StatusChange{
		UserID:     in.UserID,
		Method:     enr.Method,
		Enabled:    true,
		OccurredAt: now,
	})

	return nil
}

func resultOf(err error) string {
	if errors.Is(err, entity.ErrInvalidCode) {
		return "invalid"
	}
	return "error"
}
