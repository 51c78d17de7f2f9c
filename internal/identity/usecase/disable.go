package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
)

// Disable turns MFA off after a Disable2FA code check. The enrollment and
// its verified state are kept.
func (s *Usecase) Disable(ctx context.Context, in CodeInput) error {
	ctx, span := s.startSpan(ctx, "Disable")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	purpose := entity.CodePurposeDisable2FA

	enr, err := s.getEnrollment(ctx, in.UserID)
	if err != nil {
		return err
	}

	if !enr.IsEnabled {
		return notEnabled()
	}

	if err := s.allowAttempt(ctx, in.UserID, purpose); err != nil {
		s.recordAttempt(ctx, purpose, enr.Method, "throttled")
		return err
	}

	now := s.clock.Now()
	consume, err := s.checkCode(ctx, enr, purpose, in.Code, now)
	if err != nil {
		s.recordAttempt(ctx, purpose, enr.Method, resultOf(err))
		return err
	}

	if err := enr.Disable(); err != nil {
		return goerror.NewServer(err)
	}

	err = s.repoDB.DisableEnrollment(ctx, in.UserID, enr.Version, consume, now)
	switch {
	case errors.Is(err, entity.ErrInvalidCode):
		s.recordAttempt(ctx, purpose, enr.Method, "invalid")
		return invalidCode()
	case errors.Is(err, goerror.ErrConflict):
		s.recordAttempt(ctx, purpose, enr.Method, "conflict")
		return notEnabled()
	case err != nil:
		s.recordAttempt(ctx, purpose, enr.Method, "error")
		slog.ErrorContext(ctx, "failed to repo disable mfa enrollment", "user_id", in.UserID, "method", enr.Method.String(), "error", err)
		return goerror.NewServer(err)
	}

	s.recordAttempt(ctx, purpose, enr.Method, "success")
	s.resetAttempts(ctx, in.UserID, purpose)
	slog.InfoContext(ctx, "mfa disabled", "user_id", in.UserID, "method", enr.Method.String())

	s.publishStatusChanged(ctx, entity.StatusChange{
		UserID:     in.UserID,
		Method:     enr.Method,
		Enabled:    false,
		OccurredAt: now,
	})

	return nil
}

func notEnabled() error {
	return goerror.NewBusinessCause(entity.ErrNotEnabled, "mfa is not enabled", goerror.CodeForbidden)
}
