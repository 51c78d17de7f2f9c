package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
)

// VerifyForLogin checks a second-factor code at sign-in. It never changes
// IsVerified or IsEnabled; a nil error means the code was accepted.
func (s *Usecase) VerifyForLogin(ctx context.Context, in CodeInput) error {
	ctx, span := s.startSpan(ctx, "VerifyForLogin")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	purpose := entity.CodePurposeLogin

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
		if errors.Is(err, entity.ErrInvalidCode) {
			slog.WarnContext(ctx, "invalid mfa code", "user_id", in.UserID, "method", enr.Method.String(), "purpose", purpose.String())
		}
		return err
	}

	if consume != nil {
		err = s.repoDB.ConsumeChallengeCode(ctx, *consume)
	} else {
		err = s.repoDB.UpdateLastUsedAt(ctx, in.UserID, now)
	}
	if errors.Is(err, entity.ErrInvalidCode) {
		s.recordAttempt(ctx, purpose, enr.Method, "invalid")
		slog.WarnContext(ctx, "invalid mfa code", "user_id", in.UserID, "method", enr.Method.String(), "purpose", purpose.String())
		return invalidCode()
	}
	if err != nil {
		s.recordAttempt(ctx, purpose, enr.Method, "error")
		slog.ErrorContext(ctx, "failed to repo record mfa login", "user_id", in.UserID, "method", enr.Method.String(), "error", err)
		return goerror.NewServer(err)
	}

	s.recordAttempt(ctx, purpose, enr.Method, "success")
	s.resetAttempts(ctx, in.UserID, purpose)

	return nil
}
