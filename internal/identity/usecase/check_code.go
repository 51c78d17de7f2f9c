package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
	"github.com/shandysiswandi/mfacore/internal/pkg/mfacrypto"
	"github.com/shandysiswandi/mfacore/internal/pkg/otp"
)

// CodeInput is a submitted code for a user.
type CodeInput struct {
	UserID int64 `validate:"required,gt=0"`
	Code   string
}

// checkCode evaluates code against the enrollment's method. Authenticator
// codes are verified here and yield a nil ConsumeCode; out-of-band codes
// yield the ConsumeCode the repository must redeem atomically.
func (s *Usecase) checkCode(
	ctx context.Context,
	enr *entity.Enrollment,
	purpose entity.CodePurpose,
	code string,
	now time.Time,
) (*entity.ConsumeCode, error) {
	switch enr.Method {
	case entity.MFAMethodAuthenticator:
		if !otp.IsNumeric(code, otp.Digits) {
			return nil, invalidCode()
		}

		key, err := s.authenticatorKey(ctx, enr)
		if err != nil {
			return nil, err
		}

		ok, err := s.totp.Verify(key, code, now)
		if err != nil {
			slog.ErrorContext(ctx, "failed to evaluate totp code", "user_id", enr.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}
		if !ok {
			return nil, invalidCode()
		}
		return nil, nil

	case entity.MFAMethodSMS, entity.MFAMethodEmail:
		if !otp.IsNumeric(code, s.codeLength) {
			return nil, invalidCode()
		}

		digest, err := s.codeHash.Hash(code)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash verification code", "user_id", enr.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}

		return &entity.ConsumeCode{
			UserID:   enr.UserID,
			Method:   enr.Method,
			Purpose:  purpose,
			CodeHash: string(digest),
			Now:      now,

			EnrollmentVersion: enr.Version,
		}, nil

	default:
		slog.ErrorContext(ctx, "enrollment has unknown mfa method", "user_id", enr.UserID, "method", enr.Method.String())
		return nil, goerror.NewServer(entity.ErrInvalidMethod)
	}
}

func (s *Usecase) authenticatorKey(ctx context.Context, enr *entity.Enrollment) ([]byte, error) {
	secret, err := s.encryptor.Decrypt(enr.Secret, mfacrypto.Scope{
		UserID:  enr.UserID,
		Purpose: mfacrypto.PurposeTOTPSecret,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "user_id", enr.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	key := otp.DecodeBase32(string(secret))
	if len(key) == 0 {
		slog.ErrorContext(ctx, "stored totp secret decodes to an empty key", "user_id", enr.UserID)
		return nil, goerror.NewServer(entity.ErrInvalidEnrollment)
	}
	return key, nil
}
