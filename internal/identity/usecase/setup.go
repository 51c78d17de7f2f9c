package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
	"github.com/shandysiswandi/mfacore/internal/pkg/mfacrypto"
	"github.com/shandysiswandi/mfacore/internal/pkg/otp"
)

type SetupAuthenticatorInput struct {
	UserID      int64  `validate:"required,gt=0"`
	AccountName string `validate:"required,max=255"`
	WithQR      bool
}

type SetupAuthenticatorOutput struct {
	Secret string
	URI    string
	// QRCode is a PNG of URI, set when requested.
	QRCode []byte
}

type SetupOutOfBandInput struct {
	UserID      int64 `validate:"required,gt=0"`
	Method      entity.MFAMethod
	Destination string `validate:"required"`
}

type SetupOutOfBandOutput struct {
	Method      entity.MFAMethod
	Destination string
}

// phoneInput requires the full international form, leading plus included.
type phoneInput struct {
	PhoneNumber string `validate:"required,startswith=+,e164"`
}

type emailInput struct {
	Email string `validate:"required,email"`
}

// SetupAuthenticator provisions a fresh shared secret and stores it sealed.
// An unverified or disabled enrollment is replaced; an enabled one is not.
func (s *Usecase) SetupAuthenticator(ctx context.Context, in SetupAuthenticatorInput) (*SetupAuthenticatorOutput, error) {
	ctx, span := s.startSpan(ctx, "SetupAuthenticator")
	defer span.End()

	in.AccountName = strings.TrimSpace(in.AccountName)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	method := entity.MFAMethodAuthenticator
	if !s.offers(method) {
		return nil, methodNotOffered()
	}

	id, err := s.replaceableEnrollmentID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	key, err := s.provisioner.Provision(in.AccountName)
	if err != nil {
		slog.ErrorContext(ctx, "failed to provision totp secret", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	sealed, err := s.encryptor.Encrypt([]byte(key.Secret), mfacrypto.Scope{
		UserID:  in.UserID,
		Purpose: mfacrypto.PurposeTOTPSecret,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.saveEnrollment(ctx, entity.Enrollment{
		ID:     id,
		UserID: in.UserID,
		Method: method,
		Secret: sealed,
	}); err != nil {
		return nil, err
	}

	out := &SetupAuthenticatorOutput{Secret: key.Secret, URI: key.URI}
	if in.WithQR {
		if out.QRCode, err = otp.QRCode(key.URI, 0); err != nil {
			slog.ErrorContext(ctx, "failed to render provisioning qr code", "user_id", in.UserID, "error", err)
			return nil, goerror.NewServer(err)
		}
	}

	slog.InfoContext(ctx, "mfa enrollment configured", "user_id", in.UserID, "method", method.String())

	return out, nil
}

// SetupOutOfBand enrolls a phone number or email address. The user proves
// it with an Enable2FA code issued by IssueCode.
func (s *Usecase) SetupOutOfBand(ctx context.Context, in SetupOutOfBandInput) (*SetupOutOfBandOutput, error) {
	ctx, span := s.startSpan(ctx, "SetupOutOfBand")
	defer span.End()

	in.Destination = strings.TrimSpace(in.Destination)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	enr := entity.Enrollment{UserID: in.UserID, Method: in.Method}
	switch in.Method {
	case entity.MFAMethodSMS:
		if err := s.validator.Validate(phoneInput{PhoneNumber: in.Destination}); err != nil {
			return nil, goerror.NewInvalidInput(err)
		}
		enr.PhoneNumber = in.Destination
	case entity.MFAMethodEmail:
		if err := s.validator.Validate(emailInput{Email: in.Destination}); err != nil {
			return nil, goerror.NewInvalidInput(err)
		}
		enr.Email = strings.ToLower(in.Destination)
	default:
		return nil, goerror.NewBusinessCause(entity.ErrInvalidMethod, "method must be sms or email", goerror.CodeInvalidInput)
	}

	if !s.offers(in.Method) {
		return nil, methodNotOffered()
	}

	id, err := s.replaceableEnrollmentID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	enr.ID = id

	if err := s.saveEnrollment(ctx, enr); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "mfa enrollment configured", "user_id", in.UserID, "method", in.Method.String())

	return &SetupOutOfBandOutput{Method: in.Method, Destination: enr.MaskedDestination()}, nil
}

// replaceableEnrollmentID returns the id to save under: the existing one, or
// a new one for a first enrollment.
func (s *Usecase) replaceableEnrollmentID(ctx context.Context, userID int64) (int64, error) {
	enr, err := s.repoDB.GetEnrollment(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		return s.uid.Generate(), nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get mfa enrollment", "user_id", userID, "error", err)
		return 0, goerror.NewServer(err)
	}

	if enr.IsEnabled {
		return 0, goerror.NewBusinessCause(entity.ErrAlreadyEnabled, "mfa is already enabled", goerror.CodeConflict)
	}

	return enr.ID, nil
}

func (s *Usecase) saveEnrollment(ctx context.Context, enr entity.Enrollment) error {
	if err := enr.Validate(); err != nil {
		slog.ErrorContext(ctx, "refusing to save invalid mfa enrollment", "user_id", enr.UserID, "method", enr.Method.String(), "error", err)
		return goerror.NewServer(err)
	}

	err := s.repoDB.SaveEnrollment(ctx, enr)
	if errors.Is(err, goerror.ErrConflict) {
		return goerror.NewBusinessCause(entity.ErrAlreadyEnabled, "mfa is already enabled", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo save mfa enrollment", "user_id", enr.UserID, "method", enr.Method.String(), "error", err)
		return goerror.NewServer(err)
	}
	return nil
}

func methodNotOffered() error {
	return goerror.NewBusinessCause(entity.ErrInvalidMethod, "mfa method is not offered", goerror.CodeForbidden)
}
