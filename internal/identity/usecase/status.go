package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
)

type StatusInput struct {
	UserID int64 `validate:"required,gt=0"`
}

type StatusOutput struct {
	Configured  bool
	Method      entity.MFAMethod
	Destination string
	IsVerified  bool
	IsEnabled   bool
	LastUsedAt  *time.Time
	Offered     []entity.MFAMethod
}

func (s *Usecase) Status(ctx context.Context, in StatusInput) (*StatusOutput, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	out := &StatusOutput{Offered: append([]entity.MFAMethod(nil), s.methods...)}

	enr, err := s.getEnrollment(ctx, in.UserID)
	if errors.Is(err, entity.ErrNotConfigured) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	out.Configured = true
	out.Method = enr.Method
	out.Destination = enr.MaskedDestination()
	out.IsVerified = enr.IsVerified
	out.IsEnabled = enr.IsEnabled
	out.LastUsedAt = enr.LastUsedAt

	return out, nil
}
