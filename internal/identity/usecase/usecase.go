package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/mfacore/internal/identity/entity"
	"github.com/shandysiswandi/mfacore/internal/pkg/clock"
	"github.com/shandysiswandi/mfacore/internal/pkg/config"
	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
	"github.com/shandysiswandi/mfacore/internal/pkg/goroutine"
	"github.com/shandysiswandi/mfacore/internal/pkg/hash"
	"github.com/shandysiswandi/mfacore/internal/pkg/instrument"
	"github.com/shandysiswandi/mfacore/internal/pkg/mfacrypto"
	"github.com/shandysiswandi/mfacore/internal/pkg/otp"
	"github.com/shandysiswandi/mfacore/internal/pkg/throttle"
	"github.com/shandysiswandi/mfacore/internal/pkg/uid"
	"github.com/shandysiswandi/mfacore/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	errMsgInvalidCode   = "invalid verification code"
	errMsgNotConfigured = "mfa is not configured"
)

type repoDB interface {
	GetEnrollment(ctx context.Context, userID int64) (*entity.Enrollment, error)
	SaveEnrollment(ctx context.Context, e entity.Enrollment) error
	CreateChallengeCode(ctx context.Context, c entity.ChallengeCode) error

	// ConsumeChallengeCode marks one acceptable code used and records the
	// use on the enrollment, atomically. entity.ErrInvalidCode when no
	// code matches.
	ConsumeChallengeCode(ctx context.Context, in entity.ConsumeCode) error
	UpdateLastUsedAt(ctx context.Context, userID int64, at time.Time) error

	// EnableEnrollment and DisableEnrollment flip the flags guarded by the
	// current state and the enrollment version the code was checked
	// against, consuming the code when one is given. entity.ErrInvalidCode
	// when the enrollment was set up again; goerror.ErrConflict when the
	// state already changed.
	EnableEnrollment(ctx context.Context, userID, version int64, consume *entity.ConsumeCode, at time.Time) error
	DisableEnrollment(ctx context.Context, userID, version int64, consume *entity.ConsumeCode, at time.Time) error
}

type repoMessaging interface {
	PublishMFAStatusChanged(ctx context.Context, change entity.StatusChange) error
}

type codeSender interface {
	SendCode(ctx context.Context, destination string, msg entity.CodeMessage) error
}

type Dependency struct {
	RepoDB        repoDB        `validate:"required"`
	RepoMessaging repoMessaging `validate:"required"`
	// SMSSender and EmailSender may be nil only when the method is not offered.
	SMSSender   codeSender
	EmailSender codeSender
	Throttle    throttle.Limiter           `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Encryptor   mfacrypto.Encryptor        `validate:"required"`
	CodeHash    hash.Hash                  `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	// Random feeds code generation and secret provisioning; nil means crypto/rand.
	Random io.Reader
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	senders       map[entity.MFAMethod]codeSender
	throttle      throttle.Limiter
	validator     validator.Validator
	encryptor     mfacrypto.Encryptor
	codeHash      hash.Hash
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	totp        *otp.TOTP
	provisioner *otp.Provisioner
	codeGen     *otp.CodeGenerator
	methods     []entity.MFAMethod
	codeLength  int
	codeTTL     time.Duration

	attempts metric.Int64Counter
	issued   metric.Int64Counter
}

// New builds the usecase and fails when the MFA settings are invalid or an
// offered out-of-band method has no sender bound.
func New(dep Dependency) (*Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	random := dep.Random
	if random == nil {
		random = rand.Reader
	}

	methods, err := parseMethods(dep.Config.GetArray("mfa.methods"))
	if err != nil {
		return nil, err
	}

	totp, err := otp.NewTOTP(dep.Config.GetSecond("mfa.totp.period_seconds"), dep.Config.GetInt("mfa.totp.skew"))
	if err != nil {
		return nil, err
	}

	codeLength := dep.Config.GetInt("mfa.code.length")
	if codeLength < otp.MinCodeLength || codeLength > otp.MaxCodeLength {
		return nil, otp.ErrInvalidCodeLength
	}

	codeTTL := dep.Config.GetMinute("mfa.code.expiration_minutes")
	if codeTTL <= 0 {
		return nil, errors.New("usecase: mfa.code.expiration_minutes must be positive")
	}

	senders := map[entity.MFAMethod]codeSender{}
	if dep.SMSSender != nil {
		senders[entity.MFAMethodSMS] = dep.SMSSender
	}
	if dep.EmailSender != nil {
		senders[entity.MFAMethodEmail] = dep.EmailSender
	}
	for _, m := range methods {
		if _, ok := senders[m]; m.IsOutOfBand() && !ok {
			return nil, fmt.Errorf("%w: %s", entity.ErrMisconfiguredChannel, m)
		}
	}

	meter := dep.Instrument.Meter("identity.usecase")
	attempts, err := meter.Int64Counter("mfa.verification.attempts",
		metric.WithDescription("MFA code verification attempts by purpose, method and result"))
	if err != nil {
		return nil, err
	}
	issued, err := meter.Int64Counter("mfa.codes.issued",
		metric.WithDescription("Out-of-band MFA codes issued"))
	if err != nil {
		return nil, err
	}

	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		senders:       senders,
		throttle:      dep.Throttle,
		validator:     dep.Validator,
		encryptor:     dep.Encryptor,
		codeHash:      dep.CodeHash,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,

		totp:        totp,
		provisioner: otp.NewProvisioner(dep.Config.GetString("mfa.totp.issuer"), totp.Period(), random),
		codeGen:     otp.NewCodeGenerator(random),
		methods:     methods,
		codeLength:  codeLength,
		codeTTL:     codeTTL,

		attempts: attempts,
		issued:   issued,
	}, nil
}

func parseMethods(raws []string) ([]entity.MFAMethod, error) {
	methods := lo.Uniq(lo.Map(raws, func(s string, _ int) entity.MFAMethod {
		return entity.MFAMethodFromString(s)
	}))
	if len(methods) == 0 {
		return nil, errors.New("usecase: mfa.methods is empty")
	}
	if lo.Contains(methods, entity.MFAMethodUnknown) {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidMethod, raws)
	}
	return methods, nil
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) offers(m entity.MFAMethod) bool {
	return lo.Contains(s.methods, m)
}

func (s *Usecase) getEnrollment(ctx context.Context, userID int64) (*entity.Enrollment, error) {
	enr, err := s.repoDB.GetEnrollment(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusinessCause(entity.ErrNotConfigured, errMsgNotConfigured, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get mfa enrollment", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}
	return enr, nil
}

func throttleKey(userID int64, purpose entity.CodePurpose) string {
	return fmt.Sprintf("mfa:%d:%s", userID, purpose)
}

// allowAttempt counts one attempt. Limiter errors fail closed.
func (s *Usecase) allowAttempt(ctx context.Context, userID int64, purpose entity.CodePurpose) error {
	ok, err := s.throttle.Allow(ctx, throttleKey(userID, purpose))
	if err != nil {
		slog.ErrorContext(ctx, "failed to check mfa attempt throttle", "user_id", userID, "purpose", purpose.String(), "error", err)
		return goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "mfa attempts throttled", "user_id", userID, "purpose", purpose.String())
		return goerror.NewBusinessCause(entity.ErrThrottled, "too many attempts, try again later", goerror.CodeTooManyRequest)
	}
	return nil
}

func (s *Usecase) resetAttempts(ctx context.Context, userID int64, purpose entity.CodePurpose) {
	if err := s.throttle.Reset(ctx, throttleKey(userID, purpose)); err != nil {
		slog.WarnContext(ctx, "failed to reset mfa attempt throttle", "user_id", userID, "purpose", purpose.String(), "error", err)
	}
}

func (s *Usecase) recordAttempt(ctx context.Context, purpose entity.CodePurpose, method entity.MFAMethod, result string) {
	s.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("purpose", purpose.String()),
		attribute.String("method", method.String()),
		attribute.String("result", result),
	))
}

func (s *Usecase) publishStatusChanged(ctx context.Context, change entity.StatusChange) {
	scheduled := s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishMFAStatusChanged(ctx, change); err != nil {
			slog.ErrorContext(ctx, "failed to publish mfa status changed", "user_id", change.UserID, "error", err)
		}
		return nil
	})
	if !scheduled {
		slog.WarnContext(ctx, "mfa status changed event dropped", "user_id", change.UserID)
	}
}

func invalidCode() error {
	return goerror.NewBusinessCause(entity.ErrInvalidCode, errMsgInvalidCode, goerror.CodeUnauthorized)
}
