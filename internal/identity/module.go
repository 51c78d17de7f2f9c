package identity

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/mfacore/internal/identity/outbound/db"
	"github.com/shandysiswandi/mfacore/internal/identity/outbound/delivery"
	"github.com/shandysiswandi/mfacore/internal/identity/outbound/mq"
	"github.com/shandysiswandi/mfacore/internal/identity/usecase"
	"github.com/shandysiswandi/mfacore/internal/pkg/clock"
	"github.com/shandysiswandi/mfacore/internal/pkg/config"
	"github.com/shandysiswandi/mfacore/internal/pkg/dbmigrate"
	"github.com/shandysiswandi/mfacore/internal/pkg/goroutine"
	"github.com/shandysiswandi/mfacore/internal/pkg/hash"
	"github.com/shandysiswandi/mfacore/internal/pkg/instrument"
	"github.com/shandysiswandi/mfacore/internal/pkg/mail"
	"github.com/shandysiswandi/mfacore/internal/pkg/messaging"
	"github.com/shandysiswandi/mfacore/internal/pkg/mfacrypto"
	"github.com/shandysiswandi/mfacore/internal/pkg/sms"
	"github.com/shandysiswandi/mfacore/internal/pkg/throttle"
	"github.com/shandysiswandi/mfacore/internal/pkg/uid"
	"github.com/shandysiswandi/mfacore/internal/pkg/validator"
)

// Migrations is the identity schema, applied by the migrate command.
var Migrations dbmigrate.Source = db.Migrations

type Dependency struct {
	DBConn    *pgxpool.Pool       `validate:"required"`
	Throttle  throttle.Limiter    `validate:"required"`
	Messaging messaging.Publisher `validate:"required"`
	// SMS and Mail are nil when the channel is not configured.
	SMS        sms.Sender
	Mail       mail.Mail
	Goroutine  *goroutine.Manager         `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Encryptor  mfacrypto.Encryptor        `validate:"required"`
	CodeHash   hash.Hash                  `validate:"required"`
}

func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	retry := delivery.RetryConfig{
		MaxRetries: uint64(max(dep.Config.GetInt("mfa.delivery.retry.max_retries"), 0)),
		Base:       dep.Config.GetMillisecond("mfa.delivery.retry.base_millis"),
	}

	ucDep := usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Throttle:      dep.Throttle,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Encryptor:     dep.Encryptor,
		CodeHash:      dep.CodeHash,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	}
	if dep.SMS != nil {
		ucDep.SMSSender = delivery.NewSMS(dep.SMS, retry, dep.Instrument)
	}
	if dep.Mail != nil {
		ucDep.EmailSender = delivery.NewEmail(dep.Mail, dep.Config.GetString("mail.from"), retry, dep.Instrument)
	}

	return usecase.New(ucDep)
}
