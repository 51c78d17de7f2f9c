package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/mfacore/internal/identity/usecase"
	"github.com/shandysiswandi/mfacore/internal/pkg/clock"
	"github.com/shandysiswandi/mfacore/internal/pkg/config"
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

// Options selects how much of the application is wired.
type Options struct {
	// ConfigPath overrides CONFIG_PATH.
	ConfigPath string
	// DatabaseOnly stops after the database pool, for schema commands.
	DatabaseOnly bool
	// LogOutput receives JSON logs (stderr when nil).
	LogOutput io.Writer
}

// App wires dependencies and manages their lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	encryptor mfacrypto.Encryptor
	codeHash  hash.Hash

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	throttle  throttle.Limiter
	mail      mail.Mail
	sms       sms.Sender
	messaging messaging.Publisher

	// modules
	mfa *usecase.Usecase

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application. On error everything opened so far is
// closed again.
func New(ctx context.Context, opts Options) (*App, error) {
	ctx, cancel := context.WithCancel(ctx)
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"config", app.initConfig},
		{"instrument", app.initInstrument},
		{"libraries", app.initLibraries},
		{"database", app.initDatabase},
	}
	if !opts.DatabaseOnly {
		steps = append(steps, []struct {
			name string
			fn   func() error
		}{
			{"cache", app.initCache},
			{"mail", app.initMail},
			{"sms", app.initSMS},
			{"messaging", app.initMessaging},
			{"modules", app.initModules},
		}...)
	}

	app.initClosers()

	for _, step := range steps {
		if err := step.fn(); err != nil {
			app.Stop(context.WithoutCancel(ctx))
			return nil, &InitError{Step: step.name, Err: err}
		}
	}

	return app, nil
}

// InitError reports the wiring step that failed.
type InitError struct {
	Step string
	Err  error
}

func (e *InitError) Error() string { return "app: init " + e.Step + ": " + e.Err.Error() }

func (e *InitError) Unwrap() error { return e.Err }

// ErrNotWired is returned by accessors for parts skipped by Options.
var ErrNotWired = errors.New("app: component not wired")

// MFA returns the MFA usecase.
func (a *App) MFA() (*usecase.Usecase, error) {
	if a.mfa == nil {
		return nil, ErrNotWired
	}
	return a.mfa, nil
}

// DB returns the database pool.
func (a *App) DB() *pgxpool.Pool { return a.dbConn }

// NewCorrelationID returns a fresh id for one command invocation.
func (a *App) NewCorrelationID() string { return a.uuid.Generate() }

// Stop waits for background work and closes resources in reverse order of
// acquisition. It is safe to call on a partially initialized App.
func (a *App) Stop(ctx context.Context) {
	if a.goroutine != nil {
		if err := a.goroutine.Wait(); err != nil {
			slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
		}
	}

	if a.cancel != nil {
		a.cancel()
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}
}
