package delivery

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/mfacore/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RetryConfig bounds provider retries. Only temporary failures are retried;
// the zero value makes a single attempt.
type RetryConfig struct {
	MaxRetries uint64
	Base       time.Duration
}

func (c RetryConfig) backoff() retry.Backoff {
	base := c.Base
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	b := retry.NewExponential(base)
	b = retry.WithJitterPercent(10, b)
	return retry.WithMaxRetries(c.MaxRetries, b)
}

type temporary interface {
	Temporary() bool
}

func isTemporary(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var t temporary
	if errors.As(err, &t) {
		return t.Temporary()
	}

	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func send(ctx context.Context, ins instrument.Instrumentation, name string, cfg RetryConfig, fn func(ctx context.Context) error) (err error) {
	ctx, span := ins.Tracer("identity.outbound.delivery").Start(ctx, name)
	defer func() { endSpan(span, err) }()

	attempt := 0
	err = retry.Do(ctx, cfg.backoff(), func(ctx context.Context) error {
		attempt++
		if err := fn(ctx); err != nil {
			if isTemporary(err) {
				slog.WarnContext(ctx, "delivery attempt failed, retrying", "channel", name, "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	return err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
