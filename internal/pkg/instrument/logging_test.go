package instrument_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/shandysiswandi/mfacore/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewLogger_MasksSensitiveFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := instrument.NewLogger(&instrument.Config{
		ServiceName: "mfacore",
		MaskFields:  []string{"Destination"},
		LogOutput:   buf,
	}, nil)

	ctx := instrument.SetCorrelationID(context.Background(), "cid-1")
	logger.InfoContext(ctx, "issued code",
		"user_id", int64(7),
		"code", "123456",
		"destination", "+15550001111",
		"payload", `{"secret":"JBSWY3DPEHPK3PXP","method":"sms"}`,
		slog.Group("req", "otp", "654321", "purpose", "login"),
	)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	line := lines[0]

	assert.Equal(t, "issued code", line["msg"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Contains(t, line, "ts")
	assert.Equal(t, "cid-1", line["_cID"])
	assert.Equal(t, "mfacore", line["service"])
	assert.InDelta(t, 7, line["user_id"], 0)
	assert.Equal(t, "***", line["code"])
	assert.Equal(t, "***", line["destination"])
	assert.JSONEq(t, `{"secret":"***","method":"sms"}`, line["payload"].(string))

	group, ok := line["req"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "***", group["otp"])
	assert.Equal(t, "login", group["purpose"])

	assert.NotContains(t, buf.String(), "123456")
	assert.NotContains(t, buf.String(), "JBSWY3DPEHPK3PXP")
}

func TestNewLogger_WithAttrsAreMasked(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := instrument.NewLogger(&instrument.Config{LogOutput: buf, LogLevel: "warn"}, nil)

	logger.With("secret", "s3cr3t").Info("dropped by level")
	logger.With("secret", "s3cr3t").Warn("kept")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
	assert.Equal(t, "***", lines[0]["secret"])
	assert.NotContains(t, lines[0], "_cID")
}

func TestNew_DisabledReturnsNoop(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	ins, err := instrument.New(context.Background(), &instrument.Config{LogOutput: buf})
	require.NoError(t, err)

	_, span := ins.Tracer("test").Start(context.Background(), "noop")
	span.End()
	assert.False(t, span.SpanContext().IsValid())
	require.NoError(t, ins.Shutdown(context.Background()))

	slog.Info("through default", "code", "000000")
	assert.Contains(t, buf.String(), `"code":"***"`)
}

func TestCorrelationID(t *testing.T) {
	t.Parallel()

	assert.Empty(t, instrument.GetCorrelationID(context.Background()))
	ctx := instrument.SetCorrelationID(context.Background(), "abc")
	assert.Equal(t, "abc", instrument.GetCorrelationID(ctx))
}
