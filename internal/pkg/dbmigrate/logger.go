package dbmigrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// slogAdapter routes goose's printf logging through slog.
type slogAdapter struct{}

func (slogAdapter) Fatalf(format string, v ...any) {
	slog.ErrorContext(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

func (slogAdapter) Printf(format string, v ...any) {
	slog.InfoContext(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}
