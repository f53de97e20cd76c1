package observability

import (
	"io"
	"log/slog"

	"github.com/knifesql/knifesql/internal/config"
)

const serviceName = "knifesql"

func NewLogger(cfg config.Config, writer io.Writer) *slog.Logger {
	if writer == nil {
		writer = io.Discard
	}
	var handler slog.Handler
	if cfg.Log.JSON {
		handler = slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: cfg.Log.Level})
	} else {
		handler = slog.NewTextHandler(writer, &slog.HandlerOptions{Level: cfg.Log.Level})
	}
	return slog.New(handler).With(
		slog.String("service", serviceName),
		slog.String("engine", cfg.Engine),
	)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
