package logging

import (
	"context"
	"io"
	"log/slog"
	"time"
)

type loggerKey struct{}

// NewStructuredLogger returns a JSON logger writing to w at level and above.
func NewStructuredLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// logAttrs is the common path of the helpers below. A nil logger is a no-op
// so components can run without logging configured.
func logAttrs(logger *slog.Logger, level slog.Level, msg string, attrs []slog.Attr) {
	if logger == nil {
		return
	}
	logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogError logs err under the "error" key followed by attrs.
func LogError(logger *slog.Logger, message string, err error, attrs ...slog.Attr) {
	all := make([]slog.Attr, 0, len(attrs)+1)
	all = append(all, slog.String("error", err.Error()))
	logAttrs(logger, slog.LevelError, message, append(all, attrs...))
}

// LogWarning logs a recovered condition that changed or invented data.
func LogWarning(logger *slog.Logger, message string, attrs ...slog.Attr) {
	logAttrs(logger, slog.LevelWarn, message, attrs)
}

// LogOperation logs a completed operation at INFO. A zero "duration"
// attribute is dropped.
func LogOperation(logger *slog.Logger, operation string, attrs ...slog.Attr) {
	kept := attrs[:0:0]
	for _, attr := range attrs {
		if attr.Key == "duration" && attr.Value.Kind() == slog.KindDuration && attr.Value.Duration() == 0 {
			continue
		}
		kept = append(kept, attr)
	}
	logAttrs(logger, slog.LevelInfo, operation, kept)
}

// LogStage logs the completion of one pipeline stage.
func LogStage(logger *slog.Logger, stage string, duration time.Duration, attrs ...slog.Attr) {
	all := make([]slog.Attr, 0, len(attrs)+2)
	all = append(all, slog.String("stage", stage), slog.Duration("duration", duration))
	LogOperation(logger, "stage_completed", append(all, attrs...)...)
}

// LogHTTPRequest logs one served request.
func LogHTTPRequest(logger *slog.Logger, method, path string, status int, durationMs float64, attrs ...slog.Attr) {
	all := make([]slog.Attr, 0, len(attrs)+4)
	all = append(all,
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	)
	logAttrs(logger, slog.LevelInfo, "http_request", append(all, attrs...))
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
