package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelWarn)

	logger.Info("route list fetched")
	logger.Warn("stop backfilled", slog.String("stop_id", "999999"), slog.Int("routes", 2))

	output := buf.String()
	assert.NotContains(t, output, "route list fetched")
	assert.Contains(t, output, `"level":"WARN"`)
	assert.Contains(t, output, `"msg":"stop backfilled"`)
	assert.Contains(t, output, `"stop_id":"999999"`)
	assert.Contains(t, output, `"routes":2`)
	assert.Contains(t, output, `"time":`)
}

func TestLoggerHelpers(t *testing.T) {
	tests := []struct {
		name     string
		log      func(*slog.Logger)
		contains []string
		absent   []string
	}{
		{
			name: "error",
			log: func(l *slog.Logger) {
				LogError(l, "failed to fetch route list", assert.AnError,
					slog.String("url", "http://example.com"))
			},
			contains: []string{
				`"level":"ERROR"`,
				`"msg":"failed to fetch route list"`,
				`"error":"assert.AnError general error for testing"`,
				`"url":"http://example.com"`,
			},
		},
		{
			name:     "warning",
			log:      func(l *slog.Logger) { LogWarning(l, "stop_backfilled", slog.String("stop_id", "999999")) },
			contains: []string{`"level":"WARN"`, `"msg":"stop_backfilled"`, `"stop_id":"999999"`},
		},
		{
			name: "operation drops zero duration",
			log: func(l *slog.Logger) {
				LogOperation(l, "routes_loaded",
					slog.String("operator", "kmb"),
					slog.Int("routes_count", 150),
					slog.Duration("duration", 0))
			},
			contains: []string{`"level":"INFO"`, `"msg":"routes_loaded"`, `"operator":"kmb"`, `"routes_count":150`},
			absent:   []string{`"duration"`},
		},
		{
			name:     "stage",
			log:      func(l *slog.Logger) { LogStage(l, "merge", 2*time.Second, slog.Int("routes", 10)) },
			contains: []string{`"msg":"stage_completed"`, `"stage":"merge"`, `"routes":10`, `"duration":2000000000`},
		},
		{
			name: "http request",
			log: func(l *slog.Logger) {
				LogHTTPRequest(l, "GET", "/api/catalog/stats", 200, 1.5, slog.String("user_agent", "test-client"))
			},
			contains: []string{
				`"msg":"http_request"`,
				`"method":"GET"`,
				`"path":"/api/catalog/stats"`,
				`"status":200`,
				`"duration_ms":1.5`,
				`"user_agent":"test-client"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewStructuredLogger(&buf, slog.LevelInfo))

			output := buf.String()
			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, output, s)
			}
		})
	}
}

func TestLoggerHelpersTolerateNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogError(nil, "x", assert.AnError)
		LogWarning(nil, "x")
		LogOperation(nil, "x")
		LogStage(nil, "x", time.Second)
		LogHTTPRequest(nil, "GET", "/", 200, 0)
	})
}

func TestLogOperationDoesNotModifyAttrs(t *testing.T) {
	attrs := []slog.Attr{slog.Duration("duration", 0), slog.Int("routes", 3)}
	LogOperation(NewStructuredLogger(&bytes.Buffer{}, slog.LevelInfo), "x", attrs...)
	assert.Equal(t, "duration", attrs[0].Key)
	assert.Equal(t, "routes", attrs[1].Key)
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	retrieved := FromContext(WithLogger(context.Background(), logger))
	require.NotNil(t, retrieved)
	retrieved.Info("from context")
	assert.Contains(t, buf.String(), "from context")

	assert.Equal(t, slog.Default(), FromContext(context.Background()))
	assert.Equal(t, slog.Default(), FromContext(WithLogger(context.Background(), nil)))
}
