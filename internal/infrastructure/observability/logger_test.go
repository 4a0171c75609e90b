package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/appointmentbooking/backend/internal/infrastructure/observability"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	previous := log.Logger
	t.Cleanup(func() { log.Logger = previous })

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	return &buf
}

func TestLoggerFromContext_SessionID(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		wantField bool
	}{
		{name: "tagged context", ctx: observability.WithSessionID(context.Background(), "session-1"), wantField: true},
		{name: "empty id", ctx: observability.WithSessionID(context.Background(), "")},
		{name: "plain context", ctx: context.Background()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)

			observability.LoggerFromContext(tt.ctx).Info().Msg("hello")

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "hello", entry["message"])
			if tt.wantField {
				assert.Equal(t, "session-1", entry["session_id"])
			} else {
				assert.NotContains(t, entry, "session_id")
			}
			assert.NotContains(t, entry, "trace_id")
		})
	}
}

func TestInitLogger_Level(t *testing.T) {
	previousLevel := zerolog.GlobalLevel()
	previousLogger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(previousLevel)
		log.Logger = previousLogger
	})

	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{level: "debug", want: zerolog.DebugLevel},
		{level: "warn", want: zerolog.WarnLevel},
		{level: "", want: zerolog.InfoLevel},
		{level: "loud", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			observability.InitLogger("", "production", tt.level)
			assert.Equal(t, tt.want, zerolog.GlobalLevel())
		})
	}
}
