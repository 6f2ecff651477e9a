package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantJSON    bool
	}{
		{"production uses json", "production", true},
		{"development uses pretty", "development", false},
		{"staging uses pretty", "staging", false},
		{"empty uses pretty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Writer: &buf, Environment: tt.environment, Level: slog.LevelInfo})

			log.Info("hello", "instance_id", "inst-1")

			var decoded map[string]any
			err := json.Unmarshal(buf.Bytes(), &decoded)
			if tt.wantJSON {
				require.NoError(t, err)
				assert.Equal(t, "hello", decoded["msg"])
				assert.Equal(t, "inst-1", decoded["instance_id"])
			} else {
				assert.Error(t, err)
				assert.Contains(t, buf.String(), "hello")
			}
		})
	}
}

func TestNew_ExplicitFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "development", Format: "json"})

	log.Info("structured")

	assert.True(t, json.Valid(buf.Bytes()))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestRedaction(t *testing.T) {
	for _, format := range []string{formatJSON, formatPretty} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Writer: &buf, Format: format})

			log.Info("instance created",
				"admin_password", "hunter2",
				"Authorization", "Basic aHVudGVyMg==",
				slog.Group("request", slog.String("password", "hunter2")))

			out := buf.String()
			assert.NotContains(t, out, "hunter2")
			assert.NotContains(t, out, "aHVudGVyMg==")
			assert.Contains(t, out, Redacted)
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestNewPrettyHandler_NilOptions(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, nil)

	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	log.Warn("comment posted", "author", "alice", "content", "hello world", "count", 3)

	out := buf.String()
	assert.Contains(t, out, "WRN")
	assert.Contains(t, out, "comment posted")
	assert.Contains(t, out, "author=alice")
	assert.Contains(t, out, `content="hello world"`)
	assert.Contains(t, out, "count=3")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil)).
		With("instance_id", "inst-1").
		WithGroup("stats").
		With("clients", 2)

	log.Info("event broadcast", "dropped", 0)

	out := buf.String()
	assert.Contains(t, out, "instance_id=inst-1")
	assert.Contains(t, out, "stats.clients=2")
	assert.Contains(t, out, "stats.dropped=0")
}

func TestPrettyHandler_InlineGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	log.Info("fanout", slog.Group("stats", slog.Int("delivered", 4)))

	assert.Contains(t, buf.String(), "stats.delivered=4")
}

func TestPrettyHandler_WithSource(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{AddSource: true}))

	log.Info("with source")

	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestFormatLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	}

	for _, tt := range tests {
		got, color := formatLevel(tt.level)
		assert.Equal(t, tt.want, got)
		assert.NotEmpty(t, color)
	}
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "plain", formatValue(slog.StringValue("plain")))
	assert.Equal(t, `""`, formatValue(slog.StringValue("")))
	assert.Equal(t, `"a b"`, formatValue(slog.StringValue("a b")))
	assert.Equal(t, "2024-05-01T20:00:00Z", formatValue(slog.TimeValue(ts)))
	assert.Equal(t, "1.5s", formatValue(slog.DurationValue(1500*time.Millisecond)))
	assert.Equal(t, "true", formatValue(slog.BoolValue(true)))
	assert.Equal(t, "42", formatValue(slog.IntValue(42)))
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: formatJSON})

	log.WithField("instance_id", "inst-9").WithError(errors.New("disk full")).WithField("attempt", 2).Info("write failed")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "inst-9", decoded["instance_id"])
	assert.Equal(t, "disk full", decoded["error"])
	assert.Equal(t, float64(2), decoded["attempt"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: formatJSON, Level: slog.LevelWarn})

	log.Debug("debug")
	log.Info("info")
	log.Warn("warn")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"warn"`)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("nothing happens")
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
