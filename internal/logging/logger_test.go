package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "warn", "json"))

	logger.Info("dropped")
	logger.Warn("kept", "file", "a.csv")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "a.csv", rec["file"])
}

func TestMultiHandler(t *testing.T) {
	var info, errs bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		newHandler(&info, "info", "text"),
		newHandler(&errs, "error", "text"),
	}}
	logger := slog.New(h).With("component", "test")

	logger.Info("hello")
	logger.Error("boom")

	assert.Contains(t, info.String(), "hello")
	assert.Contains(t, info.String(), "boom")
	assert.NotContains(t, errs.String(), "hello")
	assert.Contains(t, errs.String(), "boom")
	assert.Contains(t, errs.String(), "component=test")

	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestFromContext_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(newHandler(&buf, "info", "text")))
	defer slog.SetDefault(prev)

	var handled bool
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("inside")
		handled = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, handled)
	assert.Contains(t, buf.String(), "request_id=")
}

func TestSetup_ReturnsCleanup(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	cleanup := Setup("debug", "text", "")
	require.NotNil(t, cleanup)
	cleanup()
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
}

func TestSetupWriter(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "text")
	slog.Info("hidden")
	slog.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(newHandler(&buf, "info", "json")))
	defer slog.SetDefault(prev)

	WithFields(context.Background(), "file_id", "abc", "file", "a.csv").Info("file stored")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "abc", rec["file_id"])
	assert.Equal(t, "a.csv", rec["file"])
	assert.NotContains(t, rec, "request_id")
}
