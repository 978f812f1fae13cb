package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestProductionConfig(t *testing.T) {
	cfg := ProductionConfig()

	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := New(&Config{Level: "debug", Format: "json", Output: path})

	l.Info("hello", zap.String("k", "v"))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestNewForEnvironment(t *testing.T) {
	assert.NotNil(t, NewForEnvironment("production"))
	assert.NotNil(t, NewForEnvironment("development"))
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var fromCtx *zap.Logger
	h := Middleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = FromContext(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/products/missing?x=1", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
	require.NotNil(t, fromCtx)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "/products/missing", fields["path"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Equal(t, "x=1", fields["query"])
}

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	h := Middleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Panic recovered", logs.All()[0].Message)
}

// countingWriter records every WriteHeader call it receives.
type countingWriter struct {
	*httptest.ResponseRecorder
	headerCalls int
}

func (w *countingWriter) WriteHeader(status int) {
	w.headerCalls++
	w.ResponseRecorder.WriteHeader(status)
}

func TestRecovery_AfterResponseStarted(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		panic("boom")
	}))

	w := &countingWriter{ResponseRecorder: httptest.NewRecorder()}
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, 1, w.headerCalls)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partial", w.Body.String())
	require.Equal(t, 1, logs.Len())
}

func TestRecovery_AfterImplicitWrite(t *testing.T) {
	core, _ := observer.New(zapcore.ErrorLevel)
	h := Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("partial"))
		panic("boom")
	}))

	w := &countingWriter{ResponseRecorder: httptest.NewRecorder()}
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

	assert.Equal(t, 0, w.headerCalls)
	assert.Equal(t, http.StatusOK, w.Code)
}
