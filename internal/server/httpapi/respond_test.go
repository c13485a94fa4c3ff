package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"finledger/internal/logging"
	"finledger/internal/server/config"
)

func newEnv(environment string) *Env {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Environment = environment
	return &Env{
		Logger: logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		Config: cfg,
	}
}

func TestWriteErrorDetailGating(t *testing.T) {
	err := errors.New("pq: connection refused")

	t.Run("development exposes detail", func(t *testing.T) {
		env := newEnv(config.EnvDevelopment)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)

		env.writeError(rec, req, err)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("unexpected status: %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "connection refused") {
			t.Errorf("development response should carry detail, got %s", body)
		}
	})

	t.Run("production hides detail", func(t *testing.T) {
		env := newEnv(config.EnvProduction)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)

		env.writeError(rec, req, err)

		body := rec.Body.String()
		if strings.Contains(body, "connection refused") {
			t.Errorf("production response must not leak detail, got %s", body)
		}
		if !strings.Contains(body, "INTERNAL") {
			t.Errorf("response should carry the generic code, got %s", body)
		}
	})
}
