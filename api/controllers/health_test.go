package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campus-kds/canteen-backend/pkg/config"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Canteen-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := testLogger()

	request := func(db, redis stubPinger, withRedis bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		rec := httptest.NewRecorder()
		if withRedis {
			HealthReady(cfg, logg, db, redis).ServeHTTP(rec, req)
		} else {
			HealthReady(cfg, logg, db, nil).ServeHTTP(rec, req)
		}
		return rec
	}

	t.Run("ready", func(t *testing.T) {
		rec := request(stubPinger{}, stubPinger{}, true)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("db down", func(t *testing.T) {
		rec := request(stubPinger{err: errors.New("refused")}, stubPinger{}, true)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("redis down", func(t *testing.T) {
		rec := request(stubPinger{}, stubPinger{err: errors.New("refused")}, true)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("redis optional", func(t *testing.T) {
		rec := request(stubPinger{}, stubPinger{}, false)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 without redis, got %d", rec.Code)
		}
	})
}
