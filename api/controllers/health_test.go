package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()

	HealthLive("test").ServeHTTP(rec, newRequest(http.MethodGet, "/health/live", ""))

	assertStatus(t, rec, http.StatusOK)
	if rec.Header().Get("X-PawPantry-Env") != "test" {
		t.Fatalf("expected env header")
	}
}

func TestHealthReady(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := map[string]struct {
		database Pinger
		cache    Pinger
		status   int
		redis    string
	}{
		"all up":         {database: ok, cache: ok, status: http.StatusOK, redis: "ok"},
		"redis disabled": {database: ok, status: http.StatusOK, redis: "disabled"},
		"database down":  {database: down, cache: ok, status: http.StatusServiceUnavailable},
		"redis down":     {database: ok, cache: down, status: http.StatusServiceUnavailable},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			HealthReady("test", tc.database, tc.cache, testLogger()).ServeHTTP(rec, newRequest(http.MethodGet, "/health/ready", ""))

			assertStatus(t, rec, tc.status)
			if tc.status != http.StatusOK {
				return
			}
			var body struct {
				Checks map[string]string `json:"checks"`
			}
			decodeData(t, rec, &body)
			if body.Checks["redis"] != tc.redis {
				t.Fatalf("unexpected redis check %q", body.Checks["redis"])
			}
		})
	}
}
