package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	e := newTestEcho(t)
	c, rec := jsonContext(e, http.MethodGet, "/health", "")

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("Liveness returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadinessHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	e := newTestEcho(t)
	c, rec := jsonContext(e, http.MethodGet, "/health/ready", "")
	if err := NewReadinessHandler(map[string]Check{"mongodb": ok, "redis": ok, "sql": ok}).Readiness(c); err != nil {
		t.Fatalf("Readiness returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, rec = jsonContext(e, http.MethodGet, "/health/ready", "")
	_ = NewReadinessHandler(map[string]Check{"mongodb": ok, "sql": down}).Readiness(c)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var body readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "degraded" || body.Dependencies["sql"].Error != "connection refused" || body.Dependencies["mongodb"].Status != "ok" {
		t.Fatalf("unexpected body %+v", body)
	}
}
