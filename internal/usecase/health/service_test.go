package health

import (
	"context"
	"errors"
	"testing"
)

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct{ err error }

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{})

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("status = %s, want ok", report.Status)
	}
	if report.Checks["database"] != "ok" || report.Checks["embedding"] != "ok" {
		t.Errorf("checks = %v", report.Checks)
	}
}

func TestCheck_EmbeddingDownIsDegraded(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{err: errors.New("provider down")})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Errorf("status = %s, want degraded", report.Status)
	}
}

func TestCheck_DatabaseDownIsUnhealthy(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("no route")}, &mockChecker{err: errors.New("down")})

	report := svc.Check(context.Background())
	if report.Status != Unhealthy {
		t.Errorf("status = %s, want error", report.Status)
	}
}

func TestCheck_NilEmbedding(t *testing.T) {
	svc := New(&mockPinger{}, nil)

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Errorf("status = %s, want ok", report.Status)
	}
	if _, ok := report.Checks["embedding"]; ok {
		t.Error("embedding check present without a checker")
	}
}
