package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMonitor_Healthy(t *testing.T) {
	monitor := NewMonitor(time.Minute)
	monitor.RecordPass(nil, 4)

	report := monitor.Check()
	if report.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
	if !report.LastPassOK || report.TrackedOrders != 4 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestMonitor_DegradedAfterFailure(t *testing.T) {
	monitor := NewMonitor(time.Minute)
	monitor.RecordPass(errors.New("list failed"), 0)

	report := monitor.Check()
	if report.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
	if report.ConsecutiveFailures != 1 {
		t.Errorf("expected 1 consecutive failure, got %d", report.ConsecutiveFailures)
	}
}

func TestMonitor_CriticalAfterRepeatedFailures(t *testing.T) {
	monitor := NewMonitor(time.Minute)
	for i := 0; i < 3; i++ {
		monitor.RecordPass(errors.New("list failed"), 0)
	}

	if report := monitor.Check(); report.Status != StatusCritical {
		t.Errorf("expected critical, got %s", report.Status)
	}
}

func TestMonitor_RecoveryResetsFailures(t *testing.T) {
	monitor := NewMonitor(time.Minute)
	monitor.RecordPass(errors.New("list failed"), 0)
	monitor.RecordPass(nil, 2)

	report := monitor.Check()
	if report.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
	if report.ConsecutiveFailures != 0 {
		t.Errorf("expected reset failures, got %d", report.ConsecutiveFailures)
	}
}

func TestMonitor_StalePassDegrades(t *testing.T) {
	monitor := NewMonitor(time.Millisecond)
	monitor.RecordPass(nil, 0)
	time.Sleep(10 * time.Millisecond)

	if report := monitor.Check(); report.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	monitor := NewMonitor(time.Minute)
	monitor.RecordPass(nil, 2)
	server := NewServer(monitor, 0)

	rec := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if report.Status != StatusHealthy || report.TrackedOrders != 2 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestServer_CriticalReturns503(t *testing.T) {
	monitor := NewMonitor(time.Minute)
	for i := 0; i < 3; i++ {
		monitor.RecordPass(errors.New("list failed"), 0)
	}
	server := NewServer(monitor, 0)

	rec := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
