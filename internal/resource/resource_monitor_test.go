package resource

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestStartStopLifecycle(t *testing.T) {
	rm := NewResourceMonitor(ResourceMonitorConfig{MonitoringInterval: 10 * time.Millisecond}, testLogger())
	if err := rm.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rm.Stop()

	time.Sleep(30 * time.Millisecond)
	usage := rm.GetCurrentUsage()
	if usage["goroutines"] <= 0 {
		t.Fatalf("expected goroutine count to be sampled, got %+v", usage)
	}
}

func TestIsHealthyByDefault(t *testing.T) {
	rm := NewResourceMonitor(ResourceMonitorConfig{}, testLogger())
	if err := rm.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rm.Stop()

	if !rm.IsHealthy() {
		t.Fatal("expected a freshly started monitor to report healthy")
	}
}

func TestDoubleStartErrors(t *testing.T) {
	rm := NewResourceMonitor(ResourceMonitorConfig{}, testLogger())
	if err := rm.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rm.Stop()

	if err := rm.Start(); err == nil {
		t.Fatal("expected second Start to error")
	}
}
