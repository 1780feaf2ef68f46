package tracing

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewManagerDisabledIsNoop(t *testing.T) {
	m, err := NewManager(Config{Enabled: false}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Tracer() == nil {
		t.Fatal("expected a no-op tracer")
	}
}

func TestRunPropagatesError(t *testing.T) {
	m, err := NewManager(Config{Enabled: false}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantErr := errors.New("extraction failed")
	gotErr := Run(context.Background(), m.Tracer(), "extract", "run-1", func(ctx context.Context) error {
		return wantErr
	})
	if gotErr != wantErr {
		t.Fatalf("expected error to propagate, got %v", gotErr)
	}
}

func TestRunSucceeds(t *testing.T) {
	m, err := NewManager(Config{Enabled: false}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	called := false
	err = Run(context.Background(), m.Tracer(), "ingest", "run-2", func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected stage function to be invoked")
	}
}
