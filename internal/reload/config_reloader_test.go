package reload

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LarjGit/edinburgh-finds-core/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestDisabledReloaderStartStopNoop(t *testing.T) {
	r, err := New(config.ReloadConfig{Enabled: false}, nil, testLogger(), nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("expected Start to no-op, got %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("expected Stop to no-op, got %v", err)
	}
}

func TestReloadOnFileWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trust_hierarchy.yaml")
	if err := os.WriteFile(path, []byte("sources:\n  serper: 80\n"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	changed := make(chan string, 1)
	r, err := New(
		config.ReloadConfig{Enabled: true, WatchInterval: 50 * time.Millisecond, DebounceInterval: 10 * time.Millisecond},
		[]string{path},
		testLogger(),
		func(p string) error { changed <- p; return nil },
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Stop()

	time.Sleep(20 * time.Millisecond)
	if err := os.WriteFile(path, []byte("sources:\n  serper: 90\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite test file: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("expected reload callback to fire within timeout")
	}
}
