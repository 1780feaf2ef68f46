package deduplication

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSeenFirstTimeIsFalse(t *testing.T) {
	cache := NewPrecheckCache(Config{}, newTestLogger())
	if cache.Seen("serper", "abc123") {
		t.Fatal("expected first check to report unseen")
	}
}

func TestSeenSecondTimeIsTrue(t *testing.T) {
	cache := NewPrecheckCache(Config{}, newTestLogger())
	cache.Seen("serper", "abc123")
	if !cache.Seen("serper", "abc123") {
		t.Fatal("expected repeated check to report seen")
	}
}

func TestSeenExpiresAfterTTL(t *testing.T) {
	cache := NewPrecheckCache(Config{TTL: time.Millisecond}, newTestLogger())
	cache.Seen("serper", "abc123")
	time.Sleep(5 * time.Millisecond)
	if cache.Seen("serper", "abc123") {
		t.Fatal("expected entry to have expired")
	}
}

func TestSeenDistinguishesSource(t *testing.T) {
	cache := NewPrecheckCache(Config{}, newTestLogger())
	cache.Seen("serper", "abc123")
	if cache.Seen("google_places", "abc123") {
		t.Fatal("expected different sources with the same hash to be distinct")
	}
}
