package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/LarjGit/edinburgh-finds-core/internal/store"
	"github.com/LarjGit/edinburgh-finds-core/pkg/deduplication"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(nopWriter{})
	return logger
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

type stubConnector struct {
	name    string
	payload []map[string]interface{}
	err     error
}

func (c *stubConnector) SourceName() string { return c.name }

func (c *stubConnector) Fetch(_ context.Context) ([]map[string]interface{}, error) {
	return c.payload, c.err
}

func newTestOrchestrator() (*Orchestrator, store.RawCaptureStore) {
	stores := store.NewMemoryStores()
	precheck := deduplication.NewPrecheckCache(deduplication.Config{}, testLogger())
	return New(stores.RawCaptures, precheck, nil, testLogger(), 4), stores.RawCaptures
}

func TestOrchestratorRunStoresNewCaptures(t *testing.T) {
	defer goleak.VerifyNone(t)

	orch, rawCaptures := newTestOrchestrator()
	conn := &stubConnector{
		name: "places",
		payload: []map[string]interface{}{
			{"id": "a", "name": "Cafe One"},
			{"id": "b", "name": "Cafe Two"},
		},
	}

	summary, err := orch.Run(context.Background(), "run-1", conn)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 2, summary.Stored)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, 0, summary.Errors)

	captures, err := rawCaptures.ListSince(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Len(t, captures, 2)
}

func TestOrchestratorRunDeduplicatesIdenticalPayloads(t *testing.T) {
	defer goleak.VerifyNone(t)

	orch, rawCaptures := newTestOrchestrator()
	item := map[string]interface{}{"id": "a", "name": "Cafe One"}
	conn := &stubConnector{name: "places", payload: []map[string]interface{}{item, item}}

	summary, err := orch.Run(context.Background(), "run-1", conn)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 1, summary.Stored)
	assert.Equal(t, 1, summary.Duplicates)

	captures, err := rawCaptures.ListSince(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Len(t, captures, 1)
}

func TestOrchestratorRunPropagatesConnectorFetchError(t *testing.T) {
	defer goleak.VerifyNone(t)

	orch, _ := newTestOrchestrator()
	conn := &stubConnector{name: "places", err: errors.New("upstream unavailable")}

	_, err := orch.Run(context.Background(), "run-1", conn)
	require.Error(t, err)
}
