package extraction

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LarjGit/edinburgh-finds-core/internal/extractors"
	"github.com/LarjGit/edinburgh-finds-core/internal/quarantine"
	"github.com/LarjGit/edinburgh-finds-core/internal/store"
	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(discardWriter{})
	return logger
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type stubExtractor struct {
	source string
	fail   bool
}

func (s *stubExtractor) SourceName() string { return s.source }

func (s *stubExtractor) Validate(record map[string]interface{}) (map[string]interface{}, error) {
	return record, nil
}

func (s *stubExtractor) Extract(_ context.Context, item map[string]interface{}) (extractors.ExtractResult, error) {
	if s.fail {
		return extractors.ExtractResult{}, assertError("boom")
	}
	return extractors.ExtractResult{
		Record:     map[string]interface{}{"name": item["name"]},
		ExternalID: item["id"].(string),
	}, nil
}

type assertError string

func (e assertError) Error() string { return string(e) }

func newTestRunner(variant string, fail bool) (*Runner, store.RawCaptureStore, store.ExtractedRecordStore, store.FailedExtractionStore) {
	stores := store.NewMemoryStores()
	registry := extractors.NewRegistry()
	registry.Register(variant, func(map[string]interface{}) (extractors.Extractor, error) {
		return &stubExtractor{source: variant, fail: fail}, nil
	})

	quarantiner := quarantine.New(stores.FailedExtractions, testLogger())
	runner := New(stores.RawCaptures, stores.ExtractedRecords, quarantiner, registry, testLogger())
	return runner, stores.RawCaptures, stores.ExtractedRecords, stores.FailedExtractions
}

func TestRunForSourceExtractsPendingCaptures(t *testing.T) {
	runner, rawCaptures, extracted, _ := newTestRunner("places", false)

	ctx := context.Background()
	require.NoError(t, rawCaptures.Upsert(ctx, domain.RawCapture{
		ID:          "rc-1",
		Source:      "places",
		ContentHash: "hash-1",
		Payload:     map[string]interface{}{"id": "ext-1", "name": "Cafe One"},
		FetchedAt:   time.Now(),
	}))

	summary, err := runner.RunForSource(ctx, "run-1", "places", "places", nil, time.Time{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Attempted)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)

	records, err := extracted.ListByRawCapture(ctx, "rc-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Cafe One", records[0].Attributes["name"])
	assert.Equal(t, "ext-1", records[0].ExternalIDs["places_id"])
}

func TestRunForSourceDryRunPersistsNothing(t *testing.T) {
	runner, rawCaptures, extracted, _ := newTestRunner("places", false)

	ctx := context.Background()
	require.NoError(t, rawCaptures.Upsert(ctx, domain.RawCapture{
		ID:          "rc-1",
		Source:      "places",
		ContentHash: "hash-1",
		Payload:     map[string]interface{}{"id": "ext-1", "name": "Cafe One"},
		FetchedAt:   time.Now(),
	}))

	summary, err := runner.RunForSource(ctx, "run-1", "places", "places", nil, time.Time{}, Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)

	records, err := extracted.ListByRawCapture(ctx, "rc-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRunForSourceRoutesFailuresToQuarantine(t *testing.T) {
	runner, rawCaptures, _, failed := newTestRunner("places", true)

	ctx := context.Background()
	require.NoError(t, rawCaptures.Upsert(ctx, domain.RawCapture{
		ID:          "rc-1",
		Source:      "places",
		ContentHash: "hash-1",
		Payload:     map[string]interface{}{"id": "ext-1", "name": "Cafe One"},
		FetchedAt:   time.Now(),
	}))

	summary, err := runner.RunForSource(ctx, "run-1", "places", "places", nil, time.Time{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	fe, found, err := failed.Get(ctx, "rc-1", "places")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0, fe.RetryCount)
}

func TestRunForSourceRespectsLimit(t *testing.T) {
	runner, rawCaptures, _, _ := newTestRunner("places", false)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, rawCaptures.Upsert(ctx, domain.RawCapture{
			ID:          "rc-" + string(rune('1'+i)),
			Source:      "places",
			ContentHash: "hash-" + string(rune('1'+i)),
			Payload:     map[string]interface{}{"id": "ext-1", "name": "Cafe"},
			FetchedAt:   time.Now(),
		}))
	}

	summary, err := runner.RunForSource(ctx, "run-1", "places", "places", nil, time.Time{}, Options{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Attempted)
}
