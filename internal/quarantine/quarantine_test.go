package quarantine

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LarjGit/edinburgh-finds-core/internal/store"
	"github.com/LarjGit/edinburgh-finds-core/pkg/apperrors"
	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(discardWriter{})
	return logger
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestRecordFailureCreatesThenBumpsRetryCount(t *testing.T) {
	stores := store.NewMemoryStores()
	h := New(stores.FailedExtractions, testLogger())
	ctx := context.Background()

	h.RecordFailure(ctx, "rc-1", "places", apperrors.ExtractionError("Extract", "timeout"), map[string]interface{}{"id": "x"}, true)
	fe, found, err := stores.FailedExtractions.Get(ctx, "rc-1", "places")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 0, fe.RetryCount)
	firstFailed := fe.FirstFailed

	h.RecordFailure(ctx, "rc-1", "places", apperrors.ExtractionError("Extract", "timeout again"), map[string]interface{}{"id": "x"}, true)
	fe, found, err = stores.FailedExtractions.Get(ctx, "rc-1", "places")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, fe.RetryCount)
	assert.Equal(t, firstFailed, fe.FirstFailed)
}

func TestRetryBatchSuccessClearsQuarantineRow(t *testing.T) {
	stores := store.NewMemoryStores()
	h := New(stores.FailedExtractions, testLogger())
	ctx := context.Background()

	h.RecordFailure(ctx, "rc-1", "places", apperrors.ExtractionError("Extract", "boom"), nil, true)

	summary, err := h.RetryBatch(ctx, "run-1", 5, 0, func(ctx context.Context, item domain.FailedExtraction) (RetryOutcome, error) {
		return OutcomeSucceeded, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Retried)
	assert.Equal(t, 1, summary.Succeeded)

	_, found, err := stores.FailedExtractions.Get(ctx, "rc-1", "places")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRetryBatchRetryableFailureBumpsRetryCount(t *testing.T) {
	stores := store.NewMemoryStores()
	h := New(stores.FailedExtractions, testLogger())
	ctx := context.Background()

	h.RecordFailure(ctx, "rc-1", "places", apperrors.ExtractionError("Extract", "boom"), nil, true)

	summary, err := h.RetryBatch(ctx, "run-1", 5, 0, func(ctx context.Context, item domain.FailedExtraction) (RetryOutcome, error) {
		return OutcomeRetryableFailure, apperrors.NewRetryableError("still down", nil)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	fe, found, err := stores.FailedExtractions.Get(ctx, "rc-1", "places")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, fe.RetryCount)
}

func TestListRetryableExcludesItemsAtMaxRetries(t *testing.T) {
	stores := store.NewMemoryStores()
	h := New(stores.FailedExtractions, testLogger())
	ctx := context.Background()

	require.NoError(t, stores.FailedExtractions.Upsert(ctx, domain.FailedExtraction{
		RawCaptureID: "rc-1",
		Source:       "places",
		RetryCount:   5,
	}))

	items, err := h.ListRetryable(ctx, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}
