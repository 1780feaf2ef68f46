// Package quarantine implements the Quarantine & Retry Handler (C7):
// failed extraction items are upserted keyed by (raw_capture_id,
// source) so repeated failures accumulate a retry count instead of
// duplicating rows, and a batch retry sweep re-attempts items under a
// configured max-retries ceiling, grounded on
// original_source/engine/extraction/quarantine.py.
package quarantine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/LarjGit/edinburgh-finds-core/internal/metrics"
	"github.com/LarjGit/edinburgh-finds-core/internal/store"
	"github.com/LarjGit/edinburgh-finds-core/pkg/apperrors"
	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
	"github.com/LarjGit/edinburgh-finds-core/pkg/structuredlog"
)

// RetryOutcome is the three-way result of one retry attempt (spec
// §4.7): the item succeeded and its quarantine row is removed, it
// failed with a RetryableError and stays quarantined with a refreshed
// error, or it failed with an error the handler doesn't recognize as
// retryable and is quarantined with a synthetic error payload.
type RetryOutcome int

const (
	OutcomeSucceeded RetryOutcome = iota
	OutcomeRetryableFailure
	OutcomeUnknownFailure
)

// RetryHandler re-attempts one quarantined item. Implementations load
// whatever context they need (e.g. the RawCapture) from rawCaptureID
// and return the outcome of the attempt.
type RetryHandler func(ctx context.Context, item domain.FailedExtraction) (RetryOutcome, error)

// BatchSummary reports one retry_batch invocation.
type BatchSummary struct {
	Retried   int
	Succeeded int
	Failed    int
}

// Handler manages the quarantine side-channel: recording failures and
// running retry sweeps against it.
type Handler struct {
	store  store.FailedExtractionStore
	logger *logrus.Logger
}

// New builds a Handler.
func New(failedExtractions store.FailedExtractionStore, logger *logrus.Logger) *Handler {
	return &Handler{store: failedExtractions, logger: logger}
}

// RecordFailure upserts a FailedExtraction for (rawCaptureID, source).
// If a row already exists for that key, its retry count is bumped
// (when incrementRetry is true) and its error fields refreshed rather
// than a new row being created, per spec §4.7 step 1.
func (h *Handler) RecordFailure(ctx context.Context, rawCaptureID, source string, cause error, itemPayload map[string]interface{}, incrementRetry bool) {
	now := time.Now()
	existing, found, _ := h.store.Get(ctx, rawCaptureID, source)

	fe := domain.FailedExtraction{
		RawCaptureID: rawCaptureID,
		Source:       source,
		ItemPayload:  itemPayload,
		ErrorType:    errorType(cause),
		ErrorMessage: errorMessage(cause),
		FirstFailed:  now,
		LastFailed:   now,
	}

	if found {
		fe.FirstFailed = existing.FirstFailed
		fe.RetryCount = existing.RetryCount
		if incrementRetry {
			fe.RetryCount++
		}
	}

	if err := h.store.Upsert(ctx, fe); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			structuredlog.FieldRawCaptureID: rawCaptureID,
			structuredlog.FieldSource:       source,
		}).Error("failed to record quarantine entry")
		return
	}
	metrics.QuarantinedItems.WithLabelValues(source).Inc()
}

// ListRetryable returns every quarantined item whose retry count is
// below maxRetries, optionally capped at limit (limit <= 0 means no
// cap).
func (h *Handler) ListRetryable(ctx context.Context, maxRetries, limit int) ([]domain.FailedExtraction, error) {
	items, err := h.store.ListRetryable(ctx, maxRetries)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeStoreUnavailable, "quarantine", "ListRetryable", err.Error()).Wrap(err)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// RetryBatch re-attempts every retryable item (up to maxRetries,
// limit) via handler, applying spec §4.7's three-way outcome: success
// deletes the quarantine row; a RetryableError bumps retry_count and
// refreshes the error fields; any other failure is treated as unknown
// and still bumps retry_count with a synthetic error_type/message.
func (h *Handler) RetryBatch(ctx context.Context, runID string, maxRetries, limit int, handler RetryHandler) (BatchSummary, error) {
	entry := structuredlog.ForStage(h.logger, runID, "quarantine")

	items, err := h.ListRetryable(ctx, maxRetries, limit)
	if err != nil {
		return BatchSummary{}, err
	}

	summary := BatchSummary{}
	for _, item := range items {
		summary.Retried++

		outcome, err := handler(ctx, item)
		switch outcome {
		case OutcomeSucceeded:
			if delErr := h.store.Delete(ctx, item.RawCaptureID, item.Source); delErr != nil {
				entry.WithError(delErr).Warn("failed to clear quarantine row after successful retry")
			}
			summary.Succeeded++
			metrics.QuarantineRetriesSucceeded.WithLabelValues(item.Source).Inc()

		case OutcomeRetryableFailure:
			h.RecordFailure(ctx, item.RawCaptureID, item.Source, err, item.ItemPayload, true)
			summary.Failed++
			metrics.QuarantineRetriesFailed.WithLabelValues(item.Source, "retryable").Inc()

		default:
			h.RecordFailure(ctx, item.RawCaptureID, item.Source, err, item.ItemPayload, true)
			summary.Failed++
			metrics.QuarantineRetriesFailed.WithLabelValues(item.Source, "unknown").Inc()
		}
	}

	entry.WithFields(logrus.Fields{
		"retried":   summary.Retried,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}).Info("quarantine retry batch completed")

	return summary, nil
}

func errorType(err error) string {
	if err == nil {
		return "unknown"
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Code
	}
	return "unknown"
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
