// Package extraction implements the Extraction Runner (C6): drives one
// or more registered Extractors over pending RawCaptures, skipping
// RawCaptures that already have ExtractedRecords, with dry-run/force-retry/limit
// controls, grounded on original_source/engine/extraction/runner.py.
package extraction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/LarjGit/edinburgh-finds-core/internal/extractors"
	"github.com/LarjGit/edinburgh-finds-core/internal/metrics"
	"github.com/LarjGit/edinburgh-finds-core/internal/quarantine"
	"github.com/LarjGit/edinburgh-finds-core/internal/store"
	"github.com/LarjGit/edinburgh-finds-core/pkg/apperrors"
	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
	"github.com/LarjGit/edinburgh-finds-core/pkg/hashing"
	"github.com/LarjGit/edinburgh-finds-core/pkg/structuredlog"
)

// Options controls one Run invocation, matching the CLI flags in
// spec.md §6 (--dry-run, --force-retry, --limit).
type Options struct {
	DryRun     bool
	ForceRetry bool
	Limit      int
}

// Summary reports one Run invocation's outcome.
type Summary struct {
	Source    string
	Attempted int
	Succeeded int
	Failed    int
	Cached    int
}

// Runner drives extraction for one or more sources over their pending
// RawCaptures.
type Runner struct {
	rawCaptures store.RawCaptureStore
	extracted   store.ExtractedRecordStore
	quarantiner *quarantine.Handler
	registry    *extractors.Registry
	logger      *logrus.Logger
}

// New builds a Runner.
func New(rawCaptures store.RawCaptureStore, extracted store.ExtractedRecordStore, quarantiner *quarantine.Handler, registry *extractors.Registry, logger *logrus.Logger) *Runner {
	return &Runner{
		rawCaptures: rawCaptures,
		extracted:   extracted,
		quarantiner: quarantiner,
		registry:    registry,
		logger:      logger,
	}
}

// RunForSource extracts every RawCapture for source since since,
// applying opts. Unless opts.ForceRetry is set, a RawCapture that already
// has ExtractedRecords is skipped and counted in Summary.Cached (it still
// counts toward Attempted and opts.Limit). A RawCapture failure does not abort the batch: each
// item is processed independently and failures route to quarantine
// unless opts.DryRun is set (spec §4.6: "failures routed to Quarantine
// unless dry_run").
func (r *Runner) RunForSource(ctx context.Context, runID, source, variant string, extractorConfig map[string]interface{}, since time.Time, opts Options) (Summary, error) {
	entry := structuredlog.ForStage(r.logger, runID, "extract")
	entry = structuredlog.WithSource(entry, source)

	extractor, err := r.registry.Build(variant, extractorConfig)
	if err != nil {
		return Summary{Source: source}, apperrors.ExtractionError("RunForSource", err.Error()).Wrap(err)
	}

	captures, err := r.rawCaptures.ListSince(ctx, since)
	if err != nil {
		return Summary{Source: source}, apperrors.New(apperrors.CodeStoreUnavailable, "extraction", "ListSince", err.Error()).Wrap(err)
	}

	summary := Summary{Source: source}
	for _, rc := range captures {
		if rc.Source != source {
			continue
		}
		if opts.Limit > 0 && summary.Attempted >= opts.Limit {
			break
		}
		summary.Attempted++

		if !opts.ForceRetry {
			if existing, lookupErr := r.extracted.ListByRawCapture(ctx, rc.ID); lookupErr == nil && len(existing) > 0 {
				summary.Cached++
				metrics.ExtractionCacheHits.Inc()
				continue
			}
		}

		items := itemsFromPayload(source, rc.Payload)
		itemFailed := false
		var lastErr error

		for _, item := range items {
			if err := r.extractOne(ctx, runID, rc, source, extractor, item, opts); err != nil {
				itemFailed = true
				lastErr = err
			}
		}

		if itemFailed {
			summary.Failed++
			if !opts.DryRun && r.quarantiner != nil {
				r.quarantiner.RecordFailure(ctx, rc.ID, source, lastErr, rc.Payload, true)
			}
			metrics.ExtractionsFailed.WithLabelValues(source, "true").Inc()
		} else {
			summary.Succeeded++
			metrics.ExtractionsSucceeded.WithLabelValues(source).Inc()
		}
	}

	entry.WithFields(logrus.Fields{
		"attempted": summary.Attempted,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"cached":    summary.Cached,
	}).Info("extraction run completed")

	return summary, nil
}

// extractOne runs one item through the extractor and persists the
// resulting ExtractedRecord (nothing is persisted under opts.DryRun).
// The skip for RawCaptures that already have ExtractedRecords happens in
// RunForSource, before any item is extracted.
func (r *Runner) extractOne(ctx context.Context, runID string, rc domain.RawCapture, source string, extractor extractors.Extractor, item map[string]interface{}, opts Options) error {
	start := time.Now()
	defer func() {
		metrics.ExtractionDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}()

	result, err := extractors.ExtractWithLogging(ctx, extractor, r.logger, runID, item)
	if err != nil {
		return err
	}

	attributes, discovered := extractors.SplitAttributes(result.Record)

	extractionHash, err := hashing.ExtractionHash(map[string]interface{}{
		"raw_capture_id": rc.ID,
		"attributes":     attributes,
		"discovered":     discovered,
		"external_id":    result.ExternalID,
	}, "", "")
	if err != nil {
		return apperrors.HashError("extractOne", err.Error()).Wrap(err)
	}

	if opts.DryRun {
		return nil
	}

	externalIDs := map[string]string{}
	if result.ExternalID != "" {
		externalIDs[source+"_id"] = result.ExternalID
	}

	er := domain.ExtractedRecord{
		ID:              uuid.NewString(),
		RawCaptureID:    rc.ID,
		Source:          source,
		ExternalIDs:     externalIDs,
		Attributes:      attributes,
		DiscoveredAttrs: discovered,
		RichText:        result.RichText,
		ExtractionHash:  extractionHash,
		ExtractedAt:     time.Now(),
	}

	if err := r.extracted.Upsert(ctx, er); err != nil {
		return apperrors.New(apperrors.CodeStoreUnavailable, "extraction", "Upsert", err.Error()).Wrap(err)
	}
	return nil
}

// itemsFromPayload unwraps a RawCapture payload's container key, per
// spec §4.6: Google Places responses nest results under "places",
// Serper under "organic", feature-collection sources under
// "features", and other list payloads under "results"; anything else is
// treated as a single-item payload.
func itemsFromPayload(source string, payload map[string]interface{}) []map[string]interface{} {
	for _, key := range []string{"places", "features", "organic", "results"} {
		if raw, ok := payload[key]; ok {
			if list, ok := raw.([]interface{}); ok {
				items := make([]map[string]interface{}, 0, len(list))
				for _, v := range list {
					if m, ok := v.(map[string]interface{}); ok {
						items = append(items, m)
					}
				}
				return items
			}
		}
	}
	return []map[string]interface{}{payload}
}
