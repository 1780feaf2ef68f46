// Package ingestion implements the Ingestion Orchestrator (C4): one
// connector invocation per call, with content-hash-based
// deduplication gating whether a RawCapture is stored, grounded on
// original_source/engine/ingestion/orchestrator.py and adapted from the
// teacher's internal/dispatcher worker-pool fan-out pattern.
package ingestion

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/LarjGit/edinburgh-finds-core/internal/connectors"
	"github.com/LarjGit/edinburgh-finds-core/internal/metrics"
	"github.com/LarjGit/edinburgh-finds-core/internal/store"
	"github.com/LarjGit/edinburgh-finds-core/pkg/apperrors"
	"github.com/LarjGit/edinburgh-finds-core/pkg/artifactstore"
	"github.com/LarjGit/edinburgh-finds-core/pkg/deduplication"
	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
	"github.com/LarjGit/edinburgh-finds-core/pkg/hashing"
	"github.com/LarjGit/edinburgh-finds-core/pkg/structuredlog"
)

// Summary reports the outcome of one orchestrator run over a connector's
// fetched payloads.
type Summary struct {
	Source      string
	Fetched     int
	Stored      int
	Duplicates  int
	Errors      int
	FirstErrors []error
}

// Orchestrator drives one or more connectors through fetch -> hash ->
// dedup-check -> store, fanning out across a bounded worker pool the
// way the teacher's dispatcher spreads log lines across sinks.
type Orchestrator struct {
	rawCaptures store.RawCaptureStore
	precheck    *deduplication.PrecheckCache
	artifacts   *artifactstore.Store
	logger      *logrus.Logger
	workerCount int
}

// New builds an Orchestrator. artifacts may be nil, in which case raw
// payloads are stored inline on the RawCapture row only (no artifact
// blob is written).
func New(rawCaptures store.RawCaptureStore, precheck *deduplication.PrecheckCache, artifacts *artifactstore.Store, logger *logrus.Logger, workerCount int) *Orchestrator {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Orchestrator{
		rawCaptures: rawCaptures,
		precheck:    precheck,
		artifacts:   artifacts,
		logger:      logger,
		workerCount: workerCount,
	}
}

// Run fetches every payload available from conn and, for each one not
// already seen, persists a RawCapture. Fetch failures abort the whole
// run (spec §4.4: "network and HTTP errors propagate as
// ConnectorError"); per-item failures during the store phase do not.
func (o *Orchestrator) Run(ctx context.Context, runID string, conn connectors.Connector) (Summary, error) {
	entry := structuredlog.ForStage(o.logger, runID, "ingest")
	entry = structuredlog.WithSource(entry, conn.SourceName())

	payloads, err := conn.Fetch(ctx)
	if err != nil {
		metrics.ConnectorFetchErrors.WithLabelValues(conn.SourceName()).Inc()
		entry.WithError(err).Error("connector fetch failed")
		return Summary{Source: conn.SourceName()}, apperrors.ConnectorError("Fetch", err.Error()).Wrap(err)
	}

	summary := Summary{Source: conn.SourceName(), Fetched: len(payloads)}
	metrics.RawCapturesFetched.WithLabelValues(conn.SourceName()).Add(float64(len(payloads)))

	type result struct {
		stored    bool
		duplicate bool
		err       error
	}

	jobs := make(chan map[string]interface{})
	results := make(chan result)

	var wg sync.WaitGroup
	for i := 0; i < o.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for payload := range jobs {
				stored, duplicate, err := o.ingestOne(ctx, conn.SourceName(), payload)
				results <- result{stored: stored, duplicate: duplicate, err: err}
			}
		}()
	}

	go func() {
		for _, p := range payloads {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for r := range results {
		switch {
		case r.err != nil:
			summary.Errors++
			if len(summary.FirstErrors) < 10 {
				summary.FirstErrors = append(summary.FirstErrors, r.err)
			}
		case r.duplicate:
			summary.Duplicates++
		case r.stored:
			summary.Stored++
		}
	}

	entry.WithFields(logrus.Fields{
		"fetched":    summary.Fetched,
		"stored":     summary.Stored,
		"duplicates": summary.Duplicates,
		"errors":     summary.Errors,
	}).Info("ingestion run completed")

	return summary, nil
}

// ingestOne applies spec §4.4's per-item contract: hash the payload,
// check for a duplicate (pre-check cache first, authoritative Store
// second), and if new, save it. When an artifact store is configured the
// artifact is written first (a failed write leaves ArtifactURI empty)
// and the RawCapture row is upserted after it; the two writes are not
// atomic, so if the upsert fails the artifact stays with no row pointing
// at it.
func (o *Orchestrator) ingestOne(ctx context.Context, source string, payload map[string]interface{}) (stored bool, duplicate bool, err error) {
	hash, err := hashing.ContentHash(payload)
	if err != nil {
		return false, false, apperrors.HashError("ingestOne", err.Error()).Wrap(err)
	}

	if o.precheck != nil && o.precheck.Seen(source, hash) {
		if _, found, err := o.rawCaptures.GetByContentHash(ctx, hash); err == nil && found {
			metrics.RawCapturesDuplicate.WithLabelValues(source).Inc()
			return false, true, nil
		}
	} else if existing, found, err := o.rawCaptures.GetByContentHash(ctx, hash); err == nil && found {
		_ = existing
		metrics.RawCapturesDuplicate.WithLabelValues(source).Inc()
		return false, true, nil
	}

	rc := domain.RawCapture{
		ID:          uuid.NewString(),
		Source:      source,
		ContentHash: hash,
		Payload:     payload,
		FetchedAt:   time.Now(),
	}

	if o.artifacts != nil {
		canonical, cErr := hashing.Canonicalize(payload)
		if cErr == nil {
			if uri, putErr := o.artifacts.Put(hash, canonical); putErr == nil {
				rc.ArtifactURI = uri
			}
		}
	}

	if err := o.rawCaptures.Upsert(ctx, rc); err != nil {
		return false, false, apperrors.New(apperrors.CodeStoreUnavailable, "ingestion", "Upsert", err.Error()).Wrap(err)
	}

	return true, false, nil
}
