// Package store defines the persistence interfaces for every pipeline
// record type, and ships an in-memory reference implementation. A real
// deployment swaps the in-memory stores built by NewMemoryStores for a
// SQL/KV-backed implementation behind
// the same interfaces; DB driver specifics are out of scope for the core
// pipeline (SPEC_FULL.md §1).
package store

import (
	"context"
	"time"

	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
)

// RawCaptureStore persists fetched payloads and supports the ingestion
// orchestrator's content-hash duplicate check.
type RawCaptureStore interface {
	Upsert(ctx context.Context, rc domain.RawCapture) error
	GetByContentHash(ctx context.Context, hash string) (domain.RawCapture, bool, error)
	Get(ctx context.Context, id string) (domain.RawCapture, bool, error)
	ListSince(ctx context.Context, since time.Time) ([]domain.RawCapture, error)
}

// ExtractedRecordStore persists extraction output and supports the
// extraction-hash cache lookup used by the LLM caching path.
type ExtractedRecordStore interface {
	Upsert(ctx context.Context, er domain.ExtractedRecord) error
	GetByExtractionHash(ctx context.Context, hash string) (domain.ExtractedRecord, bool, error)
	ListByRawCapture(ctx context.Context, rawCaptureID string) ([]domain.ExtractedRecord, error)
	ListSince(ctx context.Context, since time.Time) ([]domain.ExtractedRecord, error)
}

// FailedExtractionStore persists quarantined items keyed by
// (RawCaptureID, Source).
type FailedExtractionStore interface {
	Upsert(ctx context.Context, fe domain.FailedExtraction) error
	Delete(ctx context.Context, rawCaptureID, source string) error
	Get(ctx context.Context, rawCaptureID, source string) (domain.FailedExtraction, bool, error)
	ListRetryable(ctx context.Context, maxRetries int) ([]domain.FailedExtraction, error)
}

// CanonicalEntityStore persists finalized entities keyed by slug.
type CanonicalEntityStore interface {
	Upsert(ctx context.Context, ce domain.CanonicalEntity) error
	Get(ctx context.Context, slug string) (domain.CanonicalEntity, bool, error)
	List(ctx context.Context) ([]domain.CanonicalEntity, error)
}

// OrchestrationRunStore persists the audit record of each pipeline
// invocation.
type OrchestrationRunStore interface {
	Create(ctx context.Context, run domain.OrchestrationRun) error
	Complete(ctx context.Context, runID string, okCount, failedCount int, notes string) error
	Get(ctx context.Context, runID string) (domain.OrchestrationRun, bool, error)
}

// Stores bundles every persistence interface the pipeline components
// depend on, passed around as a single unit the way the teacher threads
// its sinks/positions dependencies through App.
type Stores struct {
	RawCaptures       RawCaptureStore
	ExtractedRecords  ExtractedRecordStore
	FailedExtractions FailedExtractionStore
	CanonicalEntities CanonicalEntityStore
	OrchestrationRuns OrchestrationRunStore
}
