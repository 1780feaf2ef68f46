package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
)

// NewMemoryStores builds an in-memory Stores bundle, the shipped
// reference persistence layer (mutex-guarded maps), mirroring the
// teacher's in-process state management style for position tracking.
func NewMemoryStores() Stores {
	return Stores{
		RawCaptures:       newMemoryRawCaptures(),
		ExtractedRecords:  newMemoryExtractedRecords(),
		FailedExtractions: newMemoryFailedExtractions(),
		CanonicalEntities: newMemoryCanonicalEntities(),
		OrchestrationRuns: newMemoryOrchestrationRuns(),
	}
}

type memoryRawCaptures struct {
	mu      sync.RWMutex
	byID    map[string]domain.RawCapture
	byHash  map[string]string // content hash -> id
}

func newMemoryRawCaptures() *memoryRawCaptures {
	return &memoryRawCaptures{
		byID:   make(map[string]domain.RawCapture),
		byHash: make(map[string]string),
	}
}

func (m *memoryRawCaptures) Upsert(_ context.Context, rc domain.RawCapture) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[rc.ID] = rc
	m.byHash[rc.ContentHash] = rc.ID
	return nil
}

func (m *memoryRawCaptures) GetByContentHash(_ context.Context, hash string) (domain.RawCapture, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byHash[hash]
	if !ok {
		return domain.RawCapture{}, false, nil
	}
	rc, ok := m.byID[id]
	return rc, ok, nil
}

func (m *memoryRawCaptures) Get(_ context.Context, id string) (domain.RawCapture, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rc, ok := m.byID[id]
	return rc, ok, nil
}

func (m *memoryRawCaptures) ListSince(_ context.Context, since time.Time) ([]domain.RawCapture, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.RawCapture
	for _, rc := range m.byID {
		if !rc.FetchedAt.Before(since) {
			out = append(out, rc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryExtractedRecords struct {
	mu         sync.RWMutex
	byID       map[string]domain.ExtractedRecord
	byHash     map[string]string
	byRawCapID map[string][]string
}

func newMemoryExtractedRecords() *memoryExtractedRecords {
	return &memoryExtractedRecords{
		byID:       make(map[string]domain.ExtractedRecord),
		byHash:     make(map[string]string),
		byRawCapID: make(map[string][]string),
	}
}

func (m *memoryExtractedRecords) Upsert(_ context.Context, er domain.ExtractedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[er.ID] = er
	m.byHash[er.ExtractionHash] = er.ID
	ids := m.byRawCapID[er.RawCaptureID]
	for _, id := range ids {
		if id == er.ID {
			return nil
		}
	}
	m.byRawCapID[er.RawCaptureID] = append(ids, er.ID)
	return nil
}

func (m *memoryExtractedRecords) GetByExtractionHash(_ context.Context, hash string) (domain.ExtractedRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byHash[hash]
	if !ok {
		return domain.ExtractedRecord{}, false, nil
	}
	er, ok := m.byID[id]
	return er, ok, nil
}

func (m *memoryExtractedRecords) ListByRawCapture(_ context.Context, rawCaptureID string) ([]domain.ExtractedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ExtractedRecord
	for _, id := range m.byRawCapID[rawCaptureID] {
		out = append(out, m.byID[id])
	}
	return out, nil
}

func (m *memoryExtractedRecords) ListSince(_ context.Context, since time.Time) ([]domain.ExtractedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ExtractedRecord
	for _, er := range m.byID {
		if !er.ExtractedAt.Before(since) {
			out = append(out, er)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memoryFailedExtractions struct {
	mu   sync.RWMutex
	byID map[string]domain.FailedExtraction
}

func failureKey(rawCaptureID, source string) string {
	return fmt.Sprintf("%s::%s", rawCaptureID, source)
}

func newMemoryFailedExtractions() *memoryFailedExtractions {
	return &memoryFailedExtractions{byID: make(map[string]domain.FailedExtraction)}
}

func (m *memoryFailedExtractions) Upsert(_ context.Context, fe domain.FailedExtraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[failureKey(fe.RawCaptureID, fe.Source)] = fe
	return nil
}

func (m *memoryFailedExtractions) Delete(_ context.Context, rawCaptureID, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, failureKey(rawCaptureID, source))
	return nil
}

func (m *memoryFailedExtractions) Get(_ context.Context, rawCaptureID, source string) (domain.FailedExtraction, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fe, ok := m.byID[failureKey(rawCaptureID, source)]
	return fe, ok, nil
}

func (m *memoryFailedExtractions) ListRetryable(_ context.Context, maxRetries int) ([]domain.FailedExtraction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.FailedExtraction
	for _, fe := range m.byID {
		if maxRetries <= 0 || fe.RetryCount < maxRetries {
			out = append(out, fe)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return failureKey(out[i].RawCaptureID, out[i].Source) < failureKey(out[j].RawCaptureID, out[j].Source)
	})
	return out, nil
}

type memoryCanonicalEntities struct {
	mu     sync.RWMutex
	bySlug map[string]domain.CanonicalEntity
}

func newMemoryCanonicalEntities() *memoryCanonicalEntities {
	return &memoryCanonicalEntities{bySlug: make(map[string]domain.CanonicalEntity)}
}

func (m *memoryCanonicalEntities) Upsert(_ context.Context, ce domain.CanonicalEntity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.bySlug[ce.Slug]; ok {
		ce.FirstSeen = existing.FirstSeen
	}
	m.bySlug[ce.Slug] = ce
	return nil
}

func (m *memoryCanonicalEntities) Get(_ context.Context, slug string) (domain.CanonicalEntity, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ce, ok := m.bySlug[slug]
	return ce, ok, nil
}

func (m *memoryCanonicalEntities) List(_ context.Context) ([]domain.CanonicalEntity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CanonicalEntity, 0, len(m.bySlug))
	for _, ce := range m.bySlug {
		out = append(out, ce)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

type memoryOrchestrationRuns struct {
	mu   sync.RWMutex
	byID map[string]domain.OrchestrationRun
}

func newMemoryOrchestrationRuns() *memoryOrchestrationRuns {
	return &memoryOrchestrationRuns{byID: make(map[string]domain.OrchestrationRun)}
}

func (m *memoryOrchestrationRuns) Create(_ context.Context, run domain.OrchestrationRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[run.ID] = run
	return nil
}

func (m *memoryOrchestrationRuns) Complete(_ context.Context, runID string, okCount, failedCount int, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.byID[runID]
	if !ok {
		return fmt.Errorf("store: orchestration run %q not found", runID)
	}
	run.CompletedAt = time.Now()
	run.ItemsOK = okCount
	run.ItemsFailed = failedCount
	run.Notes = notes
	m.byID[runID] = run
	return nil
}

func (m *memoryOrchestrationRuns) Get(_ context.Context, runID string) (domain.OrchestrationRun, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.byID[runID]
	return run, ok, nil
}
