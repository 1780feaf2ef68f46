// Package domain defines the shared record types that flow through the
// catalogue pipeline: RawCapture -> ExtractedRecord -> CanonicalEntity,
// with FailedExtraction as the quarantine side-channel and OrchestrationRun
// as the audit record for a single pipeline invocation.
package domain

import "time"

// RawCapture is an unprocessed payload fetched from a source connector,
// stored verbatim alongside its content hash for deduplication.
type RawCapture struct {
	ID          string                 `json:"id"`
	Source      string                 `json:"source"`
	ContentHash string                 `json:"content_hash"`
	Payload     map[string]interface{} `json:"payload"`
	FetchedAt   time.Time              `json:"fetched_at"`
	ArtifactURI string                 `json:"artifact_uri,omitempty"`
}

// ExtractedRecord is the structured result of running an Extractor over a
// RawCapture. ExtractionHash identifies the (payload, prompt, model)
// combination that produced it, so repeat extraction work can be skipped.
type ExtractedRecord struct {
	ID              string                 `json:"id"`
	RawCaptureID    string                 `json:"raw_capture_id"`
	Source          string                 `json:"source"`
	ExternalIDs     map[string]string      `json:"external_ids,omitempty"`
	Attributes      map[string]interface{} `json:"attributes"`
	DiscoveredAttrs map[string]interface{} `json:"discovered_attributes,omitempty"`
	Modules         map[string]interface{} `json:"modules,omitempty"`
	RichText        string                 `json:"rich_text,omitempty"`
	ExtractionHash  string                 `json:"extraction_hash"`
	ExtractedAt     time.Time              `json:"extracted_at"`
}

// FailedExtraction is a quarantined unit of work: either a RawCapture that
// failed extraction, or an item within one, keyed by (RawCaptureID, Source)
// so repeated failures on the same item upsert rather than accumulate.
type FailedExtraction struct {
	RawCaptureID string                 `json:"raw_capture_id"`
	Source       string                 `json:"source"`
	ItemPayload  map[string]interface{} `json:"item_payload"`
	ErrorType    string                 `json:"error_type"`
	ErrorMessage string                 `json:"error_message"`
	RetryCount   int                    `json:"retry_count"`
	FirstFailed  time.Time              `json:"first_failed_at"`
	LastFailed   time.Time              `json:"last_failed_at"`
}

// CanonicalEntity is the finalized, merged record for a single real-world
// entity, keyed by its Slug. SourceInfo and FieldConfidence are always
// present as maps (never nil) so downstream consumers never nil-check them.
type CanonicalEntity struct {
	Slug            string                 `json:"slug"`
	Name            string                 `json:"name"`
	EntityClass     string                 `json:"entity_class"`
	Attributes      map[string]interface{} `json:"attributes"`
	DiscoveredAttrs map[string]interface{} `json:"discovered_attributes,omitempty"`
	Modules         map[string]interface{} `json:"modules,omitempty"`
	ExternalIDs     map[string]string      `json:"external_ids,omitempty"`
	SourceInfo      map[string]interface{} `json:"source_info"`
	FieldConfidence map[string]float64     `json:"field_confidence"`
	SourceCount     int                    `json:"source_count"`
	Conflicts       []MergeConflict        `json:"conflicts,omitempty"`
	FirstSeen       time.Time              `json:"first_seen_at"`
	LastMerged      time.Time              `json:"last_merged_at"`
}

// OrchestrationRun is the audit record of a single invocation of any
// pipeline stage (ingest, extract, quarantine retry, finalize).
type OrchestrationRun struct {
	ID          string    `json:"id"`
	Stage       string    `json:"stage"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	ItemsOK     int       `json:"items_ok"`
	ItemsFailed int       `json:"items_failed"`
	Notes       string    `json:"notes,omitempty"`
}

// FieldValue is a single source's contribution to one field of an entity,
// carrying enough provenance for trust-weighted merging and conflict
// reporting: which source produced it, how much that source is trusted,
// and how confident the source itself was.
type FieldValue struct {
	Value      interface{} `json:"value"`
	SourceID   string      `json:"source_id"`
	Trust      float64     `json:"trust"`
	Confidence float64     `json:"confidence"`
}

// MatchResult is the outcome of comparing two records for identity, in
// increasing order of specificity: external ID, slug, or fuzzy geo+name.
type MatchResult struct {
	Matched    bool    `json:"matched"`
	Method     string  `json:"method"` // "external_id", "slug", "fuzzy"
	Score      float64 `json:"score"`
	Reason     string  `json:"reason,omitempty"`
}

// MergeConflict records a field where two or more sources disagreed badly
// enough (within ConflictDetector's trust-gap threshold) to be worth
// surfacing to a human reviewer, rather than silently resolved.
type MergeConflict struct {
	Field     string      `json:"field"`
	Winner    interface{} `json:"winner"`
	Runnerup  interface{} `json:"runner_up"`
	Severity  float64     `json:"severity"`
	SourceIDs []string    `json:"source_ids"`
}
