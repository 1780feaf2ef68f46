// Package structuredlog implements the Structured Logger Contract (C15):
// a thin helper over logrus fields that fixes the named-field vocabulary
// every pipeline stage logs with, so log lines stay greppable across
// components instead of drifting field names.
package structuredlog

import "github.com/sirupsen/logrus"

// Fields is the set of field names every pipeline-stage log entry should
// populate when applicable, matching the vocabulary the original
// extraction/quarantine/finalize stages used.
const (
	FieldRunID        = "run_id"
	FieldStage        = "stage"
	FieldSource       = "source"
	FieldRawCaptureID = "raw_capture_id"
	FieldRecordID     = "record_id"
	FieldEntitySlug   = "entity_slug"
	FieldDurationMS   = "duration_ms"
	FieldRetryCount   = "retry_count"
	FieldErrorType    = "error_type"
)

// ForStage returns a logger pre-populated with the run and stage fields,
// the way every component constructor expects its injected *logrus.Logger
// to already carry request-scoped context in the teacher's pattern.
func ForStage(logger *logrus.Logger, runID, stage string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		FieldRunID: runID,
		FieldStage: stage,
	})
}

// WithSource adds the source field to an existing entry.
func WithSource(entry *logrus.Entry, source string) *logrus.Entry {
	return entry.WithField(FieldSource, source)
}

// WithRecord adds raw-capture and record identifiers to an existing entry.
func WithRecord(entry *logrus.Entry, rawCaptureID, recordID string) *logrus.Entry {
	return entry.WithFields(logrus.Fields{
		FieldRawCaptureID: rawCaptureID,
		FieldRecordID:     recordID,
	})
}
