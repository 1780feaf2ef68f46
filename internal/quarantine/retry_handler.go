package quarantine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/LarjGit/edinburgh-finds-core/internal/extractors"
	"github.com/LarjGit/edinburgh-finds-core/internal/store"
	"github.com/LarjGit/edinburgh-finds-core/pkg/apperrors"
	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
	"github.com/LarjGit/edinburgh-finds-core/pkg/hashing"
)

// StandardRetryHandler builds the default RetryHandler: it reloads the
// quarantined item's RawCapture, re-runs the registered extractor for
// its source, and reports success only if every item extracted from
// that capture's payload succeeds (spec §4.7: "all-or-nothing success
// per RawCapture" — a single failing item keeps the whole capture
// quarantined).
func StandardRetryHandler(rawCaptures store.RawCaptureStore, extractedRecords store.ExtractedRecordStore, registry *extractors.Registry, variantFor func(source string) (string, map[string]interface{}), logger *logrus.Logger) RetryHandler {
	return func(ctx context.Context, item domain.FailedExtraction) (RetryOutcome, error) {
		rc, found, err := rawCaptures.Get(ctx, item.RawCaptureID)
		if err != nil || !found {
			return OutcomeUnknownFailure, apperrors.New(apperrors.CodeQuarantineNotFound, "quarantine", "StandardRetryHandler",
				"raw capture not found for quarantined item").WithMetadata("raw_capture_id", item.RawCaptureID)
		}

		variant, config := variantFor(item.Source)
		extractor, err := registry.Build(variant, config)
		if err != nil {
			return OutcomeUnknownFailure, err
		}

		items := itemsFromPayload(item.Source, rc.Payload)
		for _, payloadItem := range items {
			result, err := extractors.ExtractWithLogging(ctx, extractor, logger, "quarantine-retry", payloadItem)
			if err != nil {
				if retryable, ok := err.(*apperrors.RetryableError); ok {
					return OutcomeRetryableFailure, retryable
				}
				return OutcomeUnknownFailure, err
			}

			attributes, discovered := extractors.SplitAttributes(result.Record)

			extractionHash, hashErr := hashing.ExtractionHash(map[string]interface{}{
				"raw_capture_id": rc.ID,
				"attributes":     attributes,
				"discovered":     discovered,
				"external_id":    result.ExternalID,
			}, "", "")
			if hashErr != nil {
				return OutcomeUnknownFailure, hashErr
			}

			externalIDs := map[string]string{}
			if result.ExternalID != "" {
				externalIDs[item.Source+"_id"] = result.ExternalID
			}

			er := domain.ExtractedRecord{
				ID:              uuid.NewString(),
				RawCaptureID:    rc.ID,
				Source:          item.Source,
				ExternalIDs:     externalIDs,
				Attributes:      attributes,
				DiscoveredAttrs: discovered,
				RichText:        result.RichText,
				ExtractionHash:  extractionHash,
				ExtractedAt:     time.Now(),
			}
			if err := extractedRecords.Upsert(ctx, er); err != nil {
				return OutcomeUnknownFailure, err
			}
		}

		return OutcomeSucceeded, nil
	}
}

// itemsFromPayload unwraps a RawCapture payload's container key, the
// same convention the extraction runner uses (see
// internal/extraction.Runner): Google Places nests results under
// "places", Serper under "organic", feature collections under
// "features", other list payloads under "results"; anything else is a
// single-item payload.
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
