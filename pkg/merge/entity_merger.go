package merge

import (
	"sort"

	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
	"github.com/LarjGit/edinburgh-finds-core/pkg/slug"
)

// SourceRecord is one source's contribution to an entity being merged:
// its attributes/modules, plus the trust/confidence provenance needed by
// the field merger.
type SourceRecord struct {
	RecordID        string
	SourceID        string
	Trust           float64
	Confidence      float64
	Attributes      map[string]interface{}
	DiscoveredAttrs map[string]interface{}
	Modules         map[string]interface{}
	ExternalIDs     map[string]string
}

// FieldGroups maps a field name to its merge strategy. Fields absent from
// the map use GroupDefault.
type FieldGroups map[string]Group

// EntityMerger merges a set of SourceRecords believed to describe the same
// entity into a single CanonicalEntity, with full field-level provenance.
type EntityMerger struct {
	fieldMerger *FieldMerger
	groups      FieldGroups
	conflicts   *ConflictDetector
}

// NewEntityMerger builds an EntityMerger using the given field-group
// mapping and conflict-detection threshold.
func NewEntityMerger(groups FieldGroups, conflictThreshold float64) *EntityMerger {
	return &EntityMerger{
		fieldMerger: NewFieldMerger(),
		groups:      groups,
		conflicts:   NewConflictDetector(conflictThreshold),
	}
}

// Merge combines records into a CanonicalEntity. A single record
// short-circuits to the identity shape (spec §4.11 step 2): every
// provenance map gets one entry pointing at the sole source, confidence
// 1.0 throughout. Otherwise records are sorted first by trust
// descending, source ID ascending, record ID ascending, so the same set
// of records always merges to the same output regardless of the order
// the caller discovered them in (permutation independence, spec §8).
func (m *EntityMerger) Merge(records []SourceRecord) domain.CanonicalEntity {
	if len(records) == 0 {
		return domain.CanonicalEntity{SourceInfo: map[string]interface{}{}, FieldConfidence: map[string]float64{}}
	}
	if len(records) == 1 {
		return m.mergeSingle(records[0])
	}

	sorted := make([]SourceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Trust != b.Trust {
			return a.Trust > b.Trust
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.RecordID < b.RecordID
	})

	fieldNames := collectFieldNames(sorted, func(r SourceRecord) map[string]interface{} { return r.Attributes })
	moduleNames := collectFieldNames(sorted, func(r SourceRecord) map[string]interface{} { return r.Modules })
	discoveredNames := collectFieldNames(sorted, func(r SourceRecord) map[string]interface{} { return r.DiscoveredAttrs })

	attributes := make(map[string]interface{})
	sourceInfo := make(map[string]interface{})
	confidence := make(map[string]float64)
	var allConflicts []domain.MergeConflict

	for _, field := range fieldNames {
		values := fieldValuesFor(sorted, field, func(r SourceRecord) map[string]interface{} { return r.Attributes })
		group := m.groups[field]
		if group == "" {
			group = GroupDefault
		}

		winner, agreement, source := m.fieldMerger.Merge(group, values)
		attributes[field] = winner
		confidence[field] = agreement
		sourceInfo[field] = source

		if conflict, ok := m.conflicts.Detect(field, values); ok {
			allConflicts = append(allConflicts, conflict)
		}
	}

	modules := make(map[string]interface{})
	for _, field := range moduleNames {
		values := fieldValuesFor(sorted, field, func(r SourceRecord) map[string]interface{} { return r.Modules })
		winner, agreement, source := m.fieldMerger.Merge(GroupModules, values)
		modules[field] = winner
		confidence["modules."+field] = agreement
		sourceInfo["modules."+field] = source
	}

	discovered := make(map[string]interface{})
	for _, field := range discoveredNames {
		values := fieldValuesFor(sorted, field, func(r SourceRecord) map[string]interface{} { return r.DiscoveredAttrs })
		winner, agreement, source := m.fieldMerger.Merge(GroupModules, values)
		discovered[field] = winner
		confidence["discovered."+field] = agreement
		sourceInfo["discovered."+field] = source
	}

	externalIDs := make(map[string]string)
	for _, r := range sorted {
		for k, v := range r.ExternalIDs {
			if _, exists := externalIDs[k]; !exists {
				externalIDs[k] = v
			}
		}
	}

	entityClassValues := fieldValuesFor(sorted, "entity_class", func(r SourceRecord) map[string]interface{} { return r.Attributes })
	entityClass, _, _ := m.fieldMerger.Merge(GroupDefault, entityClassValues)
	entityClassStr, _ := entityClass.(string)
	delete(attributes, "entity_class")
	delete(confidence, "entity_class")
	delete(sourceInfo, "entity_class")

	name, _ := attributes["name"].(string)
	if name == "" {
		name, _ = attributes["entity_name"].(string)
	}

	return domain.CanonicalEntity{
		Slug:            slug.Generate(name),
		Name:            name,
		EntityClass:     entityClassStr,
		Attributes:      attributes,
		DiscoveredAttrs: discovered,
		Modules:         modules,
		ExternalIDs:     externalIDs,
		SourceInfo:      sourceInfo,
		FieldConfidence: confidence,
		SourceCount:     len(sorted),
		Conflicts:       allConflicts,
	}
}

// mergeSingle formats a single source's record into canonical shape
// without invoking the field merger (spec §4.11 step 2).
func (m *EntityMerger) mergeSingle(r SourceRecord) domain.CanonicalEntity {
	attributes := make(map[string]interface{}, len(r.Attributes))
	sourceInfo := make(map[string]interface{}, len(r.Attributes))
	confidence := make(map[string]float64, len(r.Attributes))
	for field, v := range r.Attributes {
		if field == "entity_class" {
			continue
		}
		attributes[field] = v
		sourceInfo[field] = r.SourceID
		confidence[field] = 1.0
	}

	modules := make(map[string]interface{}, len(r.Modules))
	for field, v := range r.Modules {
		modules[field] = v
		sourceInfo["modules."+field] = r.SourceID
		confidence["modules."+field] = 1.0
	}

	discovered := make(map[string]interface{}, len(r.DiscoveredAttrs))
	for field, v := range r.DiscoveredAttrs {
		discovered[field] = v
		sourceInfo["discovered."+field] = r.SourceID
		confidence["discovered."+field] = 1.0
	}

	externalIDs := make(map[string]string, len(r.ExternalIDs))
	for k, v := range r.ExternalIDs {
		externalIDs[k] = v
	}

	entityClass, _ := r.Attributes["entity_class"].(string)
	name, _ := r.Attributes["name"].(string)
	if name == "" {
		name, _ = r.Attributes["entity_name"].(string)
	}

	return domain.CanonicalEntity{
		Slug:            slug.Generate(name),
		Name:            name,
		EntityClass:     entityClass,
		Attributes:      attributes,
		DiscoveredAttrs: discovered,
		Modules:         modules,
		ExternalIDs:     externalIDs,
		SourceInfo:      sourceInfo,
		FieldConfidence: confidence,
		SourceCount:     1,
	}
}

func collectFieldNames(records []SourceRecord, get func(SourceRecord) map[string]interface{}) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, r := range records {
		for k := range get(r) {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names
}

func fieldValuesFor(records []SourceRecord, field string, get func(SourceRecord) map[string]interface{}) []domain.FieldValue {
	values := make([]domain.FieldValue, 0, len(records))
	for _, r := range records {
		m := get(r)
		v, ok := m[field]
		if !ok {
			v = nil
		}
		values = append(values, domain.FieldValue{
			Value:      v,
			SourceID:   r.SourceID,
			Trust:      r.Trust,
			Confidence: r.Confidence,
		})
	}
	return values
}

