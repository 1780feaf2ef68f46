package merge

import (
	"testing"

	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
)

func TestIsMissing(t *testing.T) {
	missing := []interface{}{nil, "", "   ", "N/A", "n/a", "-", "—"}
	for _, v := range missing {
		if !IsMissing(v) {
			t.Errorf("expected %#v to be missing", v)
		}
	}

	present := []interface{}{0, false, "0", []interface{}{}, "real value"}
	for _, v := range present {
		if IsMissing(v) {
			t.Errorf("expected %#v to be present", v)
		}
	}
}

func TestMergeCanonicalArrayUnionAndDedup(t *testing.T) {
	values := []domain.FieldValue{
		{Value: []interface{}{"wheelchair access", "parking"}, SourceID: "a", Trust: 90},
		{Value: []interface{}{"parking", "wifi"}, SourceID: "b", Trust: 80},
	}
	merger := NewFieldMerger()
	winner, agreement, source := merger.Merge(GroupCanonicalArray, values)

	arr, ok := winner.([]interface{})
	if !ok || len(arr) != 3 {
		t.Fatalf("expected 3-element union, got %#v", winner)
	}
	if agreement != 1.0 {
		t.Fatalf("expected full agreement since both sources contributed, got %v", agreement)
	}
	if source != "merged" {
		t.Fatalf("expected canonical-array merge to report source %q, got %q", "merged", source)
	}
}

func TestMergeCanonicalArrayLowercasesBeforeDedup(t *testing.T) {
	values := []domain.FieldValue{
		{Value: []interface{}{"Padel", " tennis "}, SourceID: "a", Trust: 90},
		{Value: []interface{}{"padel ", "PADEL", "squash"}, SourceID: "b", Trust: 80},
	}
	winner, _, _ := NewFieldMerger().Merge(GroupCanonicalArray, values)

	arr, ok := winner.([]interface{})
	if !ok {
		t.Fatalf("expected []interface{}, got %#v", winner)
	}
	got := make([]string, len(arr))
	for i, v := range arr {
		got[i] = v.(string)
	}
	want := []string{"padel", "squash", "tennis"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestMergeNarrativeLongestWins(t *testing.T) {
	values := []domain.FieldValue{
		{Value: "Short.", SourceID: "a", Trust: 90},
		{Value: "A much longer and more descriptive narrative entry.", SourceID: "b", Trust: 10},
	}
	winner, _, source := NewFieldMerger().Merge(GroupNarrative, values)
	if winner != "A much longer and more descriptive narrative entry." {
		t.Fatalf("expected longest text to win regardless of trust, got %v", winner)
	}
	if source != "b" {
		t.Fatalf("expected source_info to name the winning source %q, got %q", "b", source)
	}
}

func TestMergeDefaultMissingnessAndTrust(t *testing.T) {
	values := []domain.FieldValue{
		{Value: nil, SourceID: "a", Trust: 95},
		{Value: "real value", SourceID: "b", Trust: 10},
	}
	winner, _, source := NewFieldMerger().Merge(GroupDefault, values)
	if winner != "real value" {
		t.Fatalf("expected missing value from higher-trust source to be skipped, got %v", winner)
	}
	if source != "b" {
		t.Fatalf("expected source_info to name the winning source %q, got %q", "b", source)
	}
}

func TestConflictDetectorReportsCloseTrust(t *testing.T) {
	values := []domain.FieldValue{
		{Value: "yes", SourceID: "a", Trust: 80},
		{Value: "no", SourceID: "b", Trust: 72},
	}
	detector := NewConflictDetector(15)
	conflict, ok := detector.Detect("open_now", values)
	if !ok {
		t.Fatal("expected conflict to be reported for an 8-point trust gap under a 15-point threshold")
	}
	if conflict.Severity <= 0 || conflict.Severity > 1 {
		t.Fatalf("expected severity in (0,1], got %v", conflict.Severity)
	}
}

func TestConflictDetectorSkipsWideTrustGap(t *testing.T) {
	values := []domain.FieldValue{
		{Value: "yes", SourceID: "a", Trust: 95},
		{Value: "no", SourceID: "b", Trust: 10},
	}
	detector := NewConflictDetector(15)
	if _, ok := detector.Detect("open_now", values); ok {
		t.Fatal("expected no conflict for a trust gap beyond the threshold")
	}
}

func TestEntityMergerPermutationIndependence(t *testing.T) {
	recA := SourceRecord{RecordID: "r1", SourceID: "src-a", Trust: 90, Confidence: 1,
		Attributes: map[string]interface{}{"name": "The Vault", "phone": "123"}}
	recB := SourceRecord{RecordID: "r2", SourceID: "src-b", Trust: 60, Confidence: 1,
		Attributes: map[string]interface{}{"name": "The Vault", "phone": nil}}

	merger := NewEntityMerger(FieldGroups{}, DefaultConflictThreshold)

	resultForward := merger.Merge([]SourceRecord{recA, recB})
	resultBackward := merger.Merge([]SourceRecord{recB, recA})

	if resultForward.Attributes["phone"] != resultBackward.Attributes["phone"] {
		t.Fatalf("expected merge to be permutation-independent: %v vs %v",
			resultForward.Attributes["phone"], resultBackward.Attributes["phone"])
	}
	if resultForward.Attributes["phone"] != "123" {
		t.Fatalf("expected non-missing phone to win, got %v", resultForward.Attributes["phone"])
	}
	if resultForward.SourceInfo["phone"] != "src-a" {
		t.Fatalf("expected source_info to name the winning connector %q, got %v", "src-a", resultForward.SourceInfo["phone"])
	}
}
