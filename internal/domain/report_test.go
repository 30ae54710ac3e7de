package domain

import (
	"encoding/json"
	"testing"
)

func TestReportFormatIsValid(t *testing.T) {
	valid := []ReportFormat{FormatDetailed, FormatSummary, FormatPresentation}
	for _, f := range valid {
		if !f.IsValid() {
			t.Fatalf("expected %q to be valid", f)
		}
	}

	invalid := []ReportFormat{"", "xml", "Detailed", "pdf"}
	for _, f := range invalid {
		if f.IsValid() {
			t.Fatalf("expected %q to be invalid", f)
		}
	}
}

func TestNewCompetitorRecordHasNoNilSlices(t *testing.T) {
	record := NewCompetitorRecord("acme")

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	for _, field := range []string{"products", "product_descriptions", "prices", "social_links", "headlines", "features", "images"} {
		if decoded[field] == nil {
			t.Fatalf("field %q serialized as null, want empty list", field)
		}
	}
}

func TestNormalizeRepairsNilSlices(t *testing.T) {
	record := &CompetitorRecord{Name: "acme"}
	record.Normalize()

	if record.Products == nil || record.Images == nil || record.Features == nil {
		t.Fatalf("Normalize left nil slices: %+v", record)
	}
}
