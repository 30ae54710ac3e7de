package layout

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kapu/competitor-intel-go/internal/domain"
	"go.uber.org/zap"
)

func TestRenderProducesPDF(t *testing.T) {
	text := "Market Overview\nAcme leads the market.\nPricing\nUndercut on entry tiers."
	sections := []string{"Market Overview", "Pricing"}

	for _, format := range []domain.ReportFormat{domain.FormatDetailed, domain.FormatSummary, domain.FormatPresentation} {
		plan := BuildPlan(text, sections, format)
		data, err := Render(plan)
		if err != nil {
			t.Fatalf("%s: render failed: %v", format, err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			t.Fatalf("%s: output is not a PDF", format)
		}
		if len(data) < 500 {
			t.Fatalf("%s: implausibly small PDF (%d bytes)", format, len(data))
		}
	}
}

func TestEngineRejectsInvalidFormat(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	if _, err := engine.Layout("text", nil, domain.ReportFormat("xml")); err == nil {
		t.Fatalf("expected layout error for unrecognized format")
	}
}

func TestEngineLayoutEmptyNarrative(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	data, err := engine.Layout("", []string{"Market Overview"}, domain.FormatDetailed)
	if err != nil {
		t.Fatalf("empty narrative must still render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}

	// 15 padded pages leave 15 page objects in the document.
	if count := strings.Count(string(data), "/Type /Page"); count < minDetailedPages {
		t.Fatalf("expected at least %d page objects, found %d", minDetailedPages, count)
	}
}
