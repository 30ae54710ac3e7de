package layout

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kapu/competitor-intel-go/internal/domain"
)

func blocksOfKind(plan *DocumentPlan, kind BlockKind) []Block {
	var result []Block
	for _, page := range plan.Pages {
		for _, block := range page.Blocks {
			if block.Kind == kind {
				result = append(result, block)
			}
		}
	}
	return result
}

func TestEmptyTextDetailedPadsToFifteenPages(t *testing.T) {
	plan := BuildPlan("", []string{"Market Overview"}, domain.FormatDetailed)

	if len(plan.Pages) != minDetailedPages {
		t.Fatalf("expected %d pages, got %d", minDetailedPages, len(plan.Pages))
	}

	titles := blocksOfKind(plan, BlockTitle)
	if len(titles) != 1 || titles[0].Text != DocumentTitle {
		t.Fatalf("expected a single title block, got %v", titles)
	}

	// Padding pages carry nothing but their footer.
	for i := 1; i < len(plan.Pages); i++ {
		if len(plan.Pages[i].Blocks) != 0 {
			t.Fatalf("expected page %d to be blank, got %d blocks", i+1, len(plan.Pages[i].Blocks))
		}
	}
}

func TestEmptyTextSummaryIsSinglePage(t *testing.T) {
	plan := BuildPlan("", []string{"Market Overview"}, domain.FormatSummary)

	if len(plan.Pages) != 1 {
		t.Fatalf("expected 1 page without floor padding, got %d", len(plan.Pages))
	}
}

func TestEmptyTextLaysOutNoBodyBlocks(t *testing.T) {
	plan := BuildPlan("", []string{"Market Overview"}, domain.FormatSummary)

	if bodies := blocksOfKind(plan, BlockBody); len(bodies) != 0 {
		t.Fatalf("empty text must not produce body blocks, got %d", len(bodies))
	}
	if headings := blocksOfKind(plan, BlockHeading); len(headings) != 0 {
		t.Fatalf("empty text must not produce headings, got %d", len(headings))
	}
}

func TestFootersAreConsistentAfterPadding(t *testing.T) {
	plan := BuildPlan("body line", []string{"Section A"}, domain.FormatDetailed)

	total := len(plan.Pages)
	if total < minDetailedPages {
		t.Fatalf("expected at least %d pages, got %d", minDetailedPages, total)
	}
	for i, page := range plan.Pages {
		want := fmt.Sprintf("Page %d of %d", i+1, total)
		if page.Footer != want {
			t.Fatalf("page %d footer = %q, want %q", i+1, page.Footer, want)
		}
	}
}

func TestTOCMatchesRequestedSections(t *testing.T) {
	sections := []string{"Market Overview", "SWOT Analysis", "Pricing"}

	for _, format := range []domain.ReportFormat{domain.FormatDetailed, domain.FormatSummary} {
		plan := BuildPlan("", sections, format)
		entries := blocksOfKind(plan, BlockTOCEntry)
		if len(entries) != len(sections) {
			t.Fatalf("%s: expected %d TOC entries, got %d", format, len(sections), len(entries))
		}
		for i, entry := range entries {
			if entry.Text != sections[i] || entry.Section != i {
				t.Fatalf("%s: TOC entry %d = %+v, want %q at index %d", format, i, entry, sections[i], i)
			}
		}
	}

	plan := BuildPlan("", sections, domain.FormatPresentation)
	if entries := blocksOfKind(plan, BlockTOCEntry); len(entries) != 0 {
		t.Fatalf("presentation format must not render a TOC, got %d entries", len(entries))
	}
	if titles := blocksOfKind(plan, BlockTOCTitle); len(titles) != 0 {
		t.Fatalf("presentation format must not render a TOC heading")
	}
}

// Section detection uses one symmetric containment rule for both the heading
// style and the anchor index. This deliberately replaces the original
// behavior, where the two lookups checked containment in different directions
// and could disagree when section names overlap textually.
func TestSectionMatchingIsSymmetricAndOrderStable(t *testing.T) {
	sections := []string{"Market Overview", "Market"}
	text := strings.Join([]string{
		"Market Overview",  // contains sections[1], contained by sections[0]: index 0 wins
		"intro line",
		"market",           // substring of both: first match in requested order, index 0
		"Market Expansion", // contains sections[1] only: index 1
	}, "\n")

	plan := BuildPlan(text, sections, domain.FormatSummary)
	headings := blocksOfKind(plan, BlockHeading)

	if len(headings) != 3 {
		t.Fatalf("expected 3 headings, got %d: %v", len(headings), headings)
	}
	if headings[0].Section != 0 || headings[1].Section != 0 || headings[2].Section != 1 {
		t.Fatalf("unexpected anchor indices: %v", headings)
	}
}

func TestEmptyLinesNeverMatchSections(t *testing.T) {
	plan := BuildPlan("\n\n", []string{"Market Overview"}, domain.FormatSummary)

	if headings := blocksOfKind(plan, BlockHeading); len(headings) != 0 {
		t.Fatalf("empty lines must not become headings, got %v", headings)
	}
	if bodies := blocksOfKind(plan, BlockBody); len(bodies) != 3 {
		t.Fatalf("expected 3 blank body lines, got %d", len(bodies))
	}
}

func TestBodyLinesBeforeFirstHeadingHaveNoSection(t *testing.T) {
	text := "orphan line\nMarket Overview\nowned line"
	plan := BuildPlan(text, []string{"Market Overview"}, domain.FormatSummary)

	bodies := blocksOfKind(plan, BlockBody)
	if len(bodies) != 2 {
		t.Fatalf("expected 2 body lines, got %d", len(bodies))
	}
	for _, body := range bodies {
		if body.Section != -1 {
			t.Fatalf("body lines must not carry a section index, got %+v", body)
		}
	}
}

func TestPresentationBodyLinesGetBullets(t *testing.T) {
	text := "Market Overview\nfirst point\n\nsecond point"
	plan := BuildPlan(text, []string{"Market Overview"}, domain.FormatPresentation)

	bodies := blocksOfKind(plan, BlockBody)
	if len(bodies) != 3 {
		t.Fatalf("expected 3 body blocks, got %d", len(bodies))
	}
	if !strings.HasPrefix(bodies[0].Text, bulletGlyph) || !strings.HasPrefix(bodies[2].Text, bulletGlyph) {
		t.Fatalf("non-empty presentation lines must be bulleted: %v", bodies)
	}
	if bodies[1].Text != "" {
		t.Fatalf("blank lines must not get a bullet, got %q", bodies[1].Text)
	}

	headings := blocksOfKind(plan, BlockHeading)
	if len(headings) != 1 || strings.HasPrefix(headings[0].Text, bulletGlyph) {
		t.Fatalf("headings must not be bulleted: %v", headings)
	}
}

func TestLongTextBreaksAcrossPages(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, fmt.Sprintf("body line %d", i))
	}
	plan := BuildPlan(strings.Join(lines, "\n"), nil, domain.FormatSummary)

	if len(plan.Pages) < 2 {
		t.Fatalf("expected 200 body lines to overflow one page, got %d pages", len(plan.Pages))
	}

	bodies := blocksOfKind(plan, BlockBody)
	if len(bodies) != 200 {
		t.Fatalf("expected every line to be laid out, got %d", len(bodies))
	}

	for pageIdx, page := range plan.Pages {
		for _, block := range page.Blocks {
			if block.Y < Margin || block.Y > Margin+ContentHeight {
				t.Fatalf("page %d block outside content area: %+v", pageIdx+1, block)
			}
		}
	}

	// Every page break resets the cursor to the top margin.
	for i := 1; i < len(plan.Pages); i++ {
		if len(plan.Pages[i].Blocks) == 0 {
			t.Fatalf("unexpected blank page %d in summary format", i+1)
		}
		if first := plan.Pages[i].Blocks[0]; first.Y != Margin {
			t.Fatalf("page %d first block at Y=%v, want top margin", i+1, first.Y)
		}
	}
}

func TestHeadingReservesSpaceBeforeWriting(t *testing.T) {
	// Presentation: title consumes 40 units, then 34 body lines bring the
	// cursor to 702 of 742. A body line still fits (needs 20) but a heading
	// needs 100, so it must open page 2.
	var lines []string
	for i := 0; i < 34; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	lines = append(lines, "Competitive Landscape")

	plan := BuildPlan(strings.Join(lines, "\n"), []string{"Competitive Landscape"}, domain.FormatPresentation)

	if len(plan.Pages) != 2 {
		t.Fatalf("expected heading to start page 2, got %d pages", len(plan.Pages))
	}
	heading := plan.Pages[1].Blocks[0]
	if heading.Kind != BlockHeading || heading.Y != Margin {
		t.Fatalf("expected heading at top of page 2, got %+v", heading)
	}
}

func TestDetailedLongTextExceedsFloorWithoutPadding(t *testing.T) {
	var lines []string
	for i := 0; i < 700; i++ {
		lines = append(lines, fmt.Sprintf("body line %d", i))
	}
	plan := BuildPlan(strings.Join(lines, "\n"), nil, domain.FormatDetailed)

	if len(plan.Pages) <= minDetailedPages {
		t.Fatalf("expected content to exceed the floor, got %d pages", len(plan.Pages))
	}
	last := plan.Pages[len(plan.Pages)-1]
	if len(last.Blocks) == 0 {
		t.Fatalf("no padding pages expected when content exceeds the floor")
	}
}
