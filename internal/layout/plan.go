package layout

import (
	"fmt"
	"strings"

	"github.com/kapu/competitor-intel-go/internal/domain"
	"github.com/kapu/competitor-intel-go/internal/util"
)

// Page geometry in points (US Letter, portrait).
const (
	PageWidth     = 612.0
	PageHeight    = 792.0
	Margin        = 50.0
	ContentHeight = PageHeight - 2*Margin

	titleHeight    = 40.0
	tocTitleHeight = 30.0
	tocEntryHeight = 20.0
	headingHeight  = 30.0
	bodyHeight     = 18.0

	// Minimum space that must remain on the page before the unit is written.
	headingMinSpace = 100.0
	bodyMinSpace    = 20.0

	footerOffset = 30.0 // footer baseline distance from the bottom edge

	minDetailedPages = 15
)

const (
	DocumentTitle = "Competitive Intelligence Report"
	tocHeading    = "Table of Contents"
	bulletGlyph   = "• "
)

type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockTOCTitle
	BlockTOCEntry
	BlockHeading
	BlockBody
)

// Block is one laid-out unit. Section is the index into the requested section
// list for TOC entries (link source) and headings (anchor target); -1 for
// everything else.
type Block struct {
	Kind    BlockKind
	Text    string
	Section int
	Y       float64
}

type Page struct {
	Blocks []Block
	Footer string
}

// DocumentPlan is the complete page layout computed before any PDF bytes are
// produced. It is deterministic in its inputs, which is what the layout tests
// assert against.
type DocumentPlan struct {
	Pages    []Page
	Sections []string
	Format   domain.ReportFormat
}

type planner struct {
	plan   *DocumentPlan
	cursor float64
}

// BuildPlan lays the narrative text out across pages: title, optional table of
// contents, classified narrative lines, the detailed-format page floor, then a
// footer pass once the final page count is known.
func BuildPlan(text string, sections []string, format domain.ReportFormat) *DocumentPlan {
	p := &planner{
		plan: &DocumentPlan{
			Sections: sections,
			Format:   format,
		},
	}

	p.newPage()
	p.write(BlockTitle, DocumentTitle, -1, titleHeight)

	if format != domain.FormatPresentation {
		p.ensure(tocTitleHeight)
		p.write(BlockTOCTitle, tocHeading, -1, tocTitleHeight)
		for i, section := range sections {
			p.ensure(tocEntryHeight)
			p.write(BlockTOCEntry, section, i, tocEntryHeight)
		}
	}

	// An empty narrative contributes no body blocks at all; splitting ""
	// would still yield one empty line.
	if text != "" {
		for _, line := range strings.Split(text, "\n") {
			trimmed := strings.TrimSpace(line)

			if idx := matchSection(trimmed, sections); idx >= 0 {
				p.ensure(headingMinSpace)
				p.write(BlockHeading, trimmed, idx, headingHeight)
				continue
			}

			content := trimmed
			if format == domain.FormatPresentation && content != "" {
				content = bulletGlyph + content
			}
			p.ensure(bodyMinSpace)
			p.write(BlockBody, content, -1, bodyHeight)
		}
	}

	if format == domain.FormatDetailed {
		for len(p.plan.Pages) < minDetailedPages {
			p.newPage()
		}
	}

	// Footer pass: page count is final here, including padding.
	total := len(p.plan.Pages)
	for i := range p.plan.Pages {
		p.plan.Pages[i].Footer = fmt.Sprintf("Page %d of %d", i+1, total)
	}

	return p.plan
}

// matchSection classifies a line against the requested sections with a single
// symmetric rule: case-insensitive containment in either direction, first
// match in requested order wins. Empty lines never match. The same rule
// resolves both the heading style and the anchor/TOC index.
func matchSection(line string, sections []string) int {
	normalized := util.Normalize(line)
	if normalized == "" {
		return -1
	}

	for i, section := range sections {
		ns := util.Normalize(section)
		if ns == "" {
			continue
		}
		if strings.Contains(normalized, ns) || strings.Contains(ns, normalized) {
			return i
		}
	}

	return -1
}

func (p *planner) newPage() {
	p.plan.Pages = append(p.plan.Pages, Page{})
	p.cursor = Margin
}

// ensure starts a new page unless at least space layout units remain in the
// content area.
func (p *planner) ensure(space float64) {
	if p.cursor+space > Margin+ContentHeight {
		p.newPage()
	}
}

func (p *planner) write(kind BlockKind, text string, section int, height float64) {
	page := &p.plan.Pages[len(p.plan.Pages)-1]
	page.Blocks = append(page.Blocks, Block{
		Kind:    kind,
		Text:    text,
		Section: section,
		Y:       p.cursor,
	})
	p.cursor += height
}
