package layout

import (
	"bytes"

	"github.com/go-pdf/fpdf"
	"github.com/kapu/competitor-intel-go/internal/domain"
	"github.com/kapu/competitor-intel-go/pkg/errors"
	"go.uber.org/zap"
)

// Render serializes a document plan to PDF bytes. All pagination decisions
// were made by the planner; this pass only draws.
func Render(plan *DocumentPlan) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle(DocumentTitle, true)
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(false, 0)

	// One link id per requested section; TOC entries point at it, the first
	// matching heading anchors it. Unmatched sections keep a dead link.
	links := make([]int, len(plan.Sections))
	for i := range plan.Sections {
		links[i] = pdf.AddLink()
	}
	anchored := make([]bool, len(plan.Sections))

	for pageIdx, page := range plan.Pages {
		pdf.AddPage()

		for _, block := range page.Blocks {
			switch block.Kind {
			case BlockTitle:
				pdf.SetFont("Helvetica", "B", 20)
				pdf.SetXY(Margin, block.Y)
				pdf.CellFormat(PageWidth-2*Margin, titleHeight, block.Text, "", 0, "CM", false, 0, "")

			case BlockTOCTitle:
				pdf.SetFont("Helvetica", "B", 16)
				pdf.SetXY(Margin, block.Y)
				pdf.CellFormat(PageWidth-2*Margin, tocTitleHeight, block.Text, "", 0, "LM", false, 0, "")

			case BlockTOCEntry:
				pdf.SetFont("Helvetica", "", 12)
				pdf.SetTextColor(0, 0, 200)
				pdf.SetXY(Margin+10, block.Y)
				pdf.CellFormat(PageWidth-2*Margin-10, tocEntryHeight, block.Text, "", 0, "LM", false, links[block.Section], "")
				pdf.SetTextColor(0, 0, 0)

			case BlockHeading:
				pdf.SetFont("Helvetica", "B", 16)
				pdf.SetXY(Margin, block.Y)
				pdf.CellFormat(PageWidth-2*Margin, headingHeight, block.Text, "", 0, "LM", false, 0, "")
				if block.Section >= 0 && block.Section < len(anchored) && !anchored[block.Section] {
					pdf.SetLink(links[block.Section], block.Y, pageIdx+1)
					anchored[block.Section] = true
				}

			case BlockBody:
				pdf.SetFont("Helvetica", "", 11)
				pdf.SetXY(Margin, block.Y)
				pdf.CellFormat(PageWidth-2*Margin, bodyHeight, block.Text, "", 0, "LM", false, 0, "")
			}
		}

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(Margin, PageHeight-footerOffset)
		pdf.CellFormat(PageWidth-2*Margin, 12, page.Footer, "", 0, "CM", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.NewLayoutError("PDF serialization failed", "render", err)
	}

	return buf.Bytes(), nil
}

// Engine is the document layout engine: narrative text in, paginated PDF out.
type Engine struct {
	logger *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

func (e *Engine) Layout(text string, sections []string, format domain.ReportFormat) ([]byte, error) {
	if !format.IsValid() {
		// A bad format reaching this stage is a programming error: the
		// orchestrator validates requests before any work starts.
		return nil, errors.NewLayoutError("unrecognized report format", "plan", nil)
	}

	plan := BuildPlan(text, sections, format)
	data, err := Render(plan)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Document rendered",
		zap.String("format", format.String()),
		zap.Int("pages", len(plan.Pages)),
		zap.Int("bytes", len(data)),
	)

	return data, nil
}
