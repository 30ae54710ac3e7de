package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/kapu/competitor-intel-go/internal/domain"
)

//go:embed templates/report.tmpl
var reportTemplateText string

var reportTemplate = template.Must(template.New("report").Parse(reportTemplateText))

type reportPromptData struct {
	Sections    []string
	Competitors []competitorSummary
	Style       string
}

type competitorSummary struct {
	Name                string
	Products            string
	ProductDescriptions string
	Prices              string
	Headlines           string
	Features            string
	SocialLinks         string
	Contact             string
	ImageNotes          string
}

// BuildReportPrompt renders the analysis prompt for the narrative model. The
// prompt asks the model to open every section with a line carrying the exact
// section title, which is what the layout stage keys its headings on.
func BuildReportPrompt(records []*domain.CompetitorRecord, sections []string, format domain.ReportFormat) (string, error) {
	data := reportPromptData{
		Sections: sections,
		Style:    styleInstruction(format),
	}

	for _, record := range records {
		if record == nil {
			continue
		}
		data.Competitors = append(data.Competitors, summarize(record))
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report prompt: %w", err)
	}

	return buf.String(), nil
}

func styleInstruction(format domain.ReportFormat) string {
	switch format {
	case domain.FormatDetailed:
		return "Write a thorough, in-depth analysis with several paragraphs per section."
	case domain.FormatSummary:
		return "Write a concise executive summary: a few short paragraphs per section."
	case domain.FormatPresentation:
		return "Write short, punchy standalone lines suitable for presentation slides."
	default:
		return "Write a clear, structured analysis."
	}
}

func summarize(record *domain.CompetitorRecord) competitorSummary {
	var imageNotes []string
	for _, img := range record.Images {
		note := img.DetectedText
		if len(img.Logos) > 0 {
			note = fmt.Sprintf("%s (logo: %s)", note, strings.Join(img.Logos, ", "))
		}
		if note != "" {
			imageNotes = append(imageNotes, note)
		}
	}

	return competitorSummary{
		Name:                record.Name,
		Products:            strings.Join(record.Products, "; "),
		ProductDescriptions: strings.Join(record.ProductDescriptions, "; "),
		Prices:              strings.Join(record.Prices, "; "),
		Headlines:           strings.Join(record.Headlines, "; "),
		Features:            strings.Join(record.Features, "; "),
		SocialLinks:         strings.Join(record.SocialLinks, "; "),
		Contact:             record.Contact,
		ImageNotes:          strings.Join(imageNotes, "; "),
	}
}
