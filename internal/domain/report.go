package domain

import "context"

type ReportFormat string

const (
	FormatDetailed     ReportFormat = "detailed"
	FormatSummary      ReportFormat = "summary"
	FormatPresentation ReportFormat = "presentation"
)

func (f ReportFormat) String() string {
	return string(f)
}

func (f ReportFormat) IsValid() bool {
	switch f {
	case FormatDetailed, FormatSummary, FormatPresentation:
		return true
	default:
		return false
	}
}

// ReportRequest describes one report generation run. Sections are ordered:
// the order scopes the analysis prompt and fixes document section order.
type ReportRequest struct {
	Competitors []string     `json:"competitors"`
	Sections    []string     `json:"reportSections"`
	Format      ReportFormat `json:"reportFormat"`
}

// CompetitorCache is the cache gateway the orchestrator depends on. Keys are
// unique per competitor identifier, so concurrent writers for different
// competitors never contend; same-key races are last-write-wins and harmless
// because the cached value is a pure function of the identifier.
type CompetitorCache interface {
	GetCompetitor(ctx context.Context, identifier string) (*CompetitorRecord, error)
	SetCompetitor(ctx context.Context, identifier string, record *CompetitorRecord) error
}

// CompetitorFetcher resolves one competitor identifier into a fresh record.
type CompetitorFetcher interface {
	FetchCompetitor(ctx context.Context, identifier string) (*CompetitorRecord, error)
}

// NarrativeGenerator produces the free-text report body. It is opaque: it may
// be slow and may return empty text, and the layout stage must tolerate both.
type NarrativeGenerator interface {
	GenerateNarrative(ctx context.Context, records []*CompetitorRecord, sections []string, format ReportFormat) (string, error)
}

// DocumentRenderer converts narrative text into the final paginated document.
type DocumentRenderer interface {
	Layout(text string, sections []string, format ReportFormat) ([]byte, error)
}
