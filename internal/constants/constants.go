package constants

import "time"

const (
	CompetitorKeyPrefix = "competitor:"
	ReportFilename      = "competitor-analysis-report.pdf"
)

var CacheTTL = struct {
	Competitor time.Duration
	Robots     time.Duration
}{
	Competitor: 24 * time.Hour,
	Robots:     6 * time.Hour,
}

var ProgressMessages = struct {
	Competitor string // fmt template: index, total
	Analysis   string
	Document   string
	Complete   string
}{
	Competitor: "Processing competitor %d of %d",
	Analysis:   "Generating analysis",
	Document:   "Creating document",
	Complete:   "Report complete",
}

var JobLimits = struct {
	Retention time.Duration
}{
	Retention: 30 * time.Minute,
}
