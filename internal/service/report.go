package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kapu/competitor-intel-go/internal/constants"
	"github.com/kapu/competitor-intel-go/internal/domain"
	"github.com/kapu/competitor-intel-go/internal/progress"
	"github.com/kapu/competitor-intel-go/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// ReportService sequences the pipeline: resolve competitors through the cache,
// generate the narrative, lay out the document. Stage transitions are pushed
// to the progress sink; a successful run emits exactly N+3 events.
type ReportService struct {
	cache       domain.CompetitorCache
	fetcher     domain.CompetitorFetcher
	narrative   domain.NarrativeGenerator
	renderer    domain.DocumentRenderer
	logger      *zap.Logger
	concurrency int
}

func NewReportService(
	cache domain.CompetitorCache,
	fetcher domain.CompetitorFetcher,
	narrative domain.NarrativeGenerator,
	renderer domain.DocumentRenderer,
	concurrency int,
	logger *zap.Logger,
) *ReportService {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &ReportService{
		cache:       cache,
		fetcher:     fetcher,
		narrative:   narrative,
		renderer:    renderer,
		logger:      logger,
		concurrency: concurrency,
	}
}

// GenerateReport runs one request end to end. Validation happens before the
// first event is published. Any stage failure fails the whole request; there
// is no partial report.
func (r *ReportService) GenerateReport(ctx context.Context, req domain.ReportRequest, sink progress.Sink) ([]byte, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	total := len(req.Competitors)
	records := make([]*domain.CompetitorRecord, total)

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(r.concurrency)
	for i, identifier := range req.Competitors {
		// Published synchronously before dispatch so event order follows the
		// competitor list regardless of resolution completion order.
		_ = sink.Publish(ctx, fmt.Sprintf(constants.ProgressMessages.Competitor, i+1, total))

		i, identifier := i, identifier
		p.Go(func(ctx context.Context) error {
			record, err := r.resolveCompetitor(ctx, identifier)
			if err != nil {
				return fmt.Errorf("competitor %q: %w", identifier, err)
			}
			records[i] = record
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		r.logger.Error("Competitor resolution failed", zap.Error(err))
		return nil, errors.NewServiceError("competitor resolution failed", "report", "resolve", err)
	}

	_ = sink.Publish(ctx, constants.ProgressMessages.Analysis)
	text, err := r.narrative.GenerateNarrative(ctx, records, req.Sections, req.Format)
	if err != nil {
		r.logger.Error("Narrative generation failed", zap.Error(err))
		return nil, err
	}

	_ = sink.Publish(ctx, constants.ProgressMessages.Document)
	document, err := r.renderer.Layout(text, req.Sections, req.Format)
	if err != nil {
		r.logger.Error("Document layout failed", zap.Error(err))
		return nil, err
	}

	_ = sink.Publish(ctx, constants.ProgressMessages.Complete)

	r.logger.Info("Report generated",
		zap.Int("competitors", total),
		zap.String("format", req.Format.String()),
		zap.Int("bytes", len(document)),
	)

	return document, nil
}

// resolveCompetitor is cache-first: a hit short-circuits the scraper entirely
// and does not re-write the cache; a miss fetches fresh and stores the result.
func (r *ReportService) resolveCompetitor(ctx context.Context, identifier string) (*domain.CompetitorRecord, error) {
	cached, err := r.cache.GetCompetitor(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		r.logger.Debug("Competitor resolved from cache", zap.String("identifier", identifier))
		return cached, nil
	}

	record, err := r.fetcher.FetchCompetitor(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetCompetitor(ctx, identifier, record); err != nil {
		return nil, err
	}

	return record, nil
}

// ValidateRequest checks a request before any pipeline work or progress
// channel is opened. Exported so the transport layer can reject bad requests
// with a 4xx before creating a job.
func ValidateRequest(req domain.ReportRequest) error {
	if len(req.Competitors) == 0 {
		return errors.NewValidationError("competitors must not be empty", "competitors", req.Competitors)
	}
	for _, identifier := range req.Competitors {
		if strings.TrimSpace(identifier) == "" {
			return errors.NewValidationError("competitor identifiers must be non-empty", "competitors", identifier)
		}
	}
	if !req.Format.IsValid() {
		return errors.NewValidationError("unrecognized report format", "reportFormat", req.Format.String())
	}
	return nil
}
