package service

import (
	"context"

	"github.com/kapu/competitor-intel-go/internal/domain"
	"github.com/kapu/competitor-intel-go/internal/prompt"
	"github.com/kapu/competitor-intel-go/pkg/errors"
	"go.uber.org/zap"
)

// NarrativeService turns resolved competitor records into the free-text report
// body. A single generation attempt against the primary provider; when a
// fallback provider is configured it is tried once after a primary failure.
// Callers must tolerate empty text.
type NarrativeService struct {
	primary  TextProvider
	fallback TextProvider
	logger   *zap.Logger
}

func NewNarrativeService(primary, fallback TextProvider, logger *zap.Logger) *NarrativeService {
	return &NarrativeService{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (n *NarrativeService) GenerateNarrative(ctx context.Context, records []*domain.CompetitorRecord, sections []string, format domain.ReportFormat) (string, error) {
	promptText, err := prompt.BuildReportPrompt(records, sections, format)
	if err != nil {
		return "", errors.NewServiceError("failed to build analysis prompt", "narrative", "build_prompt", err)
	}

	text, primaryErr := n.primary.Generate(ctx, promptText)
	if primaryErr == nil {
		n.logger.Info("Narrative generated",
			zap.String("provider", n.primary.Name()),
			zap.Int("length", len(text)),
		)
		return text, nil
	}

	if n.fallback == nil {
		return "", errors.NewServiceError("narrative generation failed", "narrative", "generate", primaryErr)
	}

	n.logger.Warn("Primary provider failed, trying fallback",
		zap.String("primary", n.primary.Name()),
		zap.String("fallback", n.fallback.Name()),
		zap.Error(primaryErr),
	)

	text, fallbackErr := n.fallback.Generate(ctx, promptText)
	if fallbackErr != nil {
		return "", errors.NewServiceError("narrative generation failed on both providers", "narrative", "generate", fallbackErr)
	}

	n.logger.Info("Narrative generated",
		zap.String("provider", n.fallback.Name()),
		zap.Bool("used_fallback", true),
		zap.Int("length", len(text)),
	)
	return text, nil
}
