package ai

import (
	"context"

	"github.com/rs/zerolog"
)

// Fallback decorators keep capability failures at the capability boundary:
// when the primary backend errors, the stand-in result is substituted and the
// caller never sees the failure. The verification pipeline relies on this so
// that "step error" stays reserved for genuine evaluator faults.

type analyzerWithFallback struct {
	primary  ImageAnalyzer
	fallback ImageAnalyzer
	logger   zerolog.Logger
}

// WithAnalyzerFallback wraps primary so that errors fall back to the given
// stand-in analyzer.
func WithAnalyzerFallback(primary, fallback ImageAnalyzer, logger zerolog.Logger) ImageAnalyzer {
	return &analyzerWithFallback{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With().Str("component", "ai_fallback").Logger(),
	}
}

func (a *analyzerWithFallback) AnalyzeImage(ctx context.Context, input AnalysisInput) (AnalysisResult, error) {
	result, err := a.primary.AnalyzeImage(ctx, input)
	if err == nil {
		return result, nil
	}

	a.logger.Warn().Err(err).Str("image_url", input.ImageURL).Msg("image analysis backend failed, using fallback")
	return a.fallback.AnalyzeImage(ctx, input)
}

type moderatorWithFallback struct {
	primary  ContentModerator
	fallback ContentModerator
	logger   zerolog.Logger
}

// WithModeratorFallback wraps primary so that errors fall back to the given
// stand-in moderator.
func WithModeratorFallback(primary, fallback ContentModerator, logger zerolog.Logger) ContentModerator {
	return &moderatorWithFallback{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With().Str("component", "ai_fallback").Logger(),
	}
}

func (m *moderatorWithFallback) Moderate(ctx context.Context, input ModerationInput) (ModerationResult, error) {
	result, err := m.primary.Moderate(ctx, input)
	if err == nil {
		return result, nil
	}

	m.logger.Warn().Err(err).Msg("moderation backend failed, using fallback")
	return m.fallback.Moderate(ctx, input)
}
