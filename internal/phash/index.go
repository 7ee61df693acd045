package phash

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/terraed/terra-api/internal/models"
)

// SubmissionSource provides the prior submissions a candidate is compared
// against.
type SubmissionSource interface {
	ListByQuest(ctx context.Context, questID uint) ([]models.Submission, error)
}

// Index finds the closest perceptual-similarity match for a submission among
// earlier submissions to the same quest.
type Index struct {
	source SubmissionSource
	logger zerolog.Logger
}

// NewIndex constructs the similarity index.
func NewIndex(source SubmissionSource, logger zerolog.Logger) *Index {
	return &Index{
		source: source,
		logger: logger.With().Str("component", "phash_index").Logger(),
	}
}

// NearestMatch returns the best similarity score in [0,1] and the ids of the
// submissions achieving it. A submission without a hash (no image) matches
// nothing.
func (i *Index) NearestMatch(ctx context.Context, submission models.Submission) (float64, []uint, error) {
	if submission.PerceptualHash == "" {
		return 0, nil, nil
	}

	prior, err := i.source.ListByQuest(ctx, submission.QuestID)
	if err != nil {
		return 0, nil, err
	}

	best := 0.0
	var matches []uint
	for _, candidate := range prior {
		if candidate.ID == submission.ID || candidate.PerceptualHash == "" {
			continue
		}

		score, err := Similarity(submission.PerceptualHash, candidate.PerceptualHash)
		if err != nil {
			i.logger.Debug().Err(err).Uint("submission_id", candidate.ID).Msg("skipping submission with unreadable hash")
			continue
		}

		switch {
		case score > best:
			best = score
			matches = []uint{candidate.ID}
		case score == best && best > 0:
			matches = append(matches, candidate.ID)
		}
	}

	return best, matches, nil
}
