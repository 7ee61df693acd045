package phash

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/terraed/terra-api/internal/models"
)

func TestSimilarityIdenticalHashes(t *testing.T) {
	score, err := Similarity("0123456789abcdef", "0123456789abcdef")
	require.NoError(t, err)
	require.Equal(t, 1.0, score)
}

func TestSimilarityFullyDistinctHashes(t *testing.T) {
	score, err := Similarity("0000000000000000", "ffffffffffffffff")
	require.NoError(t, err)
	require.Equal(t, 0.0, score)
}

func TestSimilaritySingleBitFlip(t *testing.T) {
	score, err := Similarity("0000000000000000", "0000000000000001")
	require.NoError(t, err)
	require.InDelta(t, 1-1.0/64, score, 1e-9)
}

func TestSimilarityRejectsMalformedHash(t *testing.T) {
	_, err := Similarity("not-a-hash", "0000000000000000")
	require.Error(t, err)
}

type stubSource struct {
	submissions []models.Submission
	err         error
}

func (s stubSource) ListByQuest(context.Context, uint) ([]models.Submission, error) {
	return s.submissions, s.err
}

func TestIndexNearestMatchFindsClosestPrior(t *testing.T) {
	source := stubSource{submissions: []models.Submission{
		{ID: 1, PerceptualHash: "0000000000000000"},
		{ID: 2, PerceptualHash: "00000000000000ff"},
		{ID: 3, PerceptualHash: ""},
	}}
	index := NewIndex(source, zerolog.Nop())

	score, matches, err := index.NearestMatch(context.Background(), models.Submission{ID: 9, QuestID: 1, PerceptualHash: "0000000000000001"})
	require.NoError(t, err)
	require.InDelta(t, 1-1.0/64, score, 1e-9)
	require.Equal(t, []uint{1}, matches)
}

func TestIndexNearestMatchIgnoresSelf(t *testing.T) {
	source := stubSource{submissions: []models.Submission{
		{ID: 9, PerceptualHash: "0000000000000001"},
	}}
	index := NewIndex(source, zerolog.Nop())

	score, matches, err := index.NearestMatch(context.Background(), models.Submission{ID: 9, QuestID: 1, PerceptualHash: "0000000000000001"})
	require.NoError(t, err)
	require.Zero(t, score)
	require.Empty(t, matches)
}

func TestIndexNearestMatchWithoutHash(t *testing.T) {
	index := NewIndex(stubSource{}, zerolog.Nop())

	score, matches, err := index.NearestMatch(context.Background(), models.Submission{ID: 9, QuestID: 1})
	require.NoError(t, err)
	require.Zero(t, score)
	require.Nil(t, matches)
}
