package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/terraed/terra-api/internal/dto"
	"github.com/terraed/terra-api/internal/models"
	"github.com/terraed/terra-api/pkg/ai"
)

type stubQuestGenerator struct {
	draft ai.QuestDraft
	err   error
}

func (g stubQuestGenerator) GenerateQuest(context.Context, ai.QuestPrompt) (ai.QuestDraft, error) {
	return g.draft, g.err
}

func newQuestService(repo *stubQuestRepo, generator ai.QuestGenerator) *questService {
	svc := NewQuestService(repo, generator, testLogger()).(*questService)
	svc.now = fixedNow
	return svc
}

func TestQuestServiceGetByID(t *testing.T) {
	repo := &stubQuestRepo{quests: map[uint]models.Quest{
		1: {ID: 1, Title: "Plant a Sapling", Category: models.CategoryBiodiversity, Points: 20},
	}}
	svc := newQuestService(repo, stubQuestGenerator{})

	quest, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Plant a Sapling", quest.Title)

	_, err = svc.GetByID(context.Background(), 42)
	require.ErrorIs(t, err, ErrQuestNotFound)
}

func TestQuestServiceCreate(t *testing.T) {
	repo := &stubQuestRepo{quests: map[uint]models.Quest{}}
	svc := newQuestService(repo, stubQuestGenerator{})

	quest, err := svc.Create(context.Background(), dto.QuestCreateRequest{
		Title:      "Meter Reading Week",
		Category:   models.CategoryEnergy,
		Difficulty: models.DifficultyEasy,
		Points:     10,
		Expiry:     fixedNow().Add(14 * 24 * time.Hour),
		CreatedBy:  9,
	})
	require.NoError(t, err)
	require.NotZero(t, quest.ID)
	require.Equal(t, models.CategoryEnergy, quest.Category)
	require.False(t, quest.AIGenerated)
}

func TestQuestServiceGenerateFillsDefaults(t *testing.T) {
	repo := &stubQuestRepo{quests: map[uint]models.Quest{}}
	svc := newQuestService(repo, stubQuestGenerator{draft: ai.QuestDraft{
		Title:      "Waste Audit at School",
		Category:   models.CategoryWaste,
		Difficulty: models.DifficultyHard,
	}})

	quest, err := svc.Generate(context.Background(), dto.QuestGenerateRequest{
		City:      "Jakarta",
		Grade:     8,
		Topic:     models.CategoryWaste,
		TeacherID: 9,
	})
	require.NoError(t, err)
	require.True(t, quest.AIGenerated)

	stored := repo.quests[quest.ID]
	require.Equal(t, uint(9), stored.CreatedBy)

	// A draft without points falls back to the difficulty base value, and a
	// missing expiry gets the 30 day default.
	require.Equal(t, 30, quest.Points)
	require.Equal(t, fixedNow().Add(30*24*time.Hour), quest.Expiry)
}

func TestQuestServiceGenerateKeepsDraftGeofenceRadius(t *testing.T) {
	repo := &stubQuestRepo{quests: map[uint]models.Quest{}}
	svc := newQuestService(repo, stubQuestGenerator{draft: ai.QuestDraft{
		Title:           "River Cleanup",
		Category:        models.CategoryWater,
		Difficulty:      models.DifficultyMedium,
		Points:          25,
		LocationRadiusM: 750,
		Expiry:          fixedNow().Add(7 * 24 * time.Hour),
	}})

	quest, err := svc.Generate(context.Background(), dto.QuestGenerateRequest{
		City: "Jakarta", Grade: 10, Topic: models.CategoryWater, TeacherID: 9,
	})
	require.NoError(t, err)
	require.Equal(t, 25, quest.Points)
	require.NotNil(t, quest.LocationRadiusM)
	require.Equal(t, 750.0, *quest.LocationRadiusM)
}

func TestQuestServiceGenerateFailure(t *testing.T) {
	repo := &stubQuestRepo{quests: map[uint]models.Quest{}}
	svc := newQuestService(repo, stubQuestGenerator{err: errors.New("model unavailable")})

	_, err := svc.Generate(context.Background(), dto.QuestGenerateRequest{
		City: "Jakarta", Grade: 8, Topic: models.CategoryWaste, TeacherID: 9,
	})
	require.Error(t, err)
	require.Empty(t, repo.quests)
}
