package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/terraed/terra-api/internal/dto"
	"github.com/terraed/terra-api/internal/models"
	"github.com/terraed/terra-api/internal/repository"
	"github.com/terraed/terra-api/pkg/ai"
)

var (
	// ErrQuestNotFound indicates the requested quest does not exist.
	ErrQuestNotFound = errors.New("quest not found")
	// ErrQuestExpired indicates the quest no longer accepts submissions.
	ErrQuestExpired = errors.New("quest expired")
)

// QuestService exposes the quest catalog and quest authoring.
type QuestService interface {
	List(ctx context.Context, filter dto.QuestFilter, includeExpired bool) ([]dto.QuestResponse, error)
	GetByID(ctx context.Context, id uint) (dto.QuestResponse, error)
	Create(ctx context.Context, req dto.QuestCreateRequest) (dto.QuestResponse, error)
	Generate(ctx context.Context, req dto.QuestGenerateRequest) (dto.QuestResponse, error)
}

type questService struct {
	repo      repository.QuestRepository
	generator ai.QuestGenerator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewQuestService constructs the quest service.
func NewQuestService(repo repository.QuestRepository, generator ai.QuestGenerator, logger zerolog.Logger) QuestService {
	return &questService{
		repo:      repo,
		generator: generator,
		logger:    logger.With().Str("component", "quest_service").Logger(),
		now:       time.Now,
	}
}

func (s *questService) List(ctx context.Context, filter dto.QuestFilter, includeExpired bool) ([]dto.QuestResponse, error) {
	repoFilter := repository.QuestFilter{
		Category:   filter.Category,
		Difficulty: filter.Difficulty,
	}
	if !includeExpired {
		now := s.now()
		repoFilter.ActiveAt = &now
	}

	quests, err := s.repo.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}

	return dto.NewQuestResponseSlice(quests), nil
}

func (s *questService) GetByID(ctx context.Context, id uint) (dto.QuestResponse, error) {
	quest, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestResponse{}, ErrQuestNotFound
		}
		return dto.QuestResponse{}, fmt.Errorf("failed to load quest: %w", err)
	}

	return dto.NewQuestResponse(quest), nil
}

func (s *questService) Create(ctx context.Context, req dto.QuestCreateRequest) (dto.QuestResponse, error) {
	quest := models.Quest{
		Title:           req.Title,
		Summary:         req.Summary,
		Instructions:    req.Instructions,
		Category:        req.Category,
		Difficulty:      req.Difficulty,
		Points:          req.Points,
		LocationHint:    req.LocationHint,
		LocationLat:     req.LocationLat,
		LocationLng:     req.LocationLng,
		LocationRadiusM: req.LocationRadiusM,
		SafetyNotes:     req.SafetyNotes,
		Expiry:          req.Expiry,
		EstimatedTime:   req.EstimatedTime,
		ImageURL:        req.ImageURL,
		IsSeasonal:      req.IsSeasonal,
		CreatedBy:       req.CreatedBy,
	}

	if err := s.repo.Create(ctx, &quest); err != nil {
		return dto.QuestResponse{}, fmt.Errorf("failed to create quest: %w", err)
	}

	s.logger.Info().Uint("quest_id", quest.ID).Str("category", quest.Category).Msg("quest published")

	return dto.NewQuestResponse(quest), nil
}

func (s *questService) Generate(ctx context.Context, req dto.QuestGenerateRequest) (dto.QuestResponse, error) {
	draft, err := s.generator.GenerateQuest(ctx, ai.QuestPrompt{
		City:         req.City,
		Grade:        req.Grade,
		Topic:        req.Topic,
		CustomPrompt: req.CustomPrompt,
	})
	if err != nil {
		return dto.QuestResponse{}, fmt.Errorf("failed to generate quest: %w", err)
	}

	quest := models.Quest{
		Title:         draft.Title,
		Summary:       draft.Summary,
		Instructions:  draft.Instructions,
		Category:      draft.Category,
		Difficulty:    draft.Difficulty,
		Points:        draft.Points,
		LocationHint:  draft.LocationHint,
		SafetyNotes:   draft.SafetyNotes,
		Expiry:        draft.Expiry,
		AIGenerated:   true,
		CreatedBy:     req.TeacherID,
		EstimatedTime: draft.EstimatedTime,
	}
	if draft.LocationRadiusM > 0 {
		radius := draft.LocationRadiusM
		quest.LocationRadiusM = &radius
	}
	if quest.Points <= 0 {
		quest.Points = models.DifficultyPoints[quest.Difficulty]
	}
	if quest.Expiry.IsZero() {
		quest.Expiry = s.now().Add(30 * 24 * time.Hour)
	}

	if err := s.repo.Create(ctx, &quest); err != nil {
		return dto.QuestResponse{}, fmt.Errorf("failed to store generated quest: %w", err)
	}

	s.logger.Info().
		Uint("quest_id", quest.ID).
		Str("topic", req.Topic).
		Int("grade", req.Grade).
		Msg("quest generated")

	return dto.NewQuestResponse(quest), nil
}
