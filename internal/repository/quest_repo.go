package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/terraed/terra-api/internal/models"
)

// QuestFilter narrows quest catalog queries.
type QuestFilter struct {
	Category   *string
	Difficulty *string
	// ActiveAt excludes quests whose expiry is before the given instant.
	ActiveAt *time.Time
}

// QuestRepository defines data operations for quests.
type QuestRepository interface {
	List(ctx context.Context, filter QuestFilter) ([]models.Quest, error)
	GetByID(ctx context.Context, id uint) (models.Quest, error)
	Create(ctx context.Context, quest *models.Quest) error
}

type questRepository struct {
	db *gorm.DB
}

// NewQuestRepository instantiates the repository.
func NewQuestRepository(db *gorm.DB) QuestRepository {
	return &questRepository{db: db}
}

func (r *questRepository) List(ctx context.Context, filter QuestFilter) ([]models.Quest, error) {
	query := r.db.WithContext(ctx).Model(&models.Quest{})

	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}

	if filter.Difficulty != nil {
		query = query.Where("difficulty = ?", *filter.Difficulty)
	}

	if filter.ActiveAt != nil {
		query = query.Where("expiry > ?", *filter.ActiveAt)
	}

	var quests []models.Quest
	if err := query.Order("created_at DESC").Find(&quests).Error; err != nil {
		return nil, err
	}

	return quests, nil
}

func (r *questRepository) GetByID(ctx context.Context, id uint) (models.Quest, error) {
	var quest models.Quest
	if err := r.db.WithContext(ctx).First(&quest, id).Error; err != nil {
		return models.Quest{}, err
	}

	return quest, nil
}

func (r *questRepository) Create(ctx context.Context, quest *models.Quest) error {
	return r.db.WithContext(ctx).Create(quest).Error
}
