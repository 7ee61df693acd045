package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/terraed/terra-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	QuestID *uint
	UserID  *uint
	Status  *string
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	ListByQuest(ctx context.Context, questID uint) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	CountApprovedByUserAndCategory(ctx context.Context, userID uint) (map[string]int64, error)
	CountApprovedByCategory(ctx context.Context) (map[string]int64, error)
	CountApprovedByUsers(ctx context.Context, userIDs []uint) (map[uint]int64, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Quest").
		Preload("User")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.QuestID != nil {
		query = query.Where("quest_id = ?", *filter.QuestID)
	}

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var submissions []models.Submission
	if err := query.Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByQuest(ctx context.Context, questID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("quest_id = ?", questID).
		Order("submitted_at ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

type categoryCount struct {
	Category string
	Total    int64
}

func (r *submissionRepository) CountApprovedByUserAndCategory(ctx context.Context, userID uint) (map[string]int64, error) {
	var rows []categoryCount
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("quests.category AS category, COUNT(*) AS total").
		Joins("JOIN quests ON quests.id = submissions.quest_id").
		Where("submissions.user_id = ?", userID).
		Where("submissions.status IN ?", []string{models.SubmissionStatusAutoPass, models.SubmissionStatusApproved}).
		Group("quests.category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Total
	}

	return counts, nil
}

func (r *submissionRepository) CountApprovedByCategory(ctx context.Context) (map[string]int64, error) {
	var rows []categoryCount
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("quests.category AS category, COUNT(*) AS total").
		Joins("JOIN quests ON quests.id = submissions.quest_id").
		Where("submissions.status IN ?", []string{models.SubmissionStatusAutoPass, models.SubmissionStatusApproved}).
		Group("quests.category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Total
	}

	return counts, nil
}

type userCount struct {
	UserID uint
	Total  int64
}

func (r *submissionRepository) CountApprovedByUsers(ctx context.Context, userIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	var rows []userCount
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("submissions.user_id AS user_id, COUNT(*) AS total").
		Where("submissions.user_id IN ?", userIDs).
		Where("submissions.status IN ?", []string{models.SubmissionStatusAutoPass, models.SubmissionStatusApproved}).
		Group("submissions.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.UserID] = row.Total
	}

	return counts, nil
}
