package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/terraed/terra-api/internal/models"
	"github.com/terraed/terra-api/internal/repository"
)

// ErrSeedDisabled indicates demo seeding is disabled by configuration.
var ErrSeedDisabled = errors.New("seeding is disabled")

// SeedService loads demo users and quests for development environments.
type SeedService interface {
	SeedDemo(ctx context.Context) (users int, quests int, err error)
}

type seedService struct {
	users   repository.UserRepository
	quests  repository.QuestRepository
	enabled bool
	logger  zerolog.Logger
	now     func() time.Time
}

// NewSeedService constructs a seeding service.
func NewSeedService(users repository.UserRepository, quests repository.QuestRepository, enabled bool, logger zerolog.Logger) SeedService {
	return &seedService{
		users:   users,
		quests:  quests,
		enabled: enabled,
		logger:  logger.With().Str("component", "seed_service").Logger(),
		now:     time.Now,
	}
}

func (s *seedService) SeedDemo(ctx context.Context) (int, int, error) {
	if !s.enabled {
		return 0, 0, ErrSeedDisabled
	}

	now := s.now()
	users := demoUsers(now)
	for i := range users {
		if err := s.users.Create(ctx, &users[i]); err != nil {
			return 0, 0, fmt.Errorf("failed to seed user %q: %w", users[i].Email, err)
		}
	}

	quests := demoQuests(now, users[0].ID)
	for i := range quests {
		if err := s.quests.Create(ctx, &quests[i]); err != nil {
			return 0, 0, fmt.Errorf("failed to seed quest %q: %w", quests[i].Title, err)
		}
	}

	s.logger.Info().Int("users", len(users)).Int("quests", len(quests)).Msg("demo data seeded")

	return len(users), len(quests), nil
}

func demoUsers(now time.Time) []models.User {
	return []models.User{
		{
			Name:         "Ms. Rivera",
			Email:        "rivera@demo.terraed.local",
			Role:         models.RoleTeacher,
			School:       "Greenfield Secondary",
			ConsentGiven: true,
			LastActivity: now,
		},
		{
			Name:         "Aini Putri",
			Email:        "aini@demo.terraed.local",
			Role:         models.RoleStudent,
			School:       "Greenfield Secondary",
			Grade:        8,
			Points:       40,
			ConsentGiven: true,
			LastActivity: now,
		},
		{
			Name:         "Bram Siregar",
			Email:        "bram@demo.terraed.local",
			Role:         models.RoleStudent,
			School:       "Greenfield Secondary",
			Grade:        8,
			Points:       20,
			ConsentGiven: true,
			LastActivity: now,
		},
	}
}

func demoQuests(now time.Time, teacherID uint) []models.Quest {
	expiry := now.Add(30 * 24 * time.Hour)
	lat, lng, radius := -6.2001, 106.8166, 500.0

	return []models.Quest{
		{
			Title:        "Bring a Reusable Bottle",
			Summary:      "Swap single-use plastic for a reusable bottle for a whole school day.",
			Instructions: "Photograph your reusable bottle on your desk during class.",
			Category:     models.CategoryWaste,
			Difficulty:   models.DifficultyEasy,
			Points:       models.DifficultyPoints[models.DifficultyEasy],
			Expiry:       expiry,
			CreatedBy:    teacherID,
		},
		{
			Title:           "Plant a Sapling in the School Garden",
			Summary:         "Help expand the school garden with a native sapling.",
			Instructions:    "Photograph the sapling after planting, with the garden sign visible.",
			Category:        models.CategoryBiodiversity,
			Difficulty:      models.DifficultyMedium,
			Points:          models.DifficultyPoints[models.DifficultyMedium],
			LocationHint:    "School garden, east yard",
			LocationLat:     &lat,
			LocationLng:     &lng,
			LocationRadiusM: &radius,
			SafetyNotes:     "Wear gloves and wash hands afterwards.",
			Expiry:          expiry,
			CreatedBy:       teacherID,
		},
		{
			Title:        "Cycle to School for a Week",
			Summary:      "Replace motorized transport with cycling for five school days.",
			Instructions: "Photograph your bicycle at the school bike rack.",
			Category:     models.CategoryTransport,
			Difficulty:   models.DifficultyHard,
			Points:       models.DifficultyPoints[models.DifficultyHard],
			Expiry:       expiry,
			CreatedBy:    teacherID,
		},
	}
}
