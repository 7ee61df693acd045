package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/terraed/terra-api/internal/dto"
	"github.com/terraed/terra-api/internal/models"
	"github.com/terraed/terra-api/internal/repository"
)

const (
	leaderboardCacheKey = "leaderboard:points"
	impactCacheKey      = "impact:totals"
	userImpactCacheKey  = "impact:user"
	defaultBoardSize    = 20
)

// Rough per-submission impact multipliers, tuned with the science faculty.
const (
	wasteKgPerSubmission     = 0.5
	energyKWhPerSubmission   = 2.0
	waterLitersPerSubmission = 50.0
	carbonKgPerSubmission    = 2.5
)

// LeaderboardService ranks students and aggregates environmental impact.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error)
	GetImpact(ctx context.Context) (dto.ImpactResponse, error)
	GetUserImpact(ctx context.Context, userID uint) (dto.UserImpactResponse, error)
}

type leaderboardService struct {
	users       repository.UserRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewLeaderboardService builds the leaderboard aggregator. The cache client
// may be nil; every call then hits the database.
func NewLeaderboardService(users repository.UserRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) LeaderboardService {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}

	return &leaderboardService{
		users:       users,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "leaderboard_service").Logger(),
	}
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultBoardSize
	}
	cacheKey := fmt.Sprintf("%s:%d", leaderboardCacheKey, limit)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var entries []dto.LeaderboardEntry
			if unmarshalErr := json.Unmarshal([]byte(cached), &entries); unmarshalErr == nil {
				s.logger.Debug().Msg("leaderboard cache hit")
				return entries, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard cache")
		}
	}

	users, err := s.users.ListByPoints(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank users: %w", err)
	}

	ids := make([]uint, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	completed, err := s.submissions.CountApprovedByUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed quests: %w", err)
	}

	entries := make([]dto.LeaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, dto.LeaderboardEntry{
			Rank:            i + 1,
			UserID:          user.ID,
			Name:            user.Name,
			Points:          user.Points,
			Streak:          user.Streak,
			QuestsCompleted: completed[user.ID],
		})
	}

	s.storeCache(ctx, cacheKey, entries)

	return entries, nil
}

func (s *leaderboardService) GetImpact(ctx context.Context) (dto.ImpactResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, impactCacheKey).Result(); err == nil {
			var response dto.ImpactResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Msg("impact cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read impact cache")
		}
	}

	counts, err := s.submissions.CountApprovedByCategory(ctx)
	if err != nil {
		return dto.ImpactResponse{}, fmt.Errorf("failed to aggregate verified submissions: %w", err)
	}

	response := impactFromCounts(counts)
	s.storeCache(ctx, impactCacheKey, response)

	return response, nil
}

// GetUserImpact reports the same impact figures scoped to one student's
// approved submissions.
func (s *leaderboardService) GetUserImpact(ctx context.Context, userID uint) (dto.UserImpactResponse, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserImpactResponse{}, ErrUserNotFound
		}
		return dto.UserImpactResponse{}, fmt.Errorf("failed to load user: %w", err)
	}

	cacheKey := fmt.Sprintf("%s:%d", userImpactCacheKey, userID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.UserImpactResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("user_id", userID).Msg("user impact cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read user impact cache")
		}
	}

	counts, err := s.submissions.CountApprovedByUserAndCategory(ctx, userID)
	if err != nil {
		return dto.UserImpactResponse{}, fmt.Errorf("failed to aggregate user submissions: %w", err)
	}

	response := dto.UserImpactResponse{UserID: userID, ImpactResponse: impactFromCounts(counts)}
	s.storeCache(ctx, cacheKey, response)

	return response, nil
}

func impactFromCounts(counts map[string]int64) dto.ImpactResponse {
	response := dto.ImpactResponse{ByCategory: counts}
	for category, total := range counts {
		response.TotalVerified += total
		switch category {
		case models.CategoryWaste:
			response.WasteCollectedKg += float64(total) * wasteKgPerSubmission
		case models.CategoryEnergy:
			response.EnergySavedKWh += float64(total) * energyKWhPerSubmission
		case models.CategoryWater:
			response.WaterSavedL += float64(total) * waterLitersPerSubmission
		case models.CategoryBiodiversity, models.CategoryGardening:
			response.TreesPlanted += total
		case models.CategoryTransport:
			response.CarbonSavedKg += float64(total) * carbonKgPerSubmission
		}
	}

	return response
}

func (s *leaderboardService) storeCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store cache entry")
	}
}
