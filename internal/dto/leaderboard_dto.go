package dto

// LeaderboardEntry is a ranked row on the class leaderboard.
type LeaderboardEntry struct {
	Rank            int    `json:"rank"`
	UserID          uint   `json:"user_id"`
	Name            string `json:"name"`
	Points          int    `json:"points"`
	Streak          int    `json:"streak"`
	QuestsCompleted int64  `json:"quests_completed"`
}

// ImpactResponse aggregates verified submissions into rough real-world
// impact figures. The per-category multipliers live in the service.
type ImpactResponse struct {
	TotalVerified    int64            `json:"total_verified"`
	WasteCollectedKg float64          `json:"waste_collected_kg"`
	EnergySavedKWh   float64          `json:"energy_saved_kwh"`
	WaterSavedL      float64          `json:"water_saved_l"`
	TreesPlanted     int64            `json:"trees_planted"`
	CarbonSavedKg    float64          `json:"carbon_saved_kg"`
	ByCategory       map[string]int64 `json:"by_category"`
}

// UserImpactResponse scopes the impact figures to a single student.
type UserImpactResponse struct {
	UserID uint `json:"user_id"`
	ImpactResponse
}
