package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// VerificationConfig groups the thresholds and limits for the submission
// verification pipeline.
type VerificationConfig struct {
	AutoPassThreshold  float64
	ReviewThreshold    float64
	DuplicateThreshold float64
	MaxFileSizeMB      int
	MaxImageAge        time.Duration
	AnalysisTimeout    time.Duration
	AllowedImageTypes  []string
}

// PointsConfig groups the gamification rules.
type PointsConfig struct {
	MonthlyCap         int
	StreakBonus        int
	StreakRequiredDays int
	RedemptionMinimum  int
	MaxRedemptionsWeek int
}

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	LeaderboardCacheTTL    time.Duration
	AIProvider             string
	OpenAIAPIKey           string
	Verification           VerificationConfig
	Points                 PointsConfig
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsDevelopment reports whether development-only surfaces (seeding) are open.
func (c Config) IsDevelopment() bool {
	return c.AppEnv != "production"
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TERRA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "TerraEd API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "terra/submissions")
	v.SetDefault("leaderboard.cache_ttl", "5m")
	v.SetDefault("ai.provider", "stub")
	v.SetDefault("verification.auto_pass_threshold", 0.75)
	v.SetDefault("verification.review_threshold", 0.5)
	v.SetDefault("verification.duplicate_threshold", 0.9)
	v.SetDefault("verification.max_file_size_mb", 5)
	v.SetDefault("verification.max_image_age", "168h")
	v.SetDefault("verification.analysis_timeout", "30s")
	v.SetDefault("points.monthly_cap", 200)
	v.SetDefault("points.streak_bonus", 10)
	v.SetDefault("points.streak_required_days", 3)
	v.SetDefault("points.redemption_minimum", 100)
	v.SetDefault("points.max_redemptions_week", 2)

	cacheTTL, err := parseDuration(v.GetString("leaderboard.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid leaderboard cache ttl: %w", err)
	}

	maxImageAge, err := parseDuration(v.GetString("verification.max_image_age"), 7*24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid max image age: %w", err)
	}

	analysisTimeout, err := parseDuration(v.GetString("verification.analysis_timeout"), 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid analysis timeout: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		LeaderboardCacheTTL:    cacheTTL,
		AIProvider:             strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		Verification: VerificationConfig{
			AutoPassThreshold:  v.GetFloat64("verification.auto_pass_threshold"),
			ReviewThreshold:    v.GetFloat64("verification.review_threshold"),
			DuplicateThreshold: v.GetFloat64("verification.duplicate_threshold"),
			MaxFileSizeMB:      v.GetInt("verification.max_file_size_mb"),
			MaxImageAge:        maxImageAge,
			AnalysisTimeout:    analysisTimeout,
			AllowedImageTypes:  []string{"image/jpeg", "image/png", "image/webp"},
		},
		Points: PointsConfig{
			MonthlyCap:         v.GetInt("points.monthly_cap"),
			StreakBonus:        v.GetInt("points.streak_bonus"),
			StreakRequiredDays: v.GetInt("points.streak_required_days"),
			RedemptionMinimum:  v.GetInt("points.redemption_minimum"),
			MaxRedemptionsWeek: v.GetInt("points.max_redemptions_week"),
		},
	}

	if cfg.AIProvider == "openai" && cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("openai api key must be provided when ai provider is openai")
	}

	if cfg.Verification.MaxFileSizeMB <= 0 {
		cfg.Verification.MaxFileSizeMB = 5
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
