package models

import "time"

// Quest categories. The first five are the standard curriculum topics;
// the remaining ones appear on seasonal quests only.
const (
	CategoryWaste        = "waste"
	CategoryEnergy       = "energy"
	CategoryWater        = "water"
	CategoryBiodiversity = "biodiversity"
	CategoryTransport    = "transport"
	CategoryWildlife     = "wildlife_conservation"
	CategoryGardening    = "gardening"
)

// Quest difficulty levels and their base point values.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// DifficultyPoints maps a difficulty level to its base point reward.
var DifficultyPoints = map[string]int{
	DifficultyEasy:   10,
	DifficultyMedium: 20,
	DifficultyHard:   30,
}

// Quest represents a published environmental task. Quests are immutable once
// published; the verification pipeline only reads them.
type Quest struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Summary         string     `gorm:"size:512" json:"summary"`
	Instructions    string     `gorm:"type:text" json:"instructions"`
	Category        string     `gorm:"size:32;not null;index" json:"category"`
	Difficulty      string     `gorm:"size:16;not null" json:"difficulty"`
	Points          int        `gorm:"not null" json:"points"`
	LocationHint    string     `gorm:"size:255" json:"location_hint"`
	LocationLat     *float64   `json:"location_lat"`
	LocationLng     *float64   `json:"location_lng"`
	LocationRadiusM *float64   `json:"location_radius_m"`
	SafetyNotes     string     `gorm:"type:text" json:"safety_notes"`
	Expiry          time.Time  `gorm:"not null" json:"expiry"`
	AIGenerated     bool       `gorm:"default:false" json:"ai_generated"`
	CreatedBy       uint       `json:"created_by"`
	EstimatedTime   int        `json:"estimated_time"`
	ImageURL        string     `gorm:"size:512" json:"image_url"`
	IsSeasonal      bool       `gorm:"default:false" json:"is_seasonal"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Submissions     []Submission
}

// IsExpired returns true when the quest no longer accepts submissions.
func (q Quest) IsExpired(reference time.Time) bool {
	return reference.After(q.Expiry)
}

// HasGeofence reports whether submissions must fall inside an allowed radius
// around the quest location.
func (q Quest) HasGeofence() bool {
	return q.LocationLat != nil && q.LocationLng != nil && q.LocationRadiusM != nil
}
