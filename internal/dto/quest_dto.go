package dto

import (
	"time"

	"github.com/terraed/terra-api/internal/models"
)

// QuestCreateRequest describes the payload for publishing a quest.
type QuestCreateRequest struct {
	Title           string    `json:"title" validate:"required,min=3,max=255"`
	Summary         string    `json:"summary" validate:"max=512"`
	Instructions    string    `json:"instructions"`
	Category        string    `json:"category" validate:"required,oneof=waste energy water biodiversity transport wildlife_conservation gardening"`
	Difficulty      string    `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Points          int       `json:"points" validate:"required,gt=0,lte=100"`
	LocationHint    string    `json:"location_hint"`
	LocationLat     *float64  `json:"location_lat" validate:"omitempty,gte=-90,lte=90"`
	LocationLng     *float64  `json:"location_lng" validate:"omitempty,gte=-180,lte=180"`
	LocationRadiusM *float64  `json:"location_radius_m" validate:"omitempty,gt=0"`
	SafetyNotes     string    `json:"safety_notes"`
	Expiry          time.Time `json:"expiry" validate:"required"`
	EstimatedTime   int       `json:"estimated_time"`
	ImageURL        string    `json:"image_url"`
	IsSeasonal      bool      `json:"is_seasonal"`
	CreatedBy       uint      `json:"created_by"`
}

// QuestGenerateRequest describes the payload for AI quest generation.
type QuestGenerateRequest struct {
	City         string `json:"city" validate:"required"`
	Grade        int    `json:"grade" validate:"required,gte=1,lte=13"`
	Topic        string `json:"topic" validate:"required,oneof=waste energy water biodiversity transport"`
	TeacherID    uint   `json:"teacher_id" validate:"required,gt=0"`
	CustomPrompt string `json:"custom_prompt"`
}

// QuestFilter describes query string filters for listing quests.
type QuestFilter struct {
	Category   *string `query:"category" validate:"omitempty,oneof=waste energy water biodiversity transport wildlife_conservation gardening"`
	Difficulty *string `query:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

// QuestResponse is returned to API clients when viewing quests.
type QuestResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	Instructions    string    `json:"instructions"`
	Category        string    `json:"category"`
	Difficulty      string    `json:"difficulty"`
	Points          int       `json:"points"`
	LocationHint    string    `json:"location_hint"`
	LocationLat     *float64  `json:"location_lat"`
	LocationLng     *float64  `json:"location_lng"`
	LocationRadiusM *float64  `json:"location_radius_m"`
	SafetyNotes     string    `json:"safety_notes"`
	Expiry          time.Time `json:"expiry"`
	AIGenerated     bool      `json:"ai_generated"`
	EstimatedTime   int       `json:"estimated_time"`
	ImageURL        string    `json:"image_url"`
	IsSeasonal      bool      `json:"is_seasonal"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewQuestResponse converts a Quest model into a DTO.
func NewQuestResponse(model models.Quest) QuestResponse {
	return QuestResponse{
		ID:              model.ID,
		Title:           model.Title,
		Summary:         model.Summary,
		Instructions:    model.Instructions,
		Category:        model.Category,
		Difficulty:      model.Difficulty,
		Points:          model.Points,
		LocationHint:    model.LocationHint,
		LocationLat:     model.LocationLat,
		LocationLng:     model.LocationLng,
		LocationRadiusM: model.LocationRadiusM,
		SafetyNotes:     model.SafetyNotes,
		Expiry:          model.Expiry,
		AIGenerated:     model.AIGenerated,
		EstimatedTime:   model.EstimatedTime,
		ImageURL:        model.ImageURL,
		IsSeasonal:      model.IsSeasonal,
		CreatedAt:       model.CreatedAt,
	}
}

// NewQuestResponseSlice converts quest models into DTOs.
func NewQuestResponseSlice(quests []models.Quest) []QuestResponse {
	responses := make([]QuestResponse, 0, len(quests))
	for _, quest := range quests {
		responses = append(responses, NewQuestResponse(quest))
	}

	return responses
}
