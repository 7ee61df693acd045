package dto

import (
	"time"

	"github.com/terraed/terra-api/internal/models"
)

// SubmissionCreateRequest describes the multipart form fields of an evidence
// submission. The photo part itself is optional.
type SubmissionCreateRequest struct {
	QuestID uint     `form:"quest_id" validate:"required,gt=0"`
	UserID  uint     `form:"user_id" validate:"required,gt=0"`
	Caption string   `form:"caption" validate:"max=2048"`
	GPSLat  *float64 `form:"gps_lat" validate:"omitempty,gte=-90,lte=90"`
	GPSLng  *float64 `form:"gps_lng" validate:"omitempty,gte=-180,lte=180"`
}

// SubmissionReviewRequest describes a teacher's verdict on a flagged
// submission.
type SubmissionReviewRequest struct {
	Approved    *bool  `json:"approved" validate:"required"`
	ReviewerID  uint   `json:"reviewer_id" validate:"required,gt=0"`
	ReviewNotes string `json:"review_notes" validate:"max=2048"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	QuestID *uint   `query:"quest_id"`
	UserID  *uint   `query:"user_id"`
	Status  *string `query:"status" validate:"omitempty,oneof=pending auto_pass review approved rejected"`
}

// QuestLite is the quest summary embedded in submission responses.
type QuestLite struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Points   int    `json:"points"`
}

// UserLite is the user summary embedded in submission responses.
type UserLite struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID            uint                       `json:"id"`
	Quest         QuestLite                  `json:"quest"`
	User          UserLite                   `json:"user"`
	ImageURL      string                     `json:"image_url"`
	Caption       string                     `json:"caption"`
	GPSLat        *float64                   `json:"gps_lat"`
	GPSLng        *float64                   `json:"gps_lng"`
	Status        string                     `json:"status"`
	Report        *models.VerificationReport `json:"verification_report"`
	PipelineID    string                     `json:"pipeline_id"`
	ReviewedBy    *uint                      `json:"reviewed_by"`
	ReviewNotes   string                     `json:"review_notes,omitempty"`
	PointsAwarded int                        `json:"points_awarded"`
	SubmittedAt   time.Time                  `json:"submitted_at"`
	ReviewedAt    *time.Time                 `json:"reviewed_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID: model.ID,
		Quest: QuestLite{
			ID:       model.Quest.ID,
			Title:    model.Quest.Title,
			Category: model.Quest.Category,
			Points:   model.Quest.Points,
		},
		User: UserLite{
			ID:   model.User.ID,
			Name: model.User.Name,
		},
		ImageURL:      model.ImageURL,
		Caption:       model.Caption,
		GPSLat:        model.GPSLat,
		GPSLng:        model.GPSLng,
		Status:        model.Status,
		Report:        model.Report,
		PipelineID:    model.PipelineID,
		ReviewedBy:    model.ReviewedBy,
		ReviewNotes:   model.ReviewNotes,
		PointsAwarded: model.PointsAwarded,
		SubmittedAt:   model.SubmittedAt,
		ReviewedAt:    model.ReviewedAt,
	}
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
