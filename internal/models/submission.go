package models

import "time"

// Submission lifecycle statuses.
const (
	// SubmissionStatusPending indicates verification has not finished. A
	// submission whose pipeline failed also stays pending and needs manual
	// intervention; a failed pipeline means "we don't know", not "rejected".
	SubmissionStatusPending = "pending"
	// SubmissionStatusAutoPass indicates the pipeline approved the submission
	// without human review.
	SubmissionStatusAutoPass = "auto_pass"
	// SubmissionStatusReview indicates the pipeline flagged the submission for
	// human review.
	SubmissionStatusReview = "review"
	// SubmissionStatusApproved indicates a reviewer approved the submission.
	SubmissionStatusApproved = "approved"
	// SubmissionStatusRejected indicates the pipeline or a reviewer rejected it.
	SubmissionStatusRejected = "rejected"
)

// Submission represents a student's claim of quest completion backed by
// photographic evidence. Points are awarded only on auto_pass or approved.
type Submission struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	QuestID        uint                `gorm:"not null;index" json:"quest_id"`
	UserID         uint                `gorm:"not null;index" json:"user_id"`
	ImageURL       string              `gorm:"size:512" json:"image_url"`
	Caption        string              `gorm:"type:text" json:"caption"`
	GPSLat         *float64            `json:"gps_lat"`
	GPSLng         *float64            `json:"gps_lng"`
	FileSize       int64               `gorm:"default:0" json:"file_size"`
	FileType       string              `gorm:"size:64" json:"file_type"`
	PerceptualHash string              `gorm:"size:16;index" json:"perceptual_hash"`
	CaptureTime    *time.Time          `json:"capture_time"`
	CameraModel    string              `gorm:"size:128" json:"camera_model"`
	Status         string              `gorm:"size:32;not null;index" json:"status"`
	Report         *VerificationReport `gorm:"serializer:json" json:"verification_report"`
	PipelineID     string              `gorm:"size:128" json:"pipeline_id"`
	ReviewedBy     *uint               `json:"reviewed_by"`
	ReviewNotes    string              `gorm:"type:text" json:"review_notes"`
	PointsAwarded  int                 `gorm:"default:0" json:"points_awarded"`
	SubmittedAt    time.Time           `gorm:"autoCreateTime" json:"submitted_at"`
	ReviewedAt     *time.Time          `json:"reviewed_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Quest          Quest               `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"quest"`
	User           User                `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
}

// HasGPS reports whether the submission carries a coordinate.
func (s Submission) HasGPS() bool {
	return s.GPSLat != nil && s.GPSLng != nil
}

// IsTerminal reports whether the submission has a final disposition.
func (s Submission) IsTerminal() bool {
	switch s.Status {
	case SubmissionStatusAutoPass, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	}
	return false
}
