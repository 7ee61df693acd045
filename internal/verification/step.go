package verification

import (
	"time"

	"github.com/terraed/terra-api/internal/geo"
)

// Step names, in pipeline order. The order is fixed: cheap checks run first
// and the final decision needs every prior output.
const (
	StepFileValidation     = "File Validation"
	StepEXIFAnalysis       = "EXIF Analysis"
	StepGPSVerification    = "GPS Verification"
	StepDuplicateDetection = "Duplicate Detection"
	StepImageAnalysis      = "AI Image Analysis"
	StepContentModeration  = "Content Moderation"
	StepFinalDecision      = "Final Decision"
)

// StepOrder lists the seven pipeline steps in execution order.
var StepOrder = []string{
	StepFileValidation,
	StepEXIFAnalysis,
	StepGPSVerification,
	StepDuplicateDetection,
	StepImageAnalysis,
	StepContentModeration,
	StepFinalDecision,
}

// Step statuses. A step transitions pending -> running exactly once, then
// into exactly one terminal state, and is never re-run within its pipeline.
const (
	StepPending   = "pending"
	StepRunning   = "running"
	StepCompleted = "completed"
	StepFailed    = "failed"
)

// Issue tags emitted by step evaluators.
const (
	IssueFileTooLarge         = "file_too_large"
	IssueInvalidFileType      = "invalid_file_type"
	IssueImageTooOld          = "image_too_old"
	IssueNoGPSData            = "no_gps_data"
	IssueOutsideAllowedRadius = "outside_allowed_radius"
	IssuePotentialDuplicate   = "potential_duplicate"
	IssueNoImageProvided      = "no_image_provided"
	IssueLowConfidence        = "low_confidence"
	IssueInappropriateContent = "inappropriate_content"
)

// StepResult is the minimal contract every step result satisfies.
type StepResult interface {
	Issues() []string
}

// confidenceReporter is implemented by step results that constrain the
// report's overall confidence. The decision step folds a minimum over every
// result exposing this, so additional confidence-bearing steps do not require
// decision changes.
type confidenceReporter interface {
	ConfidenceValue() float64
}

// Step is one stage's execution record within a pipeline.
type Step struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Result   StepResult    `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// FileValidationResult reports declared file size and type checks.
type FileValidationResult struct {
	Valid     bool     `json:"valid"`
	FileSize  int64    `json:"file_size"`
	FileType  string   `json:"file_type"`
	IssueTags []string `json:"issues"`
}

func (r FileValidationResult) Issues() []string { return r.IssueTags }

// EXIFResult reports capture metadata plausibility.
type EXIFResult struct {
	HasEXIF   bool            `json:"has_exif"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	Camera    string          `json:"camera,omitempty"`
	Location  *geo.Coordinate `json:"location,omitempty"`
	IssueTags []string        `json:"issues"`
}

func (r EXIFResult) Issues() []string { return r.IssueTags }

// GPSResult reports the geofence check.
type GPSResult struct {
	HasGPS         bool     `json:"has_gps"`
	WithinRadius   bool     `json:"within_radius"`
	DistanceMeters float64  `json:"distance_meters"`
	IssueTags      []string `json:"issues"`
}

func (r GPSResult) Issues() []string { return r.IssueTags }

// DuplicateResult reports perceptual similarity against prior submissions.
type DuplicateResult struct {
	IsDuplicate        bool     `json:"is_duplicate"`
	SimilarityScore    float64  `json:"similarity_score"`
	MatchedSubmissions []uint   `json:"matched_submissions"`
	IssueTags          []string `json:"issues"`
}

func (r DuplicateResult) Issues() []string { return r.IssueTags }

// ImageAnalysisResult reports the vision capability's verdict.
type ImageAnalysisResult struct {
	Confidence  float64  `json:"confidence"`
	Labels      []string `json:"labels"`
	Objects     []string `json:"objects"`
	Appropriate bool     `json:"appropriate"`
	IssueTags   []string `json:"issues"`
}

func (r ImageAnalysisResult) Issues() []string { return r.IssueTags }

func (r ImageAnalysisResult) ConfidenceValue() float64 { return r.Confidence }

// ModerationResult reports the content screening outcome.
type ModerationResult struct {
	Appropriate bool     `json:"appropriate"`
	Flags       []string `json:"flags"`
	IssueTags   []string `json:"issues"`
}

func (r ModerationResult) Issues() []string { return r.IssueTags }
