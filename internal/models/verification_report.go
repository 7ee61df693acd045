package models

// Automated decisions produced by the verification pipeline.
const (
	DecisionPass   = "pass"
	DecisionReview = "review"
	DecisionReject = "reject"
)

// VerificationReport is the aggregated outcome of a completed verification
// pipeline. It is produced once by the final decision step and never mutated
// afterwards.
type VerificationReport struct {
	// Confidence is the minimum across all confidence-bearing step results.
	Confidence float64 `json:"confidence"`
	// Labels are the semantic labels detected by image analysis.
	Labels []string `json:"labels"`
	// Reasons is the flat union of issue tags emitted by all steps, in step
	// order and not deduplicated.
	Reasons []string `json:"reasons"`
	// PHashScore is the best perceptual similarity score against prior
	// submissions.
	PHashScore float64 `json:"phash_score"`
	EXIFValid  bool    `json:"exif_valid"`
	// GPSValid mirrors the EXIF presence flag rather than the geofence
	// outcome. Known quirk carried over from the previous implementation;
	// consumers depend on it, so changing the source needs a product decision.
	GPSValid       bool   `json:"gps_valid"`
	DuplicateCheck bool   `json:"duplicate_check"`
	AutoDecision   string `json:"auto_decision"`
}
