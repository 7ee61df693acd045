package verification

import (
	"github.com/terraed/terra-api/internal/models"
)

// FinalDecisionResult is the final step's execution record: the aggregated
// report. The decision step itself emits no issue tags.
type FinalDecisionResult struct {
	Report models.VerificationReport `json:"report"`
}

func (FinalDecisionResult) Issues() []string { return nil }

// makeFinalDecision aggregates the results of steps 1-6.
//
// The decision tie-break order, highest priority first:
//  1. inappropriate_content or invalid_file_type -> reject
//  2. confidence below the auto-pass threshold, potential_duplicate, or
//     outside_allowed_radius -> review
//  3. otherwise -> pass
func (s *Service) makeFinalDecision(pipeline Pipeline) models.VerificationReport {
	allIssues := []string{}
	confidence := 1.0

	for _, step := range pipeline.Steps {
		if step.Result == nil {
			continue
		}

		allIssues = append(allIssues, step.Result.Issues()...)

		// Fold the minimum over every confidence-bearing step. Steps without
		// a confidence do not constrain the floor.
		if reporter, ok := step.Result.(confidenceReporter); ok {
			if value := reporter.ConfidenceValue(); value < confidence {
				confidence = value
			}
		}
	}

	decision := models.DecisionPass
	switch {
	case contains(allIssues, IssueInappropriateContent) || contains(allIssues, IssueInvalidFileType):
		decision = models.DecisionReject
	case confidence < s.cfg.AutoPassThreshold ||
		contains(allIssues, IssuePotentialDuplicate) ||
		contains(allIssues, IssueOutsideAllowedRadius):
		decision = models.DecisionReview
	}

	report := models.VerificationReport{
		Confidence:     confidence,
		Labels:         []string{},
		Reasons:        allIssues,
		DuplicateCheck: !contains(allIssues, IssuePotentialDuplicate),
		AutoDecision:   decision,
	}

	if analysis, ok := pipeline.Steps[4].Result.(ImageAnalysisResult); ok {
		report.Labels = analysis.Labels
	}
	if duplicate, ok := pipeline.Steps[3].Result.(DuplicateResult); ok {
		report.PHashScore = duplicate.SimilarityScore
	}
	if exif, ok := pipeline.Steps[1].Result.(EXIFResult); ok {
		report.EXIFValid = exif.HasEXIF
		// GPSValid has always mirrored the EXIF presence flag rather than
		// the geofence step's outcome. Candidate correction; changing it
		// needs product sign-off because downstream consumers read it as-is.
		report.GPSValid = exif.HasEXIF
	}

	return report
}

func contains(issues []string, tag string) bool {
	for _, issue := range issues {
		if issue == tag {
			return true
		}
	}
	return false
}
