package verification

import (
	"time"

	"github.com/terraed/terra-api/internal/models"
)

// Pipeline statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Pipeline is the per-submission execution context: exactly seven step
// records in fixed order plus the overall status and, once completed, the
// final report. A pipeline is created fresh for every verification attempt
// and never reused.
type Pipeline struct {
	ID            string                     `json:"id"`
	SubmissionID  uint                       `json:"submission_id"`
	Steps         []Step                     `json:"steps"`
	OverallStatus string                     `json:"overall_status"`
	FinalReport   *models.VerificationReport `json:"final_report,omitempty"`
	StartTime     time.Time                  `json:"start_time"`
	EndTime       *time.Time                 `json:"end_time,omitempty"`
}

func newPipeline(id string, submissionID uint, startTime time.Time) *Pipeline {
	steps := make([]Step, len(StepOrder))
	for i, name := range StepOrder {
		steps[i] = Step{Name: name, Status: StepPending}
	}

	return &Pipeline{
		ID:            id,
		SubmissionID:  submissionID,
		Steps:         steps,
		OverallStatus: StatusPending,
		StartTime:     startTime,
	}
}

// IsTerminal reports whether the pipeline has finished, successfully or not.
func (p *Pipeline) IsTerminal() bool {
	return p.OverallStatus == StatusCompleted || p.OverallStatus == StatusFailed
}

// Clone returns a deep copy safe to hand to external readers while the
// owning goroutine keeps mutating the original.
func (p *Pipeline) Clone() Pipeline {
	clone := *p
	clone.Steps = make([]Step, len(p.Steps))
	copy(clone.Steps, p.Steps)

	if p.EndTime != nil {
		end := *p.EndTime
		clone.EndTime = &end
	}

	if p.FinalReport != nil {
		report := *p.FinalReport
		report.Labels = append([]string{}, p.FinalReport.Labels...)
		report.Reasons = append([]string{}, p.FinalReport.Reasons...)
		clone.FinalReport = &report
	}

	return clone
}
