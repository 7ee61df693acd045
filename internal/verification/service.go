package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/terraed/terra-api/internal/geo"
	"github.com/terraed/terra-api/internal/models"
	"github.com/terraed/terra-api/internal/observability"
	"github.com/terraed/terra-api/pkg/ai"
)

// ErrInvalidSubmission indicates the submission is malformed and no pipeline
// was created.
var ErrInvalidSubmission = errors.New("invalid submission")

// ErrMissingQuest indicates the quest reference could not be resolved and no
// pipeline was created.
var ErrMissingQuest = errors.New("missing quest")

// DuplicateIndex looks up the best perceptual-similarity match for a
// submission among prior submissions.
type DuplicateIndex interface {
	NearestMatch(ctx context.Context, submission models.Submission) (score float64, matches []uint, err error)
}

// Config carries the decision thresholds and step limits.
type Config struct {
	AutoPassThreshold  float64
	ReviewThreshold    float64
	DuplicateThreshold float64
	MaxFileSizeBytes   int64
	AllowedImageTypes  []string
	MaxImageAge        time.Duration
	AnalysisTimeout    time.Duration
}

func (c *Config) applyDefaults() {
	if c.AutoPassThreshold == 0 {
		c.AutoPassThreshold = 0.75
	}
	if c.ReviewThreshold == 0 {
		c.ReviewThreshold = 0.5
	}
	if c.DuplicateThreshold == 0 {
		c.DuplicateThreshold = 0.9
	}
	if c.MaxFileSizeBytes == 0 {
		c.MaxFileSizeBytes = 5 * 1024 * 1024
	}
	if len(c.AllowedImageTypes) == 0 {
		c.AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}
	}
	if c.MaxImageAge == 0 {
		c.MaxImageAge = 7 * 24 * time.Hour
	}
	if c.AnalysisTimeout == 0 {
		c.AnalysisTimeout = 30 * time.Second
	}
}

// Outcome is delivered on the done channel once a pipeline reaches a
// terminal state.
type Outcome struct {
	PipelineID string
	Status     string
	Report     *models.VerificationReport
	FailedStep string
	Err        error
}

// Service orchestrates verification pipelines: one per verification attempt,
// seven steps executed strictly in order, fail-fast on the first step error.
type Service struct {
	store      Store
	analyzer   ai.ImageAnalyzer
	moderator  ai.ContentModerator
	duplicates DuplicateIndex
	cfg        Config
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService constructs the orchestrator with explicit capabilities.
func NewService(store Store, analyzer ai.ImageAnalyzer, moderator ai.ContentModerator, duplicates DuplicateIndex, cfg Config, logger zerolog.Logger) *Service {
	cfg.applyDefaults()

	return &Service{
		store:      store,
		analyzer:   analyzer,
		moderator:  moderator,
		duplicates: duplicates,
		cfg:        cfg,
		logger:     logger.With().Str("component", "verification_service").Logger(),
		now:        time.Now,
	}
}

// StartVerification creates a fresh pipeline for the submission and begins
// executing it in the background. It returns immediately with the initial
// snapshot and a buffered channel that receives exactly one Outcome when the
// pipeline terminates.
func (s *Service) StartVerification(ctx context.Context, submission models.Submission, quest models.Quest) (string, Pipeline, <-chan Outcome, error) {
	if submission.ID == 0 {
		return "", Pipeline{}, nil, ErrInvalidSubmission
	}
	if quest.ID == 0 {
		return "", Pipeline{}, nil, ErrMissingQuest
	}

	start := s.now()
	pipelineID := fmt.Sprintf("pipeline_%d_%d", submission.ID, start.UnixMilli())

	pipeline := newPipeline(pipelineID, submission.ID, start)
	if err := s.store.Put(ctx, pipeline); err != nil {
		return "", Pipeline{}, nil, fmt.Errorf("store pipeline: %w", err)
	}

	done := make(chan Outcome, 1)
	go s.run(context.WithoutCancel(ctx), pipelineID, submission, quest, done)

	snapshot, err := s.store.Get(ctx, pipelineID)
	if err != nil {
		return "", Pipeline{}, nil, err
	}

	return pipelineID, snapshot, done, nil
}

// GetPipelineStatus returns a read-only snapshot of the pipeline.
func (s *Service) GetPipelineStatus(ctx context.Context, pipelineID string) (Pipeline, error) {
	return s.store.Get(ctx, pipelineID)
}

func (s *Service) run(ctx context.Context, pipelineID string, submission models.Submission, quest models.Quest, done chan<- Outcome) {
	logger := s.logger.With().Str("pipeline_id", pipelineID).Uint("submission_id", submission.ID).Logger()

	s.mustUpdate(ctx, pipelineID, func(p *Pipeline) {
		p.OverallStatus = StatusRunning
	})

	evaluators := []struct {
		name string
		fn   func(context.Context) (StepResult, error)
	}{
		{StepFileValidation, func(context.Context) (StepResult, error) {
			return s.validateFile(submission), nil
		}},
		{StepEXIFAnalysis, func(context.Context) (StepResult, error) {
			return s.analyzeEXIF(submission), nil
		}},
		{StepGPSVerification, func(context.Context) (StepResult, error) {
			return s.verifyGPS(submission, quest), nil
		}},
		{StepDuplicateDetection, func(stepCtx context.Context) (StepResult, error) {
			return s.detectDuplicates(stepCtx, submission)
		}},
		{StepImageAnalysis, func(stepCtx context.Context) (StepResult, error) {
			return s.analyzeImage(stepCtx, submission, quest)
		}},
		{StepContentModeration, func(stepCtx context.Context) (StepResult, error) {
			return s.moderateContent(stepCtx, submission)
		}},
	}

	for idx, evaluator := range evaluators {
		if err := s.runStep(ctx, pipelineID, idx, evaluator.fn); err != nil {
			logger.Warn().Err(err).Str("step", evaluator.name).Msg("verification step failed, aborting pipeline")
			s.finish(ctx, pipelineID, StatusFailed)
			observability.VerificationRuns().WithLabelValues(StatusFailed).Inc()
			done <- Outcome{PipelineID: pipelineID, Status: StatusFailed, FailedStep: evaluator.name, Err: err}
			return
		}
	}

	var report models.VerificationReport
	decide := func(stepCtx context.Context) (StepResult, error) {
		snapshot, err := s.store.Get(stepCtx, pipelineID)
		if err != nil {
			return nil, err
		}
		report = s.makeFinalDecision(snapshot)
		return FinalDecisionResult{Report: report}, nil
	}

	if err := s.runStep(ctx, pipelineID, len(StepOrder)-1, decide); err != nil {
		logger.Error().Err(err).Msg("final decision failed, aborting pipeline")
		s.finish(ctx, pipelineID, StatusFailed)
		observability.VerificationRuns().WithLabelValues(StatusFailed).Inc()
		done <- Outcome{PipelineID: pipelineID, Status: StatusFailed, FailedStep: StepFinalDecision, Err: err}
		return
	}

	s.mustUpdate(ctx, pipelineID, func(p *Pipeline) {
		p.FinalReport = &report
	})
	s.finish(ctx, pipelineID, StatusCompleted)

	observability.VerificationRuns().WithLabelValues(report.AutoDecision).Inc()
	logger.Info().
		Str("decision", report.AutoDecision).
		Float64("confidence", report.Confidence).
		Strs("reasons", report.Reasons).
		Msg("verification pipeline completed")

	done <- Outcome{PipelineID: pipelineID, Status: StatusCompleted, Report: &report}
}

func (s *Service) runStep(ctx context.Context, pipelineID string, idx int, fn func(context.Context) (StepResult, error)) error {
	s.mustUpdate(ctx, pipelineID, func(p *Pipeline) {
		p.Steps[idx].Status = StepRunning
	})

	start := time.Now()
	result, err := fn(ctx)
	duration := time.Since(start)

	name := StepOrder[idx]
	observability.VerificationStepDuration().WithLabelValues(name).Observe(duration.Seconds())

	if err != nil {
		observability.VerificationStepFailures().WithLabelValues(name).Inc()
		s.mustUpdate(ctx, pipelineID, func(p *Pipeline) {
			p.Steps[idx].Status = StepFailed
			p.Steps[idx].Error = err.Error()
			p.Steps[idx].Duration = duration
		})
		return err
	}

	s.mustUpdate(ctx, pipelineID, func(p *Pipeline) {
		p.Steps[idx].Status = StepCompleted
		p.Steps[idx].Result = result
		p.Steps[idx].Duration = duration
	})
	return nil
}

func (s *Service) finish(ctx context.Context, pipelineID, status string) {
	end := s.now()
	s.mustUpdate(ctx, pipelineID, func(p *Pipeline) {
		p.OverallStatus = status
		p.EndTime = &end
	})
}

// mustUpdate applies an update to a pipeline the service itself created; a
// lookup miss here means the store broke its contract.
func (s *Service) mustUpdate(ctx context.Context, pipelineID string, fn func(*Pipeline)) {
	if err := s.store.Update(ctx, pipelineID, fn); err != nil {
		s.logger.Error().Err(err).Str("pipeline_id", pipelineID).Msg("pipeline store update failed")
	}
}

func (s *Service) validateFile(submission models.Submission) FileValidationResult {
	// Nothing was uploaded: there is no file to validate. The image-analysis
	// step reports the missing image.
	if submission.ImageURL == "" {
		return FileValidationResult{Valid: true, IssueTags: []string{}}
	}

	issues := []string{}
	if submission.FileSize > s.cfg.MaxFileSizeBytes {
		issues = append(issues, IssueFileTooLarge)
	}

	allowed := false
	for _, fileType := range s.cfg.AllowedImageTypes {
		if submission.FileType == fileType {
			allowed = true
			break
		}
	}
	if !allowed {
		issues = append(issues, IssueInvalidFileType)
	}

	return FileValidationResult{
		Valid:     len(issues) == 0,
		FileSize:  submission.FileSize,
		FileType:  submission.FileType,
		IssueTags: issues,
	}
}

func (s *Service) analyzeEXIF(submission models.Submission) EXIFResult {
	issues := []string{}
	hasEXIF := submission.CaptureTime != nil || submission.CameraModel != ""

	if submission.CaptureTime != nil && s.now().Sub(*submission.CaptureTime) > s.cfg.MaxImageAge {
		issues = append(issues, IssueImageTooOld)
	}

	result := EXIFResult{
		HasEXIF:   hasEXIF,
		Timestamp: submission.CaptureTime,
		Camera:    submission.CameraModel,
		IssueTags: issues,
	}

	if submission.HasGPS() {
		result.Location = &geo.Coordinate{Lat: *submission.GPSLat, Lng: *submission.GPSLng}
	}

	return result
}

func (s *Service) verifyGPS(submission models.Submission, quest models.Quest) GPSResult {
	if !submission.HasGPS() {
		return GPSResult{HasGPS: false, WithinRadius: false, IssueTags: []string{IssueNoGPSData}}
	}

	if !quest.HasGeofence() {
		return GPSResult{HasGPS: true, WithinRadius: true, IssueTags: []string{}}
	}

	distance := geo.DistanceMeters(
		geo.Coordinate{Lat: *submission.GPSLat, Lng: *submission.GPSLng},
		geo.Coordinate{Lat: *quest.LocationLat, Lng: *quest.LocationLng},
	)

	// Boundary is inclusive: a submission exactly at the allowed radius passes.
	withinRadius := distance <= *quest.LocationRadiusM

	issues := []string{}
	if !withinRadius {
		issues = append(issues, IssueOutsideAllowedRadius)
	}

	return GPSResult{
		HasGPS:         true,
		WithinRadius:   withinRadius,
		DistanceMeters: distance,
		IssueTags:      issues,
	}
}

func (s *Service) detectDuplicates(ctx context.Context, submission models.Submission) (StepResult, error) {
	score, matches, err := s.duplicates.NearestMatch(ctx, submission)
	if err != nil {
		return nil, fmt.Errorf("duplicate lookup: %w", err)
	}

	isDuplicate := score > s.cfg.DuplicateThreshold

	issues := []string{}
	if isDuplicate {
		issues = append(issues, IssuePotentialDuplicate)
	}

	return DuplicateResult{
		IsDuplicate:        isDuplicate,
		SimilarityScore:    score,
		MatchedSubmissions: matches,
		IssueTags:          issues,
	}, nil
}

func (s *Service) analyzeImage(ctx context.Context, submission models.Submission, quest models.Quest) (StepResult, error) {
	if submission.ImageURL == "" {
		return ImageAnalysisResult{
			Labels:    []string{},
			Objects:   []string{},
			IssueTags: []string{IssueNoImageProvided},
		}, nil
	}

	// The only step with genuine external latency; bound it so a hung
	// capability call fails the step instead of wedging the pipeline.
	stepCtx, cancel := context.WithTimeout(ctx, s.cfg.AnalysisTimeout)
	defer cancel()

	result, err := s.analyzer.AnalyzeImage(stepCtx, ai.AnalysisInput{
		ImageURL:       submission.ImageURL,
		QuestCategory:  quest.Category,
		QuestTitle:     quest.Title,
		ExpectedLabels: ExpectedLabels(quest.Category),
		Caption:        submission.Caption,
	})
	if err != nil {
		return nil, fmt.Errorf("image analysis: %w", err)
	}

	issues := []string{}
	if result.Confidence < s.cfg.ReviewThreshold {
		issues = append(issues, IssueLowConfidence)
	}

	return ImageAnalysisResult{
		Confidence:  result.Confidence,
		Labels:      result.Labels,
		Objects:     []string{},
		Appropriate: true,
		IssueTags:   issues,
	}, nil
}

func (s *Service) moderateContent(ctx context.Context, submission models.Submission) (StepResult, error) {
	result, err := s.moderator.Moderate(ctx, ai.ModerationInput{
		ImageURL: submission.ImageURL,
		Caption:  submission.Caption,
	})
	if err != nil {
		return nil, fmt.Errorf("content moderation: %w", err)
	}

	issues := []string{}
	flags := result.Categories
	if flags == nil {
		flags = []string{}
	}
	if result.Flagged {
		issues = append(issues, IssueInappropriateContent)
	}

	return ModerationResult{
		Appropriate: !result.Flagged,
		Flags:       flags,
		IssueTags:   issues,
	}, nil
}

// ExpectedLabels returns the semantic labels the vision capability should
// look for in a quest category.
func ExpectedLabels(category string) []string {
	switch category {
	case models.CategoryWaste:
		return []string{"container", "reusable", "recycling", "compost"}
	case models.CategoryEnergy:
		return []string{"appliance", "meter", "solar", "LED"}
	case models.CategoryWater:
		return []string{"faucet", "shower", "rain", "conservation"}
	case models.CategoryBiodiversity:
		return []string{"plant", "sapling", "garden", "wildlife"}
	case models.CategoryTransport:
		return []string{"bicycle", "bus", "walking", "sustainable"}
	default:
		return []string{"environmental", "action"}
	}
}
