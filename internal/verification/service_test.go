package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/terraed/terra-api/internal/models"
	"github.com/terraed/terra-api/pkg/ai"
)

type stubAnalyzer struct {
	confidence float64
	labels     []string
	err        error
}

func (s stubAnalyzer) AnalyzeImage(context.Context, ai.AnalysisInput) (ai.AnalysisResult, error) {
	if s.err != nil {
		return ai.AnalysisResult{}, s.err
	}
	return ai.AnalysisResult{Confidence: s.confidence, Labels: s.labels}, nil
}

type stubModerator struct {
	flagged bool
	err     error
}

func (s stubModerator) Moderate(context.Context, ai.ModerationInput) (ai.ModerationResult, error) {
	if s.err != nil {
		return ai.ModerationResult{}, s.err
	}
	return ai.ModerationResult{Flagged: s.flagged}, nil
}

type stubIndex struct {
	score   float64
	matches []uint
	err     error
}

func (s stubIndex) NearestMatch(context.Context, models.Submission) (float64, []uint, error) {
	return s.score, s.matches, s.err
}

func testTime() time.Time {
	return time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
}

func newTestService(analyzer ai.ImageAnalyzer, moderator ai.ContentModerator, index DuplicateIndex) *Service {
	svc := NewService(NewMemoryStore(), analyzer, moderator, index, Config{}, zerolog.Nop())
	svc.now = testTime
	return svc
}

func validSubmission() models.Submission {
	captured := testTime().Add(-2 * time.Hour)
	lat, lng := -6.2, 106.81
	return models.Submission{
		ID:          7,
		QuestID:     3,
		UserID:      5,
		ImageURL:    "https://cdn.example.com/evidence.jpg",
		FileSize:    1024 * 1024,
		FileType:    "image/jpeg",
		CaptureTime: &captured,
		CameraModel: "Pixel 8",
		GPSLat:      &lat,
		GPSLng:      &lng,
	}
}

func geofencedQuest(lat, lng, radius float64) models.Quest {
	return models.Quest{
		ID:              3,
		Title:           "Plant a Sapling",
		Category:        models.CategoryBiodiversity,
		Expiry:          testTime().Add(24 * time.Hour),
		LocationLat:     &lat,
		LocationLng:     &lng,
		LocationRadiusM: &radius,
	}
}

func awaitOutcome(t *testing.T, done <-chan Outcome) Outcome {
	t.Helper()
	select {
	case outcome := <-done:
		return outcome
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pipeline outcome")
		return Outcome{}
	}
}

func TestStartVerificationAutoPass(t *testing.T) {
	svc := newTestService(stubAnalyzer{confidence: 0.9, labels: []string{"sapling"}}, stubModerator{}, stubIndex{score: 0.1})

	submission := validSubmission()
	quest := geofencedQuest(*submission.GPSLat, *submission.GPSLng, 500)

	pipelineID, snapshot, done, err := svc.StartVerification(context.Background(), submission, quest)
	require.NoError(t, err)
	require.Regexp(t, `^pipeline_7_\d+$`, pipelineID)
	require.Len(t, snapshot.Steps, 7)

	outcome := awaitOutcome(t, done)
	require.NoError(t, outcome.Err)
	require.Equal(t, StatusCompleted, outcome.Status)
	require.NotNil(t, outcome.Report)
	require.Equal(t, models.DecisionPass, outcome.Report.AutoDecision)
	require.Equal(t, 0.9, outcome.Report.Confidence)
	require.True(t, outcome.Report.EXIFValid)

	final, err := svc.GetPipelineStatus(context.Background(), pipelineID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, final.OverallStatus)
	require.NotNil(t, final.EndTime)
	for _, step := range final.Steps {
		require.Equal(t, StepCompleted, step.Status)
	}
}

func TestStartVerificationOutsideRadiusGoesToReview(t *testing.T) {
	svc := newTestService(stubAnalyzer{confidence: 0.9}, stubModerator{}, stubIndex{})

	submission := validSubmission()
	// Roughly 1.5km north of the quest location with a 1km allowed radius.
	lat := *submission.GPSLat + 0.0135
	quest := geofencedQuest(lat, *submission.GPSLng, 1000)

	_, _, done, err := svc.StartVerification(context.Background(), submission, quest)
	require.NoError(t, err)

	outcome := awaitOutcome(t, done)
	require.Equal(t, StatusCompleted, outcome.Status)
	require.Equal(t, models.DecisionReview, outcome.Report.AutoDecision)
	require.Contains(t, outcome.Report.Reasons, IssueOutsideAllowedRadius)
	// The confidence floor comes from the analyzer, not the geofence.
	require.Equal(t, 0.9, outcome.Report.Confidence)
	require.True(t, outcome.Report.GPSValid)
}

func TestStartVerificationGeofenceBoundaryInclusive(t *testing.T) {
	svc := newTestService(stubAnalyzer{confidence: 0.9}, stubModerator{}, stubIndex{})

	submission := validSubmission()
	// Zero distance against a zero radius still passes.
	quest := geofencedQuest(*submission.GPSLat, *submission.GPSLng, 0)

	_, _, done, err := svc.StartVerification(context.Background(), submission, quest)
	require.NoError(t, err)

	outcome := awaitOutcome(t, done)
	require.Equal(t, models.DecisionPass, outcome.Report.AutoDecision)
	require.NotContains(t, outcome.Report.Reasons, IssueOutsideAllowedRadius)
}

func TestStartVerificationDuplicateGoesToReview(t *testing.T) {
	svc := newTestService(stubAnalyzer{confidence: 0.95}, stubModerator{}, stubIndex{score: 0.95, matches: []uint{2}})

	submission := validSubmission()
	quest := geofencedQuest(*submission.GPSLat, *submission.GPSLng, 500)

	_, _, done, err := svc.StartVerification(context.Background(), submission, quest)
	require.NoError(t, err)

	outcome := awaitOutcome(t, done)
	require.Equal(t, models.DecisionReview, outcome.Report.AutoDecision)
	require.Contains(t, outcome.Report.Reasons, IssuePotentialDuplicate)
	require.False(t, outcome.Report.DuplicateCheck)
	require.Equal(t, 0.95, outcome.Report.PHashScore)
}

func TestStartVerificationFlaggedContentRejected(t *testing.T) {
	svc := newTestService(stubAnalyzer{confidence: 0.95}, stubModerator{flagged: true}, stubIndex{})

	submission := validSubmission()
	quest := geofencedQuest(*submission.GPSLat, *submission.GPSLng, 500)

	_, _, done, err := svc.StartVerification(context.Background(), submission, quest)
	require.NoError(t, err)

	outcome := awaitOutcome(t, done)
	require.Equal(t, models.DecisionReject, outcome.Report.AutoDecision)
	require.Contains(t, outcome.Report.Reasons, IssueInappropriateContent)
}

func TestStartVerificationWithoutImageGoesToReview(t *testing.T) {
	svc := newTestService(stubAnalyzer{confidence: 0.95}, stubModerator{}, stubIndex{})

	submission := validSubmission()
	submission.ImageURL = ""
	submission.FileType = ""
	quest := geofencedQuest(*submission.GPSLat, *submission.GPSLng, 500)

	_, _, done, err := svc.StartVerification(context.Background(), submission, quest)
	require.NoError(t, err)

	outcome := awaitOutcome(t, done)
	require.Equal(t, StatusCompleted, outcome.Status)
	require.Equal(t, models.DecisionReview, outcome.Report.AutoDecision)
	require.Contains(t, outcome.Report.Reasons, IssueNoImageProvided)
	require.Equal(t, 0.0, outcome.Report.Confidence)
}

func TestStartVerificationFailFast(t *testing.T) {
	svc := newTestService(stubAnalyzer{confidence: 0.9}, stubModerator{}, stubIndex{err: errors.New("index offline")})

	submission := validSubmission()
	quest := geofencedQuest(*submission.GPSLat, *submission.GPSLng, 500)

	pipelineID, _, done, err := svc.StartVerification(context.Background(), submission, quest)
	require.NoError(t, err)

	outcome := awaitOutcome(t, done)
	require.Error(t, outcome.Err)
	require.Equal(t, StatusFailed, outcome.Status)
	require.Equal(t, StepDuplicateDetection, outcome.FailedStep)
	require.Nil(t, outcome.Report)

	snapshot, err := svc.GetPipelineStatus(context.Background(), pipelineID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, snapshot.OverallStatus)
	require.Nil(t, snapshot.FinalReport)

	require.Equal(t, StepCompleted, snapshot.Steps[0].Status)
	require.Equal(t, StepCompleted, snapshot.Steps[1].Status)
	require.Equal(t, StepCompleted, snapshot.Steps[2].Status)
	require.Equal(t, StepFailed, snapshot.Steps[3].Status)
	require.Equal(t, StepPending, snapshot.Steps[4].Status)
	require.Equal(t, StepPending, snapshot.Steps[5].Status)
	require.Equal(t, StepPending, snapshot.Steps[6].Status)
}

func TestStartVerificationValidatesInput(t *testing.T) {
	svc := newTestService(stubAnalyzer{}, stubModerator{}, stubIndex{})

	_, _, _, err := svc.StartVerification(context.Background(), models.Submission{}, models.Quest{ID: 1})
	require.ErrorIs(t, err, ErrInvalidSubmission)

	_, _, _, err = svc.StartVerification(context.Background(), models.Submission{ID: 1}, models.Quest{})
	require.ErrorIs(t, err, ErrMissingQuest)
}

func TestGetPipelineStatusNotFound(t *testing.T) {
	svc := newTestService(stubAnalyzer{}, stubModerator{}, stubIndex{})

	_, err := svc.GetPipelineStatus(context.Background(), "pipeline_404_0")
	require.ErrorIs(t, err, ErrPipelineNotFound)
}

// gatedAnalyzer blocks inside image analysis until released, so a test can
// observe the pipeline mid-flight.
type gatedAnalyzer struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedAnalyzer) AnalyzeImage(ctx context.Context, _ ai.AnalysisInput) (ai.AnalysisResult, error) {
	close(g.entered)
	select {
	case <-g.release:
	case <-ctx.Done():
		return ai.AnalysisResult{}, ctx.Err()
	}
	return ai.AnalysisResult{Confidence: 0.9, Labels: []string{"sapling"}}, nil
}

func TestStartVerificationStepOrdering(t *testing.T) {
	analyzer := &gatedAnalyzer{entered: make(chan struct{}), release: make(chan struct{})}
	svc := newTestService(analyzer, stubModerator{}, stubIndex{score: 0.1})

	submission := validSubmission()
	quest := geofencedQuest(*submission.GPSLat, *submission.GPSLng, 500)

	pipelineID, _, done, err := svc.StartVerification(context.Background(), submission, quest)
	require.NoError(t, err)

	select {
	case <-analyzer.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("image analysis never started")
	}

	// While analysis blocks, every earlier step is terminal and no later
	// step has left pending.
	snapshot, err := svc.GetPipelineStatus(context.Background(), pipelineID)
	require.NoError(t, err)
	require.Equal(t, StatusRunning, snapshot.OverallStatus)
	for i := 0; i < 4; i++ {
		require.Equal(t, StepCompleted, snapshot.Steps[i].Status, snapshot.Steps[i].Name)
	}
	require.Equal(t, StepRunning, snapshot.Steps[4].Status)
	require.Equal(t, StepPending, snapshot.Steps[5].Status)
	require.Equal(t, StepPending, snapshot.Steps[6].Status)

	close(analyzer.release)
	outcome := awaitOutcome(t, done)
	require.Equal(t, StatusCompleted, outcome.Status)

	final, err := svc.GetPipelineStatus(context.Background(), pipelineID)
	require.NoError(t, err)
	for _, step := range final.Steps {
		require.Equal(t, StepCompleted, step.Status, step.Name)
	}
}
