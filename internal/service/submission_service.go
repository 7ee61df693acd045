package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/terraed/terra-api/internal/dto"
	"github.com/terraed/terra-api/internal/exifmeta"
	"github.com/terraed/terra-api/internal/models"
	"github.com/terraed/terra-api/internal/phash"
	"github.com/terraed/terra-api/internal/repository"
	"github.com/terraed/terra-api/internal/verification"
)

var (
	// ErrSubmissionNotFound indicates the requested submission does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrUserNotFound indicates the submitting user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEvidenceTooLarge indicates the photo exceeded the configured limit.
	ErrEvidenceTooLarge = errors.New("evidence photo exceeds maximum allowed size")
	// ErrEvidenceTypeNotAllowed indicates the photo MIME type is not permitted.
	ErrEvidenceTypeNotAllowed = errors.New("evidence photo type not allowed")
	// ErrNotReviewable indicates the submission is not awaiting manual review.
	ErrNotReviewable = errors.New("submission is not awaiting review")
	// ErrReviewerNotTeacher indicates the reviewer lacks the teacher role.
	ErrReviewerNotTeacher = errors.New("reviewer must be a teacher")
)

// SubjectSubmissionVerified is the broker subject verified-submission events
// are published on.
const SubjectSubmissionVerified = "terra.submissions.verified"

// FileUploader abstracts evidence photo storage.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// EventPublisher abstracts the message broker. *nats.Conn satisfies it.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// PointsRules carries the gamification limits applied when awarding points.
type PointsRules struct {
	MonthlyCap         int
	StreakBonus        int
	StreakRequiredDays int
}

func (r *PointsRules) applyDefaults() {
	if r.MonthlyCap == 0 {
		r.MonthlyCap = 200
	}
	if r.StreakBonus == 0 {
		r.StreakBonus = 10
	}
	if r.StreakRequiredDays == 0 {
		r.StreakRequiredDays = 3
	}
}

// submissionVerifiedEvent is the broker payload for a finished verification.
type submissionVerifiedEvent struct {
	SubmissionID  uint      `json:"submission_id"`
	QuestID       uint      `json:"quest_id"`
	UserID        uint      `json:"user_id"`
	PipelineID    string    `json:"pipeline_id"`
	Status        string    `json:"status"`
	Decision      string    `json:"decision,omitempty"`
	PointsAwarded int       `json:"points_awarded"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// SubmissionService handles evidence intake, verification kickoff, point
// awards and manual review.
type SubmissionService interface {
	Create(ctx context.Context, req dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	GetByID(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	Review(ctx context.Context, id uint, req dto.SubmissionReviewRequest) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions  repository.SubmissionRepository
	quests       repository.QuestRepository
	users        repository.UserRepository
	wallet       repository.WalletRepository
	uploader     FileUploader
	verifier     *verification.Service
	events       EventPublisher
	sanitizer    *bluemonday.Policy
	rules        PointsRules
	maxSize      int64
	allowedTypes []string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewSubmissionService constructs the submission service. The uploader and
// events publisher may be nil; intake then skips storage respectively event
// publication.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	quests repository.QuestRepository,
	users repository.UserRepository,
	wallet repository.WalletRepository,
	uploader FileUploader,
	verifier *verification.Service,
	events EventPublisher,
	rules PointsRules,
	maxSizeMB int,
	allowedTypes []string,
	logger zerolog.Logger,
) SubmissionService {
	rules.applyDefaults()
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	if len(allowedTypes) == 0 {
		allowedTypes = []string{"image/jpeg", "image/png", "image/webp"}
	}

	return &submissionService{
		submissions:  submissions,
		quests:       quests,
		users:        users,
		wallet:       wallet,
		uploader:     uploader,
		verifier:     verifier,
		events:       events,
		sanitizer:    bluemonday.StrictPolicy(),
		rules:        rules,
		maxSize:      int64(maxSizeMB) * 1024 * 1024,
		allowedTypes: allowedTypes,
		logger:       logger.With().Str("component", "submission_service").Logger(),
		now:          time.Now,
	}
}

func (s *submissionService) Create(ctx context.Context, req dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	quest, err := s.quests.GetByID(ctx, req.QuestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrQuestNotFound
		}
		return dto.SubmissionResponse{}, fmt.Errorf("failed to load quest: %w", err)
	}
	if quest.IsExpired(s.now()) {
		return dto.SubmissionResponse{}, ErrQuestExpired
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrUserNotFound
		}
		return dto.SubmissionResponse{}, fmt.Errorf("failed to load user: %w", err)
	}

	submission := models.Submission{
		QuestID: quest.ID,
		UserID:  user.ID,
		Caption: strings.TrimSpace(s.sanitizer.Sanitize(req.Caption)),
		GPSLat:  req.GPSLat,
		GPSLng:  req.GPSLng,
		Status:  models.SubmissionStatusPending,
	}

	// The photo is optional. Without one the pipeline reports no image and
	// routes the submission to manual review.
	if file != nil {
		if err := s.attachEvidence(ctx, &submission, file); err != nil {
			return dto.SubmissionResponse{}, err
		}
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to create submission: %w", err)
	}

	pipelineID, _, done, err := s.verifier.StartVerification(ctx, submission, quest)
	if err != nil {
		// The submission stays pending; verification can be retried manually.
		s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to start verification")
	} else {
		submission.PipelineID = pipelineID
		if err := s.submissions.Update(ctx, &submission); err != nil {
			s.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to persist pipeline id")
		}
		go s.awaitOutcome(context.WithoutCancel(ctx), submission.ID, quest, done)
	}

	submission.Quest = quest
	submission.User = user

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		QuestID: filter.QuestID,
		UserID:  filter.UserID,
		Status:  filter.Status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) GetByID(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, fmt.Errorf("failed to load submission: %w", err)
	}

	return dto.NewSubmissionResponse(submission), nil
}

// Review applies a teacher's verdict to a submission the pipeline flagged.
// Approval awards the quest points unless the submission already carries an
// award.
func (s *submissionService) Review(ctx context.Context, id uint, req dto.SubmissionReviewRequest) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission.Status != models.SubmissionStatusReview {
		return dto.SubmissionResponse{}, ErrNotReviewable
	}

	reviewer, err := s.users.GetByID(ctx, req.ReviewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrUserNotFound
		}
		return dto.SubmissionResponse{}, fmt.Errorf("failed to load reviewer: %w", err)
	}
	if !reviewer.IsTeacher() {
		return dto.SubmissionResponse{}, ErrReviewerNotTeacher
	}

	reviewedAt := s.now()
	submission.ReviewedBy = &reviewer.ID
	submission.ReviewedAt = &reviewedAt
	submission.ReviewNotes = strings.TrimSpace(s.sanitizer.Sanitize(req.ReviewNotes))

	if *req.Approved {
		submission.Status = models.SubmissionStatusApproved
		if submission.PointsAwarded == 0 {
			awarded, err := s.awardPoints(ctx, &submission, submission.Quest)
			if err != nil {
				return dto.SubmissionResponse{}, err
			}
			submission.PointsAwarded = awarded
		}
	} else {
		submission.Status = models.SubmissionStatusRejected
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to update submission: %w", err)
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("reviewer_id", reviewer.ID).
		Str("status", submission.Status).
		Msg("submission reviewed")

	return dto.NewSubmissionResponse(submission), nil
}

// attachEvidence validates the uploaded photo, extracts its metadata and
// perceptual hash, stores it and records the results on the submission.
func (s *submissionService) attachEvidence(ctx context.Context, submission *models.Submission, file *multipart.FileHeader) error {
	if file.Size > s.maxSize {
		return ErrEvidenceTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(buf.Len()) > s.maxSize {
		return ErrEvidenceTooLarge
	}

	detected := mimetype.Detect(buf.Bytes()).String()
	if !s.typeAllowed(detected) {
		return ErrEvidenceTypeNotAllowed
	}
	submission.FileSize = int64(buf.Len())
	submission.FileType = detected

	if meta, err := exifmeta.Extract(bytes.NewReader(buf.Bytes())); err == nil {
		submission.CaptureTime = meta.CaptureTime
		submission.CameraModel = meta.CameraModel
		if !submission.HasGPS() && meta.Lat != nil && meta.Lng != nil {
			submission.GPSLat = meta.Lat
			submission.GPSLng = meta.Lng
		}
	}

	if hash, err := phash.FromImage(bytes.NewReader(buf.Bytes())); err == nil {
		submission.PerceptualHash = hash
	} else {
		s.logger.Warn().Err(err).Str("file", file.Filename).Msg("failed to compute perceptual hash")
	}

	if s.uploader != nil {
		url, err := s.uploader.Upload(ctx, file.Filename, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return fmt.Errorf("failed to store evidence photo: %w", err)
		}
		submission.ImageURL = url
	}

	return nil
}

func (s *submissionService) typeAllowed(mime string) bool {
	for _, allowed := range s.allowedTypes {
		if strings.EqualFold(allowed, mime) {
			return true
		}
	}
	return false
}

// awaitOutcome blocks on the pipeline's done channel and applies the verdict
// to the submission. A failed pipeline leaves the submission pending.
func (s *submissionService) awaitOutcome(ctx context.Context, submissionID uint, quest models.Quest, done <-chan verification.Outcome) {
	outcome := <-done

	if outcome.Err != nil || outcome.Status == verification.StatusFailed {
		s.logger.Warn().
			Err(outcome.Err).
			Uint("submission_id", submissionID).
			Str("failed_step", outcome.FailedStep).
			Msg("verification pipeline failed, submission needs manual attention")
		return
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submissionID).Msg("failed to reload submission after verification")
		return
	}

	submission.Report = outcome.Report

	awarded := 0
	switch outcome.Report.AutoDecision {
	case models.DecisionPass:
		submission.Status = models.SubmissionStatusAutoPass
		awarded, err = s.awardPoints(ctx, &submission, quest)
		if err != nil {
			s.logger.Error().Err(err).Uint("submission_id", submissionID).Msg("failed to award points")
		}
		submission.PointsAwarded = awarded
	case models.DecisionReview:
		submission.Status = models.SubmissionStatusReview
	case models.DecisionReject:
		submission.Status = models.SubmissionStatusRejected
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		s.logger.Error().Err(err).Uint("submission_id", submissionID).Msg("failed to persist verification verdict")
		return
	}

	s.logger.Info().
		Uint("submission_id", submissionID).
		Str("decision", outcome.Report.AutoDecision).
		Str("status", submission.Status).
		Int("points_awarded", awarded).
		Msg("verification finished")

	s.publishVerified(submission, outcome, awarded)
}

// awardPoints credits the quest's points to the submitter, applying the
// monthly cap and the activity streak bonus, and records wallet transactions.
func (s *submissionService) awardPoints(ctx context.Context, submission *models.Submission, quest models.Quest) (int, error) {
	user, err := s.users.GetByID(ctx, submission.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to load user for award: %w", err)
	}

	now := s.now()
	if !sameMonth(user.LastActivity, now) {
		user.MonthlyPoints = 0
	}

	amount := quest.Points
	if remaining := s.rules.MonthlyCap - user.MonthlyPoints; amount > remaining {
		amount = remaining
	}
	if amount < 0 {
		amount = 0
	}

	switch {
	case sameDay(user.LastActivity, now):
		// Streak unchanged, multiple quests on one day count once.
	case sameDay(user.LastActivity.Add(24*time.Hour), now):
		user.Streak++
	default:
		user.Streak = 1
	}

	bonus := 0
	if user.Streak >= s.rules.StreakRequiredDays && amount > 0 {
		bonus = s.rules.StreakBonus
	}

	user.Points += amount + bonus
	user.MonthlyPoints += amount
	user.LastActivity = now

	if err := s.users.Update(ctx, &user); err != nil {
		return 0, fmt.Errorf("failed to update user points: %w", err)
	}

	if amount > 0 {
		questID := quest.ID
		earned := models.WalletTransaction{
			UserID:      user.ID,
			Type:        models.TransactionEarned,
			Amount:      amount,
			Description: fmt.Sprintf("Completed quest: %s", quest.Title),
			QuestID:     &questID,
		}
		if err := s.wallet.CreateTransaction(ctx, &earned); err != nil {
			return 0, fmt.Errorf("failed to record earned transaction: %w", err)
		}
	}

	if bonus > 0 {
		bonusTx := models.WalletTransaction{
			UserID:      user.ID,
			Type:        models.TransactionBonus,
			Amount:      bonus,
			Description: fmt.Sprintf("%d-day activity streak bonus", user.Streak),
		}
		if err := s.wallet.CreateTransaction(ctx, &bonusTx); err != nil {
			return 0, fmt.Errorf("failed to record bonus transaction: %w", err)
		}
	}

	return amount + bonus, nil
}

func (s *submissionService) publishVerified(submission models.Submission, outcome verification.Outcome, awarded int) {
	if s.events == nil {
		return
	}

	event := submissionVerifiedEvent{
		SubmissionID:  submission.ID,
		QuestID:       submission.QuestID,
		UserID:        submission.UserID,
		PipelineID:    outcome.PipelineID,
		Status:        outcome.Status,
		PointsAwarded: awarded,
		OccurredAt:    s.now().UTC(),
	}
	if outcome.Report != nil {
		event.Decision = outcome.Report.AutoDecision
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal verification event")
		return
	}

	if err := s.events.Publish(SubjectSubmissionVerified, payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to publish verification event")
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}
