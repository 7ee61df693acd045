package ai

import (
	"context"
	"time"
)

// AnalysisInput describes an image the platform wants checked against a quest.
type AnalysisInput struct {
	ImageURL       string
	QuestCategory  string
	QuestTitle     string
	ExpectedLabels []string
	Caption        string
}

// AnalysisResult is the structured outcome of an image analysis call.
// Confidence is always inside [0,1].
type AnalysisResult struct {
	Confidence float64  `json:"confidence"`
	Labels     []string `json:"labels"`
}

// ImageAnalyzer describes a vision capability able to judge whether an image
// plausibly shows the expected quest evidence. The verification pipeline
// depends only on this contract.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, input AnalysisInput) (AnalysisResult, error)
}

// ModerationInput carries the user-generated content to screen.
type ModerationInput struct {
	ImageURL string
	Caption  string
}

// ModerationResult reports whether content was flagged and why.
type ModerationResult struct {
	Flagged    bool     `json:"flagged"`
	Categories []string `json:"categories,omitempty"`
}

// ContentModerator screens submissions for inappropriate content.
type ContentModerator interface {
	Moderate(ctx context.Context, input ModerationInput) (ModerationResult, error)
}

// QuestPrompt describes the parameters for generating an educational quest.
type QuestPrompt struct {
	City         string
	Grade        int
	Topic        string
	CustomPrompt string
}

// QuestDraft is a generated quest definition awaiting persistence.
type QuestDraft struct {
	Title           string    `json:"title"`
	Summary         string    `json:"summary"`
	Instructions    string    `json:"instructions"`
	Category        string    `json:"category"`
	Difficulty      string    `json:"difficulty"`
	Points          int       `json:"points"`
	LocationHint    string    `json:"location_hint"`
	LocationRadiusM float64   `json:"location_radius_m"`
	SafetyNotes     string    `json:"safety_notes"`
	EstimatedTime   int       `json:"estimated_time"`
	Expiry          time.Time `json:"expiry"`
}

// QuestGenerator produces quest definitions from teacher parameters.
type QuestGenerator interface {
	GenerateQuest(ctx context.Context, prompt QuestPrompt) (QuestDraft, error)
}
