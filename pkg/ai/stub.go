package ai

import (
	"context"
	"hash/fnv"
	"strings"
	"time"
)

// StubAnalyzer is a deterministic stand-in for the vision capability, used in
// demo mode and as the fallback when the real backend is unavailable. The
// confidence is derived from the input so repeated calls agree.
type StubAnalyzer struct{}

// AnalyzeImage returns a confidence in [0.75, 0.95) derived from the image
// reference and caption, and echoes the expected labels back.
func (StubAnalyzer) AnalyzeImage(_ context.Context, input AnalysisInput) (AnalysisResult, error) {
	confidence := 0.75 + 0.2*fraction(input.ImageURL+input.Caption)

	labels := input.ExpectedLabels
	if len(labels) > 3 {
		labels = labels[:3]
	}
	labels = append(append([]string{}, labels...), "authentic", "educational")

	return AnalysisResult{Confidence: confidence, Labels: labels}, nil
}

// stubDenylist drives the stand-in moderator. Deliberately tiny; the real
// moderation backend owns the actual policy.
var stubDenylist = []string{"vape", "weapon", "nsfw"}

// StubModerator flags captions containing denylisted words.
type StubModerator struct{}

// Moderate screens the caption against the denylist.
func (StubModerator) Moderate(_ context.Context, input ModerationInput) (ModerationResult, error) {
	caption := strings.ToLower(input.Caption)
	for _, word := range stubDenylist {
		if strings.Contains(caption, word) {
			return ModerationResult{Flagged: true, Categories: []string{"denylist"}}, nil
		}
	}
	return ModerationResult{}, nil
}

type questTemplate struct {
	title    string
	summary  string
	activity string
}

var questTemplates = map[string]questTemplate{
	"waste": {
		title:    "Zero Waste Lunch Challenge",
		summary:  "Pack and eat a completely zero-waste lunch for one week",
		activity: "eliminate single-use packaging",
	},
	"energy": {
		title:    "Home Energy Detective",
		summary:  "Conduct an energy audit of your home and identify savings",
		activity: "audit energy usage",
	},
	"water": {
		title:    "Water Conservation Hero",
		summary:  "Install water-saving devices and track usage",
		activity: "conserve water",
	},
	"biodiversity": {
		title:    "Native Plant Guardian",
		summary:  "Plant native species in your school or community garden",
		activity: "plant native species",
	},
	"transport": {
		title:    "Green Commute Champion",
		summary:  "Use sustainable transport for a full week",
		activity: "use eco-friendly transport",
	},
}

// StubQuestGenerator produces template-based quests without calling a model.
type StubQuestGenerator struct {
	Now func() time.Time
}

// GenerateQuest fills the topic template, deriving difficulty and points from
// the grade.
func (g StubQuestGenerator) GenerateQuest(_ context.Context, prompt QuestPrompt) (QuestDraft, error) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	template, ok := questTemplates[prompt.Topic]
	if !ok {
		template = questTemplate{
			title:    "Community Environmental Action",
			summary:  "Complete a local environmental action of your choice",
			activity: "take environmental action",
		}
	}

	difficulty := "hard"
	points := 35
	switch {
	case prompt.Grade <= 6:
		difficulty = "easy"
		points = 15
	case prompt.Grade <= 9:
		difficulty = "medium"
		points = 25
	}

	return QuestDraft{
		Title:           template.title,
		Summary:         template.summary + " - designed for grade students in " + prompt.City,
		Instructions:    "This quest is designed for your grade level. " + template.activity + " and document your process with clear photos and detailed descriptions.",
		Category:        prompt.Topic,
		Difficulty:      difficulty,
		Points:          points,
		LocationHint:    prompt.City,
		LocationRadiusM: 2000,
		SafetyNotes:     "Always follow safety guidelines and ask for adult supervision when needed.",
		EstimatedTime:   45,
		Expiry:          now().Add(30 * 24 * time.Hour),
	}, nil
}

// fraction maps a string onto [0,1) deterministically.
func fraction(s string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return float64(h.Sum32()%1000) / 1000
}
