package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
)

// questDraftSchema constrains what the model may hand back. Drafts that do
// not validate are rejected rather than persisted.
const questDraftSchema = `{
  "type": "object",
  "required": ["title", "summary", "instructions", "category", "difficulty", "points"],
  "properties": {
    "title": {"type": "string", "minLength": 3, "maxLength": 255},
    "summary": {"type": "string", "minLength": 3, "maxLength": 512},
    "instructions": {"type": "string", "minLength": 3},
    "category": {"type": "string", "enum": ["waste", "energy", "water", "biodiversity", "transport"]},
    "difficulty": {"type": "string", "enum": ["easy", "medium", "hard"]},
    "points": {"type": "integer", "minimum": 5, "maximum": 50},
    "location_hint": {"type": "string"},
    "location_radius_m": {"type": "number", "minimum": 0},
    "safety_notes": {"type": "string"},
    "estimated_time": {"type": "integer", "minimum": 0}
  }
}`

// OpenAIQuestGenerator asks a chat model for a quest definition and validates
// the response against questDraftSchema before accepting it.
type OpenAIQuestGenerator struct {
	client *openai.Client
	model  string
	schema *jsonschema.Schema
	logger zerolog.Logger
	now    func() time.Time
}

// NewOpenAIQuestGenerator builds the generator.
func NewOpenAIQuestGenerator(cfg OpenAIConfig) (*OpenAIQuestGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	schema, err := jsonschema.CompileString("quest_draft.json", questDraftSchema)
	if err != nil {
		return nil, fmt.Errorf("compile quest draft schema: %w", err)
	}

	return &OpenAIQuestGenerator{
		client: openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey)),
		model:  cfg.Model,
		schema: schema,
		logger: cfg.Logger.With().Str("component", "quest_generator").Logger(),
		now:    time.Now,
	}, nil
}

// GenerateQuest produces a schema-validated quest draft.
func (g *OpenAIQuestGenerator) GenerateQuest(ctx context.Context, prompt QuestPrompt) (QuestDraft, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You design real-world environmental education quests for school students. Respond with a JSON object" +
					" containing title, summary, instructions, category, difficulty, points, location_hint, location_radius_m," +
					" safety_notes and estimated_time (minutes).",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildQuestPrompt(prompt),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return QuestDraft{}, fmt.Errorf("openai generate quest: %w", err)
	}

	if len(resp.Choices) == 0 {
		return QuestDraft{}, fmt.Errorf("no choices returned from openai")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	var generic interface{}
	if err := json.Unmarshal([]byte(content), &generic); err != nil {
		return QuestDraft{}, fmt.Errorf("parse quest draft json: %w", err)
	}
	if err := g.schema.Validate(generic); err != nil {
		return QuestDraft{}, fmt.Errorf("quest draft failed schema validation: %w", err)
	}

	var draft QuestDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return QuestDraft{}, fmt.Errorf("decode quest draft: %w", err)
	}

	if draft.Expiry.IsZero() {
		draft.Expiry = g.now().Add(30 * 24 * time.Hour)
	}

	return draft, nil
}

func buildQuestPrompt(prompt QuestPrompt) string {
	builder := strings.Builder{}
	fmt.Fprintf(&builder, "Design a quest about %s for grade %d students in %s.", prompt.Topic, prompt.Grade, prompt.City)
	if prompt.CustomPrompt != "" {
		builder.WriteString("\nAdditional requirements: ")
		builder.WriteString(prompt.CustomPrompt)
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}
