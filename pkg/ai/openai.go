package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	visionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "terra",
		Subsystem: "ai",
		Name:      "analysis_duration_seconds",
		Help:      "Duration of AI image analysis requests",
	}, []string{"model"})

	visionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "terra",
		Subsystem: "ai",
		Name:      "analysis_failures_total",
		Help:      "Number of AI image analysis failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI capabilities.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIAnalyzer implements ImageAnalyzer and ContentModerator against the
// OpenAI API.
type OpenAIAnalyzer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIAnalyzer builds the analyzer using the provided configuration.
func NewOpenAIAnalyzer(cfg OpenAIConfig) (*OpenAIAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	tracer := otel.Tracer("github.com/terraed/terra-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIAnalyzer{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// AnalyzeImage asks the vision model whether the image shows the expected
// quest evidence and parses the structured verdict.
func (a *OpenAIAnalyzer) AnalyzeImage(parent context.Context, input AnalysisInput) (AnalysisResult, error) {
	ctx, span := a.tracer.Start(parent, "openai.analyze_image", trace.WithAttributes(
		attribute.String("model", a.cfg.Model),
		attribute.String("quest_category", input.QuestCategory),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: analyzerSystemPrompt(),
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: buildAnalysisPrompt(input),
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    input.ImageURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := a.client.CreateChatCompletion(ctx, request)
	visionDuration.WithLabelValues(a.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		visionFailures.WithLabelValues(a.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AnalysisResult{}, fmt.Errorf("openai analyze image: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		visionFailures.WithLabelValues(a.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AnalysisResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseAnalysisResponse(content)
	if err != nil {
		visionFailures.WithLabelValues(a.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AnalysisResult{}, err
	}

	return result, nil
}

// Moderate screens the submission caption through the OpenAI moderation
// endpoint.
func (a *OpenAIAnalyzer) Moderate(parent context.Context, input ModerationInput) (ModerationResult, error) {
	ctx, span := a.tracer.Start(parent, "openai.moderate")
	defer span.End()

	resp, err := a.client.Moderations(ctx, openai.ModerationRequest{
		Input: input.Caption,
		Model: openai.ModerationTextLatest,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ModerationResult{}, fmt.Errorf("openai moderate: %w", err)
	}

	if len(resp.Results) == 0 {
		return ModerationResult{}, nil
	}

	verdict := resp.Results[0]
	return ModerationResult{
		Flagged:    verdict.Flagged,
		Categories: flaggedCategories(verdict.Categories),
	}, nil
}

func flaggedCategories(categories openai.ResultCategories) []string {
	var flagged []string
	for name, hit := range map[string]bool{
		"hate":       categories.Hate,
		"harassment": categories.Harassment,
		"self-harm":  categories.SelfHarm,
		"sexual":     categories.Sexual,
		"violence":   categories.Violence,
	} {
		if hit {
			flagged = append(flagged, name)
		}
	}
	return flagged
}

func analyzerSystemPrompt() string {
	return "You verify photos submitted as evidence for environmental education quests. Respond with a JSON object containin" +
		"g confidence (0-1, how well the photo matches the expected activity) and labels (array of strings naming what the ph" +
		"oto shows). Judge only what is visible."
}

func buildAnalysisPrompt(input AnalysisInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Quest\n")
	builder.WriteString(input.QuestTitle)
	builder.WriteString("\n\n## Category\n")
	builder.WriteString(input.QuestCategory)
	builder.WriteString("\n\n## Expected Elements\n")
	builder.WriteString(strings.Join(input.ExpectedLabels, ", "))
	builder.WriteString("\n\n## Student Caption\n")
	builder.WriteString(input.Caption)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseAnalysisResponse(content string) (AnalysisResult, error) {
	var data AnalysisResult
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return AnalysisResult{}, fmt.Errorf("parse analysis json: %w", err)
	}

	if data.Confidence < 0 {
		data.Confidence = 0
	}
	if data.Confidence > 1 {
		data.Confidence = 1
	}

	return data, nil
}
