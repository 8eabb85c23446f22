package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
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
	gradingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exam",
		Subsystem: "ai",
		Name:      "grading_duration_seconds",
		Help:      "Duration of free-text grading requests",
	}, []string{"model"})

	gradingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exam",
		Subsystem: "ai",
		Name:      "grading_failures_total",
		Help:      "Number of failed free-text grading requests",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI grader.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGrader implements BatchGrader against the OpenAI chat completion API.
type OpenAIGrader struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGrader builds a grader using the provided configuration.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = 0.5
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIGrader{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gema-exam-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_grader").Logger(),
	}, nil
}

// GradeBatch sends every item in one chat completion and parses the per-question scores.
func (g *OpenAIGrader) GradeBatch(parent context.Context, items []GradingItem) ([]GradingScore, error) {
	ctx, span := g.tracer.Start(parent, "openai.grade_batch", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.Int("grading.items", len(items)),
	))
	defer span.End()

	if len(items) == 0 {
		return nil, nil
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: graderSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: buildGradingPrompt(items)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	gradingDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, g.fail(span, fmt.Errorf("openai grade batch: %w", err))
	}

	if len(resp.Choices) == 0 {
		return nil, g.fail(span, fmt.Errorf("no choices returned from openai"))
	}

	scores, err := ParseGradingResponse(resp.Choices[0].Message.Content)
	if err != nil {
		g.logger.Debug().Str("raw", resp.Choices[0].Message.Content).Msg("unparsable grading response")
		return nil, g.fail(span, err)
	}

	span.SetAttributes(attribute.Int("grading.scores", len(scores)))
	return scores, nil
}

func (g *OpenAIGrader) fail(span trace.Span, err error) error {
	gradingFailures.WithLabelValues(g.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func graderSystemPrompt() string {
	return "You are an exam grader. Score each student answer from 0 to 1 where 1 is fully correct, 0.5 is partially " +
		"correct and 0 is wrong or missing. Respond with a JSON object {\"results\": [{\"question_id\": string, " +
		"\"score\": number, \"suggested_answer\": string}]} with one entry per question."
}

func buildGradingPrompt(items []GradingItem) string {
	builder := strings.Builder{}
	builder.WriteString("Grade the following answers.\n")
	for i, item := range items {
		builder.WriteString(fmt.Sprintf("\n## Question %d\n", i+1))
		builder.WriteString("question_id: ")
		builder.WriteString(item.QuestionID)
		builder.WriteString("\nQuestion: ")
		builder.WriteString(item.QuestionText)
		builder.WriteString("\nStudent answer: ")
		builder.WriteString(item.StudentAnswer)
		builder.WriteString("\n")
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

type gradingPayload struct {
	Results []struct {
		QuestionID      flexibleID `json:"question_id"`
		Score           float64    `json:"score"`
		SuggestedAnswer string     `json:"suggested_answer"`
	} `json:"results"`
}

// flexibleID accepts question ids echoed back either as strings or numbers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*f = flexibleID(strings.TrimSpace(text))
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	if parsed, err := strconv.ParseInt(number.String(), 10, 64); err == nil {
		*f = flexibleID(strconv.FormatInt(parsed, 10))
		return nil
	}
	*f = flexibleID(number.String())
	return nil
}

// ParseGradingResponse strips formatting artefacts from a raw model reply, validates it and
// returns the scores clamped to [0,1].
func ParseGradingResponse(content string) ([]GradingScore, error) {
	cleaned := StripCodeFences(content)
	if cleaned == "" {
		return nil, fmt.Errorf("empty grading response")
	}

	if strings.HasPrefix(cleaned, "[") {
		cleaned = `{"results":` + cleaned + `}`
	}

	var document interface{}
	if err := json.Unmarshal([]byte(cleaned), &document); err != nil {
		return nil, fmt.Errorf("parse grading json: %w", err)
	}
	if err := gradingResponseSchema.Validate(document); err != nil {
		return nil, fmt.Errorf("validate grading json: %w", err)
	}

	var payload gradingPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, fmt.Errorf("decode grading json: %w", err)
	}

	scores := make([]GradingScore, 0, len(payload.Results))
	for _, item := range payload.Results {
		score := item.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		scores = append(scores, GradingScore{
			QuestionID:      string(item.QuestionID),
			Score:           score,
			SuggestedAnswer: strings.TrimSpace(item.SuggestedAnswer),
		})
	}
	return scores, nil
}

// StripCodeFences removes markdown code fences and any prose around the JSON body.
func StripCodeFences(content string) string {
	text := strings.TrimSpace(content)
	if open := strings.Index(text, "```"); open >= 0 {
		body := text[open+3:]
		if newline := strings.Index(body, "\n"); newline >= 0 {
			body = body[newline+1:]
		}
		if closing := strings.Index(body, "```"); closing >= 0 {
			body = body[:closing]
		}
		text = strings.TrimSpace(body)
	}

	// Keep the outermost object or array, whichever opens first.
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return text[start:]
	}
	return text[start : end+1]
}
