package grading

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-exam-api/internal/observability"
	"github.com/noah-isme/gema-exam-api/pkg/ai"
)

const (
	// PendingReviewText marks free-text answers the grading model could not score.
	PendingReviewText = "Pending Review"
	// FreeTextPassScore is the score at which a written answer is flagged correct.
	FreeTextPassScore = 0.7
	// DefaultGradingTimeout bounds a single grading call.
	DefaultGradingTimeout = 20 * time.Second
)

// DescriptiveItem is a free-text answer awaiting a score.
type DescriptiveItem struct {
	QuestionID   string
	QuestionText string
	Answer       FreeTextAnswer
}

// DescriptiveGrader scores the written answers of one submission with a single paced,
// time-bounded call. It never returns an error: failures degrade to zero-score verdicts.
type DescriptiveGrader struct {
	grader  ai.BatchGrader
	pacer   ai.Pacer
	timeout time.Duration
	logger  zerolog.Logger
}

// NewDescriptiveGrader wires a grading backend. A nil backend grades every answer with the
// fallback policy; a nil pacer disables spacing.
func NewDescriptiveGrader(grader ai.BatchGrader, pacer ai.Pacer, timeout time.Duration, logger zerolog.Logger) *DescriptiveGrader {
	if timeout <= 0 {
		timeout = DefaultGradingTimeout
	}
	return &DescriptiveGrader{
		grader:  grader,
		pacer:   pacer,
		timeout: timeout,
		logger:  logger.With().Str("component", "descriptive_grader").Logger(),
	}
}

// Grade returns an outcome for every item keyed by question id.
func (g *DescriptiveGrader) Grade(ctx context.Context, items []DescriptiveItem) map[string]Outcome {
	outcomes := make(map[string]Outcome, len(items))
	if len(items) == 0 {
		return outcomes
	}

	scores, reason, err := g.call(ctx, items)
	if err != nil {
		g.logger.Warn().Err(err).Str("reason", reason).Int("items", len(items)).Msg("free-text grading unavailable, using fallback")
		observability.GradingFallbacks().WithLabelValues(reason).Add(float64(len(items)))
		for _, item := range items {
			outcomes[item.QuestionID] = fallbackOutcome()
		}
		return outcomes
	}

	byID := make(map[string]ai.GradingScore, len(scores))
	for _, score := range scores {
		byID[score.QuestionID] = score
	}

	missing := 0
	for _, item := range items {
		score, ok := byID[item.QuestionID]
		if !ok {
			missing++
			outcomes[item.QuestionID] = fallbackOutcome()
			continue
		}
		outcomes[item.QuestionID] = scoreOutcome(score)
	}

	if missing > 0 {
		g.logger.Warn().Int("missing", missing).Int("items", len(items)).Msg("grading response omitted questions")
		observability.GradingFallbacks().WithLabelValues("partial").Add(float64(missing))
	}

	return outcomes
}

func (g *DescriptiveGrader) call(ctx context.Context, items []DescriptiveItem) ([]ai.GradingScore, string, error) {
	if g.grader == nil {
		return nil, "unconfigured", errors.New("no grading backend configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.pacer != nil {
		if err := g.pacer.Wait(callCtx); err != nil {
			return nil, "paced_out", err
		}
	}

	request := make([]ai.GradingItem, 0, len(items))
	for _, item := range items {
		request = append(request, ai.GradingItem{
			QuestionID:    item.QuestionID,
			QuestionText:  item.QuestionText,
			StudentAnswer: string(item.Answer),
		})
	}

	scores, err := g.grader.GradeBatch(callCtx, request)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, "timeout", err
		}
		return nil, "error", err
	}
	return scores, "", nil
}

func scoreOutcome(score ai.GradingScore) Outcome {
	value := score.Score
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	return Outcome{
		IsCorrect:     value >= FreeTextPassScore,
		ObtainedMarks: value,
		CorrectAnswer: mustJSON(score.SuggestedAnswer),
	}
}

func fallbackOutcome() Outcome {
	return Outcome{
		IsCorrect:     false,
		ObtainedMarks: 0,
		CorrectAnswer: mustJSON(PendingReviewText),
		Fallback:      true,
	}
}
