package grading

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/gema-exam-api/internal/models"
	"github.com/noah-isme/gema-exam-api/pkg/ai"
)

func question(id uint, kind models.QuestionType, correct interface{}, options ...string) models.Question {
	raw, _ := json.Marshal(correct)
	return models.Question{
		ID:            id,
		Text:          "question",
		Type:          string(kind),
		Options:       datatypes.JSONSlice[string](options),
		CorrectAnswer: datatypes.JSON(raw),
		Marks:         1,
	}
}

func decodeJSON(t *testing.T, raw datatypes.JSON, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, target))
}

type stubGrader struct {
	mu     sync.Mutex
	scores []ai.GradingScore
	err    error
	block  bool
	calls  int
	items  []ai.GradingItem
}

func (s *stubGrader) GradeBatch(ctx context.Context, items []ai.GradingItem) ([]ai.GradingScore, error) {
	s.mu.Lock()
	s.calls++
	s.items = append([]ai.GradingItem(nil), items...)
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.scores, nil
}

type stubPacer struct {
	err   error
	waits int
}

func (p *stubPacer) Wait(ctx context.Context) error {
	p.waits++
	return p.err
}
