package grading

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/noah-isme/gema-exam-api/internal/models"
)

// Outcome is the grading verdict for a single question.
type Outcome struct {
	IsCorrect     bool
	ObtainedMarks float64
	// CorrectAnswer is the stored key for objective questions or the suggested answer for
	// free-text questions.
	CorrectAnswer datatypes.JSON
	// Fallback is set when the verdict was produced by the degraded free-text policy.
	Fallback bool
}

// ScoreObjective grades single- and multi-choice answers against the stored key. It is pure and
// awards one mark for a correct answer.
func ScoreObjective(question models.Question, answer Answer) Outcome {
	switch a := answer.(type) {
	case SingleChoiceAnswer:
		key := singleChoiceKey(question.CorrectAnswer)
		correct := a != "" && string(a) == key
		return objectiveOutcome(correct, mustJSON(key))
	case MultiChoiceAnswer:
		key := multiChoiceKey(question.CorrectAnswer)
		correct := len(key) > 0 && a.Equal(key)
		return objectiveOutcome(correct, key.JSON())
	default:
		return Outcome{CorrectAnswer: question.CorrectAnswer}
	}
}

func objectiveOutcome(correct bool, key datatypes.JSON) Outcome {
	outcome := Outcome{IsCorrect: correct, CorrectAnswer: key}
	if correct {
		outcome.ObtainedMarks = 1
	}
	return outcome
}

func singleChoiceKey(raw datatypes.JSON) string {
	if len(raw) == 0 {
		return ""
	}
	var key string
	if err := json.Unmarshal(raw, &key); err == nil {
		return key
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err == nil && len(keys) == 1 {
		return keys[0]
	}
	return ""
}

func multiChoiceKey(raw datatypes.JSON) MultiChoiceAnswer {
	if len(raw) == 0 {
		return nil
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err == nil {
		return NewMultiChoiceAnswer(keys...)
	}
	var key string
	if err := json.Unmarshal(raw, &key); err == nil && key != "" {
		return NewMultiChoiceAnswer(key)
	}
	return nil
}
