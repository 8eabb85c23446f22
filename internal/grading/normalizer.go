package grading

import (
	"strconv"
	"strings"

	"github.com/noah-isme/gema-exam-api/internal/models"
)

// Normalizer coerces loosely typed submitted answers into one Answer per question.
type Normalizer struct{}

// NewNormalizer builds a normalizer. Written answers are kept verbatim apart from trimming.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize returns answers aligned index by index with questions. Raw answers are keyed by the
// decimal question ID. Malformed values never fail; they degrade to "no answer".
func (n *Normalizer) Normalize(questions []models.Question, raw map[string]interface{}) []Answer {
	answers := make([]Answer, len(questions))
	for i, question := range questions {
		value, present := raw[strconv.FormatUint(uint64(question.ID), 10)]
		if !present {
			value = nil
		}
		answers[i] = n.normalizeOne(question.QuestionType(), value)
	}
	return answers
}

func (n *Normalizer) normalizeOne(kind models.QuestionType, value interface{}) Answer {
	switch kind {
	case models.QuestionTypeSingleChoice:
		if text, ok := value.(string); ok {
			return SingleChoiceAnswer(text)
		}
		return SingleChoiceAnswer("")
	case models.QuestionTypeMultiChoice:
		return NewMultiChoiceAnswer(stringSet(value)...)
	default:
		return n.freeText(value)
	}
}

func (n *Normalizer) freeText(value interface{}) FreeTextAnswer {
	text, _ := value.(string)
	text = strings.TrimSpace(text)
	if text == "" {
		return FreeTextAnswer(NoAnswerText)
	}
	return FreeTextAnswer(text)
}

func stringSet(value interface{}) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if text, ok := item.(string); ok {
				out = append(out, text)
			}
		}
		return out
	default:
		return nil
	}
}
