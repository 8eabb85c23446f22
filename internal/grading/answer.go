package grading

import (
	"encoding/json"
	"sort"

	"gorm.io/datatypes"

	"github.com/noah-isme/gema-exam-api/internal/models"
)

// NoAnswerText is recorded for free-text questions the student left blank.
const NoAnswerText = "No answer provided"

// Answer is the normalized form of a submitted answer. The set of implementations is closed:
// SingleChoiceAnswer, MultiChoiceAnswer and FreeTextAnswer.
type Answer interface {
	Kind() models.QuestionType
	JSON() datatypes.JSON
	sealed()
}

// SingleChoiceAnswer holds the selected option. The empty string means no answer.
type SingleChoiceAnswer string

// MultiChoiceAnswer is a sorted, de-duplicated set of selected options.
type MultiChoiceAnswer []string

// FreeTextAnswer holds a written answer.
type FreeTextAnswer string

func (SingleChoiceAnswer) Kind() models.QuestionType { return models.QuestionTypeSingleChoice }
func (MultiChoiceAnswer) Kind() models.QuestionType  { return models.QuestionTypeMultiChoice }
func (FreeTextAnswer) Kind() models.QuestionType     { return models.QuestionTypeFreeText }

func (SingleChoiceAnswer) sealed() {}
func (MultiChoiceAnswer) sealed()  {}
func (FreeTextAnswer) sealed()     {}

func (a SingleChoiceAnswer) JSON() datatypes.JSON { return mustJSON(string(a)) }
func (a MultiChoiceAnswer) JSON() datatypes.JSON  { return mustJSON([]string(a.normalized())) }
func (a FreeTextAnswer) JSON() datatypes.JSON     { return mustJSON(string(a)) }

// NewMultiChoiceAnswer builds a set from the given values.
func NewMultiChoiceAnswer(values ...string) MultiChoiceAnswer {
	return MultiChoiceAnswer(values).normalized()
}

// Equal compares two sets ignoring order and duplicates.
func (a MultiChoiceAnswer) Equal(other MultiChoiceAnswer) bool {
	left := a.normalized()
	right := other.normalized()
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}

func (a MultiChoiceAnswer) normalized() MultiChoiceAnswer {
	seen := make(map[string]struct{}, len(a))
	out := make(MultiChoiceAnswer, 0, len(a))
	for _, value := range a {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}

func mustJSON(value interface{}) datatypes.JSON {
	data, err := json.Marshal(value)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(data)
}
