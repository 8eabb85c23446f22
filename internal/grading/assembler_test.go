package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-exam-api/internal/models"
)

func TestAssembleMixedExam(t *testing.T) {
	questions := []models.Question{
		question(1, models.QuestionTypeSingleChoice, "B", "A", "B"),
		question(2, models.QuestionTypeMultiChoice, []string{"A", "C"}, "A", "B", "C"),
		question(3, models.QuestionTypeSingleChoice, "D", "C", "D"),
		question(4, models.QuestionTypeFreeText, nil),
	}
	answers := []Answer{
		SingleChoiceAnswer("B"),
		NewMultiChoiceAnswer("C", "A"),
		SingleChoiceAnswer("D"),
		FreeTextAnswer("An answer"),
	}
	objective := []Outcome{
		ScoreObjective(questions[0], answers[0]),
		ScoreObjective(questions[1], answers[1]),
		ScoreObjective(questions[2], answers[2]),
		{},
	}
	descriptive := map[string]Outcome{"4": {ObtainedMarks: 0.5, IsCorrect: false, CorrectAnswer: mustJSON("Model answer")}}

	assembly := Assemble(questions, answers, objective, descriptive)

	require.Len(t, assembly.Responses, 4)
	require.Equal(t, 3.5, assembly.ObtainedMarks)
	require.Equal(t, 4, assembly.TotalMarks)
	require.Equal(t, 88, assembly.Percentage)
	require.Equal(t, models.ResultStatusPassed, assembly.Status)

	free := assembly.Responses[3]
	require.Equal(t, uint(4), free.QuestionID)
	require.Equal(t, 0.5, free.ObtainedMarks)
	require.False(t, free.IsCorrect)
	require.Equal(t, []string{}, free.Options)

	require.Equal(t, []string{"A", "B", "C"}, assembly.Responses[1].Options)
	var stored []string
	decodeJSON(t, assembly.Responses[1].UserAnswer, &stored)
	require.Equal(t, []string{"A", "C"}, stored)
}

func TestAssembleMissingDescriptiveOutcomeFallsBack(t *testing.T) {
	questions := []models.Question{question(7, models.QuestionTypeFreeText, nil)}

	assembly := Assemble(questions, []Answer{FreeTextAnswer("text")}, []Outcome{{}}, nil)

	require.Zero(t, assembly.ObtainedMarks)
	require.Equal(t, models.ResultStatusFailed, assembly.Status)
	var text string
	decodeJSON(t, assembly.Responses[0].CorrectAnswer, &text)
	require.Equal(t, PendingReviewText, text)
}

func TestAssembleKeepsObtainedWithinBounds(t *testing.T) {
	questions := []models.Question{
		question(1, models.QuestionTypeSingleChoice, "A"),
		question(2, models.QuestionTypeFreeText, nil),
	}
	answers := []Answer{SingleChoiceAnswer("A"), FreeTextAnswer("text")}
	objective := []Outcome{{IsCorrect: true, ObtainedMarks: 1}, {}}
	descriptive := map[string]Outcome{"2": {ObtainedMarks: 5}}

	assembly := Assemble(questions, answers, objective, descriptive)

	require.Equal(t, 2.0, assembly.ObtainedMarks)
	require.Equal(t, 100, assembly.Percentage)
	for _, response := range assembly.Responses {
		require.GreaterOrEqual(t, response.ObtainedMarks, 0.0)
	}
}

func TestPercentageAndStatusBoundary(t *testing.T) {
	require.Equal(t, 0, Percentage(1, 0))
	require.Equal(t, 50, Percentage(1, 2))
	require.Equal(t, 33, Percentage(1, 3))

	questions := []models.Question{
		question(1, models.QuestionTypeSingleChoice, "A"),
		question(2, models.QuestionTypeSingleChoice, "B"),
	}
	answers := []Answer{SingleChoiceAnswer("A"), SingleChoiceAnswer("A")}
	objective := []Outcome{ScoreObjective(questions[0], answers[0]), ScoreObjective(questions[1], answers[1])}

	assembly := Assemble(questions, answers, objective, nil)
	require.Equal(t, 50, assembly.Percentage)
	require.Equal(t, models.ResultStatusPassed, assembly.Status)
}

func TestToResultCopiesAssembly(t *testing.T) {
	submittedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	assembly := Assembly{ObtainedMarks: 1, TotalMarks: 2, Percentage: 50, Status: models.ResultStatusPassed}

	result := assembly.ToResult(3, 4, 5, "Biology", submittedAt)

	require.Equal(t, uint(3), result.StudentID)
	require.Equal(t, uint(4), result.ExamID)
	require.Equal(t, uint(5), result.ClassID)
	require.Equal(t, "Biology", result.ExamTitle)
	require.Equal(t, submittedAt, result.SubmittedAt)
	require.Equal(t, 50, result.Percentage)
}
