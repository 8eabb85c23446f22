package grading

import (
	"math"
	"strconv"
	"time"

	"github.com/noah-isme/gema-exam-api/internal/models"
)

// PassPercentage is the minimum percentage for a Passed status.
const PassPercentage = 50

// Assembly is the graded, not yet persisted, submission.
type Assembly struct {
	Responses     []models.GradedResponse
	ObtainedMarks float64
	TotalMarks    int
	Percentage    int
	Status        models.ResultStatus
}

// Assemble walks the questions in exam order and merges objective and free-text outcomes into
// snapshot responses with totals. Objective outcomes are indexed like questions; free-text
// outcomes are keyed by question id.
func Assemble(questions []models.Question, answers []Answer, objective []Outcome, descriptive map[string]Outcome) Assembly {
	responses := make([]models.GradedResponse, 0, len(questions))
	var obtained float64

	for i, question := range questions {
		var answer Answer = FreeTextAnswer(NoAnswerText)
		if i < len(answers) && answers[i] != nil {
			answer = answers[i]
		}

		var outcome Outcome
		if question.QuestionType().IsObjective() {
			if i < len(objective) {
				outcome = objective[i]
			}
		} else {
			var ok bool
			outcome, ok = descriptive[strconv.FormatUint(uint64(question.ID), 10)]
			if !ok {
				outcome = fallbackOutcome()
			}
		}

		options := []string(question.Options)
		if options == nil {
			options = []string{}
		}
		snapshot := make([]string, len(options))
		copy(snapshot, options)

		responses = append(responses, models.GradedResponse{
			QuestionID:    question.ID,
			QuestionText:  question.Text,
			QuestionType:  question.QuestionType(),
			Options:       snapshot,
			UserAnswer:    answer.JSON(),
			CorrectAnswer: outcome.CorrectAnswer,
			IsCorrect:     outcome.IsCorrect,
			ObtainedMarks: outcome.ObtainedMarks,
		})
		obtained += outcome.ObtainedMarks
	}

	total := len(questions)
	obtained = roundTo(obtained, 2)
	if obtained < 0 {
		obtained = 0
	}
	if obtained > float64(total) {
		obtained = float64(total)
	}

	percentage := Percentage(obtained, total)
	status := models.ResultStatusFailed
	if percentage >= PassPercentage {
		status = models.ResultStatusPassed
	}

	return Assembly{
		Responses:     responses,
		ObtainedMarks: obtained,
		TotalMarks:    total,
		Percentage:    percentage,
		Status:        status,
	}
}

// ToResult stamps the assembly with its owners.
func (a Assembly) ToResult(studentID, examID, classID uint, examTitle string, submittedAt time.Time) models.Result {
	return models.Result{
		StudentID:     studentID,
		ExamID:        examID,
		ClassID:       classID,
		ExamTitle:     examTitle,
		Responses:     a.Responses,
		ObtainedMarks: a.ObtainedMarks,
		TotalMarks:    a.TotalMarks,
		Percentage:    a.Percentage,
		Status:        a.Status,
		SubmittedAt:   submittedAt,
	}
}

// Percentage rounds 100*obtained/total to the nearest integer.
func Percentage(obtained float64, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * obtained / float64(total)))
}

func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
