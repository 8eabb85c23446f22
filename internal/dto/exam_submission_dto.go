package dto

import (
	"encoding/json"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/noah-isme/gema-exam-api/internal/models"
)

// ExamSubmissionRequest carries a student's raw answers keyed by question id. Values may be a
// string, an array of strings, or anything else; the grader normalizes them.
type ExamSubmissionRequest struct {
	Answers map[string]interface{} `json:"answers" validate:"required"`
}

// GradedResponseItem is the review view of one graded question.
type GradedResponseItem struct {
	QuestionID    uint            `json:"question_id"`
	QuestionText  string          `json:"question_text"`
	QuestionType  string          `json:"question_type"`
	Options       []string        `json:"options"`
	UserAnswer    json.RawMessage `json:"user_answer"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	IsCorrect     bool            `json:"is_correct"`
	ObtainedMarks float64         `json:"obtained_marks"`
}

// ResultResponse is returned after submission and on result review.
type ResultResponse struct {
	ID            uint                 `json:"id"`
	StudentID     uint                 `json:"student_id"`
	ExamID        uint                 `json:"exam_id"`
	ClassID       uint                 `json:"class_id"`
	ExamTitle     string               `json:"exam_title"`
	ObtainedMarks float64              `json:"obtained_marks"`
	TotalMarks    int                  `json:"total_marks"`
	Percentage    int                  `json:"percentage"`
	Status        string               `json:"status"`
	SubmittedAt   time.Time            `json:"submitted_at"`
	Responses     []GradedResponseItem `json:"responses"`
}

// questionTextPolicy keeps the formatting authors use in question text and drops anything
// executable. Student answers are returned as stored.
var questionTextPolicy = bluemonday.UGCPolicy()

// NewResultResponse converts a Result model into a DTO.
func NewResultResponse(model models.Result) ResultResponse {
	responses := make([]GradedResponseItem, 0, len(model.Responses))
	for _, item := range model.Responses {
		responses = append(responses, GradedResponseItem{
			QuestionID:    item.QuestionID,
			QuestionText:  questionTextPolicy.Sanitize(item.QuestionText),
			QuestionType:  string(item.QuestionType),
			Options:       item.Options,
			UserAnswer:    rawOrNull(item.UserAnswer),
			CorrectAnswer: rawOrNull(item.CorrectAnswer),
			IsCorrect:     item.IsCorrect,
			ObtainedMarks: item.ObtainedMarks,
		})
	}

	return ResultResponse{
		ID:            model.ID,
		StudentID:     model.StudentID,
		ExamID:        model.ExamID,
		ClassID:       model.ClassID,
		ExamTitle:     model.ExamTitle,
		ObtainedMarks: model.ObtainedMarks,
		TotalMarks:    model.TotalMarks,
		Percentage:    model.Percentage,
		Status:        string(model.Status),
		SubmittedAt:   model.SubmittedAt,
		Responses:     responses,
	}
}

// AssignedExamResponse lists an exam published to one of the student's classes.
type AssignedExamResponse struct {
	ExamID       uint      `json:"exam_id"`
	AssignmentID uint      `json:"assignment_id"`
	ClassName    string    `json:"class_name"`
	TestName     string    `json:"test_name"`
	TimeLimit    int       `json:"time_limit"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	IsAttempted  bool      `json:"is_attempted"`
}

func rawOrNull(data []byte) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(data)
}
