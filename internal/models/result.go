package models

import (
	"time"

	"gorm.io/datatypes"
)

// ResultStatus is the pass/fail outcome of a graded exam.
type ResultStatus string

const (
	// ResultStatusPassed is assigned when the percentage reaches the pass mark.
	ResultStatusPassed ResultStatus = "Passed"
	// ResultStatusFailed is assigned below the pass mark.
	ResultStatusFailed ResultStatus = "Failed"
)

// GradedResponse is a snapshot of one question and the student's graded answer. It is copied
// from the exam at grading time so later exam edits cannot change history.
type GradedResponse struct {
	QuestionID    uint           `json:"question_id"`
	QuestionText  string         `json:"question_text"`
	QuestionType  QuestionType   `json:"question_type"`
	Options       []string       `json:"options"`
	UserAnswer    datatypes.JSON `json:"user_answer"`
	CorrectAnswer datatypes.JSON `json:"correct_answer"`
	IsCorrect     bool           `json:"is_correct"`
	ObtainedMarks float64        `json:"obtained_marks"`
}

// Result is the immutable graded record of one student's exam submission.
type Result struct {
	ID            uint                                `gorm:"primaryKey" json:"id"`
	StudentID     uint                                `gorm:"not null;uniqueIndex:idx_results_student_exam" json:"student_id"`
	ExamID        uint                                `gorm:"not null;uniqueIndex:idx_results_student_exam;index" json:"exam_id"`
	ClassID       uint                                `gorm:"not null;index" json:"class_id"`
	ExamTitle     string                              `gorm:"size:255" json:"exam_title"`
	Responses     datatypes.JSONSlice[GradedResponse] `gorm:"type:json;not null" json:"responses"`
	ObtainedMarks float64                             `gorm:"not null" json:"obtained_marks"`
	TotalMarks    int                                 `gorm:"not null" json:"total_marks"`
	Percentage    int                                 `gorm:"not null" json:"percentage"`
	Status        ResultStatus                        `gorm:"size:16;not null" json:"status"`
	SubmittedAt   time.Time                           `gorm:"not null;index" json:"submitted_at"`
	CreatedAt     time.Time                           `json:"created_at"`
	Student       Student                             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Class         Class                               `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"class"`
}

// IsPassed reports whether the result reached the pass mark.
func (r Result) IsPassed() bool {
	return r.Status == ResultStatusPassed
}
