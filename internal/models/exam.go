package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// QuestionType enumerates the supported question shapes.
type QuestionType string

const (
	// QuestionTypeSingleChoice accepts exactly one option.
	QuestionTypeSingleChoice QuestionType = "single_choice"
	// QuestionTypeMultiChoice accepts any subset of the options.
	QuestionTypeMultiChoice QuestionType = "multi_choice"
	// QuestionTypeFreeText accepts an open-ended written answer.
	QuestionTypeFreeText QuestionType = "free_text"
)

// ParseQuestionType maps stored type names, including the legacy radio/checkbox/"open end"
// names, onto a QuestionType.
func ParseQuestionType(value string) (QuestionType, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(QuestionTypeSingleChoice), "radio":
		return QuestionTypeSingleChoice, true
	case string(QuestionTypeMultiChoice), "checkbox":
		return QuestionTypeMultiChoice, true
	case string(QuestionTypeFreeText), "open end", "open_end":
		return QuestionTypeFreeText, true
	default:
		return "", false
	}
}

// IsObjective reports whether the type has a pre-known correct answer.
func (t QuestionType) IsObjective() bool {
	return t == QuestionTypeSingleChoice || t == QuestionTypeMultiChoice
}

// Exam is the externally authored question set students sit.
type Exam struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	TimeLimit   int        `gorm:"not null;default:0" json:"time_limit"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Questions   []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
}

// Question belongs to an exam. Position defines the exam order.
type Question struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	ExamID        uint                        `gorm:"not null;index" json:"exam_id"`
	Position      int                         `gorm:"not null;default:0" json:"position"`
	Text          string                      `gorm:"type:text;not null" json:"text"`
	Type          string                      `gorm:"size:32;not null" json:"type"`
	Options       datatypes.JSONSlice[string] `gorm:"type:json" json:"options"`
	CorrectAnswer datatypes.JSON              `gorm:"type:json" json:"correct_answer"`
	// Marks is carried for authoring tools; scoring uses a flat one mark per question.
	Marks     float64   `gorm:"not null;default:1" json:"marks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionType resolves the stored type name. Unknown names are treated as free text so they
// are routed to manual-style grading instead of being silently marked wrong.
func (q Question) QuestionType() QuestionType {
	if parsed, ok := ParseQuestionType(q.Type); ok {
		return parsed
	}
	return QuestionTypeFreeText
}

// ExamAssignment publishes an exam to a class for a time window. Deleting the exam keeps the
// assignment with a null ExamID.
type ExamAssignment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ExamID    *uint     `gorm:"index" json:"exam_id"`
	ClassID   uint      `gorm:"not null;index" json:"class_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Exam      *Exam     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"exam,omitempty"`
	Class     Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"class"`
}
