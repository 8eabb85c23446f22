package ai

import "context"

// GradingItem is one free-text answer sent to the grading model.
type GradingItem struct {
	QuestionID    string `json:"question_id"`
	QuestionText  string `json:"question_text"`
	StudentAnswer string `json:"student_answer"`
}

// GradingScore is the model's verdict for one GradingItem. Score lies in [0,1]; 0.5 is partial
// credit.
type GradingScore struct {
	QuestionID      string  `json:"question_id"`
	Score           float64 `json:"score"`
	SuggestedAnswer string  `json:"suggested_answer"`
}

// BatchGrader scores all free-text answers of one submission in a single call. The returned
// slice may be shorter than the input when the model skipped items.
type BatchGrader interface {
	GradeBatch(ctx context.Context, items []GradingItem) ([]GradingScore, error)
}

// Pacer spaces out calls to the grading backend. One instance is shared by the whole process.
type Pacer interface {
	Wait(ctx context.Context) error
}
