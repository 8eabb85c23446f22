package dto

import "time"

// ClassExamSummary is one (exam, class) row of the teacher overview.
type ClassExamSummary struct {
	ExamID            uint      `json:"exam_id"`
	ClassID           uint      `json:"class_id"`
	ClassName         string    `json:"class_name"`
	TestName          string    `json:"test_name"`
	Date              string    `json:"date"`
	LatestSubmission  time.Time `json:"latest_submission"`
	TotalStudents     int       `json:"total_students"`
	AveragePercentage int       `json:"average_percentage"`
}

// ClassExamSummaryResponse wraps the overview rows.
type ClassExamSummaryResponse struct {
	Items       []ClassExamSummary `json:"items"`
	GeneratedAt time.Time          `json:"generated_at"`
	CacheHit    bool               `json:"cache_hit"`
}

// ExamDetailMeta is the header of the per-exam breakdown. It is empty when nobody submitted.
type ExamDetailMeta struct {
	ClassName  string `json:"class_name,omitempty"`
	TestName   string `json:"test_name,omitempty"`
	Date       string `json:"date,omitempty"`
	TotalMarks int    `json:"total_marks,omitempty"`
	// InconsistentTotalMarks is set when results for the exam were graded against different
	// question counts, so TotalMarks only describes the representative result.
	InconsistentTotalMarks bool `json:"inconsistent_total_marks,omitempty"`
}

// ExamStudentResult is one student's row in the per-exam breakdown.
type ExamStudentResult struct {
	ResultID   uint    `json:"result_id"`
	StudentID  uint    `json:"student_id"`
	RollNo     string  `json:"roll_no"`
	Name       string  `json:"name"`
	Obtained   float64 `json:"obtained"`
	Percentage int     `json:"percentage"`
	Status     string  `json:"status"`
}

// ExamDetailResponse is the per-exam student breakdown.
type ExamDetailResponse struct {
	Meta     ExamDetailMeta      `json:"meta"`
	Students []ExamStudentResult `json:"students"`
}
