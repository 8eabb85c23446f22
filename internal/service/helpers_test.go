package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-exam-api/internal/grading"
	"github.com/noah-isme/gema-exam-api/internal/models"
	"github.com/noah-isme/gema-exam-api/internal/repository"
	"github.com/noah-isme/gema-exam-api/pkg/ai"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.Class{},
		&models.Enrollment{},
		&models.Exam{},
		&models.Question{},
		&models.ExamAssignment{},
		&models.Result{},
	))
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

type examFixture struct {
	student models.Student
	class   models.Class
	exam    models.Exam
}

// seedExam creates a student enrolled in one class and a four question exam assigned to it:
// two single choice, one multi choice and one free text question.
func seedExam(t *testing.T, db *gorm.DB) examFixture {
	t.Helper()

	fixture := examFixture{
		student: models.Student{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", RollNo: "R-01"},
		class:   models.Class{ClassName: "10-A"},
		exam: models.Exam{Title: "Science", TimeLimit: 30, IsActive: true, Questions: []models.Question{
			{Position: 1, Text: "Pick B", Type: "single_choice", Options: datatypes.JSONSlice[string]{"A", "B", "C"}, CorrectAnswer: datatypes.JSON(`"B"`)},
			{Position: 2, Text: "Pick A and C", Type: "multi_choice", Options: datatypes.JSONSlice[string]{"A", "B", "C"}, CorrectAnswer: datatypes.JSON(`["A","C"]`)},
			{Position: 3, Text: "Pick D", Type: "radio", Options: datatypes.JSONSlice[string]{"C", "D"}, CorrectAnswer: datatypes.JSON(`"D"`)},
			{Position: 4, Text: "Explain photosynthesis", Type: "free_text"},
		}},
	}
	require.NoError(t, db.Create(&fixture.student).Error)
	require.NoError(t, db.Create(&fixture.class).Error)
	require.NoError(t, db.Create(&fixture.exam).Error)
	require.NoError(t, db.Create(&models.Enrollment{StudentID: fixture.student.ID, ClassID: fixture.class.ID, Status: models.EnrollmentStatusActive}).Error)

	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.ExamAssignment{
		ExamID:    &fixture.exam.ID,
		ClassID:   fixture.class.ID,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}).Error)

	return fixture
}

func (f examFixture) questionKey(position int) string {
	return fmt.Sprintf("%d", f.exam.Questions[position].ID)
}

type fakeGrader struct {
	mu     sync.Mutex
	score  float64
	err    error
	calls  int
	issued []ai.GradingItem
}

func (f *fakeGrader) GradeBatch(ctx context.Context, items []ai.GradingItem) ([]ai.GradingScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.issued = append(f.issued, items...)
	if f.err != nil {
		return nil, f.err
	}
	scores := make([]ai.GradingScore, 0, len(items))
	for _, item := range items {
		scores = append(scores, ai.GradingScore{QuestionID: item.QuestionID, Score: f.score, SuggestedAnswer: "Plants turn light into sugar"})
	}
	return scores, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	results []models.Result
	err     error
}

func (p *recordingPublisher) ResultCreated(ctx context.Context, result models.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, result)
	return p.err
}

func newSubmissionService(db *gorm.DB, grader ai.BatchGrader, publisher ResultPublisher) ExamSubmissionService {
	descriptive := grading.NewDescriptiveGrader(grader, nil, time.Second, testLogger())
	return NewExamSubmissionService(
		repository.NewExamRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewResultRepository(db),
		descriptive,
		publisher,
		validator.New(validator.WithRequiredStructEnabled()),
		testLogger(),
	)
}
