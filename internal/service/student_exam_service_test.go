package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-exam-api/internal/dto"
	"github.com/noah-isme/gema-exam-api/internal/models"
	"github.com/noah-isme/gema-exam-api/internal/repository"
)

func TestStudentExamServiceListsAssignedExams(t *testing.T) {
	db := setupServiceDB(t)
	fixture := seedExam(t, db)

	quiz := models.Exam{Title: "Quiz", TimeLimit: 10}
	require.NoError(t, db.Create(&quiz).Error)
	require.NoError(t, db.Create(&models.ExamAssignment{ExamID: &quiz.ID, ClassID: fixture.class.ID, StartTime: time.Now().UTC().Add(24 * time.Hour)}).Error)

	// Assignment whose exam was deleted.
	require.NoError(t, db.Create(&models.ExamAssignment{ClassID: fixture.class.ID, StartTime: time.Now().UTC()}).Error)

	svc := NewStudentExamService(
		repository.NewExamRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewResultRepository(db),
		testLogger(),
	)

	submissions := newSubmissionService(db, &fakeGrader{score: 1}, nil)
	_, err := submissions.Submit(context.Background(), fixture.student.ID, fixture.exam.ID, dto.ExamSubmissionRequest{Answers: map[string]interface{}{}})
	require.NoError(t, err)

	items, err := svc.ListAssigned(context.Background(), fixture.student.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byName := map[string]bool{}
	for _, item := range items {
		require.Equal(t, "10-A", item.ClassName)
		byName[item.TestName] = item.IsAttempted
	}
	require.True(t, byName["Science"])
	require.False(t, byName["Quiz"])
}

func TestStudentExamServiceWithoutEnrollment(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewStudentExamService(
		repository.NewExamRepository(db),
		repository.NewEnrollmentRepository(db),
		repository.NewResultRepository(db),
		testLogger(),
	)

	items, err := svc.ListAssigned(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, items)
	require.Empty(t, items)
}
