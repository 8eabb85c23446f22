package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-exam-api/internal/dto"
	"github.com/noah-isme/gema-exam-api/internal/repository"
)

// StudentExamService lists the exams published to a student's classes.
type StudentExamService interface {
	ListAssigned(ctx context.Context, studentID uint) ([]dto.AssignedExamResponse, error)
}

type studentExamService struct {
	exams       repository.ExamRepository
	enrollments repository.EnrollmentRepository
	results     repository.ResultRepository
	logger      zerolog.Logger
}

// NewStudentExamService constructs the student exam listing service.
func NewStudentExamService(exams repository.ExamRepository, enrollments repository.EnrollmentRepository, results repository.ResultRepository, logger zerolog.Logger) StudentExamService {
	return &studentExamService{
		exams:       exams,
		enrollments: enrollments,
		results:     results,
		logger:      logger.With().Str("component", "student_exam_service").Logger(),
	}
}

func (s *studentExamService) ListAssigned(ctx context.Context, studentID uint) ([]dto.AssignedExamResponse, error) {
	enrollments, err := s.enrollments.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return []dto.AssignedExamResponse{}, nil
	}

	classIDs := make([]uint, 0, len(enrollments))
	for _, enrollment := range enrollments {
		classIDs = append(classIDs, enrollment.ClassID)
	}

	assignments, err := s.exams.ListAssignmentsByClasses(ctx, classIDs)
	if err != nil {
		return nil, err
	}

	examIDs := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		if assignment.Exam != nil {
			examIDs = append(examIDs, assignment.Exam.ID)
		}
	}

	attemptedIDs, err := s.results.ListAttemptedExamIDs(ctx, studentID, examIDs)
	if err != nil {
		return nil, err
	}
	attempted := make(map[uint]struct{}, len(attemptedIDs))
	for _, id := range attemptedIDs {
		attempted[id] = struct{}{}
	}

	items := make([]dto.AssignedExamResponse, 0, len(assignments))
	for _, assignment := range assignments {
		// Assignments outlive deleted exams.
		if assignment.Exam == nil {
			s.logger.Debug().Uint("assignment_id", assignment.ID).Msg("skipping assignment without exam")
			continue
		}
		_, done := attempted[assignment.Exam.ID]
		items = append(items, dto.AssignedExamResponse{
			ExamID:       assignment.Exam.ID,
			AssignmentID: assignment.ID,
			ClassName:    labelOrMissing(assignment.Class.ClassName),
			TestName:     assignment.Exam.Title,
			TimeLimit:    assignment.Exam.TimeLimit,
			StartDate:    assignment.StartTime,
			EndDate:      assignment.EndTime,
			IsAttempted:  done,
		})
	}

	return items, nil
}
