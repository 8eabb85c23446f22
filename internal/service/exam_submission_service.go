package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-exam-api/internal/dto"
	"github.com/noah-isme/gema-exam-api/internal/grading"
	"github.com/noah-isme/gema-exam-api/internal/models"
	"github.com/noah-isme/gema-exam-api/internal/observability"
	"github.com/noah-isme/gema-exam-api/internal/repository"
)

var (
	// ErrInvalidSubmission indicates the submission is missing required fields.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrExamNotFound indicates the exam does not exist.
	ErrExamNotFound = errors.New("exam not found")
	// ErrEnrollmentNotFound indicates the student has no active class enrollment.
	ErrEnrollmentNotFound = errors.New("active enrollment not found")
	// ErrResultAlreadySubmitted indicates the student already has a result for the exam.
	ErrResultAlreadySubmitted = errors.New("exam already submitted")
	// ErrResultNotFound indicates the student has no result for the exam.
	ErrResultNotFound = errors.New("result not found")
)

// ExamSubmissionService grades exam submissions and serves the stored results.
type ExamSubmissionService interface {
	Submit(ctx context.Context, studentID, examID uint, payload dto.ExamSubmissionRequest) (dto.ResultResponse, error)
	GetResult(ctx context.Context, studentID, examID uint) (dto.ResultResponse, error)
}

// ResultPublisher is notified after a result has been stored.
type ResultPublisher interface {
	ResultCreated(ctx context.Context, result models.Result) error
}

type examSubmissionService struct {
	exams       repository.ExamRepository
	enrollments repository.EnrollmentRepository
	results     repository.ResultRepository
	normalizer  *grading.Normalizer
	descriptive *grading.DescriptiveGrader
	publisher   ResultPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewExamSubmissionService constructs the submission pipeline. publisher may be nil.
func NewExamSubmissionService(exams repository.ExamRepository, enrollments repository.EnrollmentRepository, results repository.ResultRepository, descriptive *grading.DescriptiveGrader, publisher ResultPublisher, validate *validator.Validate, logger zerolog.Logger) ExamSubmissionService {
	return &examSubmissionService{
		exams:       exams,
		enrollments: enrollments,
		results:     results,
		normalizer:  grading.NewNormalizer(),
		descriptive: descriptive,
		publisher:   publisher,
		validator:   validate,
		logger:      logger.With().Str("component", "exam_submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-exam-api/internal/service/exam_submission"),
		now:         time.Now,
	}
}

func (s *examSubmissionService) Submit(ctx context.Context, studentID, examID uint, payload dto.ExamSubmissionRequest) (dto.ResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "exam.submit", trace.WithAttributes(
		attribute.Int64("exam.id", int64(examID)),
		attribute.Int64("student.id", int64(studentID)),
	))
	defer span.End()

	response, outcome, err := s.submit(ctx, studentID, examID, payload)
	observability.Submissions().WithLabelValues(outcome).Inc()
	if err != nil {
		if outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return dto.ResultResponse{}, err
	}
	return response, nil
}

func (s *examSubmissionService) submit(ctx context.Context, studentID, examID uint, payload dto.ExamSubmissionRequest) (dto.ResultResponse, string, error) {
	if studentID == 0 || examID == 0 {
		return dto.ResultResponse{}, "invalid", ErrInvalidSubmission
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ResultResponse{}, "invalid", err
	}

	exam, err := s.exams.GetWithQuestions(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultResponse{}, "not_found", ErrExamNotFound
		}
		return dto.ResultResponse{}, "error", fmt.Errorf("load exam: %w", err)
	}
	if len(exam.Questions) == 0 {
		return dto.ResultResponse{}, "invalid", fmt.Errorf("%w: exam has no questions", ErrInvalidSubmission)
	}

	classID, err := s.resolveClass(ctx, studentID, examID)
	if err != nil {
		if errors.Is(err, ErrEnrollmentNotFound) {
			return dto.ResultResponse{}, "not_found", err
		}
		return dto.ResultResponse{}, "error", err
	}

	// Skip the grading call for obvious repeats; the unique index still decides races.
	exists, err := s.results.ExistsForStudentExam(ctx, studentID, examID)
	if err != nil {
		return dto.ResultResponse{}, "error", fmt.Errorf("check existing result: %w", err)
	}
	if exists {
		return dto.ResultResponse{}, "conflict", ErrResultAlreadySubmitted
	}

	assembly := s.grade(ctx, exam.Questions, payload.Answers)
	result := assembly.ToResult(studentID, exam.ID, classID, exam.Title, s.now().UTC())

	if err := s.results.Create(ctx, &result); err != nil {
		if errors.Is(err, repository.ErrResultExists) {
			return dto.ResultResponse{}, "conflict", ErrResultAlreadySubmitted
		}
		return dto.ResultResponse{}, "error", fmt.Errorf("store result: %w", err)
	}

	s.logger.Info().
		Uint("result_id", result.ID).
		Uint("student_id", studentID).
		Uint("exam_id", examID).
		Float64("obtained", result.ObtainedMarks).
		Int("total", result.TotalMarks).
		Str("status", string(result.Status)).
		Msg("exam graded")

	if s.publisher != nil {
		if err := s.publisher.ResultCreated(ctx, result); err != nil {
			s.logger.Warn().Err(err).Uint("result_id", result.ID).Msg("failed to publish result event")
		}
	}

	return dto.NewResultResponse(result), "created", nil
}

func (s *examSubmissionService) grade(ctx context.Context, questions []models.Question, raw map[string]interface{}) grading.Assembly {
	answers := s.normalizer.Normalize(questions, raw)

	objective := make([]grading.Outcome, len(questions))
	pending := make([]grading.DescriptiveItem, 0)
	for i, question := range questions {
		switch answer := answers[i].(type) {
		case grading.FreeTextAnswer:
			pending = append(pending, grading.DescriptiveItem{
				QuestionID:   strconv.FormatUint(uint64(question.ID), 10),
				QuestionText: question.Text,
				Answer:       answer,
			})
		case grading.SingleChoiceAnswer, grading.MultiChoiceAnswer:
			objective[i] = grading.ScoreObjective(question, answer)
		}
	}

	var descriptive map[string]grading.Outcome
	if len(pending) > 0 {
		descriptive = s.descriptive.Grade(ctx, pending)
	}

	return grading.Assemble(questions, answers, objective, descriptive)
}

// resolveClass picks the class the result is filed under: an active class the exam is
// assigned to, else the student's earliest active class.
func (s *examSubmissionService) resolveClass(ctx context.Context, studentID, examID uint) (uint, error) {
	enrollments, err := s.enrollments.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("load enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return 0, ErrEnrollmentNotFound
	}

	assigned, err := s.exams.ListAssignedClassIDs(ctx, examID)
	if err != nil {
		return 0, fmt.Errorf("load exam assignments: %w", err)
	}
	assignedSet := make(map[uint]struct{}, len(assigned))
	for _, classID := range assigned {
		assignedSet[classID] = struct{}{}
	}

	for _, enrollment := range enrollments {
		if _, ok := assignedSet[enrollment.ClassID]; ok {
			return enrollment.ClassID, nil
		}
	}
	return enrollments[0].ClassID, nil
}

func (s *examSubmissionService) GetResult(ctx context.Context, studentID, examID uint) (dto.ResultResponse, error) {
	result, err := s.results.GetByStudentAndExam(ctx, studentID, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultResponse{}, ErrResultNotFound
		}
		return dto.ResultResponse{}, err
	}
	return dto.NewResultResponse(result), nil
}
