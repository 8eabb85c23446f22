package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-exam-api/internal/dto"
	"github.com/noah-isme/gema-exam-api/internal/middleware"
	"github.com/noah-isme/gema-exam-api/internal/service"
	"github.com/noah-isme/gema-exam-api/internal/utils"
)

// StudentExamHandler serves the student-facing exam endpoints.
type StudentExamHandler struct {
	submissions service.ExamSubmissionService
	exams       service.StudentExamService
	logger      zerolog.Logger
}

// NewStudentExamHandler builds a student exam handler instance.
func NewStudentExamHandler(submissions service.ExamSubmissionService, exams service.StudentExamService, logger zerolog.Logger) *StudentExamHandler {
	return &StudentExamHandler{
		submissions: submissions,
		exams:       exams,
		logger:      logger.With().Str("component", "student_exam_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. submitGuards run before submit,
// typically a rate limiter.
func (h *StudentExamHandler) Register(router fiber.Router, submitGuards ...fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:examId/result", h.result)

	submit := append(append([]fiber.Handler{}, submitGuards...), h.submit)
	router.Post("/:examId/submit", submit...)
}

func (h *StudentExamHandler) list(c *fiber.Ctx) error {
	studentID := middleware.UserID(c)
	exams, err := h.exams.ListAssigned(c.UserContext(), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	message := "assigned exams fetched successfully"
	if len(exams) == 0 {
		message = "no assigned exams found"
	}
	return utils.SendSuccess(c, message, exams)
}

func (h *StudentExamHandler) submit(c *fiber.Ctx) error {
	studentID := middleware.UserID(c)
	examID, err := parseUintParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ExamSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.submissions.Submit(c.UserContext(), studentID, examID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam submitted successfully", result)
}

func (h *StudentExamHandler) result(c *fiber.Ctx) error {
	studentID := middleware.UserID(c)
	examID, err := parseUintParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.submissions.GetResult(c.UserContext(), studentID, examID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "result fetched", result)
}

func (h *StudentExamHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.Fail(c, fiber.StatusBadRequest, "invalid submission", validationDetails(err))
	case errors.Is(err, service.ErrInvalidSubmission):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "no active class enrollment")
	case errors.Is(err, service.ErrResultNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "result not found")
	case errors.Is(err, service.ErrResultAlreadySubmitted):
		return utils.SendError(c, fiber.StatusConflict, "exam already submitted")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
