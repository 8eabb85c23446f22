package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-exam-api/internal/service"
	"github.com/noah-isme/gema-exam-api/internal/utils"
)

// ClassAnalyticsHandler serves the teacher reporting endpoints.
type ClassAnalyticsHandler struct {
	service service.ClassAnalyticsService
	logger  zerolog.Logger
}

// NewClassAnalyticsHandler builds the analytics handler.
func NewClassAnalyticsHandler(service service.ClassAnalyticsService, logger zerolog.Logger) *ClassAnalyticsHandler {
	return &ClassAnalyticsHandler{
		service: service,
		logger:  logger.With().Str("component", "class_analytics_handler").Logger(),
	}
}

// Register attaches the analytics routes.
func (h *ClassAnalyticsHandler) Register(router fiber.Router) {
	router.Get("", h.summaries)
	router.Get("/:examId", h.detail)
}

func (h *ClassAnalyticsHandler) summaries(c *fiber.Ctx) error {
	summary, err := h.service.ListClassSummaries(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to aggregate class results")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load class results")
	}

	return utils.OK(c, summary.Items, "class performance results fetched", fiber.Map{
		"generated_at": summary.GeneratedAt,
		"cache_hit":    summary.CacheHit,
	})
}

func (h *ClassAnalyticsHandler) detail(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	detail, err := h.service.GetExamDetail(c.UserContext(), examID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("exam_id", examID).Msg("failed to load exam results")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load exam results")
	}

	message := "detailed results fetched"
	if len(detail.Students) == 0 {
		message = "no results found for this exam"
	}
	return utils.SendSuccess(c, message, detail)
}
