package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-exam-api/internal/models"
)

// ResultCreatedEvent is broadcast after a result is stored.
type ResultCreatedEvent struct {
	Source        string    `json:"source"`
	ResultID      uint      `json:"result_id"`
	StudentID     uint      `json:"student_id"`
	ExamID        uint      `json:"exam_id"`
	ClassID       uint      `json:"class_id"`
	ObtainedMarks float64   `json:"obtained_marks"`
	TotalMarks    int       `json:"total_marks"`
	Percentage    int       `json:"percentage"`
	Status        string    `json:"status"`
	SubmittedAt   time.Time `json:"submitted_at"`
	SentAt        time.Time `json:"sent_at"`
}

type resultEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	analytics    ClassAnalyticsService
	logger       zerolog.Logger
	tracer       trace.Tracer
	nodeID       string
}

// NewResultEventPublisher fans result events out to Redis pub/sub and NATS and drops the
// analytics caches the new result makes stale. Every sink is optional.
func NewResultEventPublisher(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, analytics ClassAnalyticsService, logger zerolog.Logger) ResultPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":results:created"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".results.created"
	}

	return &resultEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		analytics:    analytics,
		logger:       logger.With().Str("component", "result_event_publisher").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/gema-exam-api/internal/service/result_events"),
		nodeID:       uuid.NewString(),
	}
}

func (p *resultEventPublisher) ResultCreated(ctx context.Context, result models.Result) error {
	ctx, span := p.tracer.Start(ctx, "results.publish_created", trace.WithAttributes(
		attribute.Int64("result.id", int64(result.ID)),
		attribute.Int64("exam.id", int64(result.ExamID)),
	))
	defer span.End()

	var errs []error
	if p.analytics != nil {
		if err := p.analytics.Invalidate(ctx, result.ExamID); err != nil {
			errs = append(errs, err)
		}
	}

	payload, err := json.Marshal(ResultCreatedEvent{
		Source:        p.nodeID,
		ResultID:      result.ID,
		StudentID:     result.StudentID,
		ExamID:        result.ExamID,
		ClassID:       result.ClassID,
		ObtainedMarks: result.ObtainedMarks,
		TotalMarks:    result.TotalMarks,
		Percentage:    result.Percentage,
		Status:        string(result.Status),
		SubmittedAt:   result.SubmittedAt,
		SentAt:        time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}
