package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/gema-exam-api/internal/dto"
	"github.com/noah-isme/gema-exam-api/internal/models"
	"github.com/noah-isme/gema-exam-api/internal/repository"
)

const (
	classSummaryCacheKey    = "analytics:class-summaries"
	examDetailCacheKeyFmt   = "analytics:exam-detail:%d"
	cacheGenerationSuffix   = ":gen"
	analyticsDateLayout     = "2006-01-02"
	missingLabel            = "N/A"
	untitledExamPlaceholder = "Untitled Test"
)

// ClassAnalyticsService aggregates stored results for teacher reporting.
type ClassAnalyticsService interface {
	ListClassSummaries(ctx context.Context) (dto.ClassExamSummaryResponse, error)
	GetExamDetail(ctx context.Context, examID uint) (dto.ExamDetailResponse, error)
	Invalidate(ctx context.Context, examID uint) error
}

type classAnalyticsService struct {
	repo     repository.ResultAnalyticsRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewClassAnalyticsService constructs the analytics service. cache may be nil.
func NewClassAnalyticsService(repo repository.ResultAnalyticsRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ClassAnalyticsService {
	return &classAnalyticsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "class_analytics_service").Logger(),
		now:      time.Now,
	}
}

func (s *classAnalyticsService) ListClassSummaries(ctx context.Context) (dto.ClassExamSummaryResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-exam-api/internal/service/class_analytics")
	ctx, span := tracer.Start(ctx, "analytics.class_summaries")
	span.SetAttributes(attribute.String("analytics.cache_key", classSummaryCacheKey))
	defer span.End()

	cacheKey, cacheable := s.versionedKey(ctx, classSummaryCacheKey)
	var cached dto.ClassExamSummaryResponse
	if cacheable && s.readCache(ctx, cacheKey, &cached) {
		cached.CacheHit = true
		span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
		return cached, nil
	}

	results, err := s.repo.ListForSummary(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_results_failed")
		return dto.ClassExamSummaryResponse{}, err
	}

	response := dto.ClassExamSummaryResponse{
		Items:       SummarizeByExamClass(results),
		GeneratedAt: s.now().UTC(),
	}
	span.SetAttributes(
		attribute.Int("analytics.result_count", len(results)),
		attribute.Int("analytics.group_count", len(response.Items)),
	)

	if cacheable {
		s.writeCache(ctx, cacheKey, response)
	}
	return response, nil
}

func (s *classAnalyticsService) GetExamDetail(ctx context.Context, examID uint) (dto.ExamDetailResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/gema-exam-api/internal/service/class_analytics")
	ctx, span := tracer.Start(ctx, "analytics.exam_detail")
	span.SetAttributes(attribute.Int64("analytics.exam_id", int64(examID)))
	defer span.End()

	cacheKey, cacheable := s.versionedKey(ctx, fmt.Sprintf(examDetailCacheKeyFmt, examID))
	var cached dto.ExamDetailResponse
	if cacheable && s.readCache(ctx, cacheKey, &cached) {
		span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
		return cached, nil
	}

	results, err := s.repo.ListByExam(ctx, examID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_exam_results_failed")
		return dto.ExamDetailResponse{}, err
	}

	response := BuildExamDetail(results)
	if response.Meta.InconsistentTotalMarks {
		s.logger.Warn().Uint("exam_id", examID).Msg("results for exam disagree on total marks")
	}

	if cacheable {
		s.writeCache(ctx, cacheKey, response)
	}
	return response, nil
}

// Invalidate retires cached reports affected by a new result for the exam by bumping their
// generation. A report computed before the bump is written under the old generation and is
// never read again.
func (s *classAnalyticsService) Invalidate(ctx context.Context, examID uint) error {
	if s.cache == nil {
		return nil
	}
	_, err := s.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, classSummaryCacheKey+cacheGenerationSuffix)
		pipe.Incr(ctx, fmt.Sprintf(examDetailCacheKeyFmt, examID)+cacheGenerationSuffix)
		return nil
	})
	return err
}

// versionedKey resolves base to the key of its current generation. It reports false when the
// cache is disabled or the generation cannot be read.
func (s *classAnalyticsService) versionedKey(ctx context.Context, base string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	generation, err := s.cache.Get(ctx, base+cacheGenerationSuffix).Int64()
	if err != nil && err != redis.Nil {
		s.logger.Warn().Err(err).Str("key", base).Msg("failed to read analytics cache generation")
		return "", false
	}
	return fmt.Sprintf("%s:v%d", base, generation), true
}

func (s *classAnalyticsService) readCache(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}
	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read analytics cache")
		}
		return false
	}
	if err := json.Unmarshal([]byte(cached), target); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding malformed analytics cache entry")
		return false
	}
	return true
}

func (s *classAnalyticsService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store analytics cache")
	}
}

type examClassKey struct {
	examID  uint
	classID uint
}

type examClassGroup struct {
	summary    dto.ClassExamSummary
	percentSum float64
}

// SummarizeByExamClass groups results by (exam, class) and sorts the groups by their latest
// submission, newest first.
func SummarizeByExamClass(results []models.Result) []dto.ClassExamSummary {
	groups := make(map[examClassKey]*examClassGroup)
	order := make([]examClassKey, 0)

	for _, result := range results {
		key := examClassKey{examID: result.ExamID, classID: result.ClassID}
		group, ok := groups[key]
		if !ok {
			group = &examClassGroup{summary: dto.ClassExamSummary{
				ExamID:    result.ExamID,
				ClassID:   result.ClassID,
				ClassName: labelOrMissing(result.Class.ClassName),
				TestName:  examTitle(result.ExamTitle),
			}}
			groups[key] = group
			order = append(order, key)
		}

		group.summary.TotalStudents++
		group.percentSum += float64(result.Percentage)
		if result.SubmittedAt.After(group.summary.LatestSubmission) {
			group.summary.LatestSubmission = result.SubmittedAt
		}
	}

	items := make([]dto.ClassExamSummary, 0, len(order))
	for _, key := range order {
		group := groups[key]
		summary := group.summary
		// Halves round to even.
		summary.AveragePercentage = int(math.RoundToEven(group.percentSum / float64(summary.TotalStudents)))
		summary.Date = formatDate(summary.LatestSubmission)
		items = append(items, summary)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].LatestSubmission.After(items[j].LatestSubmission)
	})
	return items
}

// BuildExamDetail lists every student's result for one exam. Header fields come from the first
// result; a disagreement on total marks is flagged rather than reconciled.
func BuildExamDetail(results []models.Result) dto.ExamDetailResponse {
	response := dto.ExamDetailResponse{Students: make([]dto.ExamStudentResult, 0, len(results))}
	if len(results) == 0 {
		return response
	}

	representative := results[0]
	response.Meta = dto.ExamDetailMeta{
		ClassName:  labelOrMissing(representative.Class.ClassName),
		TestName:   examTitle(representative.ExamTitle),
		Date:       formatDate(representative.SubmittedAt),
		TotalMarks: representative.TotalMarks,
	}

	for _, result := range results {
		if result.TotalMarks != representative.TotalMarks {
			response.Meta.InconsistentTotalMarks = true
		}

		name := result.Student.FullName()
		response.Students = append(response.Students, dto.ExamStudentResult{
			ResultID:   result.ID,
			StudentID:  result.StudentID,
			RollNo:     labelOrMissing(result.Student.RollNo),
			Name:       labelOrMissing(name),
			Obtained:   result.ObtainedMarks,
			Percentage: result.Percentage,
			Status:     string(result.Status),
		})
	}

	return response
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return missingLabel
	}
	return t.UTC().Format(analyticsDateLayout)
}

func labelOrMissing(value string) string {
	if value == "" {
		return missingLabel
	}
	return value
}

func examTitle(value string) string {
	if value == "" {
		return untitledExamPlaceholder
	}
	return value
}
