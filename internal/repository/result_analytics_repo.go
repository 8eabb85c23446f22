package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-exam-api/internal/models"
)

// ResultAnalyticsRepository supplies results for class and exam reporting.
type ResultAnalyticsRepository interface {
	ListForSummary(ctx context.Context) ([]models.Result, error)
	ListByExam(ctx context.Context, examID uint) ([]models.Result, error)
}

type resultAnalyticsRepository struct {
	db *gorm.DB
}

// NewResultAnalyticsRepository constructs the analytics repository.
func NewResultAnalyticsRepository(db *gorm.DB) ResultAnalyticsRepository {
	return &resultAnalyticsRepository{db: db}
}

// ListForSummary loads every result without its response snapshots.
func (r *resultAnalyticsRepository) ListForSummary(ctx context.Context) ([]models.Result, error) {
	var results []models.Result
	err := r.db.WithContext(ctx).
		Select("id", "student_id", "exam_id", "class_id", "exam_title", "obtained_marks", "total_marks", "percentage", "status", "submitted_at").
		Preload("Class").
		Find(&results).Error
	return results, err
}

func (r *resultAnalyticsRepository) ListByExam(ctx context.Context, examID uint) ([]models.Result, error) {
	var results []models.Result
	err := r.db.WithContext(ctx).
		Select("id", "student_id", "exam_id", "class_id", "exam_title", "obtained_marks", "total_marks", "percentage", "status", "submitted_at").
		Preload("Student").
		Preload("Class").
		Where("exam_id = ?", examID).
		Order("submitted_at ASC").
		Order("id ASC").
		Find(&results).Error
	return results, err
}
