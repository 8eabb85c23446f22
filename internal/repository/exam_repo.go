package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-exam-api/internal/models"
)

// ExamRepository is the read-only view of the exam catalogue used by grading.
type ExamRepository interface {
	GetWithQuestions(ctx context.Context, id uint) (models.Exam, error)
	ListAssignmentsByClasses(ctx context.Context, classIDs []uint) ([]models.ExamAssignment, error)
	ListAssignedClassIDs(ctx context.Context, examID uint) ([]uint, error)
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository constructs an exam repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) GetWithQuestions(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("id ASC")
		}).
		First(&exam, id).Error
	if err != nil {
		return models.Exam{}, err
	}
	return exam, nil
}

func (r *examRepository) ListAssignmentsByClasses(ctx context.Context, classIDs []uint) ([]models.ExamAssignment, error) {
	if len(classIDs) == 0 {
		return []models.ExamAssignment{}, nil
	}

	var assignments []models.ExamAssignment
	err := r.db.WithContext(ctx).
		Preload("Exam").
		Preload("Class").
		Where("class_id IN ?", classIDs).
		Order("start_time ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *examRepository) ListAssignedClassIDs(ctx context.Context, examID uint) ([]uint, error) {
	var classIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.ExamAssignment{}).
		Where("exam_id = ?", examID).
		Distinct().
		Pluck("class_id", &classIDs).Error
	if err != nil {
		return nil, err
	}
	return classIDs, nil
}
