package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-exam-api/internal/models"
)

// ErrResultExists indicates a result is already stored for the student and exam.
var ErrResultExists = errors.New("result already exists for student and exam")

// ResultRepository persists graded results. Results are write-once.
type ResultRepository interface {
	Create(ctx context.Context, result *models.Result) error
	ExistsForStudentExam(ctx context.Context, studentID, examID uint) (bool, error)
	GetByStudentAndExam(ctx context.Context, studentID, examID uint) (models.Result, error)
	ListAttemptedExamIDs(ctx context.Context, studentID uint, examIDs []uint) ([]uint, error)
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository constructs a result repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

// Create inserts the whole result in one transaction. The unique (student_id, exam_id) index
// decides concurrent duplicates; the loser receives ErrResultExists.
func (r *resultRepository) Create(ctx context.Context, result *models.Result) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Student", "Class").Create(result).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrResultExists
		}
		return err
	}
	return nil
}

func (r *resultRepository) ExistsForStudentExam(ctx context.Context, studentID, examID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Result{}).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *resultRepository) GetByStudentAndExam(ctx context.Context, studentID, examID uint) (models.Result, error) {
	var result models.Result
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Class").
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		First(&result).Error
	if err != nil {
		return models.Result{}, err
	}
	return result, nil
}

func (r *resultRepository) ListAttemptedExamIDs(ctx context.Context, studentID uint, examIDs []uint) ([]uint, error) {
	if len(examIDs) == 0 {
		return []uint{}, nil
	}

	var attempted []uint
	err := r.db.WithContext(ctx).
		Model(&models.Result{}).
		Where("student_id = ?", studentID).
		Where("exam_id IN ?", examIDs).
		Pluck("exam_id", &attempted).Error
	if err != nil {
		return nil, err
	}
	return attempted, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Drivers opened without TranslateError still report the constraint in the message.
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint")
}
