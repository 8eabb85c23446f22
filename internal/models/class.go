package models

import "time"

// Class is a teaching group students enrol into.
type Class struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClassName string    `gorm:"size:120;not null" json:"class_name"`
	Section   string    `gorm:"size:32" json:"section"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// EnrollmentStatusActive marks a current class membership.
	EnrollmentStatusActive = "active"
	// EnrollmentStatusDropped marks a student that left the class.
	EnrollmentStatusDropped = "dropped"
	// EnrollmentStatusCompleted marks a finished class membership.
	EnrollmentStatusCompleted = "completed"
)

// Enrollment links a student to a class.
type Enrollment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_class" json:"student_id"`
	ClassID   uint      `gorm:"not null;uniqueIndex:idx_enrollment_student_class" json:"class_id"`
	Status    string    `gorm:"size:32;not null;default:active" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Class     Class     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"class"`
}

// IsActive reports whether the enrollment is current.
func (e Enrollment) IsActive() bool {
	return e.Status == EnrollmentStatusActive
}
