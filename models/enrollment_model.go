package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LessonNotStarted = "not_started"
	LessonInProgress = "in_progress"
	LessonCompleted  = "completed"
)

type EnrolledCourse struct {
	Model
	UserID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`
	OrderID          *uuid.UUID `gorm:"type:uuid" json:"order_id"`
	Progress         int        `gorm:"not null;default:0" json:"progress"`
	CompletedLessons int        `gorm:"not null;default:0" json:"completed_lessons"`
	CurrentLessonID  *uuid.UUID `gorm:"type:uuid" json:"current_lesson_id"`
	IsCompleted      bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt      *time.Time `json:"completed_at"`
	LastAccessedAt   *time.Time `json:"last_accessed_at"`

	Course         *Course          `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	LessonProgress []LessonProgress `gorm:"foreignKey:EnrollmentID" json:"lesson_progress,omitempty"`
}

type LessonProgress struct {
	Model
	EnrollmentID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_enrollment_lesson" json:"enrollment_id"`
	LessonID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_progress_enrollment_lesson" json:"lesson_id"`
	Status       string     `gorm:"size:20;not null;default:'not_started'" json:"status"`
	CompletedAt  *time.Time `json:"completed_at"`
}
