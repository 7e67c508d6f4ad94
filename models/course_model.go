package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CourseDraft     = "draft"
	CoursePending   = "pending"
	CourseApproved  = "approved"
	CourseRejected  = "rejected"
	CourseSuspended = "suspended"
)

type Course struct {
	Model
	TutorID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"tutor_id"`
	CategoryID      *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Title           string          `gorm:"size:200;not null" json:"title"`
	Subtitle        *string         `gorm:"size:255" json:"subtitle"`
	Description     string          `gorm:"type:text" json:"description"`
	Level           string          `gorm:"size:20;not null;default:'all'" json:"level"`
	Language        string          `gorm:"size:50;not null;default:'English'" json:"language"`
	Thumbnail       *string         `gorm:"type:text" json:"thumbnail"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	Status          string          `gorm:"size:20;not null;default:'draft';index" json:"status"`
	AdminNote       *string         `gorm:"type:text" json:"admin_note"`
	EnrollmentCount int             `gorm:"not null;default:0" json:"enrollment_count"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	Tutor    *Tutor    `gorm:"foreignKey:TutorID" json:"tutor,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Modules  []Module  `gorm:"foreignKey:CourseID" json:"modules,omitempty"`
}

type Module struct {
	Model
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title    string    `gorm:"size:200;not null" json:"title"`
	Position int       `gorm:"not null;default:0" json:"position"`

	Lessons []Lesson `gorm:"foreignKey:ModuleID" json:"lessons"`
}

type Lesson struct {
	Model
	ModuleID        uuid.UUID `gorm:"type:uuid;not null;index" json:"module_id"`
	CourseID        uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title           string    `gorm:"size:200;not null" json:"title"`
	Description     *string   `gorm:"type:text" json:"description"`
	VideoURL        string    `gorm:"type:text" json:"video_url,omitempty"`
	DurationMinutes int       `gorm:"not null;default:0" json:"duration_minutes"`
	Position        int       `gorm:"not null;default:0" json:"position"`
	IsPreview       bool      `gorm:"not null;default:false" json:"is_preview"`
}

// LessonCount counts lessons across all loaded modules.
func (c *Course) LessonCount() int {
	n := 0
	for _, m := range c.Modules {
		n += len(m.Lessons)
	}
	return n
}
