package models

import (
	"time"

	"github.com/google/uuid"
)

type Certificate struct {
	Model
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_user_course" json:"user_id"`
	CourseID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_user_course" json:"course_id"`
	Number        string    `gorm:"size:40;not null;uniqueIndex" json:"number"`
	RecipientName string    `gorm:"size:255;not null" json:"recipient_name"`
	TutorName     string    `gorm:"size:255;not null" json:"tutor_name"`
	CourseTitle   string    `gorm:"size:255;not null" json:"course_title"`
	IssuedAt      time.Time `gorm:"not null" json:"issued_at"`
	URL           *string   `gorm:"type:text" json:"url"`
}
