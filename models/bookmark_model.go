package models

import "github.com/google/uuid"

type Bookmark struct {
	Model
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bookmark_user_course" json:"user_id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bookmark_user_course" json:"course_id"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
