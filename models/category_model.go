package models

type Category struct {
	Model
	Name        string  `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description *string `gorm:"type:text" json:"description"`
	IsActive    bool    `gorm:"not null;default:true" json:"is_active"`

	CourseCount int64 `gorm:"-" json:"course_count,omitempty"`
}
