package models

import (
	"time"

	"gorm.io/gorm"
)

// Account holds the credential and profile columns shared by every role table.
type Account struct {
	Model
	FirstName    string         `gorm:"size:100;not null" json:"first_name"`
	LastName     string         `gorm:"size:100" json:"last_name"`
	Email        string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone        *string        `gorm:"size:20" json:"phone"`
	Password     string         `json:"-"`
	ProfileImage *string        `gorm:"type:text" json:"profile_image"`
	GoogleID     *string        `gorm:"size:64;index" json:"-"`
	IsBlocked    bool           `gorm:"not null;default:false" json:"is_blocked"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	LastLogin    *time.Time     `json:"last_login"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Account) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

func (a *Account) Base() *Account { return a }

// Accountable is implemented by User, Tutor and Admin.
type Accountable interface {
	Base() *Account
}

type User struct {
	Account
	Bio *string `gorm:"type:text" json:"bio"`
}

type Admin struct {
	Account
	IsSuperAdmin bool `gorm:"not null;default:false" json:"is_super_admin"`
}

// NewAccount returns an empty row of the table that stores the given role.
func NewAccount(role Role) Accountable {
	switch role {
	case RoleTutor:
		return &Tutor{}
	case RoleAdmin:
		return &Admin{}
	default:
		return &User{}
	}
}
