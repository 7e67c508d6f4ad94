package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Coupon struct {
	Model
	Code          string          `gorm:"size:40;not null;uniqueIndex" json:"code"`
	Description   *string         `gorm:"type:text" json:"description"`
	DiscountType  string          `gorm:"size:20;not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_value"`
	MinPurchase   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"min_purchase"`
	MaxDiscount   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"max_discount"`
	ExpiresAt     time.Time       `gorm:"not null;index" json:"expires_at"`
	UsageLimit    int             `gorm:"not null;default:0" json:"usage_limit"`
	UsedCount     int             `gorm:"not null;default:0" json:"used_count"`
	PerUserLimit  int             `gorm:"not null;default:0" json:"per_user_limit"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
}

// Cart is the checkout line a user builds for one course before ordering.
type Cart struct {
	Model
	UserID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_course" json:"user_id"`
	CourseID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_course" json:"course_id"`
	CouponID *uuid.UUID `gorm:"type:uuid" json:"coupon_id"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Coupon *Coupon `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
}
