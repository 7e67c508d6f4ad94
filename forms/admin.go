package forms

import "time"

type AdminProfile struct {
	FirstName    string  `json:"first_name" validate:"required,min=2,max=100,name"`
	LastName     string  `json:"last_name" validate:"omitempty,max=100,name"`
	Phone        string  `json:"phone" validate:"omitempty,phone"`
	ProfileImage *string `json:"profile_image" validate:"omitempty,url"`
}

type AddAccount struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=100,name"`
	LastName  string `json:"last_name" validate:"omitempty,max=100,name"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
}

type UpdateAccount struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=100,name"`
	LastName  string `json:"last_name" validate:"omitempty,max=100,name"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
	IsActive  *bool  `json:"is_active"`
}

type VerificationDecision struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Reason string `json:"reason" validate:"required_if=Status rejected,max=1000"`
}

type Category struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active"`
}

type Coupon struct {
	Code          string    `json:"code" validate:"required,alphanum,min=3,max=40"`
	Description   *string   `json:"description" validate:"omitempty,max=1000"`
	DiscountType  string    `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue float64   `json:"discount_value" validate:"required,gt=0"`
	MinPurchase   float64   `json:"min_purchase" validate:"gte=0"`
	MaxDiscount   float64   `json:"max_discount" validate:"gte=0"`
	ExpiresAt     time.Time `json:"expires_at" validate:"required"`
	UsageLimit    int       `json:"usage_limit" validate:"gte=0"`
	PerUserLimit  int       `json:"per_user_limit" validate:"gte=0"`
	IsActive      *bool     `json:"is_active"`
}

type CourseReview struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Note   string `json:"note" validate:"required_if=Status rejected,max=1000"`
}

type AssignCategory struct {
	CategoryID string `json:"category_id" validate:"required,uuid"`
}

type CourseStatus struct {
	Status string `json:"status" validate:"required,oneof=approved suspended"`
	Note   string `json:"note" validate:"omitempty,max=1000"`
}

type AdminWithdraw struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Note   string  `json:"note" validate:"omitempty,max=255"`
}

type WithdrawalDecision struct {
	RequestID string `json:"request_id" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,oneof=processing completed rejected"`
	Note      string `json:"note" validate:"required_if=Status rejected,max=1000"`
}
