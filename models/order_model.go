package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	OrderPending = "pending"
	OrderSuccess = "success"
	OrderFailed  = "failed"
	// OrderRefundDue marks a captured payment for a course the user already owned.
	OrderRefundDue = "refund_due"

	PaymentRazorpay = "razorpay"
	PaymentWallet   = "wallet"
	PaymentFree     = "free"
)

type Order struct {
	Model
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	CourseID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"course_id"`
	CouponID         *uuid.UUID      `gorm:"type:uuid" json:"coupon_id"`
	CouponCode       *string         `gorm:"size:40" json:"coupon_code"`
	Price            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Discount         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"discount"`
	FinalPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"final_price"`
	Currency         string          `gorm:"size:3;not null" json:"currency"`
	PaymentMethod    string          `gorm:"size:20;not null" json:"payment_method"`
	GatewayOrderID   *string         `gorm:"size:64;uniqueIndex" json:"gateway_order_id"`
	GatewayPaymentID *string         `gorm:"size:64" json:"gateway_payment_id"`
	Signature        *string         `gorm:"size:128" json:"-"`
	Status           string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Receipt          string          `gorm:"size:40;not null;uniqueIndex" json:"receipt"`
	FailureReason    *string         `gorm:"type:text" json:"failure_reason"`
	CompletedAt      *time.Time      `json:"completed_at"`

	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}
