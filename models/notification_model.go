package models

import "github.com/google/uuid"

const (
	NotifyCourse     = "course"
	NotifyOrder      = "order"
	NotifyPayment    = "payment"
	NotifyWithdrawal = "withdrawal"
	NotifyAccount    = "account"
	NotifySystem     = "system"
)

type Notification struct {
	Model
	RecipientID   uuid.UUID `gorm:"type:uuid;not null;index:idx_notification_recipient" json:"recipient_id"`
	RecipientRole Role      `gorm:"size:10;not null;index:idx_notification_recipient" json:"recipient_role"`
	Type          string    `gorm:"size:20;not null" json:"type"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	Link          *string   `gorm:"size:255" json:"link"`
	IsRead        bool      `gorm:"not null;default:false;index" json:"is_read"`
}
