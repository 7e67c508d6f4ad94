package models

const (
	VerificationNotRequested = "not_requested"
	VerificationPending      = "pending"
	VerificationApproved     = "approved"
	VerificationRejected     = "rejected"
)

type Tutor struct {
	Account
	Headline           *string `gorm:"size:255" json:"headline"`
	Bio                *string `gorm:"type:text" json:"bio"`
	Expertise          *string `gorm:"size:255" json:"expertise"`
	Experience         *string `gorm:"type:text" json:"experience"`
	VerificationStatus string  `gorm:"size:20;not null;default:'not_requested'" json:"verification_status"`
	IsVerified         bool    `gorm:"not null;default:false" json:"is_verified"`
	RejectionReason    *string `gorm:"type:text" json:"rejection_reason"`
}
