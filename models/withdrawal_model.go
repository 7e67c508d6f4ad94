package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	WithdrawalPending    = "pending"
	WithdrawalProcessing = "processing"
	WithdrawalCompleted  = "completed"
	WithdrawalRejected   = "rejected"
)

type WithdrawalRequest struct {
	Model
	TutorID       uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_withdrawal_open_tutor,where:status <> 'completed' AND status <> 'rejected'" json:"tutor_id"`
	WalletID      uuid.UUID       `gorm:"type:uuid;not null" json:"wallet_id"`
	BankAccountID uuid.UUID       `gorm:"type:uuid;not null" json:"bank_account_id"`
	TransactionID *uuid.UUID      `gorm:"type:uuid" json:"transaction_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status        string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AdminNote     *string         `gorm:"type:text" json:"admin_note"`
	ProcessedAt   *time.Time      `json:"processed_at"`

	Tutor       *Tutor       `gorm:"foreignKey:TutorID" json:"tutor,omitempty"`
	BankAccount *BankAccount `gorm:"foreignKey:BankAccountID" json:"bank_account,omitempty"`
}

// Open reports whether the request still holds funds off the tutor's balance
// and can move to another state.
func (w *WithdrawalRequest) Open() bool {
	return w.Status == WithdrawalPending || w.Status == WithdrawalProcessing
}
