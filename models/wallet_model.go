package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TxnCredit = "credit"
	TxnDebit  = "debit"

	TxnPending = "pending"
	TxnSuccess = "success"
	TxnFailed  = "failed"

	PurposeCourseSale       = "course_sale"
	PurposeCommission       = "commission"
	PurposeCoursePurchase   = "course_purchase"
	PurposeWithdrawal       = "withdrawal"
	PurposeWithdrawalRefund = "withdrawal_refund"
	PurposeAdminWithdrawal  = "admin_withdrawal"
)

// PlatformOwnerID keys the single wallet shared by all admins.
var PlatformOwnerID = uuid.Nil

type Wallet struct {
	Model
	OwnerID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_wallet_owner" json:"owner_id"`
	OwnerRole Role            `gorm:"size:10;not null;uniqueIndex:idx_wallet_owner" json:"owner_role"`
	Balance   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"balance"`
	Currency  string          `gorm:"size:3;not null" json:"currency"`

	BankAccounts []BankAccount `gorm:"foreignKey:WalletID" json:"bank_accounts,omitempty"`
}

type BankAccount struct {
	Model
	WalletID      uuid.UUID `gorm:"type:uuid;not null;index" json:"wallet_id"`
	AccountHolder string    `gorm:"size:150;not null" json:"account_holder"`
	AccountNumber string    `gorm:"size:34;not null" json:"account_number"`
	IFSC          string    `gorm:"size:11;not null" json:"ifsc"`
	BankName      string    `gorm:"size:150;not null" json:"bank_name"`
	IsPrimary     bool      `gorm:"not null;default:false" json:"is_primary"`
}

// Transaction is an append-only ledger entry against one wallet.
type Transaction struct {
	Model
	WalletID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"wallet_id"`
	OwnerID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	OwnerRole    Role            `gorm:"size:10;not null" json:"owner_role"`
	Type         string          `gorm:"size:10;not null" json:"type"`
	Purpose      string          `gorm:"size:30;not null;index" json:"purpose"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"balance_after"`
	Status       string          `gorm:"size:20;not null" json:"status"`
	OrderID      *uuid.UUID      `gorm:"type:uuid;index" json:"order_id"`
	WithdrawalID *uuid.UUID      `gorm:"type:uuid;index" json:"withdrawal_id"`
	Description  string          `gorm:"size:255" json:"description"`
}
