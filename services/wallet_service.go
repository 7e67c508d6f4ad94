package services

import (
	"context"
	"strings"

	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/metrics"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInsufficientBalance = badRequest("Insufficient wallet balance")

// Entry describes the ledger row written with a balance movement.
type Entry struct {
	Purpose      string
	Status       string
	OrderID      *uuid.UUID
	WithdrawalID *uuid.UUID
	Description  string
}

// walletOwner maps admins onto the shared platform wallet.
func walletOwner(role models.Role, id uuid.UUID) uuid.UUID {
	if role == models.RoleAdmin {
		return models.PlatformOwnerID
	}
	return id
}

// EnsureWallet returns the owner's wallet, creating an empty one if needed.
func EnsureWallet(tx *gorm.DB, role models.Role, id uuid.UUID) (*models.Wallet, error) {
	w := models.Wallet{
		OwnerID:   walletOwner(role, id),
		OwnerRole: role,
		Balance:   decimal.Zero,
		Currency:  currency(),
	}
	err := tx.Where("owner_id = ? AND owner_role = ?", w.OwnerID, role).FirstOrCreate(&w).Error
	return &w, wrap(err, "ensure wallet")
}

// Credit adds amount to the wallet and appends the ledger entry, all on tx.
func Credit(tx *gorm.DB, role models.Role, id uuid.UUID, amount decimal.Decimal, e Entry) (*models.Transaction, error) {
	return move(tx, models.TxnCredit, role, id, amount, e)
}

// Debit subtracts amount with a conditional update so the balance can never
// go negative, even with concurrent debits.
func Debit(tx *gorm.DB, role models.Role, id uuid.UUID, amount decimal.Decimal, e Entry) (*models.Transaction, error) {
	return move(tx, models.TxnDebit, role, id, amount, e)
}

func move(tx *gorm.DB, kind string, role models.Role, id uuid.UUID, amount decimal.Decimal, e Entry) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, badRequest("Amount must be greater than zero")
	}
	w, err := EnsureWallet(tx, role, id)
	if err != nil {
		return nil, err
	}

	q := tx.Model(&models.Wallet{}).Where("id = ?", w.ID)
	var res *gorm.DB
	if kind == models.TxnDebit {
		res = q.Where("balance >= ?", amount).Update("balance", gorm.Expr("balance - ?", amount))
	} else {
		res = q.Update("balance", gorm.Expr("balance + ?", amount))
	}
	if res.Error != nil {
		return nil, wrap(res.Error, "update wallet balance")
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientBalance
	}
	if err := tx.Select("balance").First(w, "id = ?", w.ID).Error; err != nil {
		return nil, wrap(err, "reload wallet")
	}

	status := e.Status
	if status == "" {
		status = models.TxnSuccess
	}
	txn := models.Transaction{
		WalletID:     w.ID,
		OwnerID:      w.OwnerID,
		OwnerRole:    role,
		Type:         kind,
		Purpose:      e.Purpose,
		Amount:       amount,
		BalanceAfter: w.Balance,
		Status:       status,
		OrderID:      e.OrderID,
		WithdrawalID: e.WithdrawalID,
		Description:  e.Description,
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, wrap(err, "create ledger entry")
	}
	metrics.WalletMovements.WithLabelValues(kind, e.Purpose).Inc()
	return &txn, nil
}

type WalletView struct {
	Wallet       *models.Wallet            `json:"wallet"`
	Transactions Paged[models.Transaction] `json:"-"`
}

func GetWallet(ctx context.Context, role models.Role, id uuid.UUID, p utils.Page) (*WalletView, error) {
	w, err := EnsureWallet(db(ctx), role, id)
	if err != nil {
		return nil, err
	}
	if err := db(ctx).Where("wallet_id = ?", w.ID).Order("is_primary DESC, created_at").Find(&w.BankAccounts).Error; err != nil {
		return nil, wrap(err, "load bank accounts")
	}
	txns, err := paginate[models.Transaction](db(ctx).Model(&models.Transaction{}).Where("wallet_id = ?", w.ID), p, "created_at DESC")
	if err != nil {
		return nil, wrap(err, "load transactions")
	}
	return &WalletView{Wallet: w, Transactions: txns}, nil
}

func AddBankAccount(ctx context.Context, tutorID uuid.UUID, f *forms.BankAccount) (*models.BankAccount, error) {
	var acct models.BankAccount
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := EnsureWallet(tx, models.RoleTutor, tutorID)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.BankAccount{}).Where("wallet_id = ? AND account_number = ?", w.ID, f.AccountNumber).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflict("Bank account already added")
		}
		if err := tx.Model(&models.BankAccount{}).Where("wallet_id = ?", w.ID).Count(&count).Error; err != nil {
			return err
		}
		primary := f.IsPrimary || count == 0
		if primary && count > 0 {
			if err := tx.Model(&models.BankAccount{}).Where("wallet_id = ?", w.ID).Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		acct = models.BankAccount{
			WalletID:      w.ID,
			AccountHolder: f.AccountHolder,
			AccountNumber: f.AccountNumber,
			IFSC:          strings.ToUpper(f.IFSC),
			BankName:      f.BankName,
			IsPrimary:     primary,
		}
		return tx.Create(&acct).Error
	})
	return &acct, wrap(err, "add bank account")
}

func ListBankAccounts(ctx context.Context, tutorID uuid.UUID) ([]models.BankAccount, error) {
	w, err := EnsureWallet(db(ctx), models.RoleTutor, tutorID)
	if err != nil {
		return nil, err
	}
	accounts := []models.BankAccount{}
	err = db(ctx).Where("wallet_id = ?", w.ID).Order("is_primary DESC, created_at").Find(&accounts).Error
	return accounts, wrap(err, "list bank accounts")
}

// AdminWithdraw moves money out of the platform wallet.
func AdminWithdraw(ctx context.Context, adminID uuid.UUID, f *forms.AdminWithdraw) (*models.Transaction, error) {
	amount := decimal.NewFromFloat(f.Amount).Round(2)
	desc := f.Note
	if desc == "" {
		desc = "Platform withdrawal"
	}
	var txn *models.Transaction
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = Debit(tx, models.RoleAdmin, adminID, amount, Entry{Purpose: models.PurposeAdminWithdrawal, Description: desc})
		return err
	})
	return txn, wrap(err, "admin withdraw")
}

type TransactionFilter struct {
	Type    string
	Purpose string
	Status  string
}

func ListTransactions(ctx context.Context, f TransactionFilter, p utils.Page) (Paged[models.Transaction], error) {
	q := db(ctx).Model(&models.Transaction{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Purpose != "" {
		q = q.Where("purpose = ?", f.Purpose)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	out, err := paginate[models.Transaction](q, p, "created_at DESC")
	return out, wrap(err, "list transactions")
}
