package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/notifications"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func minWithdrawal() decimal.Decimal {
	return decimal.NewFromFloat(config.Float("MIN_WITHDRAWAL_AMOUNT", 500)).Round(2)
}

// RequestWithdrawal debits the tutor wallet, records a pending ledger entry and
// opens the request in one transaction.
func RequestWithdrawal(ctx context.Context, tutorID uuid.UUID, f *forms.Withdrawal) (*models.WithdrawalRequest, error) {
	amount := decimal.NewFromFloat(f.Amount).Round(2)
	if floor := minWithdrawal(); amount.LessThan(floor) {
		return nil, badRequest(fmt.Sprintf("Minimum withdrawal amount is %s", floor.StringFixed(2)))
	}
	bankID, err := ParseID(f.BankAccountID)
	if err != nil {
		return nil, err
	}

	var req models.WithdrawalRequest
	err = db(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := EnsureWallet(tx, models.RoleTutor, tutorID)
		if err != nil {
			return err
		}
		// concurrent requests for the same tutor queue on the wallet row
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&models.Wallet{}, "id = ?", w.ID).Error; err != nil {
			return err
		}
		var bank models.BankAccount
		if err := tx.Where("id = ? AND wallet_id = ?", bankID, w.ID).First(&bank).Error; err != nil {
			return lookup(err, "Bank account")
		}

		var open int64
		if err := tx.Model(&models.WithdrawalRequest{}).
			Where("tutor_id = ? AND status IN ?", tutorID, []string{models.WithdrawalPending, models.WithdrawalProcessing}).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return conflict("You already have a withdrawal request in progress")
		}

		req = models.WithdrawalRequest{
			Model:         models.Model{ID: uuid.New()},
			TutorID:       tutorID,
			WalletID:      w.ID,
			BankAccountID: bank.ID,
			Amount:        amount,
			Status:        models.WithdrawalPending,
		}
		txn, err := Debit(tx, models.RoleTutor, tutorID, amount, Entry{
			Purpose:      models.PurposeWithdrawal,
			Status:       models.TxnPending,
			WithdrawalID: &req.ID,
			Description:  "Withdrawal to " + bank.BankName,
		})
		if err != nil {
			return err
		}
		req.TransactionID = &txn.ID
		if err := tx.Create(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("You already have a withdrawal request in progress")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "request withdrawal")
	}

	NotifyAdmins(ctx, Notice{
		Type:    models.NotifyWithdrawal,
		Title:   "New withdrawal request",
		Message: fmt.Sprintf("A tutor requested a withdrawal of %s", amount.StringFixed(2)),
	})
	return &req, nil
}

func ListTutorWithdrawals(ctx context.Context, tutorID uuid.UUID, p utils.Page) (Paged[models.WithdrawalRequest], error) {
	q := db(ctx).Model(&models.WithdrawalRequest{}).Preload("BankAccount").Where("tutor_id = ?", tutorID)
	out, err := paginate[models.WithdrawalRequest](q, p, "created_at DESC")
	return out, wrap(err, "list withdrawals")
}

func ListWithdrawals(ctx context.Context, status string, p utils.Page) (Paged[models.WithdrawalRequest], error) {
	q := db(ctx).Model(&models.WithdrawalRequest{}).Preload("Tutor").Preload("BankAccount")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	out, err := paginate[models.WithdrawalRequest](q, p, "created_at DESC")
	return out, wrap(err, "list withdrawals")
}

var withdrawalTransitions = map[string][]string{
	models.WithdrawalPending:    {models.WithdrawalProcessing, models.WithdrawalCompleted, models.WithdrawalRejected},
	models.WithdrawalProcessing: {models.WithdrawalCompleted, models.WithdrawalRejected},
}

func canTransition(from, to string) bool {
	for _, s := range withdrawalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DecideWithdrawal moves a request along pending -> processing -> completed,
// or rejects it and refunds the tutor.
func DecideWithdrawal(ctx context.Context, f *forms.WithdrawalDecision) (*models.WithdrawalRequest, error) {
	id, err := ParseID(f.RequestID)
	if err != nil {
		return nil, err
	}

	var req models.WithdrawalRequest
	err = db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, "id = ?", id).Error; err != nil {
			return lookup(err, "Withdrawal request")
		}
		from := req.Status
		if !canTransition(from, f.Status) {
			return conflict(fmt.Sprintf("Cannot move a %s request to %s", from, f.Status))
		}

		now := time.Now()
		updates := map[string]interface{}{"status": f.Status, "processed_at": now}
		if f.Note != "" {
			updates["admin_note"] = f.Note
		}
		res := tx.Model(&models.WithdrawalRequest{}).Where("id = ? AND status = ?", id, from).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return conflict("Withdrawal request was updated concurrently")
		}

		switch f.Status {
		case models.WithdrawalCompleted:
			if req.TransactionID != nil {
				if err := tx.Model(&models.Transaction{}).Where("id = ?", *req.TransactionID).Update("status", models.TxnSuccess).Error; err != nil {
					return err
				}
			}
		case models.WithdrawalRejected:
			if req.TransactionID != nil {
				if err := tx.Model(&models.Transaction{}).Where("id = ?", *req.TransactionID).Update("status", models.TxnFailed).Error; err != nil {
					return err
				}
			}
			if _, err := Credit(tx, models.RoleTutor, req.TutorID, req.Amount, Entry{
				Purpose:      models.PurposeWithdrawalRefund,
				WithdrawalID: &req.ID,
				Description:  "Refund for rejected withdrawal",
			}); err != nil {
				return err
			}
		}
		return tx.Preload("BankAccount").First(&req, "id = ?", id).Error
	})
	if err != nil {
		return nil, wrap(err, "decide withdrawal")
	}

	notifyWithdrawal(ctx, &req)
	return &req, nil
}

func notifyWithdrawal(ctx context.Context, req *models.WithdrawalRequest) {
	var title, msg string
	amount := req.Amount.StringFixed(2)
	switch req.Status {
	case models.WithdrawalProcessing:
		title, msg = "Withdrawal processing", fmt.Sprintf("Your withdrawal of %s is being processed.", amount)
	case models.WithdrawalCompleted:
		title, msg = "Withdrawal completed", fmt.Sprintf("Your withdrawal of %s has been paid out.", amount)
	case models.WithdrawalRejected:
		title, msg = "Withdrawal rejected", fmt.Sprintf("Your withdrawal of %s was rejected and refunded to your wallet.", amount)
		if req.AdminNote != nil {
			msg += " Reason: " + *req.AdminNote
		}
	default:
		return
	}
	Notify(ctx, models.RoleTutor, req.TutorID, Notice{Type: models.NotifyWithdrawal, Title: title, Message: msg})

	var tutor models.Tutor
	if err := db(ctx).Select("id", "first_name", "last_name", "email").First(&tutor, "id = ?", req.TutorID).Error; err != nil {
		logger.Module("wallet").Warn("withdrawal notice email skipped", zap.Error(err))
		return
	}
	go notifications.SendEmail(tutor.FullName(), tutor.Email, title, notifications.NoticeEmail(tutor.FirstName, title, msg))
}
