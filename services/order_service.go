package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/metrics"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/notifications"
	"github.com/anjiri1684/elevate_lms/payments"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRate is the platform's share of every sale.
func CommissionRate() decimal.Decimal {
	rate := decimal.NewFromFloat(config.Float("PLATFORM_COMMISSION_RATE", 0.2))
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromFloat(0.2)
	}
	return rate
}

// SplitSale divides a sale between tutor and platform. The tutor share is
// rounded to paise and the platform takes the remainder so nothing is lost.
func SplitSale(amount decimal.Decimal) (tutor, platform decimal.Decimal) {
	tutor = amount.Mul(decimal.NewFromInt(1).Sub(CommissionRate())).Round(2)
	return tutor, amount.Sub(tutor)
}

type Checkout struct {
	Order   *models.Order          `json:"order"`
	Gateway *payments.GatewayOrder `json:"gateway_order,omitempty"`
	KeyID   string                 `json:"key_id,omitempty"`
}

// CreateOrder prices the course for the user, reserves the coupon and opens a
// pending order. Wallet and free orders complete immediately; gateway orders
// are returned for the client checkout.
func CreateOrder(ctx context.Context, userID uuid.UUID, f *forms.CreateOrder) (*Checkout, error) {
	courseID, err := ParseID(f.CourseID)
	if err != nil {
		return nil, err
	}
	method := f.PaymentMethod
	if method == "" {
		method = models.PaymentRazorpay
	}
	if method == models.PaymentRazorpay && payments.Client == nil {
		return nil, fiber.NewError(fiber.StatusServiceUnavailable, "Payment gateway is not configured")
	}

	order, err := openOrder(ctx, userID, courseID, method)
	if err != nil {
		return nil, err
	}

	if order.PaymentMethod != models.PaymentRazorpay {
		done, err := CompleteOrder(ctx, order.ID, "", "")
		if err != nil {
			if ferr := FailOrder(ctx, order.ID, err.Error()); ferr != nil {
				logger.Module("payments").Error("failed to fail order", zap.String("order", order.ID.String()), zap.Error(ferr))
			}
			return nil, err
		}
		return &Checkout{Order: done}, nil
	}

	gw, err := payments.Client.CreateOrder(ctx, order.FinalPrice, order.Currency, order.Receipt)
	if err != nil {
		logger.Module("payments").Error("gateway order creation failed", zap.String("order", order.ID.String()), zap.Error(err))
		_ = FailOrder(ctx, order.ID, "gateway order creation failed")
		return nil, fiber.NewError(fiber.StatusBadGateway, "Could not start the payment, please try again")
	}
	if err := db(ctx).Model(order).Update("gateway_order_id", gw.ID).Error; err != nil {
		return nil, wrap(err, "store gateway order id")
	}
	order.GatewayOrderID = &gw.ID
	return &Checkout{Order: order, Gateway: gw, KeyID: payments.Client.KeyID()}, nil
}

func openOrder(ctx context.Context, userID, courseID uuid.UUID, method string) (*models.Order, error) {
	var order models.Order
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		owned, err := isEnrolled(tx, userID, courseID)
		if err != nil {
			return err
		}
		if owned {
			return conflict("You are already enrolled in this course")
		}

		// an abandoned checkout for the same course must not hold a coupon use
		var stale []models.Order
		if err := tx.Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, models.OrderPending).Find(&stale).Error; err != nil {
			return err
		}
		for i := range stale {
			if err := failOrderTx(tx, &stale[i], "superseded by a new checkout"); err != nil {
				return err
			}
		}

		course, coupon, err := checkout(tx, userID, courseID)
		if err != nil {
			return err
		}
		pricing := PriceWith(coupon, course.Price)
		if pricing.FinalPrice.IsZero() {
			method = models.PaymentFree
		} else if method == models.PaymentFree {
			return fiber.NewError(fiber.StatusPaymentRequired, "This course requires payment")
		}

		order = models.Order{
			UserID:        userID,
			CourseID:      courseID,
			Price:         pricing.Price,
			Discount:      pricing.Discount,
			FinalPrice:    pricing.FinalPrice,
			Currency:      currency(),
			PaymentMethod: method,
			Status:        models.OrderPending,
			Receipt:       utils.ReceiptNumber(),
		}
		if coupon != nil {
			if err := ReserveCoupon(tx, coupon.ID); err != nil {
				return err
			}
			order.CouponID = &coupon.ID
			order.CouponCode = &coupon.Code
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, wrap(err, "create order")
	}
	return &order, nil
}

// CompleteOrder settles a pending order exactly once: the status update is the
// gate, so a repeated callback or webhook returns the settled order without
// moving money again.
func CompleteOrder(ctx context.Context, orderID uuid.UUID, paymentID, signature string) (*models.Order, error) {
	return settleOrder(ctx, orderID, paymentID, signature, false)
}

// CaptureOrder settles an order whose payment the gateway has confirmed. The
// money has already moved, so an order failed in the meantime by the stale
// sweep or a newer checkout is settled too. A capture for a course the user
// already owns is recorded as refund due instead of enrolling twice.
func CaptureOrder(ctx context.Context, orderID uuid.UUID, paymentID, signature string) (*models.Order, error) {
	return settleOrder(ctx, orderID, paymentID, signature, true)
}

func settleOrder(ctx context.Context, orderID uuid.UUID, paymentID, signature string, captured bool) (*models.Order, error) {
	var (
		order   models.Order
		course  models.Course
		settled bool
	)
	log := logger.Module("payments").With(zap.String("order", orderID.String()))
	err := db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return lookup(err, "Order")
		}
		switch {
		case order.Status == models.OrderSuccess || order.Status == models.OrderRefundDue:
			return nil
		case order.Status == models.OrderFailed && !captured:
			return conflict("Order is no longer pending")
		case order.Status != models.OrderPending && order.Status != models.OrderFailed:
			return conflict("Order is no longer pending")
		}
		revived := order.Status == models.OrderFailed

		now := time.Now()
		updates := map[string]interface{}{"status": models.OrderSuccess, "completed_at": now, "failure_reason": nil}
		if paymentID != "" {
			updates["gateway_payment_id"] = paymentID
		}
		if signature != "" {
			updates["signature"] = signature
		}
		res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", orderID, order.Status).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
				return lookup(err, "Order")
			}
			if order.Status == models.OrderSuccess || order.Status == models.OrderRefundDue {
				return nil
			}
			return conflict("Order is no longer pending")
		}
		order.Status, order.CompletedAt, order.FailureReason = models.OrderSuccess, &now, nil

		if err := tx.Unscoped().First(&course, "id = ?", order.CourseID).Error; err != nil {
			return lookup(err, "Course")
		}

		enrollment := models.EnrolledCourse{UserID: order.UserID, CourseID: order.CourseID, OrderID: &order.ID}
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&enrollment)
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			reason := "course already owned, payment to be refunded"
			if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
				Updates(map[string]interface{}{"status": models.OrderRefundDue, "failure_reason": reason}).Error; err != nil {
				return err
			}
			order.Status, order.FailureReason = models.OrderRefundDue, &reason
			log.Warn("duplicate capture recorded for refund", zap.String("payment", paymentID))
			return nil
		}
		settled = true
		if revived && order.CouponID != nil {
			// failing the order released its coupon use
			if err := ReserveCoupon(tx, *order.CouponID); err != nil {
				var fe *fiber.Error
				if !errors.As(err, &fe) {
					return err
				}
				log.Warn("coupon no longer reservable, settling at captured amount", zap.String("reason", fe.Message))
			}
		}

		if err := tx.Model(&models.Course{}).Where("id = ?", course.ID).
			Update("enrollment_count", gorm.Expr("enrollment_count + 1")).Error; err != nil {
			return err
		}

		// other open checkouts for the course can no longer be paid for
		var open []models.Order
		if err := tx.Where("user_id = ? AND course_id = ? AND status = ? AND id <> ?", order.UserID, order.CourseID, models.OrderPending, order.ID).
			Find(&open).Error; err != nil {
			return err
		}
		for i := range open {
			if err := failOrderTx(tx, &open[i], "superseded by a completed payment"); err != nil {
				return err
			}
		}

		if order.FinalPrice.IsPositive() {
			ref := &order.ID
			if order.PaymentMethod == models.PaymentWallet {
				if _, err := Debit(tx, models.RoleUser, order.UserID, order.FinalPrice, Entry{
					Purpose: models.PurposeCoursePurchase, OrderID: ref, Description: "Purchase: " + course.Title,
				}); err != nil {
					return err
				}
			}
			tutorShare, platformShare := SplitSale(order.FinalPrice)
			if tutorShare.IsPositive() {
				if _, err := Credit(tx, models.RoleTutor, course.TutorID, tutorShare, Entry{
					Purpose: models.PurposeCourseSale, OrderID: ref, Description: "Sale: " + course.Title,
				}); err != nil {
					return err
				}
			}
			if platformShare.IsPositive() {
				if _, err := Credit(tx, models.RoleAdmin, models.PlatformOwnerID, platformShare, Entry{
					Purpose: models.PurposeCommission, OrderID: ref, Description: "Commission: " + course.Title,
				}); err != nil {
					return err
				}
			}
		}

		return tx.Where("user_id = ? AND course_id = ?", order.UserID, order.CourseID).Delete(&models.Cart{}).Error
	})
	if err != nil {
		return nil, wrap(err, "complete order")
	}

	if settled {
		metrics.Orders.WithLabelValues(models.OrderSuccess, order.PaymentMethod).Inc()
		announceSale(ctx, &order, &course)
	}
	return &order, nil
}

func announceSale(ctx context.Context, order *models.Order, course *models.Course) {
	Notify(ctx, models.RoleUser, order.UserID, Notice{
		Type:    models.NotifyOrder,
		Title:   "Enrollment confirmed",
		Message: fmt.Sprintf("You are now enrolled in %s.", course.Title),
		Link:    "/enrolled-courses/" + course.ID.String(),
	})
	Notify(ctx, models.RoleTutor, course.TutorID, Notice{
		Type:    models.NotifyOrder,
		Title:   "New enrollment",
		Message: fmt.Sprintf("A student enrolled in %s.", course.Title),
	})

	var user models.User
	if err := db(ctx).Select("id", "first_name", "last_name", "email").First(&user, "id = ?", order.UserID).Error; err == nil {
		msg := fmt.Sprintf("Your payment of %s %s for %s was successful. Receipt %s.", order.FinalPrice.StringFixed(2), order.Currency, course.Title, order.Receipt)
		go notifications.SendEmail(user.FullName(), user.Email, "Enrollment confirmed", notifications.NoticeEmail(user.FirstName, "Enrollment confirmed", msg))
	}
}

func failOrderTx(tx *gorm.DB, order *models.Order, reason string) error {
	res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", order.ID, models.OrderPending).
		Updates(map[string]interface{}{"status": models.OrderFailed, "failure_reason": reason})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}
	order.Status = models.OrderFailed
	order.FailureReason = &reason
	metrics.Orders.WithLabelValues(models.OrderFailed, order.PaymentMethod).Inc()
	if order.CouponID != nil {
		return ReleaseCoupon(tx, *order.CouponID)
	}
	return nil
}

// FailOrder marks a pending order failed and gives back its coupon use.
// Settled or already failed orders are left alone.
func FailOrder(ctx context.Context, orderID uuid.UUID, reason string) error {
	return wrap(db(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return lookup(err, "Order")
		}
		return failOrderTx(tx, &order, reason)
	}), "fail order")
}

func userOrderByGatewayID(ctx context.Context, userID uuid.UUID, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := db(ctx).Where("gateway_order_id = ? AND user_id = ?", gatewayOrderID, userID).First(&order).Error
	if err != nil {
		return nil, lookup(err, "Order")
	}
	return &order, nil
}

// VerifyPayment settles the order after the client checkout succeeds.
func VerifyPayment(ctx context.Context, userID uuid.UUID, f *forms.VerifyPayment) (*models.Order, error) {
	order, err := userOrderByGatewayID(ctx, userID, f.RazorpayOrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderSuccess || order.Status == models.OrderRefundDue {
		return order, nil
	}
	if payments.Client == nil || !payments.Client.VerifyPaymentSignature(f.RazorpayOrderID, f.RazorpayPaymentID, f.RazorpaySignature) {
		if err := FailOrder(ctx, order.ID, "invalid payment signature"); err != nil {
			return nil, err
		}
		return nil, badRequest("Payment verification failed")
	}
	return CaptureOrder(ctx, order.ID, f.RazorpayPaymentID, f.RazorpaySignature)
}

const maxReasonLength = 255

// PaymentFailed is called by the client when the checkout is dismissed or the
// payment is declined.
func PaymentFailed(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.Order, error) {
	var order models.Order
	if err := db(ctx).Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error; err != nil {
		return nil, lookup(err, "Order")
	}
	if order.Status != models.OrderPending {
		return nil, conflict("Order is already " + order.Status)
	}
	reason = clip(strings.TrimSpace(reason), maxReasonLength)
	if reason == "" {
		reason = "payment failed"
	}
	if err := FailOrder(ctx, order.ID, reason); err != nil {
		return nil, err
	}
	order.Status = models.OrderFailed
	order.FailureReason = &reason

	Notify(ctx, models.RoleUser, userID, Notice{
		Type:    models.NotifyPayment,
		Title:   "Payment failed",
		Message: "Your payment could not be completed. You can retry from your cart.",
	})
	return &order, nil
}

// EnrollFree enrolls the user in a course that costs nothing after discounts.
func EnrollFree(ctx context.Context, userID uuid.UUID, f *forms.CourseRef) (*models.Order, error) {
	courseID, err := ParseID(f.CourseID)
	if err != nil {
		return nil, err
	}
	order, err := openOrder(ctx, userID, courseID, models.PaymentFree)
	if err != nil {
		return nil, err
	}
	return CompleteOrder(ctx, order.ID, "", "")
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// HandleWebhook applies gateway events. Unknown events and orders are
// acknowledged and ignored so the gateway stops retrying them.
func HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if payments.Client == nil || !payments.Client.VerifyWebhookSignature(body, signature) {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid webhook signature")
	}
	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return badRequest("Invalid webhook payload")
	}

	gatewayOrderID := ev.Payload.Payment.Entity.OrderID
	if gatewayOrderID == "" {
		gatewayOrderID = ev.Payload.Order.Entity.ID
	}
	log := logger.Module("payments").With(zap.String("event", ev.Event), zap.String("gateway_order", gatewayOrderID))
	if gatewayOrderID == "" {
		log.Warn("webhook without order reference")
		return nil
	}

	var order models.Order
	if err := db(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error; err != nil {
		log.Warn("webhook for unknown order", zap.Error(err))
		return nil
	}

	switch ev.Event {
	case "payment.captured", "order.paid":
		_, err := CaptureOrder(ctx, order.ID, ev.Payload.Payment.Entity.ID, "")
		if err != nil {
			log.Error("webhook completion failed", zap.Error(err))
		}
		return err
	case "payment.failed":
		reason := ev.Payload.Payment.Entity.ErrorDescription
		if reason == "" {
			reason = "payment failed"
		}
		return FailOrder(ctx, order.ID, reason)
	}
	log.Debug("ignoring webhook event")
	return nil
}

// FailStaleOrders fails gateway orders left pending longer than maxAge.
func FailStaleOrders(ctx context.Context, maxAge time.Duration) (int, error) {
	var ids []uuid.UUID
	err := db(ctx).Model(&models.Order{}).
		Where("status = ? AND created_at < ?", models.OrderPending, time.Now().Add(-maxAge)).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, wrap(err, "find stale orders")
	}
	for _, id := range ids {
		if err := FailOrder(ctx, id, "payment window expired"); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

type OrderFilter struct {
	Status string
	UserID uuid.UUID
}

func ListOrders(ctx context.Context, f OrderFilter, p utils.Page) (Paged[models.Order], error) {
	q := db(ctx).Model(&models.Order{}).Preload("Course", func(tx *gorm.DB) *gorm.DB {
		return tx.Unscoped().Select("id", "title", "thumbnail", "tutor_id", "price")
	})
	if f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", f.UserID)
	} else {
		q = q.Preload("User")
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	out, err := paginate[models.Order](q, p, "created_at DESC")
	return out, wrap(err, "list orders")
}
