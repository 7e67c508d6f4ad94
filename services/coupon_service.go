package services

import (
	"context"
	"errors"
	"time"

	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// Pricing is what the checkout shows and what an order is created with.
type Pricing struct {
	Price      decimal.Decimal `json:"price"`
	Discount   decimal.Decimal `json:"discount"`
	FinalPrice decimal.Decimal `json:"final_price"`
	Coupon     *models.Coupon  `json:"coupon,omitempty"`
}

// Discount computes the coupon reduction for price. Percentage discounts are
// capped by MaxDiscount when it is set; no discount exceeds the price.
func Discount(c *models.Coupon, price decimal.Decimal) decimal.Decimal {
	if c == nil || !price.IsPositive() {
		return decimal.Zero
	}
	var d decimal.Decimal
	switch c.DiscountType {
	case models.DiscountPercentage:
		d = price.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscount.IsPositive() && d.GreaterThan(c.MaxDiscount) {
			d = c.MaxDiscount
		}
	case models.DiscountFixed:
		d = c.DiscountValue
	}
	if d.GreaterThan(price) {
		d = price
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return d.Round(2)
}

func PriceWith(c *models.Coupon, price decimal.Decimal) Pricing {
	d := Discount(c, price)
	return Pricing{Price: price, Discount: d, FinalPrice: price.Sub(d), Coupon: c}
}

// CheckCoupon applies the coupon rules for one user buying at price.
func CheckCoupon(tx *gorm.DB, c *models.Coupon, userID uuid.UUID, price decimal.Decimal, now time.Time) error {
	if !c.IsActive {
		return badRequest("Coupon is not active")
	}
	if !c.ExpiresAt.After(now) {
		return badRequest("Coupon has expired")
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return badRequest("Coupon usage limit reached")
	}
	if price.LessThan(c.MinPurchase) {
		return badRequest("Minimum purchase of " + c.MinPurchase.StringFixed(2) + " required for this coupon")
	}
	if c.PerUserLimit > 0 {
		var used int64
		if err := tx.Model(&models.Order{}).
			Where("user_id = ? AND coupon_id = ? AND status IN ?", userID, c.ID, []string{models.OrderSuccess, models.OrderPending}).
			Count(&used).Error; err != nil {
			return wrap(err, "count coupon uses")
		}
		if int(used) >= c.PerUserLimit {
			return badRequest("You have already used this coupon")
		}
	}
	return nil
}

func findCouponByCode(tx *gorm.DB, code string) (*models.Coupon, error) {
	var c models.Coupon
	err := tx.Where("code = ?", utils.NormalizeCouponCode(code)).First(&c).Error
	if err != nil {
		return nil, lookup(err, "Coupon")
	}
	return &c, nil
}

// ReserveCoupon bumps used_count only while it stays within the limit.
func ReserveCoupon(tx *gorm.DB, couponID uuid.UUID) error {
	res := tx.Model(&models.Coupon{}).
		Where("id = ? AND is_active = ? AND (usage_limit = 0 OR used_count < usage_limit)", couponID, true).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return wrap(res.Error, "reserve coupon")
	}
	if res.RowsAffected == 0 {
		return badRequest("Coupon usage limit reached")
	}
	return nil
}

func ReleaseCoupon(tx *gorm.DB, couponID uuid.UUID) error {
	return wrap(tx.Model(&models.Coupon{}).
		Where("id = ? AND used_count > 0", couponID).
		Update("used_count", gorm.Expr("used_count - 1")).Error, "release coupon")
}

func couponFromForm(f *forms.Coupon, c *models.Coupon) error {
	value := decimal.NewFromFloat(f.DiscountValue).Round(2)
	if f.DiscountType == models.DiscountPercentage && value.GreaterThan(hundred) {
		return badRequest("Percentage discount cannot exceed 100")
	}
	if !f.ExpiresAt.After(time.Now()) {
		return badRequest("Expiry date must be in the future")
	}
	c.Code = utils.NormalizeCouponCode(f.Code)
	c.Description = f.Description
	c.DiscountType = f.DiscountType
	c.DiscountValue = value
	c.MinPurchase = decimal.NewFromFloat(f.MinPurchase).Round(2)
	c.MaxDiscount = decimal.NewFromFloat(f.MaxDiscount).Round(2)
	c.ExpiresAt = f.ExpiresAt
	c.UsageLimit = f.UsageLimit
	c.PerUserLimit = f.PerUserLimit
	if f.IsActive != nil {
		c.IsActive = *f.IsActive
	}
	return nil
}

func CreateCoupon(ctx context.Context, f *forms.Coupon) (*models.Coupon, error) {
	c := models.Coupon{IsActive: true}
	if err := couponFromForm(f, &c); err != nil {
		return nil, err
	}
	if err := db(ctx).Create(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("Coupon code already exists")
		}
		return nil, wrap(err, "create coupon")
	}
	// is_active has a column default, so a false value is skipped on insert
	if !c.IsActive {
		if err := db(ctx).Model(&c).Update("is_active", false).Error; err != nil {
			return nil, wrap(err, "create coupon")
		}
	}
	return &c, nil
}

func UpdateCoupon(ctx context.Context, id uuid.UUID, f *forms.Coupon) (*models.Coupon, error) {
	var c models.Coupon
	if err := db(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, lookup(err, "Coupon")
	}
	if err := couponFromForm(f, &c); err != nil {
		return nil, err
	}
	if c.UsageLimit > 0 && c.UsageLimit < c.UsedCount {
		return nil, badRequest("Usage limit cannot be lower than the times already used")
	}
	if err := db(ctx).Save(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("Coupon code already exists")
		}
		return nil, wrap(err, "update coupon")
	}
	return &c, nil
}

func DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	res := db(ctx).Delete(&models.Coupon{}, "id = ?", id)
	if res.Error != nil {
		return wrap(res.Error, "delete coupon")
	}
	if res.RowsAffected == 0 {
		return notFound("Coupon")
	}
	return wrap(db(ctx).Model(&models.Cart{}).Where("coupon_id = ?", id).Update("coupon_id", nil).Error, "detach coupon")
}

type CouponFilter struct {
	Search string
	Status string // active, inactive, expired
}

func ListCoupons(ctx context.Context, f CouponFilter, p utils.Page) (Paged[models.Coupon], error) {
	q := db(ctx).Model(&models.Coupon{})
	if f.Search != "" {
		q = q.Where("LOWER(code) LIKE ?", likePattern(f.Search))
	}
	now := time.Now()
	switch f.Status {
	case "active":
		q = q.Where("is_active = ? AND expires_at > ?", true, now)
	case "inactive":
		q = q.Where("is_active = ?", false)
	case "expired":
		q = q.Where("expires_at <= ?", now)
	}
	out, err := paginate[models.Coupon](q, p, "created_at DESC")
	return out, wrap(err, "list coupons")
}

// DeactivateExpiredCoupons flips is_active off for coupons past their expiry.
func DeactivateExpiredCoupons(ctx context.Context) (int64, error) {
	res := db(ctx).Model(&models.Coupon{}).
		Where("is_active = ? AND expires_at <= ?", true, time.Now()).
		Update("is_active", false)
	return res.RowsAffected, wrap(res.Error, "deactivate expired coupons")
}
