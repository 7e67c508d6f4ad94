package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscount(t *testing.T) {
	d := decimal.RequireFromString
	tests := []struct {
		name   string
		coupon *models.Coupon
		price  string
		want   string
	}{
		{"no coupon", nil, "1000", "0"},
		{"percentage", &models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: d("10")}, "1000", "100"},
		{"percentage capped", &models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: d("50"), MaxDiscount: d("200")}, "1000", "200"},
		{"percentage rounded", &models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: d("15")}, "999.99", "150"},
		{"fixed", &models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: d("300")}, "1000", "300"},
		{"fixed above price", &models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: d("1500")}, "1000", "1000"},
		{"free course", &models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: d("100")}, "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireAmount(t, tt.want, Discount(tt.coupon, d(tt.price)))
		})
	}

	p := PriceWith(&models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: d("250")}, d("1000"))
	requireAmount(t, "750", p.FinalPrice)
}

func TestCheckCoupon(t *testing.T) {
	db, _ := setup(t)
	user := testutil.CreateUser(t, db, "buyer@example.com")
	now := time.Now()
	price := decimal.NewFromInt(1000)

	valid := models.Coupon{IsActive: true, ExpiresAt: now.Add(time.Hour), MinPurchase: decimal.NewFromInt(500)}
	require.NoError(t, CheckCoupon(db, &valid, user.ID, price, now))

	inactive := valid
	inactive.IsActive = false
	requireStatus(t, CheckCoupon(db, &inactive, user.ID, price, now), fiber.StatusBadRequest)

	expired := valid
	expired.ExpiresAt = now.Add(-time.Minute)
	requireStatus(t, CheckCoupon(db, &expired, user.ID, price, now), fiber.StatusBadRequest)

	used := valid
	used.UsageLimit, used.UsedCount = 3, 3
	requireStatus(t, CheckCoupon(db, &used, user.ID, price, now), fiber.StatusBadRequest)

	requireStatus(t, CheckCoupon(db, &valid, user.ID, decimal.NewFromInt(100), now), fiber.StatusBadRequest)
}

func TestCreateCoupon(t *testing.T) {
	setup(t)
	ctx := context.Background()
	inactive := false
	f := &forms.Coupon{
		Code:          "save20",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 20,
		ExpiresAt:     time.Now().Add(48 * time.Hour),
		IsActive:      &inactive,
	}

	c, err := CreateCoupon(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", c.Code)
	assert.False(t, c.IsActive)

	_, err = CreateCoupon(ctx, f)
	requireStatus(t, err, fiber.StatusConflict)

	f.Code, f.DiscountValue = "TOOMUCH", 120
	_, err = CreateCoupon(ctx, f)
	requireStatus(t, err, fiber.StatusBadRequest)

	f.Code, f.DiscountValue, f.ExpiresAt = "PAST", 10, time.Now().Add(-time.Hour)
	_, err = CreateCoupon(ctx, f)
	requireStatus(t, err, fiber.StatusBadRequest)
}

func TestReserveCouponRespectsLimit(t *testing.T) {
	db, _ := setup(t)
	c := newCoupon(t, db, models.Coupon{Code: "ONCE", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(50), UsageLimit: 1})

	require.NoError(t, ReserveCoupon(db, c.ID))
	requireStatus(t, ReserveCoupon(db, c.ID), fiber.StatusBadRequest)

	require.NoError(t, ReleaseCoupon(db, c.ID))
	require.NoError(t, ReserveCoupon(db, c.ID))
}

func TestDeactivateExpiredCoupons(t *testing.T) {
	db, _ := setup(t)
	newCoupon(t, db, models.Coupon{Code: "OLD", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(10), ExpiresAt: time.Now().Add(-time.Hour)})
	newCoupon(t, db, models.Coupon{Code: "FRESH", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(10)})

	n, err := DeactivateExpiredCoupons(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPerUserCouponLimit(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	buyer := testutil.CreateUser(t, db, "buyer@example.com")
	other := testutil.CreateUser(t, db, "other@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	first := testutil.CreateCourse(t, db, tutor.ID, "800", 1)
	second := testutil.CreateCourse(t, db, tutor.ID, "900", 2)
	newCoupon(t, db, models.Coupon{Code: "ONCE", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(100), PerUserLimit: 1})

	_, err := ApplyCoupon(ctx, buyer.ID, &forms.ApplyCoupon{CourseID: first.ID.String(), Code: "ONCE"})
	require.NoError(t, err)
	_, err = CreateOrder(ctx, buyer.ID, &forms.CreateOrder{CourseID: first.ID.String()})
	require.NoError(t, err)

	// a pending order already holds the buyer's single use
	_, err = ApplyCoupon(ctx, buyer.ID, &forms.ApplyCoupon{CourseID: second.ID.String(), Code: "ONCE"})
	requireStatus(t, err, fiber.StatusBadRequest)

	_, err = ApplyCoupon(ctx, other.ID, &forms.ApplyCoupon{CourseID: second.ID.String(), Code: "ONCE"})
	require.NoError(t, err)
}

func TestCouponKeptWhenCheckCannotRun(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "800", 1)
	coupon := newCoupon(t, db, models.Coupon{Code: "TWICE", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(100), PerUserLimit: 2})

	_, err := ApplyCoupon(ctx, user.ID, &forms.ApplyCoupon{CourseID: course.ID.String(), Code: "TWICE"})
	require.NoError(t, err)

	// the per-user count needs the orders table
	require.NoError(t, db.Migrator().DropTable(&models.Order{}))
	_, err = GetPricing(ctx, user.ID, course.ID)
	require.Error(t, err)
	var fe *fiber.Error
	assert.False(t, errors.As(err, &fe), "infrastructure errors must not look like coupon rule failures")

	var line models.Cart
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", user.ID, course.ID).First(&line).Error)
	require.NotNil(t, line.CouponID)
	assert.Equal(t, coupon.ID, *line.CouponID)
}
