package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/anjiri1684/elevate_lms/forms"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/payments"
	"github.com/anjiri1684/elevate_lms/testutil"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSale(t *testing.T) {
	tutor, platform := SplitSale(decimal.RequireFromString("999.99"))
	requireAmount(t, "799.99", tutor)
	requireAmount(t, "200", platform)
	requireAmount(t, "999.99", tutor.Add(platform))
}

func TestRazorpayCheckout(t *testing.T) {
	db, gw := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "1000", 2)
	coupon := newCoupon(t, db, models.Coupon{Code: "FLAT100", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(100), UsageLimit: 5})

	pricing, err := ApplyCoupon(ctx, user.ID, &forms.ApplyCoupon{CourseID: course.ID.String(), Code: "flat100"})
	require.NoError(t, err)
	requireAmount(t, "900", pricing.FinalPrice)

	co, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, 1, gw.created)
	assert.Equal(t, "rzp_test_key", co.KeyID)
	assert.EqualValues(t, 90000, co.Gateway.Amount)
	assert.Equal(t, models.OrderPending, co.Order.Status)

	var reserved models.Coupon
	require.NoError(t, db.First(&reserved, "id = ?", coupon.ID).Error)
	assert.Equal(t, 1, reserved.UsedCount)

	payment := "pay_123"
	sig := payments.Sign(gatewaySecret, []byte(co.Gateway.ID+"|"+payment))
	order, err := VerifyPayment(ctx, user.ID, &forms.VerifyPayment{RazorpayOrderID: co.Gateway.ID, RazorpayPaymentID: payment, RazorpaySignature: sig})
	require.NoError(t, err)
	assert.Equal(t, models.OrderSuccess, order.Status)

	enrolled, err := IsEnrolled(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
	requireAmount(t, "720", testutil.Balance(t, db, tutor.ID, models.RoleTutor))
	requireAmount(t, "180", testutil.Balance(t, db, models.PlatformOwnerID, models.RoleAdmin))

	var cartLines int64
	require.NoError(t, db.Model(&models.Cart{}).Where("user_id = ?", user.ID).Count(&cartLines).Error)
	assert.Zero(t, cartLines)

	// a second settlement must not move money again
	again, err := CompleteOrder(ctx, order.ID, payment, sig)
	require.NoError(t, err)
	assert.Equal(t, models.OrderSuccess, again.Status)
	requireAmount(t, "720", testutil.Balance(t, db, tutor.ID, models.RoleTutor))

	var c models.Course
	require.NoError(t, db.First(&c, "id = ?", course.ID).Error)
	assert.Equal(t, 1, c.EnrollmentCount)

	_, err = CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	requireStatus(t, err, fiber.StatusConflict)
}

func TestBadSignatureFailsOrderAndReleasesCoupon(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "500", 1)
	coupon := newCoupon(t, db, models.Coupon{Code: "TEN", DiscountType: models.DiscountPercentage, DiscountValue: decimal.NewFromInt(10)})

	_, err := ApplyCoupon(ctx, user.ID, &forms.ApplyCoupon{CourseID: course.ID.String(), Code: "TEN"})
	require.NoError(t, err)
	co, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	require.NoError(t, err)

	_, err = VerifyPayment(ctx, user.ID, &forms.VerifyPayment{RazorpayOrderID: co.Gateway.ID, RazorpayPaymentID: "pay_x", RazorpaySignature: "deadbeef"})
	requireStatus(t, err, fiber.StatusBadRequest)

	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", co.Order.ID).Error)
	assert.Equal(t, models.OrderFailed, order.Status)

	var c models.Coupon
	require.NoError(t, db.First(&c, "id = ?", coupon.ID).Error)
	assert.Zero(t, c.UsedCount)
}

func TestNewCheckoutSupersedesPendingOrder(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "500", 1)

	first, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	require.NoError(t, err)
	_, err = CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", first.Order.ID).Error)
	assert.Equal(t, models.OrderFailed, order.Status)
}

func TestWalletPayment(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "400", 1)

	_, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String(), PaymentMethod: models.PaymentWallet})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	var failed int64
	require.NoError(t, db.Model(&models.Order{}).Where("user_id = ? AND status = ?", user.ID, models.OrderFailed).Count(&failed).Error)
	assert.EqualValues(t, 1, failed)

	testutil.SetBalance(t, db, user.ID, models.RoleUser, "1000")
	co, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String(), PaymentMethod: models.PaymentWallet})
	require.NoError(t, err)
	assert.Equal(t, models.OrderSuccess, co.Order.Status)
	requireAmount(t, "600", testutil.Balance(t, db, user.ID, models.RoleUser))
	requireAmount(t, "320", testutil.Balance(t, db, tutor.ID, models.RoleTutor))
}

func TestFreeEnrollment(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	paid := testutil.CreateCourse(t, db, tutor.ID, "250", 1)
	free := testutil.CreateCourse(t, db, tutor.ID, "0", 1)

	_, err := EnrollFree(ctx, user.ID, &forms.CourseRef{CourseID: paid.ID.String()})
	requireStatus(t, err, fiber.StatusPaymentRequired)

	order, err := EnrollFree(ctx, user.ID, &forms.CourseRef{CourseID: free.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFree, order.PaymentMethod)
	assert.Equal(t, models.OrderSuccess, order.Status)
	requireAmount(t, "0", testutil.Balance(t, db, tutor.ID, models.RoleTutor))
}

func TestGatewayFailure(t *testing.T) {
	db, gw := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "300", 1)

	gw.down = true
	_, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	requireStatus(t, err, fiber.StatusBadGateway)
}

func TestWebhook(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "300", 1)

	co, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_w1","order_id":%q}}}}`, co.Gateway.ID))
	requireStatus(t, HandleWebhook(ctx, body, "bad"), fiber.StatusUnauthorized)

	require.NoError(t, HandleWebhook(ctx, body, payments.Sign(gatewaySecret, body)))
	require.NoError(t, HandleWebhook(ctx, body, payments.Sign(gatewaySecret, body)))

	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", co.Order.ID).Error)
	assert.Equal(t, models.OrderSuccess, order.Status)
	requireAmount(t, "240", testutil.Balance(t, db, tutor.ID, models.RoleTutor))

	unknown := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"order_id":"gw_missing"}}}}`)
	require.NoError(t, HandleWebhook(ctx, unknown, payments.Sign(gatewaySecret, unknown)))
}

func TestFailStaleOrders(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "300", 1)

	co, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", co.Order.ID).
		UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)

	n, err := FailStaleOrders(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCaptureAfterStaleSweepSettles(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "500", 1)
	coupon := newCoupon(t, db, models.Coupon{Code: "LATE50", DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(50), UsageLimit: 5})

	_, err := ApplyCoupon(ctx, user.ID, &forms.ApplyCoupon{CourseID: course.ID.String(), Code: "LATE50"})
	require.NoError(t, err)
	co, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", co.Order.ID).
		UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)
	n, err := FailStaleOrders(ctx, 30*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// ordinary settlement of a failed order is refused
	_, err = CompleteOrder(ctx, co.Order.ID, "", "")
	requireStatus(t, err, fiber.StatusConflict)

	body := []byte(fmt.Sprintf(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_late","order_id":%q}}}}`, co.Gateway.ID))
	require.NoError(t, HandleWebhook(ctx, body, payments.Sign(gatewaySecret, body)))

	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", co.Order.ID).Error)
	assert.Equal(t, models.OrderSuccess, order.Status)
	assert.Nil(t, order.FailureReason)

	enrolled, err := IsEnrolled(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
	requireAmount(t, "360", testutil.Balance(t, db, tutor.ID, models.RoleTutor))

	var c models.Coupon
	require.NoError(t, db.First(&c, "id = ?", coupon.ID).Error)
	assert.Equal(t, 1, c.UsedCount)

	// the client callback arriving afterwards sees the settled order
	sig := payments.Sign(gatewaySecret, []byte(co.Gateway.ID+"|pay_late"))
	again, err := VerifyPayment(ctx, user.ID, &forms.VerifyPayment{RazorpayOrderID: co.Gateway.ID, RazorpayPaymentID: "pay_late", RazorpaySignature: sig})
	require.NoError(t, err)
	assert.Equal(t, models.OrderSuccess, again.Status)
	requireAmount(t, "360", testutil.Balance(t, db, tutor.ID, models.RoleTutor))
}

func TestVerifyPaymentAfterStaleSweepSettles(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "300", 1)

	co, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	require.NoError(t, err)
	require.NoError(t, FailOrder(ctx, co.Order.ID, "payment window expired"))

	sig := payments.Sign(gatewaySecret, []byte(co.Gateway.ID+"|pay_v"))
	order, err := VerifyPayment(ctx, user.ID, &forms.VerifyPayment{RazorpayOrderID: co.Gateway.ID, RazorpayPaymentID: "pay_v", RazorpaySignature: sig})
	require.NoError(t, err)
	assert.Equal(t, models.OrderSuccess, order.Status)

	enrolled, err := IsEnrolled(ctx, user.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, enrolled)
}

func TestCaptureOfReplacedCheckout(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "300", 1)

	first, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	require.NoError(t, err)
	second, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	require.NoError(t, err)

	// the first checkout was paid before the user opened the second
	body := []byte(fmt.Sprintf(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_a","order_id":%q}}}}`, first.Gateway.ID))
	require.NoError(t, HandleWebhook(ctx, body, payments.Sign(gatewaySecret, body)))

	var a, b models.Order
	require.NoError(t, db.First(&a, "id = ?", first.Order.ID).Error)
	require.NoError(t, db.First(&b, "id = ?", second.Order.ID).Error)
	assert.Equal(t, models.OrderSuccess, a.Status)
	assert.Equal(t, models.OrderFailed, b.Status)
	requireAmount(t, "240", testutil.Balance(t, db, tutor.ID, models.RoleTutor))

	// paying the second checkout as well is held for refund, not enrolled twice
	sig := payments.Sign(gatewaySecret, []byte(second.Gateway.ID+"|pay_b"))
	dup, err := VerifyPayment(ctx, user.ID, &forms.VerifyPayment{RazorpayOrderID: second.Gateway.ID, RazorpayPaymentID: "pay_b", RazorpaySignature: sig})
	require.NoError(t, err)
	assert.Equal(t, models.OrderRefundDue, dup.Status)
	requireAmount(t, "240", testutil.Balance(t, db, tutor.ID, models.RoleTutor))

	var c models.Course
	require.NoError(t, db.First(&c, "id = ?", course.ID).Error)
	assert.Equal(t, 1, c.EnrollmentCount)
}

func TestPaymentFailedReasonKeepsWholeRunes(t *testing.T) {
	db, _ := setup(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "buyer@example.com")
	tutor := testutil.CreateTutor(t, db, "tutor@example.com")
	course := testutil.CreateCourse(t, db, tutor.ID, "300", 1)

	co, err := CreateOrder(ctx, user.ID, &forms.CreateOrder{CourseID: course.ID.String()})
	require.NoError(t, err)

	// each rune is two bytes, so a byte cut at 255 would split one
	order, err := PaymentFailed(ctx, user.ID, co.Order.ID, strings.Repeat("é", 300))
	require.NoError(t, err)
	assert.Equal(t, models.OrderFailed, order.Status)

	var stored models.Order
	require.NoError(t, db.First(&stored, "id = ?", co.Order.ID).Error)
	require.NotNil(t, stored.FailureReason)
	assert.True(t, utf8.ValidString(*stored.FailureReason))
	assert.Equal(t, maxReasonLength, utf8.RuneCountInString(*stored.FailureReason))

	_, err = PaymentFailed(ctx, user.ID, co.Order.ID, "again")
	requireStatus(t, err, fiber.StatusConflict)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 5))
	assert.Equal(t, "ab", clip("abc", 2))
	assert.Equal(t, "日本", clip("日本語", 2))
	assert.Equal(t, "", clip("", 3))
}
