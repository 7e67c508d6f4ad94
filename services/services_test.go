package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anjiri1684/elevate_lms/cache"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/payments"
	"github.com/anjiri1684/elevate_lms/testutil"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const gatewaySecret = "test_secret"

type fakeGateway struct {
	created int
	down    bool
}

func (g *fakeGateway) CreateOrder(_ context.Context, amount decimal.Decimal, currency, receipt string) (*payments.GatewayOrder, error) {
	if g.down {
		return nil, errors.New("gateway unavailable")
	}
	g.created++
	return &payments.GatewayOrder{
		ID:       "gw_" + receipt,
		Amount:   payments.MinorUnits(amount),
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return signature == payments.Sign(gatewaySecret, []byte(orderID+"|"+paymentID))
}

func (g *fakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return signature == payments.Sign(gatewaySecret, body)
}

func (g *fakeGateway) KeyID() string { return "rzp_test_key" }

// setup gives each test a fresh database, memory cache and fake gateway.
func setup(t *testing.T) (*gorm.DB, *fakeGateway) {
	t.Helper()
	db := testutil.SetupDB(t)

	prevStore, prevClient := cache.Store, payments.Client
	gw := &fakeGateway{}
	cache.Store = cache.NewMemoryStorage()
	payments.Client = gw
	t.Cleanup(func() {
		cache.Store = prevStore
		payments.Client = prevClient
	})
	return db, gw
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var fe *fiber.Error
	require.True(t, errors.As(err, &fe), "expected *fiber.Error, got %v", err)
	require.Equal(t, status, fe.Code, fe.Message)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func newCoupon(t *testing.T, db *gorm.DB, c models.Coupon) *models.Coupon {
	t.Helper()
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = time.Now().Add(24 * time.Hour)
	}
	c.IsActive = true
	require.NoError(t, db.Create(&c).Error)
	return &c
}

func pageOf(limit int) utils.Page { return utils.Page{Page: 1, Limit: limit} }
