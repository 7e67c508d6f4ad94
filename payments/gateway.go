package payments

import (
	"context"

	config "github.com/anjiri1684/elevate_lms/configs"
	"github.com/shopspring/decimal"
)

// GatewayOrder is the provider-side order a client checkout is opened against.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway creates provider orders and verifies the callbacks that settle them.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*GatewayOrder, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
	KeyID() string
}

// Client is the configured gateway; tests swap it for a fake.
var Client Gateway

func InitGateway() {
	Client = NewRazorpay(
		config.Config("RAZORPAY_KEY_ID"),
		config.Config("RAZORPAY_SECRET_KEY"),
		config.Config("RAZORPAY_WEBHOOK_SECRET"),
	)
}

// MinorUnits converts a rupee amount to paise.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
