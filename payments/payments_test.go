package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"499":    49900,
		"499.99": 49999,
		"0.5":    50,
		"0":      0,
	}
	for in, want := range cases {
		assert.Equal(t, want, MinorUnits(decimal.RequireFromString(in)), in)
	}
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/orders", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(129900), body["amount"])
		assert.Equal(t, "INR", body["currency"])

		_ = json.NewEncoder(w).Encode(GatewayOrder{ID: "order_abc", Amount: 129900, Currency: "INR", Receipt: body["receipt"].(string), Status: "created"})
	}))
	defer srv.Close()

	rp := NewRazorpay("rzp_test_key", "secret", "whsec")
	rp.BaseURL = srv.URL

	order, err := rp.CreateOrder(context.Background(), decimal.RequireFromString("1299"), "INR", "order_01")
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, "order_01", order.Receipt)
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too low"}}`))
	}))
	defer srv.Close()

	rp := NewRazorpay("k", "s", "")
	rp.BaseURL = srv.URL

	_, err := rp.CreateOrder(context.Background(), decimal.NewFromInt(0), "INR", "r")
	assert.EqualError(t, err, "razorpay create order: amount too low")

	_, err = NewRazorpay("", "", "").CreateOrder(context.Background(), decimal.NewFromInt(1), "INR", "r")
	assert.Error(t, err)
}

func TestVerifyPaymentSignature(t *testing.T) {
	rp := NewRazorpay("k", "secret", "whsec")
	sig := Sign("secret", []byte("order_1|pay_1"))

	assert.True(t, rp.VerifyPaymentSignature("order_1", "pay_1", sig))
	assert.False(t, rp.VerifyPaymentSignature("order_1", "pay_2", sig))
	assert.False(t, rp.VerifyPaymentSignature("order_1", "pay_1", ""))
}

func TestVerifyWebhookSignature(t *testing.T) {
	rp := NewRazorpay("k", "secret", "whsec")
	body := []byte(`{"event":"payment.captured"}`)

	assert.True(t, rp.VerifyWebhookSignature(body, Sign("whsec", body)))
	assert.False(t, rp.VerifyWebhookSignature(body, Sign("secret", body)))
	assert.False(t, NewRazorpay("k", "secret", "").VerifyWebhookSignature(body, Sign("", body)))
}
