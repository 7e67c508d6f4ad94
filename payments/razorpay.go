package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

type Razorpay struct {
	keyID         string
	keySecret     string
	webhookSecret string
	BaseURL       string
	HTTPClient    *http.Client
}

func NewRazorpay(keyID, keySecret, webhookSecret string) *Razorpay {
	return &Razorpay{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		BaseURL:       razorpayBaseURL,
		HTTPClient:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *Razorpay) KeyID() string { return r.keyID }

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (r *Razorpay) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*GatewayOrder, error) {
	if r.keyID == "" || r.keySecret == "" {
		return nil, errors.New("razorpay credentials not configured")
	}

	payload := map[string]interface{}{
		"amount":   MinorUnits(amount),
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/orders", r.BaseURL), bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(r.keyID, r.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "razorpay create order")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		var apiErr razorpayError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("razorpay create order: %s", apiErr.Error.Description)
		}
		return nil, fmt.Errorf("razorpay create order: status %d", resp.StatusCode)
	}

	var order GatewayOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, errors.Wrap(err, "decode razorpay order")
	}
	return &order, nil
}
