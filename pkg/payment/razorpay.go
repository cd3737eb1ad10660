package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/storefront/pkg/config"
	"github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

// Intent is a pending payment session opened with the gateway.
type Intent struct {
	ID       string `json:"id"`
	Entity   string `json:"entity,omitempty"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type RazorpayClient struct {
	client *razorpay.Client
	config *config.RazorpayConfig
}

func NewRazorpayClient(cfg *config.RazorpayConfig) (*RazorpayClient, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, errors.New("razorpay: key_id and key_secret are required")
	}
	return &RazorpayClient{
		client: razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		config: cfg,
	}, nil
}

// Secret is the key used to sign checkout callbacks.
func (c *RazorpayClient) Secret() string {
	return c.config.KeySecret
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"amount":   ToSubunits(amount),
		"currency": c.config.Currency,
		"receipt":  receipt,
	}
	body, err := c.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}
	return intentFromBody(body)
}

// ToSubunits converts a major-unit amount (rupees) into the integer subunits
// (paise) the gateway charges in.
func ToSubunits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func intentFromBody(body map[string]interface{}) (*Intent, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("gateway order response carried no id")
	}
	intent := &Intent{ID: id}
	intent.Entity, _ = body["entity"].(string)
	intent.Currency, _ = body["currency"].(string)
	intent.Receipt, _ = body["receipt"].(string)
	intent.Status, _ = body["status"].(string)

	switch v := body["amount"].(type) {
	case float64:
		intent.Amount = int64(v)
	case int64:
		intent.Amount = v
	case int:
		intent.Amount = int64(v)
	}
	return intent, nil
}
