package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/baseemali/neushop-backend/pkg/config"
	"github.com/baseemali/neushop-backend/pkg/enums"
	pkgerrors "github.com/baseemali/neushop-backend/pkg/errors"
	"github.com/baseemali/neushop-backend/pkg/types"
)

const responseBodyReadLimit int64 = 4096

var errBaseURLRequired = errors.New("orders api base url is required")

// Client submits assembled orders to the fulfillment API. It owns no order
// state; a submission either comes back accepted with an order id or fails.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the orders client from config.
func NewClient(cfg config.OrdersAPIConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// SubmissionItem is one purchased line in the outbound payload.
type SubmissionItem struct {
	ProductID      string `json:"product_id"`
	VariantKey     string `json:"variant_key,omitempty"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

// Submission is the full order payload sent to the fulfillment API.
type Submission struct {
	IdempotencyKey  string           `json:"idempotency_key"`
	CustomerID      string           `json:"customer_id"`
	Items           []SubmissionItem `json:"items"`
	SubtotalCents   int64            `json:"subtotal_cents"`
	TaxCents        int64            `json:"tax_cents"`
	ShippingCents   int64            `json:"shipping_cents"`
	DiscountCents   int64            `json:"discount_cents"`
	TotalCents      int64            `json:"total_cents"`
	CouponCode      string           `json:"coupon_code,omitempty"`
	Currency        string           `json:"currency"`
	ShippingAddress types.Address    `json:"shipping_address"`
	PaymentToken    string           `json:"payment_token"`
}

// Receipt is the accepted-order acknowledgment.
type Receipt struct {
	OrderID     string            `json:"order_id"`
	Status      enums.OrderStatus `json:"status"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// Submit posts the order. A declined order maps to a state conflict so the
// caller keeps the cart; transport and server failures map to dependency
// errors and are safe to retry with the same idempotency key.
func (c *Client) Submit(ctx context.Context, submission Submission) (*Receipt, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "orders client not configured")
	}
	if strings.TrimSpace(submission.IdempotencyKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	if len(submission.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission has no items")
	}

	payload, err := json.Marshal(submission)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal order submission")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build order submission request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", submission.IdempotencyKey)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute order submission")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var receipt Receipt
		if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order receipt")
		}
		if strings.TrimSpace(receipt.OrderID) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "order receipt missing id")
		}
		if receipt.Status == enums.OrderStatusDeclined {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order was declined")
		}
		return &receipt, nil
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusPaymentRequired:
		msg := readBody(resp.Body)
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, fmt.Errorf("status %d: %s", resp.StatusCode, msg), "order was declined")
	case resp.StatusCode == http.StatusConflict:
		msg := readBody(resp.Body)
		return nil, pkgerrors.Wrap(pkgerrors.CodeIdempotency, fmt.Errorf("status %d: %s", resp.StatusCode, msg), "idempotency key reused")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		msg := readBody(resp.Body)
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, fmt.Errorf("status %d: %s", resp.StatusCode, msg), "order submission rejected")
	default:
		msg := readBody(resp.Body)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, msg), "order submission failed")
	}
}

func readBody(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, responseBodyReadLimit))
	return strings.TrimSpace(string(raw))
}
