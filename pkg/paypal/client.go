package paypal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"

	"github.com/pawpantry/storefront-api/pkg/config"
	"github.com/pawpantry/storefront-api/pkg/logger"
)

const (
	StatusCompleted = "COMPLETED"

	defaultTimeout = 10 * time.Second
)

var (
	ErrNotConfigured = errors.New("paypal credentials not configured")
	ErrAuth          = errors.New("paypal authentication failed")
	ErrOrderNotFound = errors.New("paypal order not found")
	ErrTimeout       = errors.New("paypal request timed out")
)

// OrderSummary is the subset of a PayPal order the storefront relies on.
type OrderSummary struct {
	ID         string
	Status     string
	Amount     decimal.Decimal
	Currency   string
	HasAmount  bool
	PayerEmail string
}

// Client wraps the PayPal REST SDK with bounded calls and typed errors.
type Client struct {
	api      *paypal.Client
	timeout  time.Duration
	currency string
	logg     *logger.Logger
}

// New builds a client against the configured environment. The HTTP client
// carries the same timeout as the per-call context.
func New(cfg config.PayPalConfig, logg *logger.Logger) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	api, err := paypal.NewClient(strings.TrimSpace(cfg.ClientID), strings.TrimSpace(cfg.ClientSecret), cfg.BaseURL())
	if err != nil {
		return nil, fmt.Errorf("creating paypal client: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	api.SetHTTPClient(&http.Client{Timeout: timeout})

	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "USD"
	}
	return &Client{api: api, timeout: timeout, currency: currency, logg: logg}, nil
}

// Authenticate exchanges the client credentials for a fresh access token.
func (c *Client) Authenticate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.api.GetAccessToken(ctx); err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return nil
}

// GetOrder fetches an order by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*OrderSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	order, err := c.api.GetOrder(ctx, orderID)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		if statusOf(err) == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrOrderNotFound, err)
	}
	return summarize(order)
}

// CreateOrder opens a CAPTURE intent order for the given amount.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, reference string) (*OrderSummary, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	unit := paypal.PurchaseUnitRequest{
		ReferenceID: reference,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: c.currency,
			Value:    amount.StringFixed(2),
		},
	}
	order, err := c.api.CreateOrder(ctx, paypal.OrderIntentCapture, []paypal.PurchaseUnitRequest{unit}, nil, nil)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	return summarize(order)
}

// CaptureSummary is the result of capturing an approved order.
type CaptureSummary struct {
	ID         string
	Status     string
	PayerEmail string
	PayerID    string
}

// CaptureOrder captures an approved order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*CaptureSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.api.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		}
		return nil, c.classify(ctx, err)
	}
	out := &CaptureSummary{ID: res.ID, Status: res.Status}
	if res.Payer != nil {
		out.PayerEmail = res.Payer.EmailAddress
		out.PayerID = res.Payer.PayerID
	}
	return out, nil
}

func (c *Client) classify(ctx context.Context, err error) error {
	if isTimeout(ctx, err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if statusOf(err) == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return err
}

func summarize(order *paypal.Order) (*OrderSummary, error) {
	if order == nil {
		return nil, ErrOrderNotFound
	}
	out := &OrderSummary{ID: order.ID, Status: order.Status}
	if order.Payer != nil {
		out.PayerEmail = order.Payer.EmailAddress
	}
	if len(order.PurchaseUnits) > 0 && order.PurchaseUnits[0].Amount != nil {
		amt := order.PurchaseUnits[0].Amount
		value, err := decimal.NewFromString(strings.TrimSpace(amt.Value))
		if err != nil {
			return nil, fmt.Errorf("parsing paypal amount %q: %w", amt.Value, err)
		}
		out.Amount = value
		out.Currency = amt.Currency
		out.HasAmount = true
	}
	return out, nil
}

func statusOf(err error) int {
	var apiErr *paypal.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Response != nil {
		return apiErr.Response.StatusCode
	}
	return 0
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
