// Package gateway talks to the payment gateway: it opens gateway orders for checkouts
// and verifies the signature the gateway hands back to the storefront after payment.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"orderbackend/internal/apperrors"
	"orderbackend/internal/logging"
)

const devOrderPrefix = "order_dev_"

type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Currency  string
	// DevMode lets checkout continue with a placeholder order when the gateway is
	// unreachable or unconfigured, and accepts unsigned confirmations.
	DevMode bool
	Timeout time.Duration
}

// Order is the gateway-side order a storefront hands to the payment widget.
type Order struct {
	ID             string `json:"id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt,omitempty"`
	Status         string `json:"status,omitempty"`
	DevPlaceholder bool   `json:"-"`
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	if logger == nil {
		logger = logging.Discard()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

func (c *Client) KeyID() string {
	return c.cfg.KeyID
}

func (c *Client) Currency() string {
	return c.cfg.Currency
}

func (c *Client) DevMode() bool {
	return c.cfg.DevMode
}

func (c *Client) configured() bool {
	return c.cfg.KeyID != "" && c.cfg.KeySecret != ""
}

// AmountToMinor converts a rupee amount to paise, rounding half away from zero.
func AmountToMinor(total float64) int64 {
	return int64(math.Round(total * 100))
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// CreateOrder opens a gateway order for amountMinor. In dev mode a failure yields a
// placeholder order instead of an error.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, receipt string, notes map[string]string) (Order, error) {
	if amountMinor <= 0 {
		return Order{}, apperrors.Validation("amount must be greater than zero")
	}

	if !c.configured() {
		if c.cfg.DevMode {
			c.logger.Warn("payment gateway not configured, using placeholder order", "receipt", receipt)
			return c.placeholder(amountMinor, receipt), nil
		}
		return Order{}, apperrors.Upstream(nil, "payment gateway not configured")
	}

	order, err := c.createOrder(ctx, createOrderRequest{
		Amount:   amountMinor,
		Currency: c.cfg.Currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		if c.cfg.DevMode {
			c.logger.Warn("payment gateway unavailable, using placeholder order", "receipt", receipt, "error", err)
			return c.placeholder(amountMinor, receipt), nil
		}
		return Order{}, apperrors.Upstream(err, "payment gateway unavailable")
	}
	return order, nil
}

func (c *Client) createOrder(ctx context.Context, payload createOrderRequest) (Order, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Order{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, err
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Order{}, fmt.Errorf("failed to read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Order{}, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return Order{}, fmt.Errorf("failed to decode gateway order: %w", err)
	}
	if order.ID == "" {
		return Order{}, fmt.Errorf("gateway order response missing id")
	}
	return order, nil
}

func (c *Client) placeholder(amountMinor int64, receipt string) Order {
	return Order{
		ID:             devOrderPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		Amount:         amountMinor,
		Currency:       c.cfg.Currency,
		Receipt:        receipt,
		Status:         "created",
		DevPlaceholder: true,
	}
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID" under secret.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the gateway's payment signature in constant time.
func (c *Client) VerifySignature(orderID, paymentID, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		if c.cfg.DevMode {
			c.logger.Warn("accepting unsigned payment confirmation", "gateway_order_id", orderID)
			return nil
		}
		return apperrors.Validation("gateway signature is required")
	}

	if c.cfg.KeySecret == "" {
		if c.cfg.DevMode {
			c.logger.Warn("no gateway secret configured, skipping signature check", "gateway_order_id", orderID)
			return nil
		}
		return apperrors.Internal(nil, "gateway secret not configured")
	}

	expected := Sign(c.cfg.KeySecret, orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperrors.SignatureMismatch("payment signature verification failed")
	}
	return nil
}
