// Package carrier is a client for the shipping carrier's REST API: login, rate
// serviceability, adhoc order creation, AWB assignment and AWB tracking.
package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"orderbackend/internal/logging"
)

var (
	ErrNotConfigured = errors.New("carrier credentials not configured")
	ErrNoCouriers    = errors.New("no courier serves this destination")
)

// StatusError is returned for non-2xx carrier responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("carrier returned status %d: %s", e.Code, e.Body)
}

type Config struct {
	BaseURL         string
	Email           string
	Password        string
	PickupPostcode  string
	PickupLocation  string
	TrackingURLBase string
	Timeout         time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	tokens     *TokenCache
	logger     *slog.Logger
}

func NewClient(cfg Config, tokens *TokenCache, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.PickupLocation == "" {
		cfg.PickupLocation = "Primary"
	}
	if logger == nil {
		logger = logging.Discard()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		logger:     logger,
	}
}

func (c *Client) Configured() bool {
	return c.cfg.Email != "" && c.cfg.Password != ""
}

func (c *Client) PickupLocation() string {
	return c.cfg.PickupLocation
}

// TrackingURL is the public tracking page for an AWB.
func (c *Client) TrackingURL(awb string) string {
	awb = strings.TrimSpace(awb)
	if awb == "" {
		return ""
	}
	base := c.cfg.TrackingURLBase
	if base == "" {
		base = "https://shiprocket.co/tracking/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(awb)
}

func (c *Client) token(ctx context.Context, refresh bool) (string, error) {
	if !refresh {
		if token, ok := c.tokens.Get(ctx); ok {
			return token, nil
		}
	}
	token, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.tokens.Put(ctx, token)
	return token, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(map[string]string{
		"email":    c.cfg.Email,
		"password": c.cfg.Password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/external/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Token string `json:"token"`
	}
	if err := c.send(req, &out); err != nil {
		return "", fmt.Errorf("carrier login failed: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("carrier login returned no token")
	}
	c.logger.Info("carrier token refreshed")
	return out.Token, nil
}

// call performs an authenticated request. An unauthorized answer drops the cached
// token and repeats the call once with a fresh one.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, payload any, out any) error {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return err
		}
	}

	refresh := false
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.token(ctx, refresh)
		if err != nil {
			return err
		}

		endpoint := c.cfg.BaseURL + path
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		err = c.send(req, out)
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized && attempt == 0 {
			c.logger.Warn("carrier rejected token, refreshing", "path", path)
			c.tokens.Invalidate(ctx)
			refresh = true
			continue
		}
		return err
	}
	return nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("carrier request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read carrier response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode carrier response: %w", err)
	}
	return nil
}

// Serviceability lists the couriers able to deliver to the destination, in the
// carrier's order.
func (c *Client) Serviceability(ctx context.Context, in ServiceabilityRequest) ([]CourierOption, error) {
	cod := "0"
	if in.COD {
		cod = "1"
	}
	query := url.Values{}
	query.Set("pickup_postcode", c.cfg.PickupPostcode)
	query.Set("delivery_postcode", in.DeliveryPostcode)
	query.Set("weight", strconv.FormatFloat(in.WeightKg, 'f', -1, 64))
	query.Set("cod", cod)

	var out serviceabilityResponse
	if err := c.call(ctx, http.MethodGet, "/v1/external/courier/serviceability/", query, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Data.AvailableCourierCompanies) == 0 {
		return nil, ErrNoCouriers
	}
	return out.Data.AvailableCourierCompanies, nil
}

// CreateOrder registers a shipment with the carrier.
func (c *Client) CreateOrder(ctx context.Context, payload OrderPayload) (CreatedOrder, error) {
	var out CreatedOrder
	if err := c.call(ctx, http.MethodPost, "/v1/external/orders/create/adhoc", nil, payload, &out); err != nil {
		return CreatedOrder{}, err
	}
	if out.OrderID == "" && out.ShipmentID == "" {
		return CreatedOrder{}, fmt.Errorf("carrier order response missing identifiers")
	}
	return out, nil
}

// AssignAWB asks the carrier to allocate a tracking number for a shipment.
func (c *Client) AssignAWB(ctx context.Context, shipmentID string) (AWBAssignment, error) {
	payload := map[string]any{"shipment_id": numericOrString(shipmentID)}

	var out awbResponse
	if err := c.call(ctx, http.MethodPost, "/v1/external/courier/assign/awb", nil, payload, &out); err != nil {
		return AWBAssignment{}, err
	}
	awb := strings.TrimSpace(out.Response.Data.AWBCode.String())
	if out.AWBAssignStatus != 1 || awb == "" {
		msg := out.Message
		if msg == "" {
			msg = "awb not assigned"
		}
		return AWBAssignment{}, fmt.Errorf("carrier awb assignment failed: %s", msg)
	}
	return AWBAssignment{
		AWBCode:          awb,
		CourierName:      out.Response.Data.CourierName,
		CourierCompanyID: out.Response.Data.CourierCompanyID.String(),
	}, nil
}

// TrackAWB fetches the live tracking state for an AWB.
func (c *Client) TrackAWB(ctx context.Context, awb string) (Tracking, error) {
	var out trackingResponse
	if err := c.call(ctx, http.MethodGet, "/v1/external/courier/track/awb/"+url.PathEscape(awb), nil, nil, &out); err != nil {
		return Tracking{}, err
	}
	data := out.TrackingData
	if data.Error != "" {
		return Tracking{}, fmt.Errorf("carrier tracking failed: %s", data.Error)
	}

	tracking := Tracking{
		AWBCode:    awb,
		ETD:        data.ETD.String(),
		TrackURL:   data.TrackURL,
		Activities: data.ShipmentTrackActivities,
	}
	if len(data.ShipmentTrack) > 0 {
		tracking.CurrentStatus = data.ShipmentTrack[0].CurrentStatus
		if tracking.ETD == "" {
			tracking.ETD = data.ShipmentTrack[0].EDD.String()
		}
	}
	if tracking.TrackURL == "" {
		tracking.TrackURL = c.TrackingURL(awb)
	}
	if tracking.Activities == nil {
		tracking.Activities = []TrackingActivity{}
	}
	return tracking, nil
}
