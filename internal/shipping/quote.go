// Package shipping quotes delivery cost for a destination postcode using live carrier
// rates, falling back to a flat rate whenever the carrier cannot answer.
package shipping

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"orderbackend/internal/apperrors"
	"orderbackend/internal/carrier"
	"orderbackend/internal/logging"
	"orderbackend/internal/store"
)

const fallbackCourier = "Standard Delivery"

// RateSource lists the couriers able to serve a shipment.
type RateSource interface {
	Serviceability(ctx context.Context, in carrier.ServiceabilityRequest) ([]carrier.CourierOption, error)
}

type Config struct {
	FlatRate          float64
	DefaultUnitWeight float64
	FallbackETA       string
}

type CartLine struct {
	ProductID string
	Quantity  int
}

type Request struct {
	Pincode  string
	WeightKg float64
	Cart     []CartLine
	COD      bool
}

type Quote struct {
	Success           bool    `json:"success"`
	ShippingCost      float64 `json:"shipping_cost"`
	Courier           string  `json:"courier"`
	CourierID         string  `json:"courier_id,omitempty"`
	EstimatedDelivery string  `json:"estimated_delivery"`
	WeightKg          float64 `json:"weight_kg"`
	Fallback          bool    `json:"fallback"`
}

type Service struct {
	rates   RateSource
	catalog store.Catalog
	cfg     Config
	logger  *slog.Logger
}

func NewService(rates RateSource, catalog store.Catalog, cfg Config, logger *slog.Logger) *Service {
	if cfg.DefaultUnitWeight <= 0 {
		cfg.DefaultUnitWeight = 0.5
	}
	if cfg.FallbackETA == "" {
		cfg.FallbackETA = "5-7 business days"
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{rates: rates, catalog: catalog, cfg: cfg, logger: logger}
}

// ValidPincode reports whether s is exactly six ASCII digits.
func ValidPincode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Quote returns the cheapest live rate for the destination. Carrier failures never
// surface as errors; only a malformed request does.
func (s *Service) Quote(ctx context.Context, req Request) (Quote, error) {
	pincode := strings.TrimSpace(req.Pincode)
	if !ValidPincode(pincode) {
		return Quote{}, apperrors.Validation("pincode must be exactly 6 digits")
	}
	if req.WeightKg < 0 {
		return Quote{}, apperrors.Validation("weight must be positive")
	}

	weight := req.WeightKg
	if weight == 0 {
		weight = s.CartWeight(ctx, req.Cart)
	}

	logger := logging.FromContext(ctx, s.logger)

	options, err := s.rates.Serviceability(ctx, carrier.ServiceabilityRequest{
		DeliveryPostcode: pincode,
		WeightKg:         weight,
		COD:              req.COD,
	})
	if err != nil {
		logger.Warn("carrier quote failed, using flat rate", "pincode", pincode, "error", err)
		return s.fallback(weight), nil
	}

	best, ok := cheapest(options)
	if !ok {
		logger.Warn("carrier returned no usable courier, using flat rate", "pincode", pincode)
		return s.fallback(weight), nil
	}

	return Quote{
		Success:           true,
		ShippingCost:      best.Rate,
		Courier:           best.CourierName,
		CourierID:         best.CourierCompanyID.String(),
		EstimatedDelivery: s.eta(best),
		WeightKg:          weight,
	}, nil
}

// CartWeight sums per-product weight times quantity. Products without a weight, and
// ids that are malformed or unknown, count as the default unit weight.
func (s *Service) CartWeight(ctx context.Context, cart []CartLine) float64 {
	total := 0.0
	for _, line := range cart {
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		total += s.unitWeight(ctx, line.ProductID) * float64(qty)
	}
	if total <= 0 {
		total = s.cfg.DefaultUnitWeight
	}
	return math.Round(total*1000) / 1000
}

func (s *Service) unitWeight(ctx context.Context, productID string) float64 {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(productID))
	if err != nil || s.catalog == nil {
		return s.cfg.DefaultUnitWeight
	}
	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil || product.Weight <= 0 {
		return s.cfg.DefaultUnitWeight
	}
	return product.Weight
}

func (s *Service) fallback(weight float64) Quote {
	return Quote{
		Success:           false,
		ShippingCost:      s.cfg.FlatRate,
		Courier:           fallbackCourier,
		EstimatedDelivery: s.cfg.FallbackETA,
		WeightKg:          weight,
		Fallback:          true,
	}
}

func (s *Service) eta(option carrier.CourierOption) string {
	if etd := strings.TrimSpace(option.ETD.String()); etd != "" {
		return etd
	}
	if days := strings.TrimSpace(option.EstimatedDeliveryDays.String()); days != "" {
		return days + " days"
	}
	return s.cfg.FallbackETA
}

// cheapest keeps the first option among equal minimum rates.
func cheapest(options []carrier.CourierOption) (carrier.CourierOption, bool) {
	var best carrier.CourierOption
	found := false
	for _, option := range options {
		if option.Rate < 0 || math.IsNaN(option.Rate) {
			continue
		}
		if !found || option.Rate < best.Rate {
			best = option
			found = true
		}
	}
	return best, found
}
