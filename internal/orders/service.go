// Package orders runs the order lifecycle: staging a checkout before payment,
// promoting it to an order once the gateway signature checks out, booking the
// courier, and reporting status to the storefront and admins.
package orders

import (
	"context"
	"log/slog"
	"time"

	"orderbackend/internal/carrier"
	"orderbackend/internal/gateway"
	"orderbackend/internal/logging"
	"orderbackend/internal/shipping"
	"orderbackend/internal/store"
)

type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, receipt string, notes map[string]string) (gateway.Order, error)
	VerifySignature(orderID, paymentID, signature string) error
	KeyID() string
}

type Carrier interface {
	CreateOrder(ctx context.Context, payload carrier.OrderPayload) (carrier.CreatedOrder, error)
	AssignAWB(ctx context.Context, shipmentID string) (carrier.AWBAssignment, error)
	TrackAWB(ctx context.Context, awb string) (carrier.Tracking, error)
	TrackingURL(awb string) string
	PickupLocation() string
}

// ShippingEstimator derives parcel weight and delivery estimates for an order.
type ShippingEstimator interface {
	CartWeight(ctx context.Context, cart []shipping.CartLine) float64
	Quote(ctx context.Context, req shipping.Request) (shipping.Quote, error)
}

type Service struct {
	repo      store.Repository
	gateway   Gateway
	carrier   Carrier
	estimates ShippingEstimator
	now       func() time.Time
	logger    *slog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo store.Repository, gw Gateway, c Carrier, estimates ShippingEstimator, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Service{
		repo:      repo,
		gateway:   gw,
		carrier:   c,
		estimates: estimates,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) log(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}
