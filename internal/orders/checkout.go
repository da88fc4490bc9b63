package orders

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"orderbackend/internal/apperrors"
	"orderbackend/internal/gateway"
	"orderbackend/internal/models"
	"orderbackend/internal/store"
)

const defaultCountry = "India"

type ItemInput struct {
	ProductID     string
	Quantity      int
	Color         string
	Customization string
}

type CreateIntentInput struct {
	UserID   string
	Items    []ItemInput
	Total    float64
	Shipping models.ShippingDetails
}

// GatewayHandoff is what the storefront needs to open the payment widget.
type GatewayHandoff struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id,omitempty"`
	DevMode  bool   `json:"dev_mode"`
}

type Intent struct {
	Pending models.PendingPayment
	Gateway GatewayHandoff
}

// CreateIntent prices the cart from the catalog, opens a gateway order for the
// declared total and stages the checkout until payment is confirmed.
func (s *Service) CreateIntent(ctx context.Context, in CreateIntentInput) (Intent, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return Intent{}, apperrors.Validation("user_id is required")
	}
	if len(in.Items) == 0 {
		return Intent{}, apperrors.Validation("order must contain at least one item")
	}
	if in.Total <= 0 || math.IsNaN(in.Total) || math.IsInf(in.Total, 0) {
		return Intent{}, apperrors.Validation("total must be greater than zero")
	}

	items, subtotal, err := s.resolveItems(ctx, in.Items)
	if err != nil {
		return Intent{}, err
	}
	total := roundMoney(in.Total)
	if total < subtotal {
		return Intent{}, apperrors.Validation("total %.2f is below the item subtotal %.2f", total, subtotal)
	}

	shippingDetails := in.Shipping
	if strings.TrimSpace(shippingDetails.Country) == "" {
		shippingDetails.Country = defaultCountry
	}

	amount := gateway.AmountToMinor(total)
	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	gwOrder, err := s.gateway.CreateOrder(ctx, amount, receipt, map[string]string{"user_id": userID})
	if err != nil {
		return Intent{}, err
	}

	pending := models.PendingPayment{
		GatewayOrderID: gwOrder.ID,
		UserID:         userID,
		Items:          items,
		Subtotal:       subtotal,
		Total:          total,
		AmountMinor:    gwOrder.Amount,
		Currency:       gwOrder.Currency,
		Shipping:       shippingDetails,
		DevPlaceholder: gwOrder.DevPlaceholder,
		CreatedAt:      s.clock(),
	}
	if err := s.repo.SavePendingPayment(ctx, pending); err != nil {
		return Intent{}, apperrors.Internal(err, "failed to stage payment")
	}

	s.log(ctx).Info("checkout staged",
		"gateway_order_id", pending.GatewayOrderID,
		"user_id", userID,
		"amount_minor", pending.AmountMinor,
		"dev_placeholder", pending.DevPlaceholder,
	)

	return Intent{
		Pending: pending,
		Gateway: GatewayHandoff{
			ID:       gwOrder.ID,
			Amount:   gwOrder.Amount,
			Currency: gwOrder.Currency,
			KeyID:    s.gateway.KeyID(),
			DevMode:  gwOrder.DevPlaceholder,
		},
	}, nil
}

// resolveItems replaces caller-supplied names and prices with catalog values.
func (s *Service) resolveItems(ctx context.Context, inputs []ItemInput) ([]models.OrderItem, float64, error) {
	items := make([]models.OrderItem, 0, len(inputs))
	subtotal := 0.0
	for i, in := range inputs {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(in.ProductID))
		if err != nil {
			return nil, 0, apperrors.Validation("items[%d].product_id is not a valid id", i)
		}
		if in.Quantity < 1 {
			return nil, 0, apperrors.Validation("items[%d].quantity must be at least 1", i)
		}

		product, err := s.repo.GetProduct(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, 0, apperrors.NotFound("product %s not found", id.Hex())
		}
		if err != nil {
			return nil, 0, apperrors.Internal(err, "failed to load product")
		}

		price := product.EffectivePrice()
		items = append(items, models.OrderItem{
			ProductID:     id,
			Name:          product.Name,
			Price:         price,
			Quantity:      in.Quantity,
			Color:         strings.TrimSpace(in.Color),
			Customization: strings.TrimSpace(in.Customization),
		})
		subtotal += price * float64(in.Quantity)
	}
	return items, roundMoney(subtotal), nil
}

type VerifyInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

type VerifyResult struct {
	OrderID          string `json:"order_id"`
	AlreadyProcessed bool   `json:"already_processed"`
}

// VerifyPayment checks the gateway signature and turns the staged checkout into a
// paid order. Repeating the call for a consumed checkout reports the existing order.
func (s *Service) VerifyPayment(ctx context.Context, in VerifyInput) (VerifyResult, error) {
	gatewayOrderID := strings.TrimSpace(in.GatewayOrderID)
	paymentID := strings.TrimSpace(in.GatewayPaymentID)
	if gatewayOrderID == "" {
		return VerifyResult{}, apperrors.Validation("gateway_order_id is required")
	}
	if paymentID == "" {
		return VerifyResult{}, apperrors.Validation("gateway_payment_id is required")
	}

	logger := s.log(ctx).With("gateway_order_id", gatewayOrderID)

	if err := s.gateway.VerifySignature(gatewayOrderID, paymentID, in.Signature); err != nil {
		logger.Warn("payment signature rejected", "error", err)
		return VerifyResult{}, err
	}

	pending, err := s.repo.GetPendingPayment(ctx, gatewayOrderID)
	if errors.Is(err, store.ErrNotFound) {
		existing, lookupErr := s.repo.GetOrderByGatewayID(ctx, gatewayOrderID)
		if errors.Is(lookupErr, store.ErrNotFound) {
			return VerifyResult{}, apperrors.NotFound("pending payment not found")
		}
		if lookupErr != nil {
			return VerifyResult{}, apperrors.Internal(lookupErr, "failed to load order")
		}
		logger.Info("payment already processed", "order_id", existing.ID.Hex())
		return VerifyResult{OrderID: existing.ID.Hex(), AlreadyProcessed: true}, nil
	}
	if err != nil {
		return VerifyResult{}, apperrors.Internal(err, "failed to load pending payment")
	}

	now := s.clock()
	order := models.Order{
		UserID:           pending.UserID,
		Items:            pending.Items,
		Subtotal:         pending.Subtotal,
		Total:            pending.Total,
		Shipping:         pending.Shipping,
		OrderStatus:      models.OrderStatusConfirmed,
		PaymentStatus:    models.PaymentStatusPaid,
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: paymentID,
		CreatedAt:        now,
		PaidAt:           &now,
		UpdatedAt:        now,
	}

	stored, created, err := s.repo.PromotePendingPayment(ctx, order)
	if err != nil {
		return VerifyResult{}, apperrors.Internal(err, "failed to confirm order")
	}
	if !created {
		logger.Info("payment already processed", "order_id", stored.ID.Hex())
		return VerifyResult{OrderID: stored.ID.Hex(), AlreadyProcessed: true}, nil
	}

	logger.Info("order confirmed", "order_id", stored.ID.Hex(), "payment_id", paymentID)
	return VerifyResult{OrderID: stored.ID.Hex()}, nil
}

// CancelPending drops a staged checkout the buyer abandoned.
func (s *Service) CancelPending(ctx context.Context, gatewayOrderID string) error {
	gatewayOrderID = strings.TrimSpace(gatewayOrderID)
	if gatewayOrderID == "" {
		return apperrors.Validation("gateway_order_id is required")
	}
	err := s.repo.DeletePendingPayment(ctx, gatewayOrderID)
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound("pending payment not found")
	}
	if err != nil {
		return apperrors.Internal(err, "failed to cancel pending payment")
	}
	s.log(ctx).Info("pending payment cancelled", "gateway_order_id", gatewayOrderID)
	return nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
