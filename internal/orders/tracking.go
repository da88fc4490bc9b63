package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"orderbackend/internal/apperrors"
	"orderbackend/internal/models"
	"orderbackend/internal/store"
)

type statusInfo struct {
	label string
	step  int
}

var statusSteps = map[models.OrderStatus]statusInfo{
	models.OrderStatusConfirmed:  {label: "Order Confirmed", step: 1},
	models.OrderStatusProcessing: {label: "Being Prepared", step: 2},
	models.OrderStatusShipped:    {label: "Shipped", step: 3},
	models.OrderStatusDelivered:  {label: "Delivered", step: 4},
	models.OrderStatusCancelled:  {label: "Cancelled", step: 0},
}

// StatusLabel maps an order status to its storefront label and progress step.
// Unknown values render as a title-cased label on step 1.
func StatusLabel(status models.OrderStatus) (string, int) {
	if info, ok := statusSteps[status]; ok {
		return info.label, info.step
	}
	raw := strings.TrimSpace(strings.ReplaceAll(string(status), "_", " "))
	if raw == "" {
		return "Unknown", 1
	}
	return cases.Title(language.English).String(raw), 1
}

type TrackingItem struct {
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	Color         string  `json:"color,omitempty"`
	Customization string  `json:"customization,omitempty"`
}

type ShippingSummary struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

type TrackingBlock struct {
	AWBCode     *string `json:"awb_code"`
	CourierName *string `json:"courier_name"`
	TrackingURL *string `json:"tracking_url"`
	ETD         *string `json:"etd"`
}

type TrackingView struct {
	OrderID        string               `json:"order_id"`
	GatewayOrderID string               `json:"gateway_order_id"`
	OrderStatus    models.OrderStatus   `json:"order_status"`
	StatusLabel    string               `json:"status_label"`
	StatusStep     int                  `json:"status_step"`
	PaymentStatus  models.PaymentStatus `json:"payment_status"`
	Items          []TrackingItem       `json:"items"`
	Total          float64              `json:"total"`
	Shipping       ShippingSummary      `json:"shipping"`
	Tracking       TrackingBlock        `json:"tracking"`
	CreatedAt      time.Time            `json:"created_at"`
	PaidAt         *time.Time           `json:"paid_at,omitempty"`
}

// ListUserOrders returns a buyer's paid orders, newest first.
func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.Validation("user_id is required")
	}
	orders, err := s.repo.ListOrdersByUser(ctx, userID, models.PaymentStatusPaid)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list orders")
	}
	return orders, nil
}

// Track looks an order up by internal id, falling back to the gateway order id.
// Only paid orders are visible.
func (s *Service) Track(ctx context.Context, id string) (TrackingView, error) {
	order, err := s.findVisibleOrder(ctx, id)
	if err != nil {
		return TrackingView{}, err
	}
	return newTrackingView(order), nil
}

func (s *Service) findVisibleOrder(ctx context.Context, id string) (models.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Order{}, apperrors.Validation("order id is required")
	}

	var (
		order models.Order
		err   = store.ErrNotFound
	)
	if oid, parseErr := primitive.ObjectIDFromHex(id); parseErr == nil {
		order, err = s.repo.GetOrder(ctx, oid)
	}
	if errors.Is(err, store.ErrNotFound) {
		order, err = s.repo.GetOrderByGatewayID(ctx, id)
	}
	if errors.Is(err, store.ErrNotFound) {
		return models.Order{}, apperrors.NotFound("order not found")
	}
	if err != nil {
		return models.Order{}, apperrors.Internal(err, "failed to load order")
	}
	if order.PaymentStatus != models.PaymentStatusPaid {
		return models.Order{}, apperrors.NotFound("order not found")
	}
	return order, nil
}

func newTrackingView(order models.Order) TrackingView {
	label, step := StatusLabel(order.OrderStatus)

	items := make([]TrackingItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, TrackingItem{
			Name:          item.Name,
			Quantity:      item.Quantity,
			Price:         item.Price,
			Color:         item.Color,
			Customization: item.Customization,
		})
	}

	return TrackingView{
		OrderID:        order.ID.Hex(),
		GatewayOrderID: order.GatewayOrderID,
		OrderStatus:    order.OrderStatus,
		StatusLabel:    label,
		StatusStep:     step,
		PaymentStatus:  order.PaymentStatus,
		Items:          items,
		Total:          order.Total,
		Shipping: ShippingSummary{
			Name:    order.Shipping.Name,
			City:    order.Shipping.City,
			State:   order.Shipping.State,
			Pincode: order.Shipping.Pincode,
		},
		Tracking: TrackingBlock{
			AWBCode:     order.Carrier.AWBCode,
			CourierName: order.Carrier.CourierName,
			TrackingURL: order.Carrier.TrackingURL,
			ETD:         order.Carrier.ETD,
		},
		CreatedAt: order.CreatedAt,
		PaidAt:    order.PaidAt,
	}
}
