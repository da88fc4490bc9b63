package orders

import (
	"context"
	"strings"

	"orderbackend/internal/apperrors"
	"orderbackend/internal/models"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type OrderPage struct {
	Orders     []models.Order `json:"orders"`
	Total      int64          `json:"total"`
	Page       int64          `json:"page"`
	Limit      int64          `json:"limit"`
	TotalPages int64          `json:"total_pages"`
}

// ListOrders pages through all orders for the admin console, newest first.
func (s *Service) ListOrders(ctx context.Context, filter models.OrderFilter) (OrderPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = DefaultPageLimit
	}
	if filter.Limit > MaxPageLimit {
		filter.Limit = MaxPageLimit
	}
	if filter.OrderStatus != "" && !filter.OrderStatus.Valid() {
		return OrderPage{}, apperrors.Validation("unknown order status %q", filter.OrderStatus)
	}

	orders, total, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return OrderPage{}, apperrors.Internal(err, "failed to list orders")
	}
	if orders == nil {
		orders = []models.Order{}
	}

	return OrderPage{
		Orders:     orders,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: (total + filter.Limit - 1) / filter.Limit,
	}, nil
}

// AdminUpdate carries the fields an admin may change. Nil fields stay as they are.
type AdminUpdate struct {
	OrderStatus   *string
	PaymentStatus *string
	AWBCode       *string
	CourierName   *string
}

func (u AdminUpdate) empty() bool {
	return u.OrderStatus == nil && u.PaymentStatus == nil && u.AWBCode == nil && u.CourierName == nil
}

var statusRank = map[models.OrderStatus]int{
	models.OrderStatusConfirmed:  1,
	models.OrderStatusProcessing: 2,
	models.OrderStatusShipped:    3,
	models.OrderStatusDelivered:  4,
}

// CanTransition reports whether an order may move from one status to another.
// Statuses only move forward, any open order may be cancelled, and a cancelled
// order stays cancelled.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	if from == models.OrderStatusCancelled {
		return false
	}
	if to == models.OrderStatusCancelled {
		return true
	}
	fromRank, okFrom := statusRank[from]
	toRank, okTo := statusRank[to]
	if !okTo {
		return false
	}
	if !okFrom {
		return true
	}
	return toRank > fromRank
}

// UpdateOrder applies an admin edit, enforcing the order and payment state machines.
func (s *Service) UpdateOrder(ctx context.Context, orderID string, in AdminUpdate) (models.Order, error) {
	if in.empty() {
		return models.Order{}, apperrors.Validation("no fields to update")
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, err
	}

	now := s.clock()
	update := models.OrderUpdate{UpdatedAt: now}

	if in.OrderStatus != nil {
		to := models.OrderStatus(strings.ToLower(strings.TrimSpace(*in.OrderStatus)))
		if !to.Valid() {
			return models.Order{}, apperrors.Validation("unknown order status %q", *in.OrderStatus)
		}
		if !CanTransition(order.OrderStatus, to) {
			return models.Order{}, apperrors.Validation("cannot move order from %s to %s", order.OrderStatus, to)
		}
		if to != order.OrderStatus {
			update.OrderStatus = &to
		}
	}

	if in.PaymentStatus != nil {
		to := models.PaymentStatus(strings.ToLower(strings.TrimSpace(*in.PaymentStatus)))
		switch {
		case to != models.PaymentStatusPending && to != models.PaymentStatusPaid:
			return models.Order{}, apperrors.Validation("unknown payment status %q", *in.PaymentStatus)
		case to == order.PaymentStatus:
		case to == models.PaymentStatusPending:
			return models.Order{}, apperrors.Validation("payment status cannot move from paid to pending")
		default:
			update.PaymentStatus = &to
			update.PaidAt = &now
		}
	}

	if in.AWBCode != nil || in.CourierName != nil {
		if order.Carrier.HasAWB() {
			return models.Order{}, apperrors.Validation("order already has an AWB")
		}
		info := order.Carrier
		if in.AWBCode != nil {
			awb := strings.TrimSpace(*in.AWBCode)
			if awb == "" {
				return models.Order{}, apperrors.Validation("awb_code must not be empty")
			}
			info.AWBCode = &awb
			info.TrackingURL = optional(s.carrier.TrackingURL(awb))
			info.BookedAt = &now
		}
		if in.CourierName != nil {
			info.CourierName = optional(*in.CourierName)
		}
		update.Carrier = &info
	}

	updated, err := s.repo.UpdateOrder(ctx, order.ID, update)
	if err != nil {
		return models.Order{}, apperrors.Internal(err, "failed to update order")
	}

	s.log(ctx).Info("order updated by admin",
		"order_id", updated.ID.Hex(),
		"order_status", updated.OrderStatus,
		"payment_status", updated.PaymentStatus,
	)
	return updated, nil
}
