package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbackend/internal/apperrors"
	"orderbackend/internal/models"
)

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status models.OrderStatus
		label  string
		step   int
	}{
		{models.OrderStatusConfirmed, "Order Confirmed", 1},
		{models.OrderStatusProcessing, "Being Prepared", 2},
		{models.OrderStatusShipped, "Shipped", 3},
		{models.OrderStatusDelivered, "Delivered", 4},
		{models.OrderStatusCancelled, "Cancelled", 0},
		{"out_for_delivery", "Out For Delivery", 1},
		{"", "Unknown", 1},
	}
	for _, tt := range tests {
		label, step := StatusLabel(tt.status)
		assert.Equal(t, tt.label, label, tt.status)
		assert.Equal(t, tt.step, step, tt.status)
	}
}

func TestTrackFallsBackToGatewayID(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	order := h.repo.PutOrder(models.Order{
		GatewayOrderID: "order_gw_1",
		OrderStatus:    models.OrderStatusShipped,
		PaymentStatus:  models.PaymentStatusPaid,
	})

	view, err := h.svc.Track(context.Background(), "order_gw_1")
	require.NoError(t, err)
	assert.Equal(t, order.ID.Hex(), view.OrderID)
	assert.Equal(t, 3, view.StatusStep)

	byID, err := h.svc.Track(context.Background(), order.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, view.OrderID, byID.OrderID)
}

func TestTrackHidesUnpaidOrders(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	order := h.repo.PutOrder(models.Order{
		GatewayOrderID: "order_gw_2",
		OrderStatus:    models.OrderStatusConfirmed,
		PaymentStatus:  models.PaymentStatusPending,
	})

	_, err := h.svc.Track(context.Background(), order.ID.Hex())
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	_, err = h.svc.Track(context.Background(), "order_gw_2")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	_, err = h.svc.Track(context.Background(), "missing")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestListUserOrdersOnlyPaid(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.repo.PutOrder(models.Order{UserID: "u1", PaymentStatus: models.PaymentStatusPaid, CreatedAt: testNow})
	h.repo.PutOrder(models.Order{UserID: "u1", PaymentStatus: models.PaymentStatusPaid, CreatedAt: testNow.Add(time.Hour)})
	h.repo.PutOrder(models.Order{UserID: "u1", PaymentStatus: models.PaymentStatusPending})

	orders, err := h.svc.ListUserOrders(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.True(t, orders[0].CreatedAt.After(orders[1].CreatedAt))

	_, err = h.svc.ListUserOrders(context.Background(), "")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
