package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbackend/internal/apperrors"
	"orderbackend/internal/gateway"
	"orderbackend/internal/gateway/gatewaytest"
	"orderbackend/internal/models"
	"orderbackend/internal/store"
)

func TestCreateIntentUsesCatalogPrices(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	mug := h.repo.PutProduct(models.Product{Name: "Mug", Price: 300, SaleEnabled: true, SalePrice: 250})
	card := h.repo.PutProduct(models.Product{Name: "Card", Price: 50})

	intent, err := h.svc.CreateIntent(context.Background(), CreateIntentInput{
		UserID: "user-1",
		Items: []ItemInput{
			{ProductID: mug.ID.Hex(), Quantity: 1, Customization: " Happy birthday "},
			{ProductID: card.ID.Hex(), Quantity: 2},
		},
		Total:    449,
		Shipping: testShipping,
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{44900}, h.gateway.Amounts())
	assert.Equal(t, "order_test_1", intent.Gateway.ID)
	assert.Equal(t, gatewaytest.KeyID, intent.Gateway.KeyID)
	assert.False(t, intent.Gateway.DevMode)

	pending, err := h.repo.GetPendingPayment(context.Background(), "order_test_1")
	require.NoError(t, err)
	require.Len(t, pending.Items, 2)
	assert.Equal(t, 250.0, pending.Items[0].Price)
	assert.Equal(t, "Mug", pending.Items[0].Name)
	assert.Equal(t, "Happy birthday", pending.Items[0].Customization)
	assert.Equal(t, 50.0, pending.Items[1].Price)
	assert.Equal(t, 350.0, pending.Subtotal)
	assert.Equal(t, 449.0, pending.Total)
	assert.Equal(t, "India", pending.Shipping.Country)
	assert.Equal(t, testNow, pending.CreatedAt)
}

func TestCreateIntentRejectsBadInput(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	mug := h.repo.PutProduct(models.Product{Name: "Mug", Price: 300})

	tests := []struct {
		name string
		in   CreateIntentInput
		kind apperrors.Kind
	}{
		{"missing user", CreateIntentInput{Items: []ItemInput{{ProductID: mug.ID.Hex(), Quantity: 1}}, Total: 300}, apperrors.KindValidation},
		{"no items", CreateIntentInput{UserID: "u", Total: 300}, apperrors.KindValidation},
		{"zero total", CreateIntentInput{UserID: "u", Items: []ItemInput{{ProductID: mug.ID.Hex(), Quantity: 1}}}, apperrors.KindValidation},
		{"bad product id", CreateIntentInput{UserID: "u", Items: []ItemInput{{ProductID: "xyz", Quantity: 1}}, Total: 300}, apperrors.KindValidation},
		{"zero quantity", CreateIntentInput{UserID: "u", Items: []ItemInput{{ProductID: mug.ID.Hex()}}, Total: 300}, apperrors.KindValidation},
		{"unknown product", CreateIntentInput{UserID: "u", Items: []ItemInput{{ProductID: "aaaaaaaaaaaaaaaaaaaaaaaa", Quantity: 1}}, Total: 300}, apperrors.KindNotFound},
		{"total below subtotal", CreateIntentInput{UserID: "u", Items: []ItemInput{{ProductID: mug.ID.Hex(), Quantity: 2}}, Total: 300}, apperrors.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.CreateIntent(context.Background(), tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}
	assert.Empty(t, h.gateway.Amounts())
}

func TestCreateIntentGatewayFailure(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.gateway.SetFailing(true)
	mug := h.repo.PutProduct(models.Product{Name: "Mug", Price: 300})

	_, err := h.svc.CreateIntent(context.Background(), CreateIntentInput{
		UserID: "u", Items: []ItemInput{{ProductID: mug.ID.Hex(), Quantity: 1}}, Total: 300,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
}

func TestCreateIntentDevPlaceholder(t *testing.T) {
	h := newHarness(t, harnessOptions{devMode: true, gatewayOffline: true})
	mug := h.repo.PutProduct(models.Product{Name: "Mug", Price: 300})

	intent, err := h.svc.CreateIntent(context.Background(), CreateIntentInput{
		UserID: "u", Items: []ItemInput{{ProductID: mug.ID.Hex(), Quantity: 1}}, Total: 300,
	})
	require.NoError(t, err)
	assert.True(t, intent.Gateway.DevMode)
	assert.Contains(t, intent.Gateway.ID, "order_dev_")
	assert.True(t, intent.Pending.DevPlaceholder)

	res, err := h.svc.VerifyPayment(context.Background(), VerifyInput{GatewayOrderID: intent.Gateway.ID, GatewayPaymentID: "pay_manual"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.OrderID)
}

func TestVerifyPaymentRejectsTamperedSignatures(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	mug := h.repo.PutProduct(models.Product{Name: "Mug", Price: 500})
	intent, err := h.svc.CreateIntent(context.Background(), CreateIntentInput{
		UserID: "u", Items: []ItemInput{{ProductID: mug.ID.Hex(), Quantity: 1}}, Total: 500,
	})
	require.NoError(t, err)

	valid := gateway.Sign(gatewaytest.KeySecret, intent.Gateway.ID, "pay_1")
	for i := 0; i < len(valid); i++ {
		tampered := []byte(valid)
		if tampered[i] == '0' {
			tampered[i] = '1'
		} else {
			tampered[i] = '0'
		}
		_, err := h.svc.VerifyPayment(context.Background(), VerifyInput{
			GatewayOrderID: intent.Gateway.ID, GatewayPaymentID: "pay_1", Signature: string(tampered),
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindSignatureMismatch, apperrors.KindOf(err))
	}

	assert.Zero(t, h.repo.OrderCount(intent.Gateway.ID))
	_, err = h.repo.GetPendingPayment(context.Background(), intent.Gateway.ID)
	assert.NoError(t, err)

	_, err = h.svc.VerifyPayment(context.Background(), VerifyInput{GatewayOrderID: intent.Gateway.ID, GatewayPaymentID: "pay_1"})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	mug := h.repo.PutProduct(models.Product{Name: "Mug", Price: 500})
	intent, err := h.svc.CreateIntent(context.Background(), CreateIntentInput{
		UserID: "u", Items: []ItemInput{{ProductID: mug.ID.Hex(), Quantity: 1}}, Total: 500,
	})
	require.NoError(t, err)

	in := VerifyInput{
		GatewayOrderID:   intent.Gateway.ID,
		GatewayPaymentID: "pay_1",
		Signature:        gateway.Sign(gatewaytest.KeySecret, intent.Gateway.ID, "pay_1"),
	}
	first, err := h.svc.VerifyPayment(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, first.AlreadyProcessed)

	second, err := h.svc.VerifyPayment(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, 1, h.repo.OrderCount(intent.Gateway.ID))
}

func TestVerifyPaymentUnknownOrder(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	_, err := h.svc.VerifyPayment(context.Background(), VerifyInput{
		GatewayOrderID:   "order_missing",
		GatewayPaymentID: "pay_1",
		Signature:        gateway.Sign(gatewaytest.KeySecret, "order_missing", "pay_1"),
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestVerifyPaymentResumesAfterPartialPromotion(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	existing := h.repo.PutOrder(models.Order{GatewayOrderID: "order_half", PaymentStatus: models.PaymentStatusPaid})
	require.NoError(t, h.repo.SavePendingPayment(ctx, models.PendingPayment{GatewayOrderID: "order_half", UserID: "u"}))

	res, err := h.svc.VerifyPayment(ctx, VerifyInput{
		GatewayOrderID:   "order_half",
		GatewayPaymentID: "pay_1",
		Signature:        gateway.Sign(gatewaytest.KeySecret, "order_half", "pay_1"),
	})
	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	assert.Equal(t, existing.ID.Hex(), res.OrderID)
	assert.Equal(t, 1, h.repo.OrderCount("order_half"))
	_, err = h.repo.GetPendingPayment(ctx, "order_half")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCancelPending(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	ctx := context.Background()
	require.NoError(t, h.repo.SavePendingPayment(ctx, models.PendingPayment{GatewayOrderID: "order_x"}))

	require.NoError(t, h.svc.CancelPending(ctx, "order_x"))
	err := h.svc.CancelPending(ctx, "order_x")
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(h.svc.CancelPending(ctx, " ")))
}
