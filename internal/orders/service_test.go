package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orderbackend/internal/cache"
	"orderbackend/internal/carrier"
	"orderbackend/internal/carrier/carriertest"
	"orderbackend/internal/gateway"
	"orderbackend/internal/gateway/gatewaytest"
	"orderbackend/internal/logging"
	"orderbackend/internal/models"
	"orderbackend/internal/shipping"
	"orderbackend/internal/store"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type harness struct {
	svc     *Service
	repo    *store.MemoryStore
	carrier *carriertest.Server
	gateway *gatewaytest.Server
}

type harnessOptions struct {
	devMode        bool
	gatewayOffline bool
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()

	repo := store.NewMemoryStore()

	carrierSrv := carriertest.NewServer()
	t.Cleanup(carrierSrv.Close)
	provider, err := cache.NewMemoryProvider(time.Now)
	require.NoError(t, err)
	carrierClient := carrier.NewClient(carrier.Config{
		BaseURL:        carrierSrv.URL,
		Email:          "ops@example.com",
		Password:       "secret",
		PickupPostcode: "110001",
		Timeout:        2 * time.Second,
	}, carrier.NewTokenCache(provider, 23*time.Hour, logging.Discard()), nil)

	gatewaySrv := gatewaytest.NewServer()
	t.Cleanup(gatewaySrv.Close)
	gwCfg := gateway.Config{
		BaseURL:   gatewaySrv.URL,
		KeyID:     gatewaytest.KeyID,
		KeySecret: gatewaytest.KeySecret,
		DevMode:   opts.devMode,
		Timeout:   2 * time.Second,
	}
	if opts.gatewayOffline {
		gwCfg.KeyID, gwCfg.KeySecret = "", ""
	}
	gw := gateway.NewClient(gwCfg, nil)

	weights := shipping.NewService(carrierClient, repo, shipping.Config{FlatRate: 99, DefaultUnitWeight: 0.5}, nil)
	svc := NewService(repo, gw, carrierClient, weights, nil, WithClock(func() time.Time { return testNow }))

	return &harness{svc: svc, repo: repo, carrier: carrierSrv, gateway: gatewaySrv}
}

var testShipping = models.ShippingDetails{
	Name:    "Asha Rao",
	Phone:   "9876543210",
	Email:   "asha@example.com",
	Address: "12 MG Road",
	City:    "Bengaluru",
	State:   "Karnataka",
	Pincode: "560001",
}

// paidOrder runs a checkout through staging and verification.
func (h *harness) paidOrder(t *testing.T, items []ItemInput, total float64) string {
	t.Helper()
	ctx := context.Background()
	intent, err := h.svc.CreateIntent(ctx, CreateIntentInput{UserID: "user-1", Items: items, Total: total, Shipping: testShipping})
	require.NoError(t, err)

	res, err := h.svc.VerifyPayment(ctx, VerifyInput{
		GatewayOrderID:   intent.Gateway.ID,
		GatewayPaymentID: "pay_1",
		Signature:        gateway.Sign(gatewaytest.KeySecret, intent.Gateway.ID, "pay_1"),
	})
	require.NoError(t, err)
	return res.OrderID
}
