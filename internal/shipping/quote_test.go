package shipping

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderbackend/internal/apperrors"
	"orderbackend/internal/cache"
	"orderbackend/internal/carrier"
	"orderbackend/internal/carrier/carriertest"
	"orderbackend/internal/logging"
	"orderbackend/internal/models"
	"orderbackend/internal/store"
)

var testConfig = Config{FlatRate: 99, DefaultUnitWeight: 0.5, FallbackETA: "5-7 business days"}

func newCarrierClient(t *testing.T, srv *carriertest.Server, email string) *carrier.Client {
	t.Helper()
	provider, err := cache.NewMemoryProvider(time.Now)
	require.NoError(t, err)
	tokens := carrier.NewTokenCache(provider, 23*time.Hour, logging.Discard())
	return carrier.NewClient(carrier.Config{
		BaseURL:        srv.URL,
		Email:          email,
		Password:       "secret",
		PickupPostcode: "110001",
		Timeout:        2 * time.Second,
	}, tokens, nil)
}

type failingRates struct {
	err error
}

func (f failingRates) Serviceability(context.Context, carrier.ServiceabilityRequest) ([]carrier.CourierOption, error) {
	return nil, f.err
}

func TestQuotePicksCheapestCourier(t *testing.T) {
	srv := carriertest.NewServer()
	defer srv.Close()
	srv.Configure(func(s *carriertest.Server) {
		s.Couriers = []carriertest.Courier{
			{Name: "Bluedart", Rate: 60, ETD: "Oct 19, 2026"},
			{Name: "Xpressbees", Rate: 45, ETD: "Oct 21, 2026"},
		}
	})
	svc := NewService(newCarrierClient(t, srv, "ops@example.com"), nil, testConfig, nil)

	quote, err := svc.Quote(context.Background(), Request{Pincode: "560001", WeightKg: 1.2})
	require.NoError(t, err)
	assert.True(t, quote.Success)
	assert.False(t, quote.Fallback)
	assert.Equal(t, 45.0, quote.ShippingCost)
	assert.Equal(t, "Xpressbees", quote.Courier)
	assert.Equal(t, "Oct 21, 2026", quote.EstimatedDelivery)
	assert.Equal(t, 1.2, quote.WeightKg)
}

func TestQuoteTieKeepsFirstCourier(t *testing.T) {
	best, ok := cheapest([]carrier.CourierOption{
		{CourierName: "A", Rate: 50},
		{CourierName: "B", Rate: 40},
		{CourierName: "C", Rate: 40},
	})
	require.True(t, ok)
	assert.Equal(t, "B", best.CourierName)
}

func TestQuoteRejectsMalformedPincodeWithoutCallingCarrier(t *testing.T) {
	srv := carriertest.NewServer()
	defer srv.Close()
	svc := NewService(newCarrierClient(t, srv, "ops@example.com"), nil, testConfig, nil)

	for _, pincode := range []string{"1234", "12345", "1234567", "12a456", ""} {
		_, err := svc.Quote(context.Background(), Request{Pincode: pincode})
		require.Error(t, err, pincode)
		assert.True(t, apperrors.Is(err, apperrors.KindValidation), pincode)
	}

	logins, quotes, _, _ := srv.Counts()
	assert.Zero(t, logins)
	assert.Zero(t, quotes)
}

func TestQuoteFallsBackOnEveryCarrierFailure(t *testing.T) {
	srv := carriertest.NewServer()
	defer srv.Close()

	emptySrv := carriertest.NewServer()
	defer emptySrv.Close()

	brokenSrv := carriertest.NewServer()
	defer brokenSrv.Close()
	brokenSrv.Configure(func(s *carriertest.Server) { s.ServiceabilityCode = http.StatusInternalServerError })

	tests := []struct {
		name  string
		rates RateSource
	}{
		{name: "empty courier list", rates: newCarrierClient(t, emptySrv, "ops@example.com")},
		{name: "server error", rates: newCarrierClient(t, brokenSrv, "ops@example.com")},
		{name: "missing credentials", rates: newCarrierClient(t, srv, "")},
		{name: "timeout", rates: failingRates{err: context.DeadlineExceeded}},
		{name: "network", rates: failingRates{err: errors.New("connection refused")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.rates, nil, testConfig, nil)
			quote, err := svc.Quote(context.Background(), Request{Pincode: "560001"})
			require.NoError(t, err)
			assert.False(t, quote.Success)
			assert.True(t, quote.Fallback)
			assert.Equal(t, 99.0, quote.ShippingCost)
			assert.Equal(t, "Standard Delivery", quote.Courier)
			assert.Equal(t, "5-7 business days", quote.EstimatedDelivery)
			assert.Equal(t, 0.5, quote.WeightKg)
		})
	}
}

func TestCartWeight(t *testing.T) {
	catalog := store.NewMemoryStore()
	heavy := catalog.PutProduct(models.Product{Name: "Lamp", Price: 900, Weight: 1.25})
	light := catalog.PutProduct(models.Product{Name: "Card", Price: 50})
	svc := NewService(failingRates{err: errors.New("unused")}, catalog, testConfig, nil)

	weight := svc.CartWeight(context.Background(), []CartLine{
		{ProductID: heavy.ID.Hex(), Quantity: 2},
		{ProductID: light.ID.Hex(), Quantity: 3},
		{ProductID: "not-an-id", Quantity: 1},
		{ProductID: "aaaaaaaaaaaaaaaaaaaaaaaa", Quantity: 1},
	})
	assert.Equal(t, 2.5+1.5+0.5+0.5, weight)
	assert.Equal(t, 0.5, svc.CartWeight(context.Background(), nil))
}

func TestQuoteDerivesWeightFromCart(t *testing.T) {
	srv := carriertest.NewServer()
	defer srv.Close()
	srv.Configure(func(s *carriertest.Server) {
		s.Couriers = []carriertest.Courier{{Name: "Delhivery", Rate: 70}}
	})
	catalog := store.NewMemoryStore()
	p := catalog.PutProduct(models.Product{Name: "Lamp", Price: 900, Weight: 2})
	svc := NewService(newCarrierClient(t, srv, "ops@example.com"), catalog, testConfig, nil)

	quote, err := svc.Quote(context.Background(), Request{
		Pincode: "400001",
		Cart:    []CartLine{{ProductID: p.ID.Hex(), Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, quote.WeightKg)
	assert.Equal(t, "3 days", quote.EstimatedDelivery)
}
