package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"orderbackend/internal/middleware"
	"orderbackend/internal/models"
	"orderbackend/internal/orders"
	"orderbackend/internal/shipping"
)

type OrderService interface {
	CreateIntent(ctx context.Context, in orders.CreateIntentInput) (orders.Intent, error)
	VerifyPayment(ctx context.Context, in orders.VerifyInput) (orders.VerifyResult, error)
	CancelPending(ctx context.Context, gatewayOrderID string) error
	ListUserOrders(ctx context.Context, userID string) ([]models.Order, error)
	Track(ctx context.Context, id string) (orders.TrackingView, error)
	BookCourier(ctx context.Context, orderID string) (orders.BookingResult, error)
	AdminTracking(ctx context.Context, orderID string) (orders.AdminTracking, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) (orders.OrderPage, error)
	UpdateOrder(ctx context.Context, orderID string, in orders.AdminUpdate) (models.Order, error)
}

type ShippingQuoter interface {
	Quote(ctx context.Context, req shipping.Request) (shipping.Quote, error)
}

type RouterConfig struct {
	Orders    OrderService
	Shipping  ShippingQuoter
	Ping      func(ctx context.Context) error
	JWTSecret string
	Logger    *slog.Logger
}

var bindingOnce sync.Once

// configureBinding rejects unknown JSON fields and reports json names in
// validation messages.
func configureBinding() {
	bindingOnce.Do(func() {
		binding.EnableDecoderDisallowUnknownFields = true
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	configureBinding()

	r := gin.New()
	r.Use(middleware.RequestLogger(cfg.Logger), gin.Recovery())

	r.GET("/", Home())
	r.GET("/health", Health(cfg.Ping))

	r.POST("/orders/create", CreateOrder(cfg.Orders))
	r.POST("/orders/verify-payment", VerifyPayment(cfg.Orders))
	r.POST("/orders/cancel-pending", CancelPending(cfg.Orders))
	r.GET("/orders/user/:user_id", GetUserOrders(cfg.Orders))
	r.GET("/orders/track/:order_id", TrackOrder(cfg.Orders))
	r.POST("/shipping-rates", ShippingRates(cfg.Shipping))

	admin := r.Group("/admin")
	admin.Use(middleware.AdminAuth(cfg.JWTSecret, cfg.Logger))
	{
		admin.GET("/orders", GetAllOrders(cfg.Orders))
		admin.PUT("/orders/:order_id", UpdateOrder(cfg.Orders))
		admin.POST("/orders/:order_id/book-courier", BookCourier(cfg.Orders))
		admin.GET("/orders/:order_id/tracking", GetOrderTracking(cfg.Orders))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "detail": "route not found"})
	})

	return r
}
