package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderbackend/internal/models"
	"orderbackend/internal/orders"
)

/* =========================
   REQUEST DTOs
========================= */

type createOrderItemRequest struct {
	ProductID     string   `json:"product_id" binding:"required,len=24,hexadecimal"`
	Name          string   `json:"name"`
	Price         *float64 `json:"price"`
	Quantity      int      `json:"quantity" binding:"required,min=1"`
	Color         string   `json:"color" binding:"max=50"`
	Customization string   `json:"customization" binding:"max=500"`
}

type shippingDetailsRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required,min=10,max=15"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	Pincode string `json:"pincode" binding:"required,len=6,numeric"`
	Country string `json:"country"`
}

// Name and Price are accepted from older storefronts but always replaced by
// catalog values.
type createOrderRequest struct {
	UserID   string                   `json:"user_id" binding:"required"`
	Items    []createOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Total    float64                  `json:"total" binding:"required,gt=0"`
	Shipping shippingDetailsRequest   `json:"shipping"`
}

type verifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"gateway_signature"`
}

type cancelPendingRequest struct {
	GatewayOrderID string `json:"gateway_order_id" binding:"required"`
}

func (r createOrderRequest) input() orders.CreateIntentInput {
	items := make([]orders.ItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, orders.ItemInput{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Color:         item.Color,
			Customization: item.Customization,
		})
	}
	return orders.CreateIntentInput{
		UserID: r.UserID,
		Items:  items,
		Total:  r.Total,
		Shipping: models.ShippingDetails{
			Name:    r.Shipping.Name,
			Phone:   r.Shipping.Phone,
			Email:   r.Shipping.Email,
			Address: r.Shipping.Address,
			City:    r.Shipping.City,
			State:   r.Shipping.State,
			Pincode: r.Shipping.Pincode,
			Country: r.Shipping.Country,
		},
	}
}

/* =========================
   CHECKOUT
========================= */

func CreateOrder(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/create"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithBindError(c, route, err)
			return
		}

		intent, err := svc.CreateIntent(c.Request.Context(), req.input())
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"order":         intent.Pending,
			"gateway_order": intent.Gateway,
		})
	}
}

func VerifyPayment(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/verify-payment"
		defer handlePanic(c, route)

		var req verifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithBindError(c, route, err)
			return
		}

		result, err := svc.VerifyPayment(c.Request.Context(), orders.VerifyInput{
			GatewayOrderID:   req.GatewayOrderID,
			GatewayPaymentID: req.GatewayPaymentID,
			Signature:        req.Signature,
		})
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":           true,
			"order_id":          result.OrderID,
			"already_processed": result.AlreadyProcessed,
		})
	}
}

func CancelPending(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/cancel-pending"
		defer handlePanic(c, route)

		var req cancelPendingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithBindError(c, route, err)
			return
		}

		if err := svc.CancelPending(c.Request.Context(), req.GatewayOrderID); err != nil {
			respondWithError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

/* =========================
   STOREFRONT LOOKUPS
========================= */

func GetUserOrders(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/user/:user_id"
		defer handlePanic(c, route)

		list, err := svc.ListUserOrders(c.Request.Context(), c.Param("user_id"))
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "orders": list})
	}
}

func TrackOrder(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/track/:order_id"
		defer handlePanic(c, route)

		view, err := svc.Track(c.Request.Context(), c.Param("order_id"))
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": view})
	}
}
