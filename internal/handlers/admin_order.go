package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderbackend/internal/models"
	"orderbackend/internal/orders"
)

type updateOrderRequest struct {
	OrderStatus   *string `json:"order_status"`
	PaymentStatus *string `json:"payment_status"`
	AWBCode       *string `json:"awb_code"`
	CourierName   *string `json:"courier_name"`
}

func BookCourier(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/orders/:order_id/book-courier"
		defer handlePanic(c, route)

		booking, err := svc.BookCourier(c.Request.Context(), c.Param("order_id"))
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
	}
}

func GetOrderTracking(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/orders/:order_id/tracking"
		defer handlePanic(c, route)

		tracking, err := svc.AdminTracking(c.Request.Context(), c.Param("order_id"))
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "tracking": tracking})
	}
}

func GetAllOrders(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		result, err := svc.ListOrders(c.Request.Context(), models.OrderFilter{
			OrderStatus: models.OrderStatus(c.Query("status")),
			Page:        page,
			Limit:       limit,
		})
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"orders":      result.Orders,
			"total":       result.Total,
			"page":        result.Page,
			"limit":       result.Limit,
			"total_pages": result.TotalPages,
		})
	}
}

func UpdateOrder(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/orders/:order_id"
		defer handlePanic(c, route)

		var req updateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithBindError(c, route, err)
			return
		}

		order, err := svc.UpdateOrder(c.Request.Context(), c.Param("order_id"), orders.AdminUpdate{
			OrderStatus:   req.OrderStatus,
			PaymentStatus: req.PaymentStatus,
			AWBCode:       req.AWBCode,
			CourierName:   req.CourierName,
		})
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}
