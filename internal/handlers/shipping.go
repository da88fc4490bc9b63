package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderbackend/internal/shipping"
)

type cartLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type shippingRatesRequest struct {
	Pincode string            `json:"pincode" binding:"required"`
	Weight  *float64          `json:"weight" binding:"omitempty,gt=0"`
	Cart    []cartLineRequest `json:"cart" binding:"omitempty,dive"`
	COD     bool              `json:"cod"`
}

// ShippingRates never fails on carrier trouble; only a malformed request is an error.
func ShippingRates(quoter ShippingQuoter) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /shipping-rates"
		defer handlePanic(c, route)

		var req shippingRatesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithBindError(c, route, err)
			return
		}

		in := shipping.Request{Pincode: req.Pincode, COD: req.COD}
		if req.Weight != nil {
			in.WeightKg = *req.Weight
		}
		for _, line := range req.Cart {
			in.Cart = append(in.Cart, shipping.CartLine{ProductID: line.ProductID, Quantity: line.Quantity})
		}

		quote, err := quoter.Quote(c.Request.Context(), in)
		if err != nil {
			respondWithError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, quote)
	}
}
