package models

import "time"

// PendingPayment is the pre-payment snapshot of a checkout, keyed by the gateway order id.
type PendingPayment struct {
	GatewayOrderID string          `bson:"_id" json:"gateway_order_id"`
	UserID         string          `bson:"userId" json:"user_id"`
	Items          []OrderItem     `bson:"items" json:"items"`
	Subtotal       float64         `bson:"subtotal" json:"subtotal"`
	Total          float64         `bson:"total" json:"total"`
	AmountMinor    int64           `bson:"amountMinor" json:"amount_minor"`
	Currency       string          `bson:"currency" json:"currency"`
	Shipping       ShippingDetails `bson:"shipping" json:"shipping"`
	DevPlaceholder bool            `bson:"devPlaceholder" json:"dev_placeholder"`
	CreatedAt      time.Time       `bson:"createdAt" json:"created_at"`
}
