package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known order states.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// OrderItem represents a single product entry within an order.
type OrderItem struct {
	ProductID     primitive.ObjectID `bson:"productId" json:"product_id"`
	Name          string             `bson:"name" json:"name"`
	Price         float64            `bson:"price" json:"price"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	Color         string             `bson:"color,omitempty" json:"color,omitempty"`
	Customization string             `bson:"customization,omitempty" json:"customization,omitempty"`
}

// ShippingDetails is the destination captured at checkout.
type ShippingDetails struct {
	Name    string `bson:"name" json:"name"`
	Phone   string `bson:"phone" json:"phone"`
	Email   string `bson:"email,omitempty" json:"email,omitempty"`
	Address string `bson:"address" json:"address"`
	City    string `bson:"city" json:"city"`
	State   string `bson:"state" json:"state"`
	Pincode string `bson:"pincode" json:"pincode"`
	Country string `bson:"country" json:"country"`
}

// CarrierInfo holds the identifiers returned by the carrier. Every field stays nil
// until a booking call produced it.
type CarrierInfo struct {
	OrderID     *string    `bson:"orderId" json:"carrier_order_id"`
	ShipmentID  *string    `bson:"shipmentId" json:"shipment_id"`
	AWBCode     *string    `bson:"awbCode" json:"awb_code"`
	CourierName *string    `bson:"courierName" json:"courier_name"`
	TrackingURL *string    `bson:"trackingUrl" json:"tracking_url"`
	ETD         *string    `bson:"etd" json:"etd"`
	BookedAt    *time.Time `bson:"bookedAt" json:"booked_at"`
}

// HasAWB reports whether a tracking number has been assigned.
func (c CarrierInfo) HasAWB() bool {
	return c.AWBCode != nil && *c.AWBCode != ""
}

// HasShipment reports whether the carrier-side order already exists.
func (c CarrierInfo) HasShipment() bool {
	return c.ShipmentID != nil && *c.ShipmentID != ""
}

// Order defines the persisted order document.
type Order struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID           string             `bson:"userId" json:"user_id"`
	Items            []OrderItem        `bson:"items" json:"items"`
	Subtotal         float64            `bson:"subtotal" json:"subtotal"`
	Total            float64            `bson:"total" json:"total"`
	Shipping         ShippingDetails    `bson:"shipping" json:"shipping"`
	OrderStatus      OrderStatus        `bson:"orderStatus" json:"order_status"`
	PaymentStatus    PaymentStatus      `bson:"paymentStatus" json:"payment_status"`
	GatewayOrderID   string             `bson:"gatewayOrderId" json:"gateway_order_id"`
	GatewayPaymentID string             `bson:"gatewayPaymentId,omitempty" json:"gateway_payment_id,omitempty"`
	Carrier          CarrierInfo        `bson:"carrier" json:"carrier"`
	CreatedAt        time.Time          `bson:"createdAt" json:"created_at"`
	PaidAt           *time.Time         `bson:"paidAt,omitempty" json:"paid_at,omitempty"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updated_at"`
}

// OrderUpdate lists the fields a single update call may set. Nil means untouched.
type OrderUpdate struct {
	OrderStatus   *OrderStatus
	PaymentStatus *PaymentStatus
	PaidAt        *time.Time
	Carrier       *CarrierInfo
	UpdatedAt     time.Time
}

// OrderFilter narrows admin listings.
type OrderFilter struct {
	OrderStatus OrderStatus
	Page        int64
	Limit       int64
}
