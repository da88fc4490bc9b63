// Package store persists pending payments and orders and reads the product catalog.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"orderbackend/internal/models"
)

var ErrNotFound = errors.New("not found")

const (
	ProductsCollection        = "products"
	PendingPaymentsCollection = "pending_payments"
	OrdersCollection          = "orders"
)

type Catalog interface {
	GetProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error)
}

type PendingPayments interface {
	// SavePendingPayment upserts by gateway order id; a repeated save replaces the record.
	SavePendingPayment(ctx context.Context, p models.PendingPayment) error
	GetPendingPayment(ctx context.Context, gatewayOrderID string) (models.PendingPayment, error)
	DeletePendingPayment(ctx context.Context, gatewayOrderID string) error
}

type Orders interface {
	// PromotePendingPayment stores order and removes the pending payment with the same
	// gateway order id. When an order for that gateway id already exists it is returned
	// untouched with created=false.
	PromotePendingPayment(ctx context.Context, order models.Order) (stored models.Order, created bool, err error)
	GetOrder(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	GetOrderByGatewayID(ctx context.Context, gatewayOrderID string) (models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, status models.PaymentStatus) ([]models.Order, error)
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)
	UpdateOrder(ctx context.Context, id primitive.ObjectID, update models.OrderUpdate) (models.Order, error)
}

type Repository interface {
	Catalog
	PendingPayments
	Orders
}
