package store

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"orderbackend/internal/models"
)

// MemoryStore is a Repository kept in process memory, used by tests and local runs.
type MemoryStore struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]models.Product
	pending  map[string]models.PendingPayment
	orders   map[primitive.ObjectID]models.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[primitive.ObjectID]models.Product),
		pending:  make(map[string]models.PendingPayment),
		orders:   make(map[primitive.ObjectID]models.Order),
	}
}

// PutProduct seeds the catalog. A zero id gets a fresh one.
func (s *MemoryStore) PutProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	s.products[p.ID] = p
	return p
}

// PutOrder stores an order as-is, bypassing the pending-payment flow.
func (s *MemoryStore) PutOrder(o models.Order) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	s.orders[o.ID] = cloneOrder(o)
	return o
}

// OrderCount returns how many orders exist for a gateway order id.
func (s *MemoryStore) OrderCount(gatewayOrderID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, o := range s.orders {
		if o.GatewayOrderID == gatewayOrderID {
			n++
		}
	}
	return n
}

func (s *MemoryStore) GetProduct(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.IsDeleted {
		return models.Product{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) SavePendingPayment(_ context.Context, p models.PendingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.Items = append([]models.OrderItem(nil), p.Items...)
	s.pending[p.GatewayOrderID] = p
	return nil
}

func (s *MemoryStore) GetPendingPayment(_ context.Context, gatewayOrderID string) (models.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[gatewayOrderID]
	if !ok {
		return models.PendingPayment{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) DeletePendingPayment(_ context.Context, gatewayOrderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[gatewayOrderID]; !ok {
		return ErrNotFound
	}
	delete(s.pending, gatewayOrderID)
	return nil
}

func (s *MemoryStore) PromotePendingPayment(_ context.Context, order models.Order) (models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer delete(s.pending, order.GatewayOrderID)

	for _, existing := range s.orders {
		if existing.GatewayOrderID == order.GatewayOrderID {
			return cloneOrder(existing), false, nil
		}
	}

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.orders[order.ID] = cloneOrder(order)
	return order, true, nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) GetOrderByGatewayID(_ context.Context, gatewayOrderID string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.GatewayOrderID == gatewayOrderID {
			return cloneOrder(o), nil
		}
	}
	return models.Order{}, ErrNotFound
}

func (s *MemoryStore) ListOrdersByUser(_ context.Context, userID string, status models.PaymentStatus) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Order, 0)
	for _, o := range s.orders {
		if o.UserID != userID {
			continue
		}
		if status != "" && o.PaymentStatus != status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListOrders(_ context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if filter.OrderStatus != "" && o.OrderStatus != filter.OrderStatus {
			continue
		}
		all = append(all, cloneOrder(o))
	}
	sortNewestFirst(all)
	total := int64(len(all))

	if filter.Limit <= 0 {
		return all, total, nil
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * filter.Limit
	if start >= total {
		return []models.Order{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *MemoryStore) UpdateOrder(_ context.Context, id primitive.ObjectID, update models.OrderUpdate) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	o.UpdatedAt = update.UpdatedAt
	if update.OrderStatus != nil {
		o.OrderStatus = *update.OrderStatus
	}
	if update.PaymentStatus != nil {
		o.PaymentStatus = *update.PaymentStatus
	}
	if update.PaidAt != nil {
		paidAt := *update.PaidAt
		o.PaidAt = &paidAt
	}
	if update.Carrier != nil {
		o.Carrier = *update.Carrier
	}
	s.orders[id] = cloneOrder(o)
	return cloneOrder(o), nil
}

func sortNewestFirst(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID.Hex() > orders[j].ID.Hex()
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderItem(nil), o.Items...)
	return o
}
