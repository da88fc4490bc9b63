package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"orderbackend/internal/models"
)

// codeIllegalOperation is what a standalone server answers to transaction commands.
const codeIllegalOperation = 20

type MongoStore struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewMongoStore(db *mongo.Database, logger *slog.Logger) *MongoStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoStore{db: db, logger: logger}
}

func (s *MongoStore) products() *mongo.Collection {
	return s.db.Collection(ProductsCollection)
}

func (s *MongoStore) pending() *mongo.Collection {
	return s.db.Collection(PendingPaymentsCollection)
}

func (s *MongoStore) orders() *mongo.Collection {
	return s.db.Collection(OrdersCollection)
}

func (s *MongoStore) GetProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	var product models.Product
	err := s.products().FindOne(ctx, bson.M{
		"_id":       id,
		"isDeleted": bson.M{"$ne": true},
	}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("find product %s: %w", id.Hex(), err)
	}
	return product, nil
}

func (s *MongoStore) SavePendingPayment(ctx context.Context, p models.PendingPayment) error {
	_, err := s.pending().ReplaceOne(ctx, bson.M{"_id": p.GatewayOrderID}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save pending payment %s: %w", p.GatewayOrderID, err)
	}
	return nil
}

func (s *MongoStore) GetPendingPayment(ctx context.Context, gatewayOrderID string) (models.PendingPayment, error) {
	var p models.PendingPayment
	err := s.pending().FindOne(ctx, bson.M{"_id": gatewayOrderID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.PendingPayment{}, ErrNotFound
	}
	if err != nil {
		return models.PendingPayment{}, fmt.Errorf("find pending payment %s: %w", gatewayOrderID, err)
	}
	return p, nil
}

func (s *MongoStore) DeletePendingPayment(ctx context.Context, gatewayOrderID string) error {
	res, err := s.pending().DeleteOne(ctx, bson.M{"_id": gatewayOrderID})
	if err != nil {
		return fmt.Errorf("delete pending payment %s: %w", gatewayOrderID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) PromotePendingPayment(ctx context.Context, order models.Order) (models.Order, bool, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}

	session, err := s.db.Client().StartSession()
	if err != nil {
		return models.Order{}, false, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	type outcome struct {
		order   models.Order
		created bool
	}
	result, err := session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		stored, created, err := s.insertOrderIfAbsent(sessCtx, order)
		if err != nil {
			return nil, err
		}
		if _, err := s.pending().DeleteOne(sessCtx, bson.M{"_id": order.GatewayOrderID}); err != nil {
			return nil, err
		}
		return outcome{order: stored, created: created}, nil
	})
	if err == nil {
		out := result.(outcome)
		return out.order, out.created, nil
	}
	if !transactionsUnsupported(err) {
		return models.Order{}, false, fmt.Errorf("promote pending payment %s: %w", order.GatewayOrderID, err)
	}

	s.logger.Warn("transactions unsupported, promoting without one", "gateway_order_id", order.GatewayOrderID)
	stored, created, err := s.insertOrderIfAbsent(ctx, order)
	if err != nil {
		return models.Order{}, false, fmt.Errorf("promote pending payment %s: %w", order.GatewayOrderID, err)
	}
	if err := s.DeletePendingPayment(ctx, order.GatewayOrderID); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn("pending payment cleanup failed", "gateway_order_id", order.GatewayOrderID, "error", err)
	}
	return stored, created, nil
}

// insertOrderIfAbsent upserts keyed by gateway order id so a replay never adds a
// second order.
func (s *MongoStore) insertOrderIfAbsent(ctx context.Context, order models.Order) (models.Order, bool, error) {
	res, err := s.orders().UpdateOne(
		ctx,
		bson.M{"gatewayOrderId": order.GatewayOrderID},
		bson.M{"$setOnInsert": order},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return models.Order{}, false, err
	}
	if err == nil && res.UpsertedCount == 1 {
		return order, true, nil
	}

	existing, err := s.GetOrderByGatewayID(ctx, order.GatewayOrderID)
	if err != nil {
		return models.Order{}, false, err
	}
	return existing, false, nil
}

func transactionsUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == codeIllegalOperation
	}
	return false
}

func (s *MongoStore) findOrder(ctx context.Context, filter bson.M) (models.Order, error) {
	var order models.Order
	err := s.orders().FindOne(ctx, filter).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (s *MongoStore) GetOrder(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	return s.findOrder(ctx, bson.M{"_id": id})
}

func (s *MongoStore) GetOrderByGatewayID(ctx context.Context, gatewayOrderID string) (models.Order, error) {
	return s.findOrder(ctx, bson.M{"gatewayOrderId": gatewayOrderID})
}

func (s *MongoStore) ListOrdersByUser(ctx context.Context, userID string, status models.PaymentStatus) ([]models.Order, error) {
	filter := bson.M{"userId": userID}
	if status != "" {
		filter["paymentStatus"] = status
	}
	cursor, err := s.orders().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list orders for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func (s *MongoStore) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	query := bson.M{}
	if filter.OrderStatus != "" {
		query["orderStatus"] = filter.OrderStatus
	}

	total, err := s.orders().CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		findOptions.SetSkip((page - 1) * filter.Limit).SetLimit(filter.Limit)
	}

	cursor, err := s.orders().Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("decode orders: %w", err)
	}
	return orders, total, nil
}

func (s *MongoStore) UpdateOrder(ctx context.Context, id primitive.ObjectID, update models.OrderUpdate) (models.Order, error) {
	set := bson.M{"updatedAt": update.UpdatedAt}
	if update.OrderStatus != nil {
		set["orderStatus"] = *update.OrderStatus
	}
	if update.PaymentStatus != nil {
		set["paymentStatus"] = *update.PaymentStatus
	}
	if update.PaidAt != nil {
		set["paidAt"] = *update.PaidAt
	}
	if update.Carrier != nil {
		set["carrier"] = *update.Carrier
	}

	var order models.Order
	err := s.orders().FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("update order %s: %w", id.Hex(), err)
	}
	return order, nil
}
