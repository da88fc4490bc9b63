package database

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"orderbackend/internal/store"
)

func EnsureOrderIndexes(db *mongo.Database, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection(store.OrdersCollection).Indexes()

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("userId_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "gatewayOrderId", Value: 1}},
			Options: options.Index().SetName("gatewayOrderId_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "orderStatus", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("orderStatus_createdAt"),
		},
	}

	logger.Info("creating order indexes", "count", len(models))
	names, err := indexes.CreateMany(ctx, models)
	if err != nil {
		logger.Error("order index error", "error", err)
		return err
	}
	logger.Info("order indexes ready", "names", names)
	return nil
}

// EnsurePendingPaymentIndexes expires abandoned checkouts after retention.
func EnsurePendingPaymentIndexes(db *mongo.Database, retention time.Duration, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection(store.PendingPaymentsCollection).Indexes()

	ttlIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().
			SetName("createdAt_ttl").
			SetExpireAfterSeconds(int32(retention / time.Second)),
	}

	logger.Info("creating pending payment ttl index", "retention", retention)
	if _, err := indexes.CreateOne(ctx, ttlIndex); err != nil {
		logger.Error("pending payment index error", "error", err)
		return err
	}
	return nil
}
