package seeding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DemoUserID   = "demo-user"
	DemoSeedMark = "demo-seed"
)

// Notification type codes (duplicated from the notification service to avoid coupling)
const (
	TypeOrderAccepted  = "ORDER_ACCEPTED"
	TypeOrderConfirmed = "ORDER_CONFIRMED"
	TypeOrderCompleted = "ORDER_COMPLETED"
	TypeOrderRejected  = "ORDER_REJECTED"
)

type demoNotification struct {
	orderID    string
	restaurant string
	kind       string
	title      string
	message    string
	age        time.Duration
	read       bool
}

var demoNotifications = []demoNotification{
	{"demo-order-1", "Pizza Nova", TypeOrderAccepted, "Order accepted", "Pizza Nova accepted your order.", 90 * time.Minute, true},
	{"demo-order-1", "Pizza Nova", TypeOrderConfirmed, "Order in preparation", "Pizza Nova is preparing your order.", 80 * time.Minute, true},
	{"demo-order-1", "Pizza Nova", TypeOrderConfirmed, "Order ready", "Your order from Pizza Nova is ready for delivery.", 60 * time.Minute, true},
	{"demo-order-1", "Pizza Nova", TypeOrderCompleted, "Order completed", "Your order from Pizza Nova has been delivered. Enjoy!", 40 * time.Minute, false},
	{"demo-order-2", "Sushi Go", TypeOrderAccepted, "Order accepted", "Sushi Go accepted your order.", 20 * time.Minute, false},
	{"demo-order-3", "Taco Libre", TypeOrderRejected, "Order rejected", "Taco Libre could not accept your order. Reason: kitchen closed", 5 * time.Minute, false},
}

// SeedNotifications archives a demo notification history for DemoUserID.
func SeedNotifications(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("notifications")
	now := time.Now().UTC()

	for i, d := range demoNotifications {
		// Stable ids keep reseeding idempotent.
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", DemoSeedMark, i)))

		doc := bson.M{
			"_id":             id,
			"user_id":         DemoUserID,
			"type":            d.kind,
			"title":           d.title,
			"message":         d.message,
			"order_id":        d.orderID,
			"restaurant_name": d.restaurant,
			"created_at":      now.Add(-d.age),
			"read":            d.read,
			"created_by":      DemoSeedMark,
		}
		if d.read {
			doc["read_at"] = now.Add(-d.age / 2)
		}

		_, err := collection.UpdateOne(
			ctx,
			bson.M{"_id": id},
			bson.M{"$setOnInsert": doc},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("cannot create demo notification for %s: %w", d.orderID, err)
		}
	}

	return nil
}
