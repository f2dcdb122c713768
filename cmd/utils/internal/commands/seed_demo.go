package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/ordernotify/cmd/utils/internal/seeding"
	"go.mongodb.org/mongo-driver/bson"
)

const demoSeedID = "demo_notifications_v1"

// SeedDemo archives a demo notification history
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	client, err := connectMongo(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	db := client.Database(databaseName(config))

	seedsCollection := db.Collection("_seeds")
	count, err := seedsCollection.CountDocuments(ctx, bson.M{"_id": demoSeedID})
	if err != nil {
		return fmt.Errorf("check seed status: %w", err)
	}

	if count > 0 {
		logger.Info("Notification demo seeds already applied, skipping")
		return nil
	}

	if err := seeding.SeedNotifications(ctx, db); err != nil {
		return fmt.Errorf("seed notifications: %w", err)
	}

	_, err = seedsCollection.InsertOne(ctx, bson.M{
		"_id":         demoSeedID,
		"description": "Archive a demo notification history for " + seeding.DemoUserID,
		"applied_at":  bson.M{"$currentDate": bson.M{"$type": "timestamp"}},
	})
	if err != nil {
		logger.Infof("⚠️  Failed to mark seed as applied: %v", err)
	}

	logger.Info("Notification demo seeds applied successfully", "user_id", seeding.DemoUserID)
	return nil
}
