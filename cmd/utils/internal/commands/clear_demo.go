package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/ordernotify/cmd/utils/internal/seeding"
	"go.mongodb.org/mongo-driver/bson"
)

// ClearDemo removes seeded notifications and the seed tracker
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo data cleanup...")

	client, err := connectMongo(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	db := client.Database(databaseName(config))

	result, err := db.Collection("notifications").DeleteMany(ctx, bson.M{"created_by": seeding.DemoSeedMark})
	if err != nil {
		return fmt.Errorf("delete demo notifications: %w", err)
	}
	logger.Info("Deleted demo notifications", "count", result.DeletedCount)

	trackerResult, err := db.Collection("_seeds").DeleteOne(ctx, bson.M{"_id": demoSeedID})
	if err != nil {
		return fmt.Errorf("delete notification seed tracker: %w", err)
	}
	logger.Info("Cleared notification seed tracker", "deleted", trackerResult.DeletedCount)

	return nil
}

// ClearNotifications deletes the archived notifications of one user, or of
// every user when clear.user is not set.
func ClearNotifications(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	client, err := connectMongo(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	filter := bson.M{}
	userID, _ := config.GetString("clear.user")
	if userID != "" {
		filter["user_id"] = userID
	} else {
		logger.Infof("⚠️  No clear.user given, removing notifications of every user")
	}

	result, err := client.Database(databaseName(config)).Collection("notifications").DeleteMany(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}

	logger.Info("Deleted archived notifications", "user_id", userID, "count", result.DeletedCount)
	return nil
}
