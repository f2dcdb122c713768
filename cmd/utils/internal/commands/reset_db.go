package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
)

// ResetDB drops the notification archive database - USE WITH CAUTION
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	dbName := databaseName(config)
	logger.Infof("⚠️  DANGER: This will drop the %s database!", dbName)
	logger.Infof("⚠️  This action cannot be undone!")

	client, err := connectMongo(ctx, config, logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	logger.Info("Dropping database", "database", dbName)
	result := client.Database(dbName).RunCommand(ctx, bson.D{{Key: "dropDatabase", Value: 1}})
	if result.Err() != nil {
		return fmt.Errorf("drop database %s: %w", dbName, result.Err())
	}

	logger.Info("Database dropped", "database", dbName)
	return nil
}
