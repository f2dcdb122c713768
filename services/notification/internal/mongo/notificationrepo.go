package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/ordernotify/services/notification/internal/notification"
)

const NotificationsCollection = "notifications"

// NotificationRepo archives notifications. It implements notification.Archive.
type NotificationRepo struct {
	collection *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) *NotificationRepo {
	return &NotificationRepo{
		collection: db.Collection(NotificationsCollection),
	}
}

// EnsureIndexes creates the per-user listing index.
func (r *NotificationRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("cannot create notification indexes: %w", err)
	}
	return nil
}

func (r *NotificationRepo) Save(ctx context.Context, n notification.Notification) error {
	filter := bson.M{"_id": n.ID}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, filter, n, opts); err != nil {
		return fmt.Errorf("cannot save notification: %w", err)
	}
	return nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	update := bson.M{"$set": bson.M{"read": true, "read_at": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("cannot mark notification read: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

// ListByUser returns up to limit archived notifications of userID, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]notification.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var result []notification.Notification
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode notifications: %w", err)
	}
	return result, nil
}
