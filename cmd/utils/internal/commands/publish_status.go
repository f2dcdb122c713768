package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/ordernotify/pkg"
	"github.com/appetiteclub/ordernotify/pkg/enums/orderstatus"
	"github.com/appetiteclub/ordernotify/pkg/event"
)

// PublishStatus pushes one order status event, the way the order service
// does, so a running notification session can be exercised by hand.
func PublishStatus(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	evt, err := statusEventFromConfig(config)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}

	publisher, err := pkg.NewNATSPublisher(config.GetStringOrDef("nats.url", "nats://localhost:4222"))
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer publisher.Close()

	subject := event.OrderStatusSubject(evt.UserID)
	if err := publisher.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}

	logger.Info("Status event published", "subject", subject, "order_id", evt.OrderID, "status", evt.Status)
	return nil
}

func statusEventFromConfig(config *apt.Config) (event.OrderStatusEvent, error) {
	userID, _ := config.GetString("publish.user")
	orderID, _ := config.GetString("publish.order")
	rawStatus, _ := config.GetString("publish.status")

	if userID == "" || orderID == "" {
		return event.OrderStatusEvent{}, fmt.Errorf("publish.user and publish.order are required")
	}

	status, ok := orderstatus.Parse(rawStatus)
	if !ok {
		return event.OrderStatusEvent{}, fmt.Errorf("invalid publish.status %q", rawStatus)
	}

	return event.OrderStatusEvent{
		EventType:      event.EventOrderStatusChanged,
		OccurredAt:     time.Now().UTC(),
		OrderID:        orderID,
		UserID:         userID,
		Status:         status.Code(),
		Reason:         config.GetStringOrDef("publish.reason", ""),
		RestaurantName: config.GetStringOrDef("publish.restaurant", ""),
	}, nil
}
