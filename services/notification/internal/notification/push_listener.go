package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/ordernotify/pkg/event"
	"github.com/appetiteclub/ordernotify/services/notification/internal/metrics"
)

// PushListener turns order status events pushed for one user into
// notifications. Every recognized status is notified: the order service only
// publishes on an actual change.
type PushListener struct {
	subscriber events.Subscriber
	userID     string
	intake     *Intake
	logger     apt.Logger
}

func NewPushListener(sub events.Subscriber, userID string, intake *Intake, logger apt.Logger) *PushListener {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &PushListener{
		subscriber: sub,
		userID:     userID,
		intake:     intake,
		logger:     logger,
	}
}

// Start subscribes to the user's status subject until ctx is done.
func (l *PushListener) Start(ctx context.Context) error {
	if l.subscriber == nil {
		return fmt.Errorf("push listener not configured")
	}
	topic := event.OrderStatusSubject(l.userID)
	l.log().Info("starting push listener", "topic", topic)
	if err := l.subscriber.Subscribe(ctx, topic, l.handleEvent); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return nil
}

// pushEnvelope accepts both a bare event and one wrapped in "data".
type pushEnvelope struct {
	event.OrderStatusEvent
	Data *event.OrderStatusEvent `json:"data,omitempty"`
}

func (l *PushListener) handleEvent(ctx context.Context, msg []byte) error {
	var env pushEnvelope
	if err := json.Unmarshal(msg, &env); err != nil {
		l.drop("invalid_payload", "error", err)
		return nil
	}

	evt := env.OrderStatusEvent
	if env.Data != nil {
		evt = *env.Data
	}

	orderID := strings.TrimSpace(evt.OrderID)
	if orderID == "" || strings.TrimSpace(evt.Status) == "" {
		l.drop("missing_fields", "order_id", evt.OrderID, "status", evt.Status)
		return nil
	}

	if evt.UserID != "" && evt.UserID != l.userID {
		l.drop("foreign_user", "order_id", orderID, "event_user_id", evt.UserID)
		return nil
	}

	// The subscription drains asynchronously; a message that arrives after
	// the session stopped must not reach the store.
	if ctx.Err() != nil {
		l.drop("session_closed", "order_id", orderID)
		return nil
	}

	change := Change{
		OrderID:        orderID,
		Status:         normalizeStatus(evt.Status),
		RestaurantName: evt.RestaurantName,
		Reason:         evt.Reason,
	}

	if _, ok := l.intake.Deliver(ctx, change, SourcePush); !ok {
		l.log().Debug("push event produced no notification", "order_id", orderID, "status", change.Status.Code())
	}
	return nil
}

func (l *PushListener) drop(reason string, keyvals ...interface{}) {
	metrics.PushEventsDropped.WithLabelValues(reason).Inc()
	kv := append([]interface{}{"dropping push event", "reason", reason}, keyvals...)
	l.log().Debug(kv...)
}

func (l *PushListener) log() apt.Logger {
	return l.logger.With("component", "PushListener", "user_id", l.userID)
}
