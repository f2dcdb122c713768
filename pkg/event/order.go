package event

import (
	"strings"
	"time"
)

const (
	// OrderStatusTopic is the wildcard covering every user's order status subject.
	OrderStatusTopic        = "orders.status.>"
	orderStatusTopicPrefix  = "orders.status."
	EventOrderStatusChanged = "order.status.changed"
)

// OrderStatusEvent is pushed by the order service whenever an order changes
// status. It is published on the subject of the user that owns the order.
type OrderStatusEvent struct {
	EventType      string    `json:"event_type"`
	OccurredAt     time.Time `json:"occurred_at"`
	OrderID        string    `json:"order_id"`
	UserID         string    `json:"user_id,omitempty"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Reason         string    `json:"reason,omitempty"`

	// Denormalized for display
	RestaurantName string `json:"restaurant_name,omitempty"`
}

// OrderStatusSubject returns the subject carrying status events for userID.
func OrderStatusSubject(userID string) string {
	return orderStatusTopicPrefix + sanitizeToken(userID)
}

// sanitizeToken keeps a user id usable as a single NATS subject token.
func sanitizeToken(v string) string {
	r := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_")
	return r.Replace(strings.TrimSpace(v))
}
