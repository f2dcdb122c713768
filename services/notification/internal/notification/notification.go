package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies a notification for the clients that render it.
type Type string

const (
	TypeOrderAccepted  Type = "ORDER_ACCEPTED"
	TypeOrderConfirmed Type = "ORDER_CONFIRMED"
	TypeOrderCompleted Type = "ORDER_COMPLETED"
	TypeOrderRejected  Type = "ORDER_REJECTED"
)

// Source names the channel that detected a status change.
type Source string

const (
	SourcePush Source = "push"
	SourcePoll Source = "poll"
)

// Notification is immutable once created, except for Read.
type Notification struct {
	ID             uuid.UUID `json:"id" bson:"_id"`
	UserID         string    `json:"user_id" bson:"user_id"`
	Type           Type      `json:"type" bson:"type"`
	Title          string    `json:"title" bson:"title"`
	Message        string    `json:"message" bson:"message"`
	OrderID        string    `json:"order_id" bson:"order_id"`
	RestaurantName string    `json:"restaurant_name" bson:"restaurant_name"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	Read           bool      `json:"read" bson:"read"`
}

func (n *Notification) GetID() uuid.UUID {
	return n.ID
}

func (n *Notification) ResourceType() string {
	return "notification"
}

// Input carries the fully resolved copy for a notification that is about to
// be stored.
type Input struct {
	Type           Type
	Title          string
	Message        string
	OrderID        string
	RestaurantName string
}
