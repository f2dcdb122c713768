package notification

import (
	"context"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/ordernotify/pkg/enums/orderstatus"
	"github.com/appetiteclub/ordernotify/services/notification/internal/metrics"
)

// NotifiedSet records the last status notified per order. Push and poll
// consult it so one transition seen by both channels is reported once.
type NotifiedSet struct {
	mu   sync.Mutex
	last map[string]orderstatus.Status
}

func NewNotifiedSet() *NotifiedSet {
	return &NotifiedSet{
		last: make(map[string]orderstatus.Status),
	}
}

// Claim returns true and records status when it differs from the last status
// notified for orderID.
func (s *NotifiedSet) Claim(orderID string, status orderstatus.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.last[orderID]; ok && prev == status {
		return false
	}
	s.last[orderID] = status
	return true
}

// Intake is the single entry point both channels feed. A nil NotifiedSet
// disables deduplication.
type Intake struct {
	store    *Store
	notified *NotifiedSet
	logger   apt.Logger
}

func NewIntake(store *Store, notified *NotifiedSet, logger apt.Logger) *Intake {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Intake{
		store:    store,
		notified: notified,
		logger:   logger,
	}
}

// Deliver turns a change into a stored notification. It reports false when
// the status has no copy or the change was already notified.
func (i *Intake) Deliver(ctx context.Context, c Change, source Source) (Notification, bool) {
	in, ok := Compose(c)
	if !ok {
		i.logger.Debug("no notification for status", "order_id", c.OrderID, "status", c.Status.Code(), "source", string(source))
		return Notification{}, false
	}

	if i.notified != nil && !i.notified.Claim(c.OrderID, c.Status) {
		metrics.NotificationsDeduplicated.WithLabelValues(string(source)).Inc()
		i.logger.Debug("status already notified", "order_id", c.OrderID, "status", c.Status.Code(), "source", string(source))
		return Notification{}, false
	}

	n := i.store.Add(ctx, in)
	metrics.NotificationsCreated.WithLabelValues(string(n.Type), string(source)).Inc()
	i.logger.Info("notification created",
		"notification_id", n.ID.String(),
		"order_id", n.OrderID,
		"type", string(n.Type),
		"source", string(source),
	)
	return n, true
}
