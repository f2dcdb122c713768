package notification

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

const DefaultMaxNotifications = 200

// Archive keeps a durable copy of notifications. It is optional and
// best-effort: failures are logged and never reach the caller.
type Archive interface {
	Save(ctx context.Context, n Notification) error
	MarkRead(ctx context.Context, id uuid.UUID) error
}

// Store holds the notifications of one user session, newest first.
type Store struct {
	mu          sync.RWMutex
	userID      string
	items       []Notification
	max         int
	subscribers map[string]chan Notification
	closed      bool

	archive Archive
	now     func() time.Time
	logger  apt.Logger
}

// NewStore creates a store capped at max entries. A max <= 0 disables the cap.
func NewStore(userID string, max int, archive Archive, logger apt.Logger) *Store {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Store{
		userID:      userID,
		max:         max,
		subscribers: make(map[string]chan Notification),
		archive:     archive,
		now:         time.Now,
		logger:      logger,
	}
}

// Add stores a new unread notification built from in and returns it.
func (s *Store) Add(ctx context.Context, in Input) Notification {
	n := Notification{
		ID:             apt.GenerateNewID(),
		UserID:         s.userID,
		Type:           in.Type,
		Title:          in.Title,
		Message:        in.Message,
		OrderID:        in.OrderID,
		RestaurantName: in.RestaurantName,
		CreatedAt:      s.now(),
	}

	s.mu.Lock()
	s.items = append([]Notification{n}, s.items...)
	s.truncateLocked()
	s.broadcastLocked(n)
	s.mu.Unlock()

	if s.archive != nil {
		if err := s.archive.Save(ctx, n); err != nil {
			s.logger.Error("cannot archive notification", "notification_id", n.ID.String(), "error", err)
		}
	}

	return n
}

// truncateLocked drops the oldest read entry first, then the oldest entry.
func (s *Store) truncateLocked() {
	for s.max > 0 && len(s.items) > s.max {
		victim := len(s.items) - 1
		for i := len(s.items) - 1; i >= 0; i-- {
			if s.items[i].Read {
				victim = i
				break
			}
		}
		s.items = append(s.items[:victim], s.items[victim+1:]...)
	}
}

// List returns a copy of the notifications, newest first.
func (s *Store) List() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Get(id uuid.UUID) (Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.items {
		if n.ID == id {
			return n, true
		}
	}
	return Notification{}, false
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// MarkRead flags the notification as read. It reports whether id exists;
// marking an already read notification changes nothing.
func (s *Store) MarkRead(ctx context.Context, id uuid.UUID) bool {
	s.mu.Lock()
	found, changed := false, false
	for i := range s.items {
		if s.items[i].ID == id {
			found = true
			changed = !s.items[i].Read
			s.items[i].Read = true
			break
		}
	}
	s.mu.Unlock()

	if changed {
		s.archiveRead(ctx, id)
	}
	return found
}

// MarkAllRead flags every notification as read and returns how many changed.
func (s *Store) MarkAllRead(ctx context.Context) int {
	s.mu.Lock()
	var ids []uuid.UUID
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			ids = append(ids, s.items[i].ID)
		}
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.archiveRead(ctx, id)
	}
	return len(ids)
}

func (s *Store) archiveRead(ctx context.Context, id uuid.UUID) {
	if s.archive == nil {
		return
	}
	if err := s.archive.MarkRead(ctx, id); err != nil {
		s.logger.Error("cannot mark archived notification as read", "notification_id", id.String(), "error", err)
	}
}

// Subscribe returns a channel receiving every notification added from now on.
// Slow subscribers miss notifications rather than blocking Add.
func (s *Store) Subscribe(subscriberID string) <-chan Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Notification, 16)
	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers[subscriberID] = ch
	return ch
}

func (s *Store) Unsubscribe(subscriberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[subscriberID]; ok {
		close(ch)
		delete(s.subscribers, subscriberID)
	}
}

func (s *Store) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Close ends every subscription. Notifications can still be added and read.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.closed = true
}

func (s *Store) broadcastLocked(n Notification) {
	for subscriberID, ch := range s.subscribers {
		select {
		case ch <- n:
		default:
			s.logger.Info("subscriber channel full, dropping notification", "subscriber_id", subscriberID)
		}
	}
}
