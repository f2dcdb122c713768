package notification

import (
	"context"
	"errors"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"
)

// MockSubscriber is a mock implementation of events.Subscriber for testing.
// It keeps the registered handlers so tests can push messages by hand.
type MockSubscriber struct {
	mu            sync.Mutex
	handlers      map[string]events.HandlerFunc
	SubscribeFunc func(ctx context.Context, topic string, handler events.HandlerFunc) error
}

func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{
		handlers: make(map[string]events.HandlerFunc),
	}
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler events.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

// Deliver invokes the handler subscribed to topic.
func (m *MockSubscriber) Deliver(ctx context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if !ok {
		return errors.New("no handler for topic " + topic)
	}
	return handler(ctx, msg)
}

func (m *MockSubscriber) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var topics []string
	for topic := range m.handlers {
		topics = append(topics, topic)
	}
	return topics
}

// MockOrderQuery is a mock implementation of OrderQuery for testing.
type MockOrderQuery struct {
	mu     sync.Mutex
	orders []OrderSnapshot
	err    error
	calls  int

	ListByUserFunc func(ctx context.Context, userID string) ([]OrderSnapshot, error)
}

func NewMockOrderQuery(orders ...OrderSnapshot) *MockOrderQuery {
	return &MockOrderQuery{orders: orders}
}

func (m *MockOrderQuery) ListByUser(ctx context.Context, userID string) ([]OrderSnapshot, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]OrderSnapshot, len(m.orders))
	copy(out, m.orders)
	return out, nil
}

func (m *MockOrderQuery) SetOrders(orders ...OrderSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = orders
	m.err = nil
}

func (m *MockOrderQuery) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockOrderQuery) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockArchive is a mock implementation of Archive for testing.
type MockArchive struct {
	mu      sync.Mutex
	saved   []Notification
	read    []uuid.UUID
	SaveErr error
	ReadErr error
}

func NewMockArchive() *MockArchive {
	return &MockArchive{}
}

func (m *MockArchive) Save(ctx context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.saved = append(m.saved, n)
	return nil
}

func (m *MockArchive) MarkRead(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return m.ReadErr
	}
	m.read = append(m.read, id)
	return nil
}

func (m *MockArchive) Saved() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.saved...)
}

func (m *MockArchive) Read() []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uuid.UUID(nil), m.read...)
}

// MockHistory is a mock implementation of History for testing.
type MockHistory struct {
	ListByUserFunc func(ctx context.Context, userID string, limit int64) ([]Notification, error)
}

func (m *MockHistory) ListByUser(ctx context.Context, userID string, limit int64) ([]Notification, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit)
	}
	return nil, nil
}

// MockLogger is a no-op apt.Logger that keeps the fields passed to With.
type MockLogger struct {
	mu     sync.Mutex
	fields []interface{}
}

func (m *MockLogger) Debug(v ...any) {}
func (m *MockLogger) Debugf(format string, a ...any) {}
func (m *MockLogger) Info(v ...any) {}
func (m *MockLogger) Infof(format string, a ...any) {}
func (m *MockLogger) Error(v ...any) {}
func (m *MockLogger) Errorf(format string, a ...any) {}
func (m *MockLogger) SetLogLevel(level apt.LogLevel) {}

func (m *MockLogger) With(args ...any) apt.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields = append(m.fields, args...)
	return m
}

// Field returns the last value logged under key.
func (m *MockLogger) Field(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.fields) - 2; i >= 0; i -= 2 {
		if m.fields[i] == key {
			return m.fields[i+1], true
		}
	}
	return nil, false
}
