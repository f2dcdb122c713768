package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/appetiteclub/ordernotify/pkg/enums/orderstatus"
)

func newTestPoller(query OrderQuery, dedupe bool) (*Poller, *StatusRegistry, *Store) {
	store := NewStore("user-1", 0, nil, nil)
	registry := NewStatusRegistry()
	var notified *NotifiedSet
	if dedupe {
		notified = NewNotifiedSet()
	}
	intake := NewIntake(store, notified, nil)
	return NewPoller(query, registry, intake, "user-1", 10*time.Millisecond, nil), registry, store
}

func TestPollerRunCycle(t *testing.T) {
	s := orderstatus.Statuses

	tests := []struct {
		name         string
		registry     map[string]orderstatus.Status
		orders       []OrderSnapshot
		wantTypes    []Type
		wantRegistry map[string]orderstatus.Status
	}{
		{
			name:         "pendingToConfirmed",
			registry:     map[string]orderstatus.Status{"A": s.Pending},
			orders:       []OrderSnapshot{{OrderID: "A", Status: "CONFIRMED", RestaurantName: "Pizza Nova"}},
			wantTypes:    []Type{TypeOrderAccepted},
			wantRegistry: map[string]orderstatus.Status{"A": s.Confirmed},
		},
		{
			name:         "unchanged",
			registry:     map[string]orderstatus.Status{"A": s.Confirmed},
			orders:       []OrderSnapshot{{OrderID: "A", Status: "CONFIRMED"}},
			wantTypes:    nil,
			wantRegistry: map[string]orderstatus.Status{"A": s.Confirmed},
		},
		{
			name:         "firstSightingIsSilent",
			registry:     map[string]orderstatus.Status{},
			orders:       []OrderSnapshot{{OrderID: "A", Status: "READY"}},
			wantTypes:    nil,
			wantRegistry: map[string]orderstatus.Status{"A": s.Ready},
		},
		{
			name:         "backwardIgnoredButRecorded",
			registry:     map[string]orderstatus.Status{"A": s.Ready},
			orders:       []OrderSnapshot{{OrderID: "A", Status: "PREPARING"}},
			wantTypes:    nil,
			wantRegistry: map[string]orderstatus.Status{"A": s.Preparing},
		},
		{
			name:         "skippedStatusTolerated",
			registry:     map[string]orderstatus.Status{"A": s.Confirmed},
			orders:       []OrderSnapshot{{OrderID: "A", Status: "READY"}},
			wantTypes:    []Type{TypeOrderConfirmed},
			wantRegistry: map[string]orderstatus.Status{"A": s.Ready},
		},
		{
			name:         "cancelledFromAnywhere",
			registry:     map[string]orderstatus.Status{"A": s.Preparing},
			orders:       []OrderSnapshot{{OrderID: "A", Status: "CANCELLED"}},
			wantTypes:    []Type{TypeOrderRejected},
			wantRegistry: map[string]orderstatus.Status{"A": s.Cancelled},
		},
		{
			name:         "absentOrdersDropped",
			registry:     map[string]orderstatus.Status{"A": s.Pending, "B": s.Ready},
			orders:       []OrderSnapshot{{OrderID: "A", Status: "PENDING"}},
			wantTypes:    nil,
			wantRegistry: map[string]orderstatus.Status{"A": s.Pending},
		},
		{
			name:     "ordersWithoutIDSkipped",
			registry: map[string]orderstatus.Status{},
			orders: []OrderSnapshot{
				{OrderID: "", Status: "CONFIRMED"},
				{OrderID: "A", Status: "PENDING"},
			},
			wantTypes:    nil,
			wantRegistry: map[string]orderstatus.Status{"A": s.Pending},
		},
		{
			name:     "multipleOrders",
			registry: map[string]orderstatus.Status{"A": s.Pending, "B": s.Ready},
			orders: []OrderSnapshot{
				{OrderID: "A", Status: "confirmed"},
				{OrderID: "B", Status: "completed"},
			},
			wantTypes:    []Type{TypeOrderAccepted, TypeOrderCompleted},
			wantRegistry: map[string]orderstatus.Status{"A": s.Confirmed, "B": s.Completed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poller, registry, store := newTestPoller(NewMockOrderQuery(tt.orders...), true)
			registry.Replace(tt.registry)

			if err := poller.RunCycle(context.Background()); err != nil {
				t.Fatalf("RunCycle() error = %v", err)
			}

			items := store.List()
			if len(items) != len(tt.wantTypes) {
				t.Fatalf("notifications = %d, want %d", len(items), len(tt.wantTypes))
			}
			// List is newest first; wantTypes is in delivery order.
			for i, want := range tt.wantTypes {
				if got := items[len(items)-1-i].Type; got != want {
					t.Errorf("notification %d type = %q, want %q", i, got, want)
				}
			}

			got := registry.Snapshot()
			if len(got) != len(tt.wantRegistry) {
				t.Fatalf("registry = %v, want %v", got, tt.wantRegistry)
			}
			for id, want := range tt.wantRegistry {
				if got[id] != want {
					t.Errorf("registry[%s] = %v, want %v", id, got[id], want)
				}
			}
		})
	}
}

func TestPollerRunCycleFetchError(t *testing.T) {
	query := NewMockOrderQuery()
	query.SetError(errors.New("connection refused"))
	poller, registry, store := newTestPoller(query, true)
	registry.Replace(map[string]orderstatus.Status{"A": orderstatus.Statuses.Pending})

	if err := poller.RunCycle(context.Background()); err == nil {
		t.Fatal("RunCycle() should return the fetch error")
	}

	if store.Len() != 0 {
		t.Errorf("notifications = %d, want 0", store.Len())
	}
	if got, ok := registry.Get("A"); !ok || got != orderstatus.Statuses.Pending || registry.Len() != 1 {
		t.Errorf("registry changed on fetch error: %v", registry.Snapshot())
	}
}

func TestPollerRunCycleDiscardsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	query := NewMockOrderQuery()
	query.ListByUserFunc = func(context.Context, string) ([]OrderSnapshot, error) {
		cancel()
		return []OrderSnapshot{{OrderID: "A", Status: "CONFIRMED"}}, nil
	}
	poller, registry, store := newTestPoller(query, true)
	registry.Replace(map[string]orderstatus.Status{"A": orderstatus.Statuses.Pending})

	if err := poller.RunCycle(ctx); err == nil {
		t.Error("RunCycle() should report the cancellation")
	}
	if store.Len() != 0 {
		t.Error("late response should not produce notifications")
	}
	if got, _ := registry.Get("A"); got != orderstatus.Statuses.Pending {
		t.Errorf("registry[A] = %v, want pending", got)
	}
}

func TestPollerRunCycleFetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	query := NewMockOrderQuery()
	query.ListByUserFunc = func(ctx context.Context, userID string) ([]OrderSnapshot, error) {
		cancel()
		return nil, ctx.Err()
	}
	poller, registry, store := newTestPoller(query, true)
	registry.Replace(map[string]orderstatus.Status{"A": orderstatus.Statuses.Pending})

	err := poller.RunCycle(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunCycle() error = %v, want context.Canceled", err)
	}
	if strings.Contains(err.Error(), "poll orders") {
		t.Errorf("RunCycle() error = %q, should not be reported as a fetch failure", err)
	}
	if store.Len() != 0 {
		t.Errorf("notifications = %d, want 0", store.Len())
	}
	if got, ok := registry.Get("A"); !ok || got != orderstatus.Statuses.Pending || registry.Len() != 1 {
		t.Errorf("registry changed after cancellation: %v", registry.Snapshot())
	}
}

func TestPollerStartStop(t *testing.T) {
	query := NewMockOrderQuery(OrderSnapshot{OrderID: "A", Status: "PENDING"})
	poller, registry, _ := newTestPoller(query, true)

	ctx := context.Background()
	if err := poller.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// A second Start does not spawn another loop.
	if err := poller.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for query.Calls() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if query.Calls() < 3 {
		t.Fatalf("poller ran %d cycles, want at least 3", query.Calls())
	}
	if _, ok := registry.Get("A"); !ok {
		t.Error("first cycle should seed the registry")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := poller.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	calls := query.Calls()
	time.Sleep(50 * time.Millisecond)
	if query.Calls() != calls {
		t.Error("poller kept running after Stop()")
	}

	if err := poller.Stop(stopCtx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestPollerStartWithoutQuery(t *testing.T) {
	poller, _, _ := newTestPoller(nil, true)
	if err := poller.Start(context.Background()); err == nil {
		t.Error("Start() without query should return error")
	}
}

func TestNewPollerDefaultInterval(t *testing.T) {
	poller := NewPoller(NewMockOrderQuery(), NewStatusRegistry(), nil, "user-1", 0, nil)
	if poller.interval != DefaultPollInterval {
		t.Errorf("interval = %v, want %v", poller.interval, DefaultPollInterval)
	}
}
