package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/ordernotify/pkg/enums/orderstatus"
	"github.com/appetiteclub/ordernotify/services/notification/internal/metrics"
)

const DefaultPollInterval = 30 * time.Second

// OrderSnapshot is one order as currently reported by the order service.
type OrderSnapshot struct {
	OrderID        string
	Status         string
	RestaurantName string
}

// OrderQuery lists the current orders of a user. It must be safe to call
// repeatedly.
type OrderQuery interface {
	ListByUser(ctx context.Context, userID string) ([]OrderSnapshot, error)
}

// Poller reconciles the user's orders on a fixed interval and notifies the
// transitions the push channel may have missed.
type Poller struct {
	query    OrderQuery
	registry *StatusRegistry
	intake   *Intake
	userID   string
	interval time.Duration
	logger   apt.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(query OrderQuery, registry *StatusRegistry, intake *Intake, userID string, interval time.Duration, logger apt.Logger) *Poller {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		query:    query,
		registry: registry,
		intake:   intake,
		userID:   userID,
		interval: interval,
		logger:   logger,
	}
}

// Start runs one cycle right away and then one per interval, until Stop is
// called or ctx is done.
func (p *Poller) Start(ctx context.Context) error {
	if p.query == nil {
		return fmt.Errorf("order query not configured")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(loopCtx, p.done)

	p.log().Info("poller started", "interval", p.interval.String())
	return nil
}

// Stop cancels the loop and waits for it to exit, bounded by ctx.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		p.log().Info("poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	_ = p.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.RunCycle(ctx)
		}
	}
}

// RunCycle fetches the orders once and compares them with the registry. On
// fetch failure the registry is left untouched and nothing is notified.
func (p *Poller) RunCycle(ctx context.Context) error {
	orders, err := p.query.ListByUser(ctx, p.userID)

	// A response that lands after teardown must not touch session state.
	if ctxErr := ctx.Err(); ctxErr != nil {
		metrics.PollCycles.WithLabelValues("discarded").Inc()
		p.log().Debug("session closed, discarding poll cycle", "fetch_error", err)
		return ctxErr
	}

	if err != nil {
		metrics.PollCycles.WithLabelValues("error").Inc()
		p.log().Error("cannot fetch orders", "error", err)
		return fmt.Errorf("poll orders for user %s: %w", p.userID, err)
	}

	snapshot := make(map[string]orderstatus.Status, len(orders))
	notified := 0
	for _, o := range orders {
		orderID := strings.TrimSpace(o.OrderID)
		if orderID == "" {
			p.log().Debug("skipping order without id")
			continue
		}

		curr := normalizeStatus(o.Status)
		prev, seen := snapshot[orderID]
		if !seen {
			prev, seen = p.registry.Get(orderID)
		}

		if seen && prev != curr && Forward(prev, curr) {
			change := Change{
				OrderID:        orderID,
				Status:         curr,
				RestaurantName: o.RestaurantName,
			}
			if _, ok := p.intake.Deliver(ctx, change, SourcePoll); ok {
				notified++
			}
		}

		snapshot[orderID] = curr
	}

	p.registry.Replace(snapshot)
	metrics.PollCycles.WithLabelValues("ok").Inc()
	p.log().Debug("poll cycle done", "orders", len(snapshot), "notified", notified)
	return nil
}

func (p *Poller) log() apt.Logger {
	return p.logger.With("component", "Poller", "user_id", p.userID)
}
