package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/ordernotify/services/notification/internal/metrics"
)

var ErrSessionNotFound = errors.New("notification session not found")

// Options tune every session opened by a SessionManager.
type Options struct {
	PollInterval     time.Duration
	MaxNotifications int
	Dedupe           bool
}

func DefaultOptions() Options {
	return Options{
		PollInterval:     DefaultPollInterval,
		MaxNotifications: DefaultMaxNotifications,
		Dedupe:           true,
	}
}

// LoadOptions reads the notifications.* keys, keeping defaults for missing or
// unparsable values.
func LoadOptions(config *apt.Config, logger apt.Logger) Options {
	opts := DefaultOptions()
	if config == nil {
		return opts
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	if v, ok := config.GetString("notifications.poll.interval"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			opts.PollInterval = d
		} else {
			logger.Info("invalid poll interval, using default", "value", v, "default", opts.PollInterval.String())
		}
	}

	if v, ok := config.GetString("notifications.max"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.MaxNotifications = n
		} else {
			logger.Info("invalid notifications max, using default", "value", v, "default", opts.MaxNotifications)
		}
	}

	if v, ok := config.GetString("notifications.dedupe"); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			opts.Dedupe = b
		}
	}

	return opts
}

// SessionDeps are the collaborators shared by every session.
type SessionDeps struct {
	Subscriber events.Subscriber
	Orders     OrderQuery
	Archive    Archive
}

// Session is the notification state of one signed-in user. It is created on
// login and torn down on logout.
type Session struct {
	UserID   string
	Store    *Store
	Registry *StatusRegistry
	Intake   *Intake
	Listener *PushListener
	Poller   *Poller

	cancel context.CancelFunc
	logger apt.Logger
}

func NewSession(userID string, deps SessionDeps, opts Options, logger apt.Logger) *Session {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	logger = logger.With("user_id", userID)

	var notified *NotifiedSet
	if opts.Dedupe {
		notified = NewNotifiedSet()
	}

	store := NewStore(userID, opts.MaxNotifications, deps.Archive, logger)
	registry := NewStatusRegistry()
	intake := NewIntake(store, notified, logger)

	return &Session{
		UserID:   userID,
		Store:    store,
		Registry: registry,
		Intake:   intake,
		Listener: NewPushListener(deps.Subscriber, userID, intake, logger),
		Poller:   NewPoller(deps.Orders, registry, intake, userID, opts.PollInterval, logger),
		logger:   logger,
	}
}

// Start attaches both channels. A channel that cannot start is logged and
// skipped; the other one keeps the session useful.
func (s *Session) Start(ctx context.Context) error {
	sctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	if err := s.Listener.Start(sctx); err != nil {
		s.logger.Error("push channel unavailable", "error", err)
	}
	if err := s.Poller.Start(sctx); err != nil {
		s.logger.Error("poll channel unavailable", "error", err)
	}

	s.logger.Info("notification session started")
	return nil
}

// Stop cancels the push subscription and the poll loop and ends live readers.
func (s *Session) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	err := s.Poller.Stop(ctx)
	s.Store.Close()
	s.logger.Info("notification session stopped")
	return err
}

// SessionManager keeps one session per user id.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	deps     SessionDeps
	opts     Options
	logger   apt.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSessionManager(deps SessionDeps, opts Options, logger apt.Logger) *SessionManager {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionManager{
		sessions: make(map[string]*Session),
		deps:     deps,
		opts:     opts,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Open returns the session of userID, starting one if needed.
func (m *SessionManager) Open(userID string) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("missing user id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}
	if m.ctx.Err() != nil {
		return nil, fmt.Errorf("session manager stopped")
	}

	s := NewSession(userID, m.deps, m.opts, m.logger)
	if err := s.Start(m.ctx); err != nil {
		return nil, fmt.Errorf("cannot start session for %s: %w", userID, err)
	}
	m.sessions[userID] = s
	metrics.Sessions.Set(float64(len(m.sessions)))
	return s, nil
}

func (m *SessionManager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[strings.TrimSpace(userID)]
	return s, ok
}

// Close stops and forgets the session of userID.
func (m *SessionManager) Close(ctx context.Context, userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[strings.TrimSpace(userID)]
	if ok {
		delete(m.sessions, s.UserID)
		metrics.Sessions.Set(float64(len(m.sessions)))
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	return s.Stop(ctx)
}

func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Start is a no-op for lifecycle compatibility.
func (m *SessionManager) Start(ctx context.Context) error {
	m.logger.Info("session manager ready", "poll_interval", m.opts.PollInterval.String(), "dedupe", m.opts.Dedupe)
	return nil
}

// Stop closes every open session.
func (m *SessionManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	metrics.Sessions.Set(0)
	m.mu.Unlock()

	m.cancel()

	var errs []error
	for _, s := range sessions {
		if err := s.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
