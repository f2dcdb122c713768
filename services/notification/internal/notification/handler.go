package notification

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultHistoryLimit = 50

// History reads archived notifications, which outlive sessions.
type History interface {
	ListByUser(ctx context.Context, userID string, limit int64) ([]Notification, error)
}

type Handler struct {
	logger   apt.Logger
	config   *apt.Config
	tlm      *telemetry.HTTP
	sessions *SessionManager
	stream   *SSEHandler
	history  History
}

func NewHandler(sessions *SessionManager, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:   logger,
		config:   config,
		tlm:      telemetry.NewHTTP(),
		sessions: sessions,
		stream:   NewSSEHandler(sessions, logger),
	}
}

// SetHistory enables the history endpoint.
func (h *Handler) SetHistory(history History) {
	h.history = history
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/{userID}", h.OpenSession)
		r.Delete("/{userID}", h.CloseSession)
	})

	r.Route("/users/{userID}/notifications", func(r chi.Router) {
		r.Get("/", h.ListNotifications)
		r.Get("/unread-count", h.UnreadCount)
		r.Get("/history", h.ListHistory)
		r.Get("/stream", h.stream.ServeHTTP)
		r.Put("/read-all", h.MarkAllRead)
		r.Put("/{id}/read", h.MarkRead)
	})

	r.Handle("/internal/metrics", promhttp.Handler())
}

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.OpenSession")
	defer finish()

	log := h.log(r)
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		apt.RespondError(w, http.StatusBadRequest, "user id is required")
		return
	}

	s, err := h.sessions.Open(userID)
	if err != nil {
		log.Error("cannot open notification session", "user_id", userID, "error", err)
		apt.RespondError(w, http.StatusServiceUnavailable, "Could not open session")
		return
	}

	apt.RespondSuccess(w, sessionView(s))
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CloseSession")
	defer finish()

	log := h.log(r)
	userID := chi.URLParam(r, "userID")

	err := h.sessions.Close(r.Context(), userID)
	if errors.Is(err, ErrSessionNotFound) {
		apt.RespondError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.Error("notification session did not stop cleanly", "user_id", userID, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListNotifications")
	defer finish()

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	apt.RespondCollection(w, s.Store.List(), "notification")
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UnreadCount")
	defer finish()

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	apt.RespondSuccess(w, map[string]int{"unread_count": s.Store.UnreadCount()})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MarkRead")
	defer finish()

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if !s.Store.MarkRead(r.Context(), id) {
		apt.RespondError(w, http.StatusNotFound, "Notification not found")
		return
	}

	n, _ := s.Store.Get(id)
	apt.RespondSuccess(w, n)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.MarkAllRead")
	defer finish()

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	marked := s.Store.MarkAllRead(r.Context())
	apt.RespondSuccess(w, map[string]int{"marked": marked, "unread_count": s.Store.UnreadCount()})
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListHistory")
	defer finish()

	if h.history == nil {
		apt.RespondError(w, http.StatusNotFound, "History not available")
		return
	}

	limit := int64(defaultHistoryLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			apt.RespondError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	userID := chi.URLParam(r, "userID")
	items, err := h.history.ListByUser(r.Context(), userID, limit)
	if err != nil {
		h.log(r).Error("cannot list notification history", "user_id", userID, "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve history")
		return
	}

	apt.RespondCollection(w, items, "notification")
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	userID := chi.URLParam(r, "userID")
	s, ok := h.sessions.Get(userID)
	if !ok {
		h.log(r).Debug("no notification session", "user_id", userID)
		apt.RespondError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return s, true
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

type sessionResponse struct {
	UserID        string `json:"user_id"`
	Unread        int    `json:"unread_count"`
	Total         int    `json:"total"`
	TrackedOrders int    `json:"tracked_orders"`
}

func sessionView(s *Session) sessionResponse {
	return sessionResponse{
		UserID:        s.UserID,
		Unread:        s.Store.UnreadCount(),
		Total:         s.Store.Len(),
		TrackedOrders: s.Registry.Len(),
	}
}
