package notification

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const sseKeepalive = 30 * time.Second

// SSEHandler streams new notifications of a session to a browser.
type SSEHandler struct {
	sessions  *SessionManager
	logger    apt.Logger
	keepalive time.Duration
}

func NewSSEHandler(sessions *SessionManager, logger apt.Logger) *SSEHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &SSEHandler{
		sessions:  sessions,
		logger:    logger,
		keepalive: sseKeepalive,
	}
}

func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	s, ok := h.sessions.Get(userID)
	if !ok {
		apt.RespondError(w, http.StatusNotFound, "Session not found")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	subscriberID := uuid.New().String()
	log := h.logger.With("subscriber_id", subscriberID, "user_id", userID)
	log.Info("new SSE connection")

	events := s.Store.Subscribe(subscriberID)
	defer s.Store.Unsubscribe(subscriberID)

	fmt.Fprintf(w, ": connected\n\n")
	fmt.Fprintf(w, "retry: 2000\n\n")
	flush(w)

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Info("SSE client disconnected")
			return

		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flush(w)

		case n, ok := <-events:
			if !ok {
				log.Info("notification channel closed")
				return
			}
			payload, err := json.Marshal(n)
			if err != nil {
				log.Error("cannot encode notification", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\n", n.ID.String())
			fmt.Fprintf(w, "event: notification\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flush(w)
		}
	}
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
