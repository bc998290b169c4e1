package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alkime/speakimage/internal/metrics"
	"github.com/alkime/speakimage/internal/session"
	"github.com/google/uuid"
)

// ControllerFactory builds the controller for a new session. notifier
// receives that session's user-visible events.
type ControllerFactory func(id string, notifier session.Notifier) *session.Controller

// Session is one browser session: a controller plus the latest message
// shown to the user.
type Session struct {
	ID         string
	Controller *session.Controller

	feed     *messageFeed
	lastSeen time.Time
}

// Message returns the latest user-visible message, if any.
func (s *Session) Message() (Message, bool) {
	return s.feed.Last()
}

// Registry holds the live sessions keyed by cookie id and evicts idle ones.
type Registry struct {
	newController ControllerFactory
	ttl           time.Duration
	logger        *slog.Logger
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry(factory ControllerFactory, ttl time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		newController: factory,
		ttl:           ttl,
		logger:        logger,
		now:           time.Now,
		sessions:      make(map[string]*Session),
	}
}

// Acquire returns the session for id, creating a fresh one when id is
// unknown or expired. The returned session's idle timer is refreshed.
func (r *Registry) Acquire(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if sess, ok := r.sessions[id]; ok {
		if !r.expired(sess, now) {
			sess.lastSeen = now
			return sess
		}

		delete(r.sessions, id)
		r.logger.Debug("Session expired", "session", id)
	}

	feed := &messageFeed{} //nolint:exhaustruct // empty until the first event
	newID := uuid.NewString()
	sess := &Session{
		ID:         newID,
		Controller: r.newController(newID, feed),
		feed:       feed,
		lastSeen:   now,
	}
	r.sessions[newID] = sess
	metrics.ActiveSessions.Set(float64(len(r.sessions)))

	r.logger.Debug("Session started", "session", newID)

	return sess
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sessions)
}

// Prune ends every session idle for longer than the TTL and reports how
// many were removed. Images already written stay on disk.
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, sess := range r.sessions {
		if r.expired(sess, now) {
			delete(r.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
		r.logger.Info("Pruned idle sessions", "removed", removed, "remaining", len(r.sessions))
	}

	return removed
}

func (r *Registry) expired(sess *Session, now time.Time) bool {
	return sess.lastSeen.Before(now.Add(-r.ttl))
}

// Sweep prunes idle sessions every interval until ctx is done.
func (r *Registry) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Prune()
		}
	}
}
