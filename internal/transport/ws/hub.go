package ws

import (
	"sync"
	"time"

	"streetguide-server-go/internal/platform/logging"
)

// Hub tracks the active websocket sessions for a transport instance.
type Hub struct {
	logger   *logging.Logger
	sessions sync.Map // map[string]*Session
}

// NewHub builds a fresh session hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger: logger,
	}
}

// Register adds a new session to the hub.
func (h *Hub) Register(session *Session) {
	if session == nil {
		return
	}
	h.sessions.Store(session.ID(), session)
}

// Unregister removes the session from the hub.
func (h *Hub) Unregister(id string) {
	if id == "" {
		return
	}
	h.sessions.Delete(id)
}

// Get returns the session registered under id.
func (h *Hub) Get(id string) (*Session, bool) {
	value, ok := h.sessions.Load(id)
	if !ok {
		return nil, false
	}
	session, ok := value.(*Session)
	return session, ok
}

// CloseAll terminates all active sessions and waits for their shutdown.
func (h *Hub) CloseAll(reason error) {
	if reason == nil {
		reason = ErrSessionShutdown
	}

	var wg sync.WaitGroup
	h.sessions.Range(func(key, value any) bool {
		if session, ok := value.(*Session); ok {
			wg.Add(1)
			go func() {
				defer wg.Done()
				session.Close(reason)
			}()
		}
		h.sessions.Delete(key)
		return true
	})
	wg.Wait()

	if h.logger != nil {
		h.logger.InfoTag("WebSocket", "已关闭全部会话: %v", reason)
	}
}

// CloseIdle closes the sessions whose connection has seen no traffic for
// longer than timeout and returns how many were closed.
func (h *Hub) CloseIdle(timeout time.Duration) int {
	closed := 0
	h.sessions.Range(func(key, value any) bool {
		session, ok := value.(*Session)
		if !ok || !session.conn.IsStale(timeout) {
			return true
		}
		h.sessions.Delete(key)
		go session.Close(ErrIdleTimeout)
		closed++
		return true
	})

	if closed > 0 && h.logger != nil {
		h.logger.InfoTag("WebSocket", "已关闭 %d 个空闲会话", closed)
	}
	return closed
}

// Count exposes the number of active websocket sessions.
func (h *Hub) Count() int {
	count := 0
	h.sessions.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}
