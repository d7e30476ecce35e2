package ws

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"streetguide-server-go/internal/domain/eventbus"
	"streetguide-server-go/internal/platform/logging"
	"streetguide-server-go/internal/platform/observability"
)

// HandlerBuilder creates a session handler for an upgraded websocket connection.
type HandlerBuilder func(conn *Connection, req *http.Request) (SessionHandler, error)

// Router is responsible for upgrading HTTP connections to websocket sessions.
type Router struct {
	hub    *Hub
	bus    *eventbus.Bus
	logger *logging.Logger

	upgrader         *websocket.Upgrader
	handshakeTimeout time.Duration
	maxMessageBytes  int64
	baseCtx          context.Context
	builder          atomic.Value // HandlerBuilder
}

// RouterOptions configures the websocket router.
type RouterOptions struct {
	HandshakeTimeout time.Duration
	MaxMessageBytes  int64
	CheckOrigin      func(r *http.Request) bool
	// BaseContext is the parent of every session context. Sessions outlive
	// the upgrade request, so it must not be a request context.
	BaseContext context.Context
}

// NewRouter constructs a websocket router.
func NewRouter(hub *Hub, bus *eventbus.Bus, logger *logging.Logger, opts RouterOptions) *Router {
	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	upgrader := &websocket.Upgrader{
		HandshakeTimeout: timeout,
		CheckOrigin:      opts.CheckOrigin,
	}
	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}

	base := opts.BaseContext
	if base == nil {
		base = context.Background()
	}

	return &Router{
		hub:              hub,
		bus:              bus,
		logger:           logger,
		upgrader:         upgrader,
		handshakeTimeout: timeout,
		maxMessageBytes:  opts.MaxMessageBytes,
		baseCtx:          base,
	}
}

// SetHandlerBuilder registers the handler builder that will be invoked after a successful upgrade.
func (r *Router) SetHandlerBuilder(builder HandlerBuilder) {
	r.builder.Store(builder)
}

// Handle upgrades the HTTP connection and launches a new websocket session.
func (r *Router) Handle(w http.ResponseWriter, req *http.Request) {
	value := r.builder.Load()
	if value == nil {
		http.Error(w, "websocket handler not ready", http.StatusServiceUnavailable)
		return
	}
	builder := value.(HandlerBuilder)

	handshakeCtx, cancel := context.WithTimeoutCause(req.Context(), r.handshakeTimeout, ErrHandshakeTimeout)
	defer cancel()
	req = req.WithContext(handshakeCtx)

	spanCtx, spanEnd := observability.StartSpan(handshakeCtx, "transport.websocket", "handle")
	var spanErr error
	defer func() {
		spanEnd(spanErr)
	}()

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		spanErr = err
		observability.RecordMetric(
			spanCtx,
			"websocket.upgrade.error",
			1,
			map[string]string{
				"component": "transport.websocket",
			},
		)
		if r.logger != nil {
			r.logger.ErrorTag("WebSocket", "握手失败: %v", err)
		}
		return
	}
	if r.maxMessageBytes > 0 {
		conn.SetReadLimit(r.maxMessageBytes)
	}

	sessionID := uuid.NewString()
	wsConn := NewConnection(sessionID, conn)
	remoteAddr := wsConn.RemoteAddr()
	if r.logger != nil {
		r.logger.InfoTag("WebSocket", "客户端 %s 已连接 remote=%s", sessionID, remoteAddr)
	}

	handler, err := builder(wsConn, req)
	if err != nil || handler == nil {
		spanErr = err
		observability.RecordMetric(
			spanCtx,
			"websocket.connection.error",
			1,
			map[string]string{
				"component": "transport.websocket",
				"reason":    "handler_creation_failed",
			},
		)
		if r.logger != nil {
			r.logger.ErrorTag("WebSocket", "创建连接处理器失败: %v", err)
		}
		_ = wsConn.Close()
		return
	}

	session := NewSession(r.baseCtx, handler, wsConn, r.logger)
	r.hub.Register(session)
	r.bus.PublishAsync(eventbus.EventConnectionOpened, eventbus.ConnectionEventData{
		SessionID:  sessionID,
		RemoteAddr: remoteAddr,
	})

	go session.Run(func(runErr error) {
		r.hub.Unregister(session.ID())
		if r.logger != nil {
			if runErr != nil {
				r.logger.InfoTag("WebSocket", "会话 %s 结束: %v", session.ID(), runErr)
			} else {
				r.logger.InfoTag("WebSocket", "客户端 %s 已断开连接", session.ID())
			}
		}
		r.bus.PublishAsync(eventbus.EventConnectionClosed, eventbus.ConnectionEventData{
			SessionID:  sessionID,
			RemoteAddr: remoteAddr,
		})
	})
}
