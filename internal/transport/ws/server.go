package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"streetguide-server-go/internal/domain/eventbus"
	"streetguide-server-go/internal/domain/guide"
	"streetguide-server-go/internal/platform/logging"
)

// ServerConfig stores the settings required to expose the websocket transport.
type ServerConfig struct {
	Path             string
	HandshakeTimeout time.Duration
	MaxMessageBytes  int64
	MaxInflight      int64
	AllowedOrigins   []string
	// IdleTimeout closes sessions without traffic for this long; zero disables it.
	IdleTimeout time.Duration
}

// Server coordinates the websocket router, hub and lifecycle management. It
// does not listen on its own; Register mounts it on the HTTP engine.
type Server struct {
	cfg    ServerConfig
	hub    *Hub
	router *Router
	logger *logging.Logger
	cancel context.CancelCauseFunc
}

// NewServer builds a websocket transport serving analyzer.
func NewServer(cfg ServerConfig, analyzer guide.Analyzer, bus *eventbus.Bus, logger *logging.Logger) *Server {
	if cfg.Path == "" {
		cfg.Path = "/ws"
	}
	if logger == nil {
		logger = logging.DefaultLogger
	}

	baseCtx, cancel := context.WithCancelCause(context.Background())
	hub := NewHub(logger)
	router := NewRouter(hub, bus, logger, RouterOptions{
		HandshakeTimeout: cfg.HandshakeTimeout,
		MaxMessageBytes:  cfg.MaxMessageBytes,
		CheckOrigin:      originChecker(cfg.AllowedOrigins),
		BaseContext:      baseCtx,
	})
	router.SetHandlerBuilder(func(conn *Connection, _ *http.Request) (SessionHandler, error) {
		return NewHandler(conn, HandlerOptions{
			Analyzer:    analyzer,
			Bus:         bus,
			Logger:      logger,
			MaxInflight: cfg.MaxInflight,
		}), nil
	})

	s := &Server{
		cfg:    cfg,
		hub:    hub,
		router: router,
		logger: logger,
		cancel: cancel,
	}
	if cfg.IdleTimeout > 0 {
		go s.sweepIdle(baseCtx, cfg.IdleTimeout)
	}
	return s
}

func (s *Server) sweepIdle(ctx context.Context, timeout time.Duration) {
	ticker := time.NewTicker(timeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.hub.CloseIdle(timeout)
		}
	}
}

// Register mounts the upgrade endpoint on routes.
func (s *Server) Register(routes gin.IRoutes) {
	routes.GET(s.cfg.Path, gin.WrapF(s.router.Handle))
	s.logger.InfoTag("WebSocket", "监听路径 %s", s.cfg.Path)
}

// Handler exposes the upgrade endpoint as a plain http.Handler.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.router.Handle)
}

// Path returns the mount path.
func (s *Server) Path() string {
	return s.cfg.Path
}

// Stop cancels every session and closes their connections.
func (s *Server) Stop() {
	s.cancel(ErrSessionShutdown)
	s.hub.CloseAll(ErrSessionShutdown)
}

// Count exposes the number of active sessions.
func (s *Server) Count() int {
	return s.hub.Count()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return nil
		}
		set[strings.TrimRight(origin, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}
