// Package server exposes the relay over websocket, with health, roster and
// Prometheus endpoints on the same gin router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/matheus3301/hrchat/internal/config"
	"github.com/matheus3301/hrchat/internal/metrics"
	"github.com/matheus3301/hrchat/internal/protocol"
	"github.com/matheus3301/hrchat/internal/ratelimit"
	"github.com/matheus3301/hrchat/internal/relay"
	"go.uber.org/zap"
)

// Options are the transport settings of the relay server.
type Options struct {
	Addr            string
	AllowedOrigins  []string
	EgressBuffer    int
	MaxMessageBytes int64
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
}

// OptionsFrom maps the relay config section onto server options.
func OptionsFrom(cfg config.RelayConfig) Options {
	return Options{
		Addr:            cfg.Listen,
		AllowedOrigins:  cfg.AllowedOrigins,
		EgressBuffer:    cfg.EgressBuffer,
		MaxMessageBytes: cfg.MaxMessageBytes,
		WriteWait:       cfg.WriteWait.Duration,
		PongWait:        cfg.PongWait.Duration,
		PingPeriod:      cfg.PingPeriod(),
	}
}

// Server owns the HTTP listener and every live websocket connection.
type Server struct {
	opts     Options
	relay    *relay.Relay
	metrics  *metrics.Relay
	conns    *ratelimit.ConnLimiter
	events   *ratelimit.EventLimiter
	logger   *zap.Logger
	upgrader websocket.Upgrader
	router   *gin.Engine

	httpServer *http.Server
	listener   net.Listener

	mu   sync.Mutex
	live map[*wsConn]struct{}
}

// New builds the router. Nothing listens until Start.
func New(opts Options, r *relay.Relay, m *metrics.Relay, conns *ratelimit.ConnLimiter, events *ratelimit.EventLimiter, logger *zap.Logger) *Server {
	if opts.EgressBuffer <= 0 {
		opts.EgressBuffer = 256
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.PingPeriod <= 0 || opts.PingPeriod >= opts.PongWait {
		opts.PingPeriod = opts.PongWait * 9 / 10
	}

	s := &Server{
		opts:    opts,
		relay:   r,
		metrics: m,
		conns:   conns,
		events:  events,
		logger:  logger,
		live:    make(map[*wsConn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))
	router.Use(cors.New(corsConfig(s.opts.AllowedOrigins)))

	router.GET("/ws", s.handleWS)
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/online", s.handleOnline)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:    []string{"GET", "POST"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		MaxAge:          12 * time.Hour,
		AllowWebSockets: true,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// checkOrigin admits non-browser clients (no Origin header) and browsers
// from the allowed origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(s.opts.AllowedOrigins, "*") || slices.Contains(s.opts.AllowedOrigins, origin)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleOnline(c *gin.Context) {
	entries, err := s.relay.Roster()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	roster := make(protocol.OnlineUsers, 0, len(entries))
	for _, e := range entries {
		roster = append(roster, protocol.RosterEntry{ID: e.UserID, Name: e.Name})
	}
	c.JSON(http.StatusOK, roster)
}

func (s *Server) handleWS(c *gin.Context) {
	ip := ratelimit.ClientIP(c.Request)
	if !s.conns.Acquire(ip) {
		s.metrics.Rejected("conn_limit")
		s.logger.Warn("connection limit reached", zap.String("ip", ip))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many connections"})
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.conns.Release(ip)
		s.logger.Warn("websocket upgrade failed", zap.Error(err), zap.String("ip", ip))
		return
	}

	conn := newWSConn(s, ws, ip)
	if err := s.relay.Attach(conn); err != nil {
		s.conns.Release(ip)
		_ = ws.Close()
		return
	}
	s.track(conn)
	s.logger.Info("client connected", zap.String("conn", conn.id), zap.String("ip", ip))

	go conn.writePump()
	go conn.readPump()
}

func (s *Server) track(c *wsConn) {
	s.mu.Lock()
	s.live[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c *wsConn) {
	s.mu.Lock()
	delete(s.live, c)
	s.mu.Unlock()
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.logger.Info("relay server starting", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("relay server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the HTTP server down and closes every websocket.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("relay server stopping")
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.mu.Lock()
	live := make([]*wsConn, 0, len(s.live))
	for c := range s.live {
		live = append(live, c)
	}
	s.mu.Unlock()
	for _, c := range live {
		_ = c.Close()
	}
	return err
}
