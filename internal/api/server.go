// Package api provides the HTTP REST API and WebSocket server for Zeo Core.
//
// It exposes cached washer attributes, command and on-demand query
// operations, attribute history, and real-time state updates to user
// interfaces (dashboards, wall panels, automations).
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/washtower/zeo-core/internal/history"
	"github.com/washtower/zeo-core/internal/infrastructure/config"
	"github.com/washtower/zeo-core/internal/infrastructure/logging"
	"github.com/washtower/zeo-core/internal/zeo"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Coordinator is the slice of the refresh coordinator the API consumes.
type Coordinator interface {
	Snapshot() map[zeo.Protocol]any
	GetCachedValue(protocol zeo.Protocol) (any, bool)
	LastRefreshed(protocol zeo.Protocol) (time.Time, bool)
	LastUpdateSucceeded() bool
	InitialLoadDone() bool
	SendCommand(ctx context.Context, key string, value any) error
	QueryProtocol(ctx context.Context, key string) (any, error)
}

// GatewayHealth reports the gateway's announced liveness.
type GatewayHealth interface {
	Online() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config      config.APIConfig
	WS          config.WebSocketConfig
	Device      config.DeviceConfig
	Logger      *logging.Logger
	Coordinator Coordinator
	History     history.Repository // optional; history endpoints 404 without it
	Gateway     GatewayHealth      // optional; health response omits the field without it
	ExternalHub *Hub               // if set, the server uses this hub instead of creating its own
	Version     string
}

// Server is the HTTP API server for Zeo Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg         config.APIConfig
	wsCfg       config.WebSocketConfig
	device      config.DeviceConfig
	logger      *logging.Logger
	coordinator Coordinator
	historyRepo history.Repository
	gateway     GatewayHealth
	version     string
	startedAt   time.Time
	server      *http.Server
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	cancel      context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Coordinator == nil {
		return nil, fmt.Errorf("coordinator is required")
	}

	s := &Server{
		cfg:         deps.Config,
		wsCfg:       deps.WS,
		device:      deps.Device,
		logger:      deps.Logger,
		coordinator: deps.Coordinator,
		historyRepo: deps.History,
		gateway:     deps.Gateway,
		version:     deps.Version,
	}

	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Hub returns the WebSocket hub, creating one if needed. Useful when the
// hub must be registered as a merge listener before Start().
func (s *Server) Hub() *Hub {
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	return s.hub
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.startedAt = time.Now().UTC()

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
