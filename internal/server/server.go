// internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coincoach-backend/internal/common/config"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/flow"
	"coincoach-backend/internal/models"
	"coincoach-backend/internal/notify"
	"coincoach-backend/pkg/registry"
)

// SignalService is the persistence surface the handlers need.
type SignalService interface {
	Push(ctx context.Context, strategy string) (models.Signal, error)
	Recent(ctx context.Context, limit int) ([]models.Signal, error)
	Search(ctx context.Context, query string, limit int) ([]models.Signal, error)
}

// Notifier fans a signal out to a batch of devices.
type Notifier interface {
	Fanout(ctx context.Context, signal models.Signal, devices []models.Device) notify.FanoutResult
}

// DigestSender delivers a batch of signals over email.
type DigestSender interface {
	SendDigest(ctx context.Context, recipients []string, signals []models.Signal) error
}

// DeviceStore manages push-target registration.
type DeviceStore interface {
	Register(ctx context.Context, token, platform string) (models.Device, error)
	Unregister(ctx context.Context, token string) error
	Devices(ctx context.Context) ([]models.Device, error)
}

// FlowRunner runs one flow invocation end to end.
type FlowRunner interface {
	Invoke(ctx context.Context, c *flow.Contract, input map[string]interface{}) (map[string]interface{}, error)
}

type Server struct {
	cfg      *config.Config
	engine   *gin.Engine
	logger   logger.Logger
	signals  SignalService
	notifier Notifier
	devices  DeviceStore
	runner   FlowRunner
	flows    *flow.Registry
	catalog  *registry.FlowRegistry
}

func New(
	cfg *config.Config,
	log logger.Logger,
	signals SignalService,
	notifier Notifier,
	devices DeviceStore,
	runner FlowRunner,
	flows *flow.Registry,
) *Server {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		engine:   gin.New(),
		logger:   log,
		signals:  signals,
		notifier: notifier,
		devices:  devices,
		runner:   runner,
		flows:    flows,
		catalog:  registry.Build(flows, cfg.App.Version),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())

	if s.cfg.Server.CORSAllowAll {
		s.engine.Use(cors.Default())
	} else {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins: []string{"https://coincoach.app"},
			AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}))
	}

	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.POST("/push-signal", s.handlePushSignal)
		api.GET("/flows", s.handleListFlows)
		api.POST("/flows/:name", s.handleInvokeFlow)
		api.GET("/signals", s.handleRecentSignals)
		api.GET("/signals/search", s.handleSearchSignals)
		api.POST("/devices", s.handleRegisterDevice)
		api.DELETE("/devices/:token", s.handleUnregisterDevice)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then drains within the configured
// shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.logger.Info("server listening", map[string]interface{}{
		"port": s.cfg.Server.Port,
	})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
