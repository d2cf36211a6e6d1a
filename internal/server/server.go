package server

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"flowviewer/internal/chart"
	"flowviewer/internal/config"
	"flowviewer/internal/store"
)

// Server bundles the router and its dependencies.
type Server struct {
	cfg      config.Config
	store    store.Store
	renderer *chart.Renderer
	engine   *gin.Engine

	now func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option customises a Server.
type Option func(*Server)

// WithClock replaces time.Now as the source of "now" for window selection.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithRand sets the random source used by the synthetic debug chart.
func WithRand(rng *rand.Rand) Option {
	return func(s *Server) {
		s.rng = rng
	}
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, st store.Store, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())
	engine.Use(metricsMiddleware())

	s := &Server{
		cfg:      cfg,
		store:    st,
		renderer: chart.NewRenderer(cfg.Chart.Width, cfg.Chart.Height),
		engine:   engine,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logrus.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/monitoring/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	s.engine.GET("/monitoring/metrics", gin.WrapH(promhttp.Handler()))

	flowGroup := s.engine.Group("/flow")
	{
		flowGroup.GET("/current", s.handleCurrent)
		flowGroup.GET("/max/:period", s.handleMax)
		flowGroup.GET("/chart/:period", s.handleChart)
		flowGroup.GET("/data/:period", s.handleCSV)
	}

	if s.cfg.Debug.Enabled {
		logrus.Warn("Debug routes enabled")
		s.engine.GET("/debug/chart", s.handleDebugChart)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Info("Handled request")
	}
}
