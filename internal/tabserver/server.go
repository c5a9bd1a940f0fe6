// Package tabserver is the local HTTP endpoint the browser extension pushes
// the active tab to. It also serves status, health and metrics.
package tabserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/LeaOLLER/Chronotime/internal/metrics"
	"github.com/LeaOLLER/Chronotime/internal/stopwatch"
	"github.com/LeaOLLER/Chronotime/internal/tabs"
	"github.com/LeaOLLER/Chronotime/internal/tracker"
)

const maxBody = 8 << 10

// StatusSource is the part of the tracker the server reports on.
type StatusSource interface {
	Status() tracker.Status
}

type Config struct {
	Host      string
	Port      int
	RateLimit float64 // requests per second on POST /api/v1/tab
	Burst     int
}

type Server struct {
	echo      *echo.Echo
	extension *tabs.Extension
	status    StatusSource
	metrics   *metrics.Metrics
	limiter   *rate.Limiter
	logger    *zap.Logger
	config    Config
}

// New wires the routes. status may be nil when only the tab endpoint is needed.
func New(ext *tabs.Extension, status StatusSource, m *metrics.Metrics, logger *zap.Logger, cfg Config) (*Server, error) {
	if ext == nil {
		return nil, errors.New("extension provider cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking")
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 9999
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	// the extension posts from a chrome-extension:// origin
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Debug("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	})

	s := &Server{
		echo:      e,
		extension: ext,
		status:    status,
		metrics:   m,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger,
		config:    cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/tab", s.handlePushTab, s.rateLimit)
	v1.GET("/tab", s.handleGetTab)
	v1.GET("/status", s.handleStatus)
}

type HealthResponse struct {
	Status string `json:"status"`
}

type StatusResponse struct {
	Running   bool      `json:"running"`
	Elapsed   string    `json:"elapsed"`
	Seconds   float64   `json:"elapsed_seconds"`
	Category  string    `json:"category"`
	StartedAt time.Time `json:"started_at"`
	Tab       *tabs.Tab `json:"tab,omitempty"`
}

func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.limiter.Allow() {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		}
		return next(c)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handlePushTab accepts {"title","url"} JSON or a "title|url" text body.
func (s *Server) handlePushTab(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	tab, err := parseTab(c.Request().Header.Get(echo.HeaderContentType), raw)
	if err != nil {
		s.logger.Debug("invalid tab push", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.extension.Update(tab)
	s.metrics.RecordTabUpdate()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGetTab(c echo.Context) error {
	tab, ok := s.extension.Current(c.Request().Context())
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, tab)
}

func (s *Server) handleStatus(c echo.Context) error {
	if s.status == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "tracker not running")
	}
	st := s.status.Status()
	resp := StatusResponse{
		Running:   st.Running,
		Elapsed:   stopwatch.Format(st.Elapsed),
		Seconds:   st.Elapsed.Seconds(),
		Category:  st.Category,
		StartedAt: st.StartedAt,
	}
	if st.HasTab {
		tab := st.Tab
		resp.Tab = &tab
	}
	return c.JSON(http.StatusOK, resp)
}

func parseTab(contentType string, body []byte) (tabs.Tab, error) {
	if strings.HasPrefix(contentType, echo.MIMEApplicationJSON) {
		var tab tabs.Tab
		if err := json.Unmarshal(body, &tab); err != nil {
			return tabs.Tab{}, fmt.Errorf("invalid json: %w", err)
		}
		tab.Title = strings.TrimSpace(tab.Title)
		tab.URL = strings.TrimSpace(tab.URL)
		if tab.Empty() {
			return tabs.Tab{}, errors.New("title or url is required")
		}
		return tab, nil
	}

	parts := strings.Split(string(body), "|")
	if len(parts) < 2 {
		return tabs.Tab{}, errors.New(`expected "title|url"`)
	}
	tab := tabs.Tab{
		Title: strings.TrimSpace(parts[0]),
		URL:   strings.TrimSpace(parts[len(parts)-1]),
	}
	if tab.Empty() {
		return tabs.Tab{}, errors.New("title or url is required")
	}
	return tab, nil
}

// Addr is host:port as configured.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Start serves until Shutdown. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("starting tab server", zap.String("addr", s.Addr()))
	if err := s.echo.Start(s.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down tab server")
	return s.echo.Shutdown(ctx)
}

// Run starts the server and shuts it down when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.echo }
