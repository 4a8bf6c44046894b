package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"easel/internal/canvas"
	"easel/internal/logging"
	"easel/internal/schedule"
	"easel/pkg/types"
)

// Config holds the HTTP front-end settings.
type Config struct {
	Host         string
	Port         int
	Debug        bool
	AllowOrigins []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the development defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         8080,
		AllowOrigins: []string{"*"},
		ReadTimeout:  30 * time.Second,
		// Writes stay open for the lifetime of an SSE run.
		WriteTimeout: 0,
	}
}

// Server exposes the agent over REST + SSE.
type Server struct {
	cfg        Config
	engine     *gin.Engine
	httpServer *http.Server
	sched      *schedule.Scheduler
	doc        canvas.Document
	logger     logging.Logger
}

// NewServer wires the routes. The scheduler enforces the single-run rule;
// the server only translates it to HTTP status codes.
func NewServer(cfg Config, sched *schedule.Scheduler, doc canvas.Document, logger logging.Logger) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowOrigins) == 0 || (len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	engine.Use(cors.New(corsCfg))

	s := &Server{
		cfg:    cfg,
		engine: engine,
		sched:  sched,
		doc:    doc,
		logger: logging.OrNop(logger),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	api := s.engine.Group("/api")
	{
		api.POST("/agent/prompt", s.handlePrompt)
		api.POST("/agent/cancel", s.handleCancel)
		api.GET("/canvas/shapes", s.handleShapes)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening on %s", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCancel(c *gin.Context) {
	s.sched.Cancel()
	c.JSON(http.StatusAccepted, gin.H{"status": "cancelling"})
}

func (s *Server) handleShapes(c *gin.Context) {
	bounds, err := parseBoundsQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shapes": s.doc.ListShapes(bounds)})
}

func parseBoundsQuery(c *gin.Context) (*types.Box, error) {
	raw := [4]string{c.Query("x"), c.Query("y"), c.Query("w"), c.Query("h")}
	if raw[0] == "" && raw[1] == "" && raw[2] == "" && raw[3] == "" {
		return nil, nil
	}
	var vals [4]float64
	for i, v := range raw {
		if v == "" {
			return nil, fmt.Errorf("bounds query requires all of x, y, w, h")
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bounds value %q", v)
		}
		vals[i] = f
	}
	return &types.Box{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, nil
}
