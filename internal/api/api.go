package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/remcons/remconsd/internal/logging"
	"github.com/remcons/remconsd/internal/monitoring"
	"github.com/remcons/remconsd/internal/server"
	"github.com/remcons/remconsd/internal/session"
)

// Server is the admin HTTP server.
type Server struct {
	engine  *gin.Engine
	httpSrv *http.Server
	log     *logging.Logger

	backend *server.Server
	metrics *monitoring.Metrics
}

// New wires the admin routes. gatherer is the Prometheus registry the
// metrics were registered with.
func New(backend *server.Server, metrics *monitoring.Metrics, gatherer prometheus.Gatherer, log *logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	s := &Server{
		engine:  engine,
		log:     log,
		backend: backend,
		metrics: metrics,
	}

	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := engine.Group("/v1")
	{
		v1.GET("/sessions", s.handleListSessions)
		v1.DELETE("/sessions/:id", s.handleKillSession)
		v1.GET("/sessions/:id/attach", s.handleAttach)
	}

	return s
}

// Handler exposes the route tree, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves the admin API until Shutdown.
func (s *Server) Run(addr string) error {
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}
	s.log.Info("admin API up", zap.String("addr", addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the admin server gracefully.
func (s *Server) Shutdown() error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	s.metrics.UpdateUptime()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": s.backend.Sessions().Len(),
		"services": s.backend.Services().Count(),
	})
}

func (s *Server) handleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.backend.Sessions().List()})
}

func (s *Server) handleKillSession(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	if err := s.backend.Kill(id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closing"})
}
