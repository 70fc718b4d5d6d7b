package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/remcons/remconsd/internal/config"
	"github.com/remcons/remconsd/internal/console"
	"github.com/remcons/remconsd/internal/locsrv"
	"github.com/remcons/remconsd/internal/logging"
	"github.com/remcons/remconsd/internal/monitoring"
	"github.com/remcons/remconsd/internal/session"
)

// Server accepts telnet connections and turns each one into a
// registered console session with a child task behind it.
type Server struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *monitoring.Metrics

	sessions *session.Registry
	services *locsrv.Registry

	limiter *rate.Limiter

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a server. Nothing listens until Run.
func New(cfg *config.Config, log *logging.Logger, metrics *monitoring.Metrics) *Server {
	var limiter *rate.Limiter
	if cfg.RateLimit.Enabled {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.AcceptsPerSecond), cfg.RateLimit.Burst)
	}
	return &Server{
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		sessions: session.NewRegistry(),
		services: locsrv.NewRegistry(),
		limiter:  limiter,
	}
}

// Sessions exposes the session registry to the admin surface.
func (srv *Server) Sessions() *session.Registry { return srv.sessions }

// Services exposes the local-service directory.
func (srv *Server) Services() *locsrv.Registry { return srv.services }

// Run listens on the configured address and serves until Close. It
// returns nil after a clean shutdown.
func (srv *Server) Run() error {
	addr := net.JoinHostPort(srv.cfg.Listen.Host, srv.cfg.Listen.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	ctx, cancel := context.WithCancel(context.Background())

	srv.mu.Lock()
	srv.listener = ln
	srv.cancel = cancel
	srv.mu.Unlock()

	srv.log.Info("telnet listener up", zap.String("addr", addr))

	for {
		if srv.limiter != nil {
			if err := srv.limiter.Wait(ctx); err != nil {
				break
			}
		}
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			srv.log.Warn("accept failed", zap.Error(err))
			continue
		}

		srv.wg.Add(1)
		go func() {
			defer srv.wg.Done()
			srv.handleConn(conn)
		}()
	}

	srv.wg.Wait()
	return nil
}

// Addr returns the listener address, for tests that bind port 0.
func (srv *Server) Addr() net.Addr {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Addr()
}

// handleConn owns the whole life of one telnet connection.
func (srv *Server) handleConn(conn net.Conn) {
	term := srv.cfg.Terminal
	sess := session.New(conn, srv.log, term.Namespace, term.Rows, term.Cols)
	log := srv.log.WithSession(sess.ID())

	log.Info("connection accepted",
		zap.String("peer", conn.RemoteAddr().String()),
		zap.String("service", sess.ServiceName()))

	srv.metrics.SessionsTotal.Inc()
	srv.metrics.SessionsActive.Inc()
	defer srv.metrics.SessionsActive.Dec()

	srv.sessions.Add(sess)
	defer srv.sessions.Remove(sess)

	serviceID, err := srv.services.Register(sess.ServiceName())
	if err != nil {
		log.Error("service registration failed", zap.Error(err))
		sess.CloseConn()
		return
	}
	sess.SetServiceID(serviceID)
	defer srv.services.Unregister(serviceID)

	host, err := console.Launch(srv.sessions, sess, term.Shell, srv.log, srv.metrics)
	if err != nil {
		log.Error("console host launch failed", zap.Error(err))
		sess.SetTaskFinished()
		sess.CloseConn()
		sess.AwaitDestructible()
		return
	}

	// Blocks until the child task exited and its output drained.
	_ = host.Run()

	// Unblock a receive path still parked on the connection, then wait
	// for every local client to let go before tearing down.
	sess.CloseConn()
	sess.AwaitDestructible()

	log.Info("session destroyed")
}

// Close stops accepting, closes all live session connections and waits
// for their handlers to finish.
func (srv *Server) Close() error {
	srv.mu.Lock()
	if srv.cancel != nil {
		srv.cancel()
	}
	var err error
	if srv.listener != nil {
		err = srv.listener.Close()
	}
	srv.mu.Unlock()
	for _, info := range srv.sessions.List() {
		if s, ok := srv.sessions.Get(info.ID); ok {
			s.CloseConn()
		}
	}
	srv.wg.Wait()
	return err
}

// Kill force-closes the session with the given id. Admin surface.
func (srv *Server) Kill(id int) error {
	s, ok := srv.sessions.Get(id)
	if !ok {
		return session.ErrNotFound
	}
	s.CloseConn()
	return nil
}
