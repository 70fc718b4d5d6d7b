package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/remcons/remconsd/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The admin listener is loopback-bound by default.
		return true
	},
}

// handleAttach upgrades to WebSocket and attaches to a session as a
// local client: every text frame goes to the peer's terminal through
// the translating send path.
func (s *Server) handleAttach(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	target, ok := s.backend.Sessions().Get(id)
	if !ok {
		s.metrics.AttachRejects.Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	// The reference is taken through the registry so zombies are
	// refused exactly like for any other client.
	sess, err := s.backend.Sessions().LookupAndAcquire(target.ServiceID())
	if err != nil {
		s.metrics.AttachRejects.Inc()
		if errors.Is(err, session.ErrNotFound) {
			c.JSON(http.StatusGone, gin.H{"error": "session is gone"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer sess.Detach()
	s.metrics.ClientAttaches.Inc()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := s.log.WithSession(sess.ID())
	log.Info("admin client attached")
	defer log.Info("admin client detached")

	// Kick the websocket loose once the session dies, so the reference
	// drains and destruction can proceed.
	done := make(chan struct{})
	defer close(done)
	go func() {
		sess.AwaitZombie()
		select {
		case <-done:
		default:
			conn.Close()
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		if err := sess.SendData(data); err != nil {
			log.Warn("send to peer failed", zap.Error(err))
			return
		}
		if err := sess.Flush(); err != nil {
			log.Warn("flush to peer failed", zap.Error(err))
			return
		}
	}
}
