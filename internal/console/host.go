package console

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/remcons/remconsd/internal/logging"
	"github.com/remcons/remconsd/internal/monitoring"
	"github.com/remcons/remconsd/internal/session"
)

// Host runs one child task bound to a session's pty.
type Host struct {
	sess    *session.Session
	log     *logging.Logger
	metrics *monitoring.Metrics

	cmd  *exec.Cmd
	ptmx *os.File
}

// Launch starts shell on a fresh pty sized to the session's geometry
// and takes a local-client reference on the session through the
// registry, like any other client would.
func Launch(reg *session.Registry, sess *session.Session, shell string, log *logging.Logger, metrics *monitoring.Metrics) (*Host, error) {
	acquired, err := reg.LookupAndAcquire(sess.ServiceID())
	if err != nil {
		return nil, fmt.Errorf("console: acquire session %d: %w", sess.ID(), err)
	}

	rows, cols := acquired.Size()
	cmd := exec.Command(shell)
	cmd.Env = append(os.Environ(), "TERM=xterm")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		acquired.Detach()
		return nil, fmt.Errorf("console: start %s: %w", shell, err)
	}

	return &Host{
		sess:    acquired,
		log:     log.WithSession(acquired.ID()),
		metrics: metrics,
		cmd:     cmd,
		ptmx:    ptmx,
	}, nil
}

// Run pumps bytes between the pty and the session until the child task
// exits. It returns the child's wait result; the input pump keeps
// running until the session's receive path fails (peer close, or the
// owner closing the connection) and releases the host's reference when
// it stops.
func (h *Host) Run() error {
	var output sync.WaitGroup
	output.Add(1)

	go func() {
		defer output.Done()
		h.pumpOutput()
	}()
	go h.pumpInput()

	err := h.cmd.Wait()
	h.sess.SetTaskFinished()
	h.ptmx.Close()
	output.Wait()

	h.log.Info("child task finished", zap.Error(err))
	return err
}

// pumpOutput copies pty output to the peer through the translating
// send path, flushing after every chunk so interactive output is not
// held hostage by the batch buffer.
func (h *Host) pumpOutput() {
	buf := make([]byte, 4096)
	for {
		n, err := h.ptmx.Read(buf)
		if n > 0 {
			h.metrics.BytesOut.Add(float64(n))
			if err := h.sess.SendData(buf[:n]); err != nil {
				h.log.Warn("send to peer failed", zap.Error(err))
				return
			}
			if err := h.sess.Flush(); err != nil {
				h.log.Warn("flush to peer failed", zap.Error(err))
				return
			}
		}
		if err != nil {
			// Child exit shows up as EIO on the pty master.
			return
		}
	}
}

// pumpInput feeds decoded peer input into the pty. When the receive
// path dies it kills the child so the session converges to Gone, and
// drops the host's session reference.
func (h *Host) pumpInput() {
	defer h.sess.Detach()

	buf := make([]byte, 256)
	for {
		n, err := h.sess.Recv(buf)
		if n > 0 {
			h.metrics.BytesIn.Add(float64(n))
			if _, werr := h.ptmx.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			if errors.Is(err, session.ErrPeerClosed) {
				h.log.Info("peer closed connection")
			} else {
				h.log.Debug("receive path stopped", zap.Error(err))
			}
			if h.cmd.Process != nil {
				_ = h.cmd.Process.Kill()
			}
			return
		}
	}
}
