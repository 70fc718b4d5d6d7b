package session

import (
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/remcons/remconsd/internal/locsrv"
	"github.com/remcons/remconsd/internal/logging"
	"github.com/remcons/remconsd/internal/telnet"
)

const (
	// BufferSize is the receive buffer capacity, one per session.
	BufferSize = 4096
	// SendBufSize is the send batch buffer capacity.
	SendBufSize = 4096
)

// Session ids are monotonic over the process lifetime, starting at 1.
var idCounter atomic.Int64

// Session multiplexes one telnet TCP connection against the local
// console service. All mutable state is protected by guard; TCP reads
// and writes happen while holding it.
type Session struct {
	id          int
	serviceName string
	conn        net.Conn
	log         *logging.Logger
	startedAt   time.Time

	guard      sync.Mutex
	refcountCV *sync.Cond

	serviceID locsrv.ServiceID

	// Receive ring: fill on conn.Read, drain one byte at a time.
	// Invariant: 0 <= recvPos <= recvLen <= BufferSize.
	recvBuf [BufferSize]byte
	recvLen int
	recvPos int

	// Telnet filter state. Lives on the session so an IAC split across
	// TCP segments, or across Recv calls, still composes.
	inCommand  bool
	optionCode telnet.Cmd

	// Send batch. Invariant: 0 <= sendUsed <= SendBufSize.
	sendBuf  [SendBufSize]byte
	sendUsed int

	// Advisory cursor; not authoritative for the remote terminal.
	cursorX int
	cursorY int
	rows    int
	cols    int

	state       State
	srvAborted  bool
	clientCount int

	closeOnce sync.Once
}

// New creates a session for an accepted connection. The service name is
// "<namespace>/telnet<pid>.<id>"; the session is not yet registered
// anywhere.
func New(conn net.Conn, log *logging.Logger, namespace string, rows, cols int) *Session {
	id := int(idCounter.Add(1))
	s := &Session{
		id:          id,
		serviceName: fmt.Sprintf("%s/telnet%d.%d", namespace, os.Getpid(), id),
		conn:        conn,
		log:         log.WithSession(id),
		startedAt:   time.Now(),
		serviceID:   locsrv.NilService,
		rows:        rows,
		cols:        cols,
	}
	s.refcountCV = sync.NewCond(&s.guard)
	return s
}

// ID returns the process-unique session id.
func (s *Session) ID() int { return s.id }

// ServiceName returns the name this session registers under.
func (s *Session) ServiceName() string { return s.serviceName }

// ServiceID returns the id assigned by the local-service registry, or
// locsrv.NilService before registration.
func (s *Session) ServiceID() locsrv.ServiceID {
	s.guard.Lock()
	defer s.guard.Unlock()
	return s.serviceID
}

// SetServiceID records the id handed out by the local-service registry.
func (s *Session) SetServiceID(id locsrv.ServiceID) {
	s.guard.Lock()
	defer s.guard.Unlock()
	s.serviceID = id
}

// Size returns the terminal geometry.
func (s *Session) Size() (rows, cols int) {
	s.guard.Lock()
	defer s.guard.Unlock()
	return s.rows, s.cols
}

// Cursor returns the advisory cursor position.
func (s *Session) Cursor() (x, y int) {
	s.guard.Lock()
	defer s.guard.Unlock()
	return s.cursorX, s.cursorY
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.guard.Lock()
	defer s.guard.Unlock()
	return s.state
}

// Zombie reports whether the peer or the child task is gone.
func (s *Session) Zombie() bool {
	return s.State().Zombie()
}

// Aborted reports whether the local service layer should reject
// further operations on this session.
func (s *Session) Aborted() bool {
	s.guard.Lock()
	defer s.guard.Unlock()
	return s.srvAborted
}

// Clients returns the number of local clients holding the session.
func (s *Session) Clients() int {
	s.guard.Lock()
	defer s.guard.Unlock()
	return s.clientCount
}

// fillLocked blocks on the connection until at least one byte arrives.
// Peer EOF is a lifecycle transition, not just an error.
//
// The guard is released around the blocking read so the send path is
// never gated on peer input. That is safe because the receive path is
// single-consumer: nothing else touches the receive buffer.
func (s *Session) fillLocked() error {
	for {
		s.guard.Unlock()
		n, err := s.conn.Read(s.recvBuf[:])
		s.guard.Lock()
		if n > 0 {
			s.recvLen = n
			s.recvPos = 0
			return nil
		}
		if err == nil {
			continue
		}
		if err == io.EOF {
			s.state = s.state.withSockDown()
			s.srvAborted = true
			s.refcountCV.Broadcast()
			return ErrPeerClosed
		}
		return fmt.Errorf("session: recv: %w", err)
	}
}

// decodeLocked runs one raw byte through the telnet filter. The second
// return is false when the byte was consumed by the filter (part of a
// command sequence, or NUL padding).
func (s *Session) decodeLocked(b byte) (byte, bool) {
	switch {
	case s.inCommand && s.optionCode != 0:
		s.log.Debug("ignoring telnet option",
			zap.Stringer("command", s.optionCode),
			zap.Uint8("option", b))
		s.inCommand = false
		s.optionCode = 0
	case s.inCommand:
		cmd := telnet.Cmd(b)
		if telnet.IsOptionCode(cmd) {
			s.optionCode = cmd
		} else {
			s.log.Debug("ignoring telnet command", zap.Stringer("command", cmd))
			s.inCommand = false
		}
	case b == telnet.IAC:
		s.inCommand = true
	case b == '\r':
		return '\n', true
	case b == 0:
		// NUL is telnet line-ending padding; drop it.
	default:
		return b, true
	}
	return 0, false
}

// Recv delivers at least one decoded byte into dst, or an error. It
// blocks on the connection only when the receive buffer is drained and
// nothing has been delivered yet.
func (s *Session) Recv(dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	s.guard.Lock()
	defer s.guard.Unlock()

	n := 0
	for n < len(dst) {
		if s.recvPos >= s.recvLen {
			if n > 0 {
				break
			}
			if err := s.fillLocked(); err != nil {
				return n, err
			}
		}
		b := s.recvBuf[s.recvPos]
		s.recvPos++
		if out, ok := s.decodeLocked(b); ok {
			dst[n] = out
			n++
		}
	}
	return n, nil
}

// writeWire pushes bytes to the peer. Callers hold guard.
func (s *Session) writeWire(p []byte) error {
	if _, err := s.conn.Write(p); err != nil {
		return fmt.Errorf("session: send: %w", err)
	}
	return nil
}

// sendRawLocked appends to the batch buffer, flushing whole buffers to
// the wire whenever the batch fills to capacity.
func (s *Session) sendRawLocked(p []byte) error {
	remain := SendBufSize - s.sendUsed
	for len(p) > 0 {
		if remain == 0 {
			if err := s.writeWire(s.sendBuf[:]); err != nil {
				return err
			}
			s.sendUsed = 0
			remain = SendBufSize
		}
		now := remain
		if len(p) < now {
			now = len(p)
		}
		copy(s.sendBuf[s.sendUsed:], p[:now])
		s.sendUsed += now
		remain -= now
		p = p[now:]
	}
	return nil
}

// sendDataLocked expands line endings, updates the cursor and batches
// the translated bytes.
func (s *Session) sendDataLocked(p []byte) error {
	converted := make([]byte, 0, 2*len(p))
	for _, b := range p {
		if b == '\n' {
			converted = append(converted, '\r', '\n')
			s.cursorX = 0
			if s.cursorY < s.rows-1 {
				s.cursorY++
			}
			continue
		}
		converted = append(converted, b)
		if b == '\b' {
			// Advisory only; deliberately not clamped to column 0.
			s.cursorX--
		} else {
			s.cursorX++
		}
	}
	return s.sendRawLocked(converted)
}

// SendData sends bytes to the peer with LF expanded to CR LF and the
// cursor tracked. Bytes stay in the batch buffer until it fills or
// Flush is called.
func (s *Session) SendData(p []byte) error {
	s.guard.Lock()
	defer s.guard.Unlock()
	return s.sendDataLocked(p)
}

// SendRaw sends bytes verbatim: no translation, no cursor update.
func (s *Session) SendRaw(p []byte) error {
	s.guard.Lock()
	defer s.guard.Unlock()
	return s.sendRawLocked(p)
}

// Flush drains the batch buffer to the wire. Flushing an empty batch
// is a no-op.
func (s *Session) Flush() error {
	s.guard.Lock()
	defer s.guard.Unlock()

	if s.sendUsed == 0 {
		return nil
	}
	if err := s.writeWire(s.sendBuf[:s.sendUsed]); err != nil {
		return err
	}
	s.sendUsed = 0
	return nil
}

// UpdateCursorX reconciles the console's cursor column with ours. A
// one-column leftward jump is mirrored to the peer as a single
// backspace; anything else just updates the bookkeeping.
func (s *Session) UpdateCursorX(newX int) {
	s.guard.Lock()
	defer s.guard.Unlock()
	if s.cursorX-1 == newX {
		// Best effort; a failing peer surfaces on the next send.
		_ = s.sendDataLocked([]byte{'\b'})
	}
	s.cursorX = newX
}

// SetTaskFinished records that the child task launched for this
// session has exited.
func (s *Session) SetTaskFinished() {
	s.guard.Lock()
	defer s.guard.Unlock()
	s.state = s.state.withTaskDone()
	s.srvAborted = true
	s.refcountCV.Broadcast()
}

// attachLocked takes a local-client reference. Callers hold guard and
// have already checked the session is not a zombie.
func (s *Session) attachLocked() {
	s.clientCount++
}

// Detach drops a local-client reference and wakes anyone waiting for
// the count to drain.
func (s *Session) Detach() {
	s.guard.Lock()
	defer s.guard.Unlock()
	if s.clientCount <= 0 {
		panic("session: refcount underflow")
	}
	s.clientCount--
	s.refcountCV.Broadcast()
}

// AwaitZombie blocks until the peer or the child task is gone. Local
// clients use it to notice they should disconnect.
func (s *Session) AwaitZombie() {
	s.guard.Lock()
	defer s.guard.Unlock()
	for !s.state.Zombie() {
		s.refcountCV.Wait()
	}
}

// AwaitDestructible blocks until the session is a zombie with no local
// clients left; only then may the owner destroy it.
func (s *Session) AwaitDestructible() {
	s.guard.Lock()
	defer s.guard.Unlock()
	for s.clientCount > 0 || !s.state.Zombie() {
		s.refcountCV.Wait()
	}
}

// CloseConn closes the TCP connection. Safe to call more than once;
// closing unblocks a Recv parked in conn.Read.
func (s *Session) CloseConn() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}

// Info is the external representation of a session, served by the
// admin API.
type Info struct {
	ID          int              `json:"id"`
	ServiceName string           `json:"service_name"`
	ServiceID   locsrv.ServiceID `json:"service_id"`
	State       string           `json:"state"`
	Clients     int              `json:"clients"`
	Rows        int              `json:"rows"`
	Cols        int              `json:"cols"`
	CursorX     int              `json:"cursor_x"`
	CursorY     int              `json:"cursor_y"`
	StartedAt   time.Time        `json:"started_at"`
}

// Info snapshots the session under its lock.
func (s *Session) Info() Info {
	s.guard.Lock()
	defer s.guard.Unlock()
	return Info{
		ID:          s.id,
		ServiceName: s.serviceName,
		ServiceID:   s.serviceID,
		State:       s.state.String(),
		Clients:     s.clientCount,
		Rows:        s.rows,
		Cols:        s.cols,
		CursorX:     s.cursorX,
		CursorY:     s.cursorY,
		StartedAt:   s.startedAt,
	}
}
