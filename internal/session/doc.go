// Package session implements the telnet user session: the object that
// makes one accepted TCP connection look like a local console service.
//
// A session owns its connection and two fixed buffers. The receive
// path drains the connection through a small state machine that strips
// in-band telnet commands, folds CR to LF and drops NUL, so consumers
// only ever see clean terminal input. The send path expands LF to
// CR LF, keeps an advisory cursor position, and batches outgoing bytes
// until an explicit Flush.
//
// One goroutine (the network side) drives Recv; any number of local
// clients may call the send operations concurrently. A single
// per-session mutex serializes both paths against each other and
// against lifecycle transitions. TCP writes happen under the mutex —
// sound because each session has exactly one peer — while the blocking
// refill read releases it, so senders are never gated on peer input.
//
// Lifecycle is a monotonic lattice (Live → SockDown/TaskDone → Gone).
// A session whose peer or child task is gone is a zombie: lookups
// refuse it, and once the local-client refcount drains it may be
// destroyed. The Registry is the process-wide index of live sessions;
// its lock is always taken before a session's own, never after.
package session
