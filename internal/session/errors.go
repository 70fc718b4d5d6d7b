package session

import "errors"

var (
	// ErrPeerClosed is returned by Recv once the peer has closed the
	// connection. Every subsequent Recv returns it as well.
	ErrPeerClosed = errors.New("session: peer closed connection")

	// ErrNotFound is returned by registry lookups when no live session
	// carries the requested service id. Zombies count as not found.
	ErrNotFound = errors.New("session: not found")
)
