// Package api is the admin and observability surface of remconsd.
//
// It serves a small HTTP API on a separate (loopback by default)
// listener:
//   - GET /v1/sessions: list live sessions
//   - DELETE /v1/sessions/:id: force-close a session
//   - GET /v1/sessions/:id/attach: WebSocket attach; text frames are
//     written to the peer's terminal as a local client
//   - GET /metrics: Prometheus metrics
//   - GET /health: liveness probe
//
// The attach endpoint goes through the same lookup-and-acquire path as
// any local client: it takes a reference on the session, refuses
// zombies, and disconnects when the session dies.
package api
