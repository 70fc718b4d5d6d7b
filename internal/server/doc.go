// Package server runs the telnet listener and owns every live session.
//
// This package orchestrates all components:
//   - TCP accept loop with rate limiting
//   - Session creation and registry membership
//   - Local-service registration (one console service per session)
//   - Console host launch (child shell on a pty)
//   - Session teardown once the peer and the child task are both gone
//
// Server Lifecycle:
//  1. Load configuration from file/environment/flags
//  2. Initialize logger (production or development)
//  3. Listen on the telnet port
//  4. Per connection: session → registry → locsrv → console host
//  5. Graceful shutdown on signal: stop accepting, close live
//     connections, wait for handlers to drain
package server
