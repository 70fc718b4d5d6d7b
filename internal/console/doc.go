// Package console hosts the child task behind a telnet session.
//
// For each accepted connection the server launches the configured
// shell on a pty sized to the session's terminal geometry. The host
// pumps pty output to the session's send path (which does the line
// ending translation and cursor bookkeeping) and decoded session input
// into the pty. It attaches to the session as a regular local client,
// so the session cannot be destroyed while the pumps still touch it,
// and it marks the session's task as finished once the child is reaped.
package console
