package console

import (
	"net"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remcons/remconsd/internal/locsrv"
	"github.com/remcons/remconsd/internal/logging"
	"github.com/remcons/remconsd/internal/monitoring"
	"github.com/remcons/remconsd/internal/session"
)

func requireShell(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("no pty support on windows")
	}
	shell := "/bin/sh"
	if _, err := os.Stat(shell); err != nil {
		t.Skipf("%s not available", shell)
	}
	return shell
}

func TestHostRunsChildToCompletion(t *testing.T) {
	shell := requireShell(t)

	local, peer := net.Pipe()
	defer local.Close()
	defer peer.Close()

	sess := session.New(local, logging.NewNop(), "test", 24, 80)
	sess.SetServiceID(locsrv.ServiceID("svc-host"))
	reg := session.NewRegistry()
	reg.Add(sess)

	metrics := monitoring.New(prometheus.NewRegistry())
	host, err := Launch(reg, sess, shell, logging.NewNop(), metrics)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Clients())

	// Keep the peer side readable so pty echo does not wedge the pumps.
	go func() {
		buf := make([]byte, 4096)
		for {
			if _, err := peer.Read(buf); err != nil {
				return
			}
		}
	}()

	done := make(chan error, 1)
	go func() { done <- host.Run() }()

	_, err = peer.Write([]byte("exit\r\n"))
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("host did not finish after the shell exited")
	}
	assert.True(t, sess.Zombie())

	// Unblock the input pump; its exit releases the host's reference.
	sess.CloseConn()
	destroyed := make(chan struct{})
	go func() {
		sess.AwaitDestructible()
		close(destroyed)
	}()
	select {
	case <-destroyed:
	case <-time.After(5 * time.Second):
		t.Fatal("session never became destructible")
	}
	assert.Equal(t, 0, sess.Clients())
}

func TestLaunchRefusesZombie(t *testing.T) {
	shell := requireShell(t)

	local, peer := net.Pipe()
	defer local.Close()
	defer peer.Close()

	sess := session.New(local, logging.NewNop(), "test", 24, 80)
	sess.SetServiceID(locsrv.ServiceID("svc-dead"))
	sess.SetTaskFinished()
	reg := session.NewRegistry()
	reg.Add(sess)

	metrics := monitoring.New(prometheus.NewRegistry())
	_, err := Launch(reg, sess, shell, logging.NewNop(), metrics)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.Equal(t, 0, sess.Clients())
}
