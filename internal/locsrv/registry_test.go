package locsrv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndResolve(t *testing.T) {
	r := NewRegistry()

	id, err := r.Register("term/telnet1.1")
	require.NoError(t, err)
	assert.NotEqual(t, NilService, id)

	got, ok := r.Resolve("term/telnet1.1")
	require.True(t, ok)
	assert.Equal(t, id, got)

	name, ok := r.Name(id)
	require.True(t, ok)
	assert.Equal(t, "term/telnet1.1", name)
	assert.Equal(t, 1, r.Count())
}

func TestRegisterDuplicateName(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("term/telnet1.1")
	require.NoError(t, err)

	_, err = r.Register("term/telnet1.1")
	assert.Error(t, err)
	assert.Equal(t, 1, r.Count())
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	id, err := r.Register("term/telnet1.2")
	require.NoError(t, err)

	r.Unregister(id)
	_, ok := r.Resolve("term/telnet1.2")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Count())

	// The name is free again after unregistration.
	_, err = r.Register("term/telnet1.2")
	assert.NoError(t, err)

	// Unknown ids are ignored.
	r.Unregister(ServiceID("bogus"))
}

func TestDistinctIDs(t *testing.T) {
	r := NewRegistry()
	a, err := r.Register("term/telnet1.3")
	require.NoError(t, err)
	b, err := r.Register("term/telnet1.4")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
