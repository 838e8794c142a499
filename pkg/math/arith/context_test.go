package arith

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle(t *testing.T) {
	var l Lifecycle

	_, err := l.Context()
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.ErrorIs(t, l.SetIOBase(16), ErrUninitialized)
	_, err = l.IOBase()
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.ErrorIs(t, l.Close(), ErrUninitialized)

	c, err := l.StartUp(2048, 0, 10)
	require.NoError(t, err)
	again, err := l.StartUp(0, 0, 16)
	require.NoError(t, err)
	assert.Same(t, c, again, "StartUp is idempotent")

	base, err := l.IOBase()
	require.NoError(t, err)
	assert.Equal(t, 10, base)
	require.NoError(t, l.SetIOBase(16))
	base, err = c.IOBase()
	require.NoError(t, err)
	assert.Equal(t, 16, base)

	fork, err := c.Fork()
	require.NoError(t, err)

	require.NoError(t, l.Close())
	assert.False(t, c.Active())
	assert.False(t, fork.Active())
	_, err = fork.Acquire()
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.ErrorIs(t, c.SetIOBase(10), ErrUninitialized)
	assert.ErrorIs(t, l.Close(), ErrAlreadyClosed)

	restarted, err := l.StartUp(0, 0, 10)
	require.NoError(t, err)
	assert.NotSame(t, c, restarted)
	assert.True(t, restarted.Active())
}

func TestLifecycle_InvalidParameters(t *testing.T) {
	var l Lifecycle
	_, err := l.StartUp(0, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidIOBase)
	_, err = l.StartUp(0, 0, 257)
	assert.ErrorIs(t, err, ErrInvalidIOBase)
	_, err = l.StartUp(0, 1, 10)
	assert.ErrorIs(t, err, ErrInvalidMemBase)
	_, err = l.StartUp(-1, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidVarSize)

	_, err = l.Context()
	assert.ErrorIs(t, err, ErrUninitialized, "a failed StartUp leaves nothing behind")

	c, err := l.StartUp(0, 256, 256)
	require.NoError(t, err)
	assert.Equal(t, uint64(256), c.MemBase())
	assert.ErrorIs(t, c.SetIOBase(0), ErrInvalidIOBase)
	assert.ErrorIs(t, c.SetIOBase(300), ErrInvalidIOBase)
}

func TestContext_Acquire(t *testing.T) {
	c, err := NewContext(0, 0, 10, nil)
	require.NoError(t, err)

	s, err := c.Acquire()
	require.NoError(t, err)
	require.NotNil(t, s.Reg(0))

	_, err = c.Acquire()
	assert.ErrorIs(t, err, ErrContextBusy, "a context cannot be shared by two operations")

	fork, err := c.Fork()
	require.NoError(t, err)
	fs, err := fork.Acquire()
	require.NoError(t, err, "forks have their own scratch arena")
	assert.NotSame(t, s.Reg(0), fs.Reg(0))
	fork.Release()

	c.Release()
	_, err = c.Acquire()
	assert.NoError(t, err)
	c.Release()
}
