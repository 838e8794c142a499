package arith

import (
	mrand "math/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrick_Exp(t *testing.T) {
	r := mrand.New(mrand.NewSource(3))
	m := saferith.ModulusFromNat(samplePrime(t, r, 192))
	g := sampleNat(r, m)

	for _, window := range []int{1, 3, 5, 8} {
		brick, err := NewBrick(g, m, window, 81)
		require.NoError(t, err)
		for i := 0; i < 20; i++ {
			buf := make([]byte, 11)
			_, _ = r.Read(buf)
			buf[0] &= 1 // 81 bits
			e := new(saferith.Nat).SetBytes(buf)

			actual, err := brick.Exp(nil, e)
			require.NoError(t, err)
			expected := new(saferith.Nat).Exp(g, e, m)
			assert.Equal(t, saferith.Choice(1), expected.Eq(actual), "window %d", window)
		}
	}
}

func TestBrick_EdgeExponents(t *testing.T) {
	m := saferith.ModulusFromUint64(1000003)
	g := new(saferith.Nat).SetUint64(5)
	brick, err := NewBrick(g, m, 4, 20)
	require.NoError(t, err)

	z, err := brick.Exp(nil, new(saferith.Nat).SetUint64(0))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), z.Big().Uint64())

	z, err = brick.Exp(nil, new(saferith.Nat).SetUint64(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), z.Big().Uint64())

	top := new(saferith.Nat).SetUint64(1<<20 - 1)
	z, err = brick.Exp(nil, top)
	require.NoError(t, err)
	assert.Equal(t, new(saferith.Nat).Exp(g, top, m).Big().Uint64(), z.Big().Uint64())

	_, err = brick.Exp(nil, new(saferith.Nat).SetUint64(1<<20))
	assert.ErrorIs(t, err, ErrBrickExponent)
}

func TestBrick_Parameters(t *testing.T) {
	m := saferith.ModulusFromUint64(101)
	g := new(saferith.Nat).SetUint64(2)

	_, err := NewBrick(g, m, 0, 10)
	assert.ErrorIs(t, err, ErrBrickParameter)
	_, err = NewBrick(g, m, 4, 0)
	assert.ErrorIs(t, err, ErrBrickParameter)
	_, err = NewBrick(g, m, 64, 10)
	assert.ErrorIs(t, err, ErrBrickParameter)

	brick, err := NewBrick(g, m, 19, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, brick.Window(), "window is clamped to the exponent size")
	assert.Equal(t, 6, brick.MaxExpBits())
}

func TestBrick_Release(t *testing.T) {
	m := saferith.ModulusFromUint64(101)
	brick, err := NewBrick(new(saferith.Nat).SetUint64(2), m, 2, 8)
	require.NoError(t, err)
	assert.False(t, brick.Released())
	brick.Release()
	assert.True(t, brick.Released())
	_, err = brick.Exp(nil, new(saferith.Nat).SetUint64(3))
	assert.ErrorIs(t, err, ErrBrickReleased)
}

func BenchmarkBrick(b *testing.B) {
	r := mrand.New(mrand.NewSource(0))
	m := saferith.ModulusFromNat(samplePrime(b, r, 1024))
	g := sampleNat(r, m)
	brick, _ := NewBrick(g, m, 8, 81)
	e := new(saferith.Nat).SetUint64(r.Uint64())

	b.Run("brick", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			resultNat, _ = brick.Exp(nil, e)
		}
	})
	b.Run("exp", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			resultNat = new(saferith.Nat).Exp(g, e, m)
		}
	})
}
