package hash

import (
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
)

func TestHash_WriteAny(t *testing.T) {
	testFunc := func(vs ...interface{}) error {
		return New("test").WriteAny(vs...)
	}

	assert.NoError(t, testFunc(new(saferith.Nat).SetUint64(35)))
	assert.NoError(t, testFunc(saferith.ModulusFromUint64(35)))
	assert.NoError(t, testFunc([]byte{1, 4, 6}))
	assert.NoError(t, testFunc(BytesWithDomain{TheDomain: "x", Bytes: []byte{1}}))

	var n *saferith.Nat
	assert.Error(t, testFunc(n))
	assert.Error(t, testFunc(42))

	assert.NoError(t, testFunc(new(saferith.Nat).SetUint64(35), []byte{1, 4, 6}))
}

func TestHash_Domains(t *testing.T) {
	h1 := New("a")
	h2 := New("b")
	assert.NotEqual(t, h1.Sum(), h2.Sum())

	h3 := New("a")
	_ = h3.WriteAny([]byte{1})
	h4 := New("a")
	_ = h4.WriteAny([]byte{1})
	assert.Equal(t, h3.Sum(), h4.Sum())
	_ = h4.WriteAny([]byte{2})
	assert.NotEqual(t, h3.Sum(), h4.Sum())
	assert.Len(t, h3.Sum(), DigestLengthBytes)
}
