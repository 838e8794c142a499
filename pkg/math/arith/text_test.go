package arith

import (
	"math/big"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParse(t *testing.T) {
	x, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	values := []*saferith.Nat{
		new(saferith.Nat).SetUint64(0),
		new(saferith.Nat).SetUint64(1),
		new(saferith.Nat).SetUint64(255),
		new(saferith.Nat).SetBig(x, x.BitLen()),
	}
	for _, base := range []int{2, 10, 16, 36, 62, 63, 100, 255, 256} {
		for _, v := range values {
			data := FormatBase(v, base)
			parsed, err := ParseBase(data, base)
			require.NoError(t, err, "base %d", base)
			assert.Equal(t, saferith.Choice(1), parsed.Eq(v), "base %d", base)
		}
	}
}

func TestFormatKnownValues(t *testing.T) {
	v := new(saferith.Nat).SetUint64(0x1f4)
	assert.Equal(t, "500", string(FormatBase(v, 10)))
	assert.Equal(t, "1f4", string(FormatBase(v, 16)))
	assert.Equal(t, []byte{0x01, 0xf4}, FormatBase(v, 256))
	assert.Equal(t, []byte{5, 0}, FormatBase(v, 100))
}

func TestParseInvalid(t *testing.T) {
	_, err := ParseBase([]byte("12z"), 10)
	assert.ErrorIs(t, err, ErrInvalidDigits)
	_, err = ParseBase([]byte("-12"), 10)
	assert.ErrorIs(t, err, ErrInvalidDigits)
	_, err = ParseBase([]byte{1, 100}, 100)
	assert.ErrorIs(t, err, ErrInvalidDigits)
	_, err = ParseBase(nil, 16)
	assert.ErrorIs(t, err, ErrInvalidDigits)
}

func TestContext_Format(t *testing.T) {
	c, err := NewContext(0, 0, 16, nil)
	require.NoError(t, err)
	data, err := c.Format(new(saferith.Nat).SetUint64(255))
	require.NoError(t, err)
	assert.Equal(t, "ff", string(data))
	v, err := c.Parse([]byte("ff"))
	require.NoError(t, err)
	assert.Equal(t, uint64(255), v.Big().Uint64())
}
