package arith

import (
	"errors"
	"math/big"

	"github.com/cronokirby/saferith"
)

// maxTextBase is the largest base with a printable digit alphabet.
const maxTextBase = big.MaxBase

var ErrInvalidDigits = errors.New("arith: malformed number for the io base")

// Format encodes x in the Context's io base.
//
// Bases up to 62 produce the usual digits 0-9a-zA-Z. Larger bases produce one byte
// per digit, most significant first, so that base 256 is the big-endian byte string.
func (c *Context) Format(x *saferith.Nat) ([]byte, error) {
	base, err := c.IOBase()
	if err != nil {
		return nil, err
	}
	return FormatBase(x, base), nil
}

// Parse decodes a value written by Format with the same io base.
func (c *Context) Parse(data []byte) (*saferith.Nat, error) {
	base, err := c.IOBase()
	if err != nil {
		return nil, err
	}
	return ParseBase(data, base)
}

// FormatBase encodes x in the given base; see Context.Format.
func FormatBase(x *saferith.Nat, base int) []byte {
	v := x.Big()
	switch {
	case base <= maxTextBase:
		return []byte(v.Text(base))
	case base == 256:
		if v.Sign() == 0 {
			return []byte{0}
		}
		return v.Bytes()
	}
	if v.Sign() == 0 {
		return []byte{0}
	}
	var digits []byte
	b := big.NewInt(int64(base))
	var d big.Int
	for v.Sign() > 0 {
		v.QuoRem(v, b, &d)
		digits = append(digits, byte(d.Uint64()))
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return digits
}

// ParseBase decodes data written by FormatBase in the given base.
func ParseBase(data []byte, base int) (*saferith.Nat, error) {
	if len(data) == 0 {
		return nil, ErrInvalidDigits
	}
	v := new(big.Int)
	switch {
	case base <= maxTextBase:
		if _, ok := v.SetString(string(data), base); !ok || v.Sign() < 0 {
			return nil, ErrInvalidDigits
		}
	case base == 256:
		v.SetBytes(data)
	default:
		b := big.NewInt(int64(base))
		var d big.Int
		for _, digit := range data {
			if int(digit) >= base {
				return nil, ErrInvalidDigits
			}
			v.Mul(v, b)
			v.Add(v, d.SetUint64(uint64(digit)))
		}
	}
	return new(saferith.Nat).SetBig(v, v.BitLen()), nil
}
