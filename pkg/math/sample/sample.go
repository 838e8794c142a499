package sample

import (
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
)

const maxIterations = 255

var ErrMaxIterations = fmt.Errorf("sample: failed to generate after %d iterations", maxIterations)

func readBits(rand io.Reader, buf []byte) error {
	var err error
	for i := 0; i < maxIterations; i++ {
		if _, err = io.ReadFull(rand, buf); err == nil {
			return nil
		}
	}
	return fmt.Errorf("sample: read randomness: %w", err)
}

// ModN samples an element of ℤₙ
func ModN(rand io.Reader, n *saferith.Modulus) (*saferith.Nat, error) {
	out := new(saferith.Nat)
	buf := make([]byte, (n.BitLen()+7)/8)
	// mask the excess top bits so that rejection succeeds with probability ≥ 1/2
	mask := byte(0xFF >> (8*len(buf) - n.BitLen()))
	for i := 0; i < maxIterations; i++ {
		if err := readBits(rand, buf); err != nil {
			return nil, err
		}
		buf[0] &= mask
		out.SetBytes(buf)
		if _, _, lt := out.CmpMod(n); lt == 1 {
			return out, nil
		}
	}
	return nil, ErrMaxIterations
}

// UnitModN returns a u ∈ ℤₙˣ
func UnitModN(rand io.Reader, n *saferith.Modulus) (*saferith.Nat, error) {
	for i := 0; i < maxIterations; i++ {
		u, err := ModN(rand, n)
		if err != nil {
			return nil, err
		}
		if u.IsUnit(n) == 1 {
			return u, nil
		}
	}
	return nil, ErrMaxIterations
}

// Bits samples a uniform integer in [0, 2ᵇⁱᵗˢ).
func Bits(rand io.Reader, bits int) (*saferith.Nat, error) {
	buf := make([]byte, (bits+7)/8)
	if err := readBits(rand, buf); err != nil {
		return nil, err
	}
	if excess := 8*len(buf) - bits; excess > 0 {
		buf[0] &= 0xFF >> excess
	}
	return new(saferith.Nat).SetBytes(buf).Resize(bits), nil
}

// NonZeroBits samples a uniform integer in [1, 2ᵇⁱᵗˢ).
func NonZeroBits(rand io.Reader, bits int) (*saferith.Nat, error) {
	for i := 0; i < maxIterations; i++ {
		x, err := Bits(rand, bits)
		if err != nil {
			return nil, err
		}
		if x.EqZero() != 1 {
			return x, nil
		}
	}
	return nil, ErrMaxIterations
}

// OddBits samples an odd integer of exactly bits bits: both the top and the bottom bit are set.
func OddBits(rand io.Reader, bits int) (*big.Int, error) {
	if bits < 2 {
		return nil, fmt.Errorf("sample: odd integer needs at least 2 bits, got %d", bits)
	}
	buf := make([]byte, (bits+7)/8)
	if err := readBits(rand, buf); err != nil {
		return nil, err
	}
	x := new(big.Int).SetBytes(buf)
	x.SetBit(x, 0, 1)
	for i := bits; i < 8*len(buf); i++ {
		x.SetBit(x, i, 0)
	}
	return x.SetBit(x, bits-1, 1), nil
}
