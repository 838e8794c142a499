package arith

import (
	"errors"
	"math/bits"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/crt-paillier/internal/params"
)

var (
	ErrBrickParameter = errors.New("arith: invalid brick window or exponent size")
	ErrBrickReleased  = errors.New("arith: brick table used after release")
	ErrBrickExponent  = errors.New("arith: exponent exceeds the brick table size")
	ErrBrickModulus   = errors.New("arith: brick table built for a different modulus")
)

// Brick is a fixed-base exponentiation table for a base g modulo m.
//
// It implements the Lim-Lee comb: an exponent of at most maxBits bits is cut into
// w rows of d = ⌈maxBits/w⌉ bits, and table[i] = ∏ⱼ gⱼ^(bit j of i) where
// gⱼ = g^(2^(j⋅d)). An exponentiation then costs d squarings and at most d multiplications.
// The table holds 2ʷ residues.
type Brick struct {
	m             *saferith.Modulus
	window, width int
	maxBits       int
	table         []saferith.Nat
}

// NewBrick precomputes the table for g (mod m).
// windowBits is clamped to maxExpBits.
func NewBrick(g *saferith.Nat, m *saferith.Modulus, windowBits, maxExpBits int) (*Brick, error) {
	if maxExpBits < 1 || windowBits < 1 || windowBits > params.MaxBrickWindowBits {
		return nil, ErrBrickParameter
	}
	if windowBits > maxExpBits {
		windowBits = maxExpBits
	}
	width := (maxExpBits + windowBits - 1) / windowBits

	// rows[j] = g^(2^(j⋅width))
	rows := make([]saferith.Nat, windowBits)
	rows[0].Mod(g, m)
	for j := 1; j < windowBits; j++ {
		rows[j].SetNat(&rows[j-1])
		for s := 0; s < width; s++ {
			rows[j].ModMul(&rows[j], &rows[j], m)
		}
	}

	table := make([]saferith.Nat, 1<<windowBits)
	table[0].Mod(new(saferith.Nat).SetUint64(1), m)
	for i := 1; i < len(table); i++ {
		top := bits.Len(uint(i)) - 1
		table[i].ModMul(&table[i&^(1<<top)], &rows[top], m)
	}

	return &Brick{
		m:       m,
		window:  windowBits,
		width:   width,
		maxBits: maxExpBits,
		table:   table,
	}, nil
}

// Modulus returns the modulus the table was built for.
func (b *Brick) Modulus() *saferith.Modulus {
	return b.m
}

// Window returns the effective window size in bits.
func (b *Brick) Window() int {
	return b.window
}

// MaxExpBits returns the largest exponent bit length the table supports.
func (b *Brick) MaxExpBits() int {
	return b.maxBits
}

// Exp sets z = gᵉ (mod m).
// If z is nil, a new Nat is allocated.
func (b *Brick) Exp(z, e *saferith.Nat) (*saferith.Nat, error) {
	if b.table == nil {
		return nil, ErrBrickReleased
	}
	eBig := e.Big()
	if eBig.BitLen() > b.maxBits {
		return nil, ErrBrickExponent
	}
	if z == nil {
		z = new(saferith.Nat)
	}
	z.SetNat(&b.table[0])
	for col := b.width - 1; col >= 0; col-- {
		z.ModMul(z, z, b.m)
		idx := 0
		for j := 0; j < b.window; j++ {
			idx |= int(eBig.Bit(j*b.width+col)) << j
		}
		if idx != 0 {
			z.ModMul(z, &b.table[idx], b.m)
		}
	}
	return z, nil
}

// Release drops the table. Exp fails afterwards.
func (b *Brick) Release() {
	b.table = nil
}

// Released reports whether Release was called.
func (b *Brick) Released() bool {
	return b.table == nil
}
