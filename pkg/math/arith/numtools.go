package arith

import (
	"errors"
	"math/big"

	"github.com/cronokirby/saferith"
)

var ErrNotCoprime = errors.New("arith: CRT moduli are not coprime")

// IsCoprime returns true if gcd(a,b) = 1.
// It is not constant time and is meant for public or discarded values.
func IsCoprime(a, b *big.Int) bool {
	var gcd big.Int
	return gcd.GCD(nil, nil, a, b).Cmp(big.NewInt(1)) == 0
}

// ModMul returns z = x⋅y (mod n), computed in the Montgomery domain of n.
// If z is nil, a new Nat is allocated.
func ModMul(z, x, y *saferith.Nat, n *saferith.Modulus) *saferith.Nat {
	if z == nil {
		z = new(saferith.Nat)
	}
	return z.ModMul(x, y, n)
}

// SubExp returns z = aᵉ (mod m) using a single Montgomery exponentiation.
// If z is nil, a new Nat is allocated.
func SubExp(z, a, e *saferith.Nat, m *saferith.Modulus) *saferith.Nat {
	if z == nil {
		z = new(saferith.Nat)
	}
	return z.Exp(a, e, m)
}

// CRT holds the cached values needed to work modulo n = a⋅b when the coprime
// factors a and b are known.
// xᵉ (mod n) can then be computed with two exponentiations mod a and b,
// and two residues can be recombined into the unique value mod n.
type CRT struct {
	// n = a⋅b
	n, a, b *saferith.Modulus
	// aInv = a⁻¹ (mod b)
	aNat, aInv *saferith.Nat
	// coeff = a⋅aInv (mod n), so that coeff ≡ 0 (mod a) and coeff ≡ 1 (mod b)
	coeff *saferith.Nat
}

// NewCRT creates the cached values to accelerate arithmetic mod a⋅b.
// a and b must be odd.
func NewCRT(a, b *saferith.Nat) (*CRT, error) {
	if a.Coprime(b) != 1 {
		return nil, ErrNotCoprime
	}
	bMod := saferith.ModulusFromNat(b)
	aInv := new(saferith.Nat).Mod(a, bMod)
	aInv.ModInverse(aInv, bMod)
	return newCRT(a, b, bMod, aInv), nil
}

// NewCRTWithInverse is NewCRT with aInv = a⁻¹ (mod b) already known.
func NewCRTWithInverse(a, b, aInv *saferith.Nat) (*CRT, error) {
	bMod := saferith.ModulusFromNat(b)
	check := new(saferith.Nat).Mod(a, bMod)
	check.ModMul(check, aInv, bMod)
	if check.Eq(new(saferith.Nat).SetUint64(1)) != 1 {
		return nil, ErrNotCoprime
	}
	return newCRT(a, b, bMod, new(saferith.Nat).SetNat(aInv)), nil
}

func newCRT(a, b *saferith.Nat, bMod *saferith.Modulus, aInv *saferith.Nat) *CRT {
	nMod := saferith.ModulusFromNat(new(saferith.Nat).Mul(a, b, -1))
	aNat := new(saferith.Nat).SetNat(a)
	coeff := new(saferith.Nat).Mod(aNat, nMod)
	coeff.ModMul(coeff, aInv, nMod)
	return &CRT{
		n:     nMod,
		a:     saferith.ModulusFromNat(aNat),
		b:     bMod,
		aNat:  aNat,
		aInv:  aInv,
		coeff: coeff,
	}
}

// Clone returns a deep copy of c.
// saferith resizes the limbs of some operands in place, so goroutines must not share a CRT.
func (c *CRT) Clone() *CRT {
	return &CRT{
		n:     CloneModulus(c.n),
		a:     CloneModulus(c.a),
		b:     CloneModulus(c.b),
		aNat:  c.aNat.Clone(),
		aInv:  c.aInv.Clone(),
		coeff: c.coeff.Clone(),
	}
}

// CloneModulus returns a deep copy of m.
func CloneModulus(m *saferith.Modulus) *saferith.Modulus {
	return saferith.ModulusFromNat(m.Nat())
}

// Modulus returns n = a⋅b.
func (c *CRT) Modulus() *saferith.Modulus { return c.n }

// A returns the first factor as a Modulus.
func (c *CRT) A() *saferith.Modulus { return c.a }

// B returns the second factor as a Modulus.
func (c *CRT) B() *saferith.Modulus { return c.b }

// AInv returns a⁻¹ (mod b).
func (c *CRT) AInv() *saferith.Nat { return c.aInv }

// Combine sets z to the unique value mod n with z ≡ xa (mod a) and z ≡ xb (mod b).
// xa must be reduced mod a, and xb mod b.
//
// z = xa + a ⋅ [a⁻¹ (mod b)] ⋅ [xb - xa] (mod n)
func (c *CRT) Combine(z, xa, xb *saferith.Nat) *saferith.Nat {
	if z == nil {
		z = new(saferith.Nat)
	}
	var xaN saferith.Nat
	xaN.Mod(xa, c.n)
	z.Mod(xb, c.n)
	z.ModSub(z, &xaN, c.n)
	z.ModMul(z, c.coeff, c.n)
	return z.ModAdd(z, &xaN, c.n)
}

// Exp sets z = xᵉ (mod n), splitting the exponentiation over a and b.
func (c *CRT) Exp(z, x, e *saferith.Nat) *saferith.Nat {
	var xa, xb saferith.Nat
	SubExp(&xa, x, e, c.a) // x₁ = xᵉ (mod a)
	SubExp(&xb, x, e, c.b) // x₂ = xᵉ (mod b)
	return c.Combine(z, &xa, &xb)
}

// ExpBrick sets z = gᵉ (mod n), where ba and bb are fixed-base tables for g (mod a)
// and g (mod b) respectively.
func (c *CRT) ExpBrick(z *saferith.Nat, ba, bb *Brick, e *saferith.Nat) (*saferith.Nat, error) {
	if ba.Modulus().Nat().Eq(c.a.Nat()) != 1 || bb.Modulus().Nat().Eq(c.b.Nat()) != 1 {
		return nil, ErrBrickModulus
	}
	xa, err := ba.Exp(nil, e)
	if err != nil {
		return nil, err
	}
	xb, err := bb.Exp(nil, e)
	if err != nil {
		return nil, err
	}
	return c.Combine(z, xa, xb), nil
}
