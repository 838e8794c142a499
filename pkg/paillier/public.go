package paillier

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/crt-paillier/internal/hash"
	"github.com/taurusgroup/crt-paillier/pkg/math/arith"
	"github.com/taurusgroup/crt-paillier/pkg/math/sample"
)

// PublicKey is the public part (N, hs) of a key pair.
type PublicKey struct {
	n, nSquared *saferith.Modulus
	nNat        *saferith.Nat
	// hs = hᴺ (mod N²), the fixed base of the nonce part of a ciphertext
	hs *saferith.Nat
	// nonceBits is the bit length of encryption nonces.
	// It covers the order 2⋅p⋅q of hs.
	nonceBits int
}

// NewPublicKey returns the public key (N, hs) for nonces of nonceBits bits.
//
// N must be odd, hs must be a unit mod N², and nonceBits at most the bit length of N.
func NewPublicKey(n, hs *saferith.Nat, nonceBits int) (*PublicKey, error) {
	if n.Big().Bit(0) != 1 || n.Big().BitLen() < 2 {
		return nil, fmt.Errorf("%w: N must be an odd integer > 1", ErrInvalidKey)
	}
	if nonceBits < 1 || nonceBits > n.Big().BitLen() {
		return nil, fmt.Errorf("%w: nonce size %d outside [1, %d]", ErrInvalidKey, nonceBits, n.Big().BitLen())
	}
	pk := newPublicKey(n, nonceBits)
	if err := pk.setHs(hs); err != nil {
		return nil, err
	}
	return pk, nil
}

func newPublicKey(n *saferith.Nat, nonceBits int) *PublicKey {
	nNat := new(saferith.Nat).SetNat(n)
	nSquared := new(saferith.Nat).Mul(nNat, nNat, -1)
	return &PublicKey{
		n:         saferith.ModulusFromNat(nNat),
		nSquared:  saferith.ModulusFromNat(nSquared),
		nNat:      nNat,
		nonceBits: nonceBits,
	}
}

// clone returns a deep copy of pk.
// saferith resizes the limbs of some operands in place, so goroutines must not share a key.
func (pk *PublicKey) clone() *PublicKey {
	c := &PublicKey{
		n:         arith.CloneModulus(pk.n),
		nSquared:  arith.CloneModulus(pk.nSquared),
		nNat:      pk.nNat.Clone(),
		nonceBits: pk.nonceBits,
	}
	if pk.hs != nil {
		c.hs = pk.hs.Clone()
	}
	return c
}

func (pk *PublicKey) setHs(hs *saferith.Nat) error {
	if hs.EqZero() == 1 {
		return fmt.Errorf("%w: hs is zero", ErrInvalidKey)
	}
	if _, _, lt := hs.CmpMod(pk.nSquared); lt != 1 {
		return fmt.Errorf("%w: hs is not reduced mod N²", ErrInvalidKey)
	}
	if hs.IsUnit(pk.nSquared) != 1 {
		return fmt.Errorf("%w: hs is not a unit mod N²", ErrInvalidKey)
	}
	pk.hs = new(saferith.Nat).Mod(hs, pk.nSquared)
	return nil
}

// N is the RSA modulus of the key.
// WARNING: Do not modify the returned value.
func (pk *PublicKey) N() *saferith.Modulus {
	return pk.n
}

// N2 returns N².
// WARNING: Do not modify the returned value.
func (pk *PublicKey) N2() *saferith.Modulus {
	return pk.nSquared
}

// Hs returns the fixed base hs of the nonce part.
// WARNING: Do not modify the returned value.
func (pk *PublicKey) Hs() *saferith.Nat {
	return pk.hs
}

// NonceBits is the bit length of the nonces sampled by Enc.
func (pk *PublicKey) NonceBits() int {
	return pk.nonceBits
}

// Equal returns true if pk ≡ other.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.n.Nat().Eq(other.n.Nat()) == 1 && pk.hs.Eq(other.hs) == 1 && pk.nonceBits == other.nonceBits
}

// Fingerprint is a short digest identifying the key.
func (pk *PublicKey) Fingerprint() []byte {
	h := hash.New("Paillier PublicKey")
	_ = h.WriteAny(pk.n, pk.hs)
	return h.Sum()
}

// Digest hashes the key together with cts, in order.
func (pk *PublicKey) Digest(cts ...*Ciphertext) ([]byte, error) {
	h := hash.New("Paillier Ciphertexts")
	if err := h.WriteAny(pk.n, pk.hs); err != nil {
		return nil, err
	}
	for _, ct := range cts {
		if err := h.WriteAny(ct); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
		}
	}
	return h.Sum(), nil
}

// ValidateCiphertexts checks if all ciphertexts are in the correct range and coprime to N
// ct ∈ [1, …, N²-1] AND GCD(ct, N) = 1.
func (pk *PublicKey) ValidateCiphertexts(cts ...*Ciphertext) bool {
	for _, ct := range cts {
		if ct == nil || ct.c == nil {
			return false
		}
		if ct.c.EqZero() == 1 {
			return false
		}
		if _, _, lt := ct.c.CmpMod(pk.nSquared); lt != 1 {
			return false
		}
		if ct.c.Coprime(pk.nNat) != 1 {
			return false
		}
	}
	return true
}

// validatePlaintext checks that m ∈ [0, N).
func (pk *PublicKey) validatePlaintext(m *saferith.Nat) error {
	if m == nil {
		return ErrPlaintextOutOfRange
	}
	if _, _, lt := m.CmpMod(pk.n); lt != 1 {
		return ErrPlaintextOutOfRange
	}
	return nil
}

// encodePlaintext returns z = 1 + m⋅N, which is (1+N)ᵐ (mod N²).
func (pk *PublicKey) encodePlaintext(z, m *saferith.Nat) *saferith.Nat {
	if z == nil {
		z = new(saferith.Nat)
	}
	z.Mul(m, pk.nNat, -1)
	z.Add(z, new(saferith.Nat).SetUint64(1), -1)
	return z.Mod(z, pk.nSquared)
}

// Enc returns the encryption of m ∈ [0, N) with a fresh nonce, together with the nonce.
//
// It uses plain exponentiation of hs and serves as the reference for Encrypter.
func (pk *PublicKey) Enc(rand io.Reader, m *saferith.Nat) (*Ciphertext, *saferith.Nat, error) {
	r, err := sample.NonZeroBits(rand, pk.nonceBits)
	if err != nil {
		return nil, nil, err
	}
	ct, err := pk.EncWithNonce(m, r)
	if err != nil {
		return nil, nil, err
	}
	return ct, r, nil
}

// EncWithNonce returns the encryption of m ∈ [0, N) under the nonce r.
//
// ct = (1 + m⋅N) ⋅ hsʳ (mod N²)
func (pk *PublicKey) EncWithNonce(m, r *saferith.Nat) (*Ciphertext, error) {
	if err := pk.validatePlaintext(m); err != nil {
		return nil, err
	}
	c := pk.encodePlaintext(nil, m)
	rhs := new(saferith.Nat).Exp(pk.hs, r, pk.nSquared)
	c.ModMul(c, rhs, pk.nSquared)
	return &Ciphertext{c: c}, nil
}

// Sum returns the homomorphic sum of cts, a ciphertext of the sum of their plaintexts mod N.
func (pk *PublicKey) Sum(cts ...*Ciphertext) (*Ciphertext, error) {
	if len(cts) == 0 {
		return nil, fmt.Errorf("%w: empty sum", ErrInvalidCiphertext)
	}
	if !pk.ValidateCiphertexts(cts...) {
		return nil, ErrInvalidCiphertext
	}
	sum := cts[0].Clone()
	for _, ct := range cts[1:] {
		sum.Add(pk, ct)
	}
	return sum, nil
}
