package paillier

import (
	"io"

	"github.com/cronokirby/saferith"
)

// Ciphertext represents an integer of the form (1 + m⋅N) ⋅ hsʳ (mod N²).
type Ciphertext struct {
	c *saferith.Nat
}

// NewCiphertext wraps a copy of c. It is not validated until it is decrypted or summed.
func NewCiphertext(c *saferith.Nat) *Ciphertext {
	return &Ciphertext{c: new(saferith.Nat).SetNat(c)}
}

// Add sets ct to the homomorphic sum ct ⊕ ct₂.
// ct = ct•ct₂ (mod N²).
func (ct *Ciphertext) Add(pk *PublicKey, ct2 *Ciphertext) *Ciphertext {
	if ct2 == nil {
		return ct
	}
	ct.c.ModMul(ct.c, ct2.c, pk.nSquared)
	return ct
}

// Mul sets ct to the homomorphic multiplication of k ⊙ ct.
// ct = ctᵏ (mod N²).
func (ct *Ciphertext) Mul(pk *PublicKey, k *saferith.Nat) *Ciphertext {
	if k == nil {
		return ct
	}
	ct.c.Exp(ct.c, k, pk.nSquared)
	return ct
}

// Randomize multiplies ct by hsʳ, which changes its nonce r₀ to r₀ + r.
func (ct *Ciphertext) Randomize(pk *PublicKey, r *saferith.Nat) *Ciphertext {
	rhs := new(saferith.Nat).Exp(pk.hs, r, pk.nSquared)
	ct.c.ModMul(ct.c, rhs, pk.nSquared)
	return ct
}

// Equal check whether ct ≡ ctₐ (mod N²).
func (ct *Ciphertext) Equal(ctA *Ciphertext) bool {
	return ct.c.Eq(ctA.c) == 1
}

// Clone returns a deep copy of ct.
func (ct Ciphertext) Clone() *Ciphertext {
	return &Ciphertext{c: new(saferith.Nat).SetNat(ct.c)}
}

// Nat returns the underlying integer.
// WARNING: Do not modify the returned value.
func (ct *Ciphertext) Nat() *saferith.Nat {
	return ct.c
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (ct *Ciphertext) WriteTo(w io.Writer) (int64, error) {
	if ct == nil || ct.c == nil {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write(ct.c.Big().Bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (*Ciphertext) Domain() string {
	return "Paillier Ciphertext"
}
