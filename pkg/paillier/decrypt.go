package paillier

import (
	"fmt"
	"strings"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/crt-paillier/pkg/math/arith"
)

// Path selects a decryption algorithm.
type Path int

const (
	// PathGeneric computes L(c^α (mod N²)) ⋅ α⁻¹ (mod N).
	PathGeneric Path = iota
	// PathFast computes m (mod P) and m (mod Q) from c^(2⋅pSec) (mod P²) and
	// c^(2⋅qSec) (mod Q²), and recombines them mod N.
	PathFast
)

func (p Path) String() string {
	switch p {
	case PathGeneric:
		return "generic"
	case PathFast:
		return "fast"
	default:
		return fmt.Sprintf("Path(%d)", int(p))
	}
}

// ParsePath returns the Path named s.
func ParsePath(s string) (Path, error) {
	switch strings.ToLower(s) {
	case "generic":
		return PathGeneric, nil
	case "fast", "crt":
		return PathFast, nil
	}
	return 0, fmt.Errorf("paillier: unknown decryption path %q", s)
}

// Decrypter decrypts ciphertexts with a SecretKey, using the scratch registers of its Context.
type Decrypter struct {
	actx *arith.Context
	sk   *SecretKey
}

// NewDecrypter returns a Decrypter for sk.
func NewDecrypter(actx *arith.Context, sk *SecretKey) *Decrypter {
	return &Decrypter{actx: actx, sk: sk}
}

// WithContext returns a Decrypter bound to another Context, with its own copy of the key.
// The result may run concurrently with d.
func (d *Decrypter) WithContext(actx *arith.Context) *Decrypter {
	return &Decrypter{actx: actx, sk: d.sk.clone()}
}

// Decrypt returns the plaintext m ∈ [0, N) of ct along the given path.
//
// It returns ErrInvalidCiphertext if ct ∉ [1, N²), gcd(ct, N) ≠ 1, or ct is not
// of the form (1 + m⋅N) ⋅ u with u of order dividing α. Both paths accept the same
// ciphertexts and agree on the result.
func (d *Decrypter) Decrypt(ct *Ciphertext, path Path) (*saferith.Nat, error) {
	switch path {
	case PathGeneric:
		return d.DecryptGeneric(ct)
	case PathFast:
		return d.DecryptFast(ct)
	}
	return nil, fmt.Errorf("paillier: unknown decryption path %d", int(path))
}

// crtHalves are the exponents applied to a ciphertext mod P² and mod Q².
type crtHalves struct {
	eP, eQ *saferith.Nat
}

// begin validates ct, claims the Context and computes c^eP (mod P²) and c^eQ (mod Q²)
// into the first two scratch registers.
// On success, the caller must Release the Context.
func (d *Decrypter) begin(ct *Ciphertext, h crtHalves) (*arith.Scratch, error) {
	if !d.sk.ValidateCiphertexts(ct) {
		return nil, ErrInvalidCiphertext
	}
	s, err := d.actx.Acquire()
	if err != nil {
		return nil, err
	}
	crt := d.sk.crtN2
	arith.SubExp(s.Reg(0), ct.c, h.eP, crt.A())
	arith.SubExp(s.Reg(1), ct.c, h.eQ, crt.B())
	return s, nil
}

// lFunction sets z = (x - 1)/d, failing if x ≢ 1 (mod d).
func lFunction(z, x *saferith.Nat, d *saferith.Modulus) (*saferith.Nat, error) {
	one := new(saferith.Nat).SetUint64(1)
	if new(saferith.Nat).Mod(x, d).Eq(one) != 1 {
		return nil, ErrInvalidCiphertext
	}
	z.Sub(x, one, -1)
	return z.Div(z, d, -1), nil
}

// DecryptGeneric decrypts ct with the exponent α:
//
//	t = c^α (mod N²), computed over P² and Q²
//	m = [(t - 1)/N] ⋅ α⁻¹ (mod N)
func (d *Decrypter) DecryptGeneric(ct *Ciphertext) (*saferith.Nat, error) {
	sk := d.sk
	s, err := d.begin(ct, crtHalves{eP: sk.alpha, eQ: sk.alpha})
	if err != nil {
		return nil, err
	}
	defer d.actx.Release()

	t := sk.crtN2.Combine(s.Reg(2), s.Reg(0), s.Reg(1))
	l, err := lFunction(s.Reg(3), t, sk.n)
	if err != nil {
		return nil, err
	}
	l.Mod(l, sk.n)
	return new(saferith.Nat).ModMul(l, sk.miu, sk.n), nil
}

// DecryptFast decrypts ct prime by prime:
//
//	mp = [(c^(2⋅pSec) (mod P²) - 1)/P] ⋅ (2⋅pSec⋅Q)⁻¹ (mod P)
//	mq = [(c^(2⋅qSec) (mod Q²) - 1)/Q] ⋅ (2⋅qSec⋅P)⁻¹ (mod Q)
//	m  = mp + (mq - mp) ⋅ P ⋅ [P⁻¹ (mod Q)] (mod N)
func (d *Decrypter) DecryptFast(ct *Ciphertext) (*saferith.Nat, error) {
	sk := d.sk
	s, err := d.begin(ct, crtHalves{eP: sk.twoPSec, eQ: sk.twoQSec})
	if err != nil {
		return nil, err
	}
	defer d.actx.Release()

	mp, err := lFunction(s.Reg(2), s.Reg(0), sk.pMod)
	if err != nil {
		return nil, err
	}
	mp.Mod(mp, sk.pMod)
	mp.ModMul(mp, sk.q2pInvP, sk.pMod)

	mq, err := lFunction(s.Reg(3), s.Reg(1), sk.qMod)
	if err != nil {
		return nil, err
	}
	mq.Mod(mq, sk.qMod)
	mq.ModMul(mq, sk.p2qInvQ, sk.qMod)

	return sk.crtN.Combine(nil, mp, mq), nil
}
