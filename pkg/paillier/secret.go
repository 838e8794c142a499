package paillier

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/crt-paillier/pkg/math/arith"
	"github.com/taurusgroup/crt-paillier/pkg/math/sample"
)

// SecretKey is the secret key corresponding to a PublicKey.
//
// P = 2⋅pSec⋅pOdd + 1 and Q = 2⋅qSec⋅qOdd + 1, where pSec and qSec are l/2-bit primes.
// The exponent α = 2⋅pSec⋅qSec annihilates the nonce part of every ciphertext,
// which is what makes decryption with a short exponent possible.
type SecretKey struct {
	*PublicKey

	pSec, pOdd, qSec, qOdd *saferith.Nat
	p, q                   *saferith.Nat
	pMod, qMod             *saferith.Modulus

	// α = 2⋅pSec⋅qSec
	alpha *saferith.Nat
	// miu = α⁻¹ (mod N)
	miu *saferith.Nat
	// twoPSec = 2⋅pSec, twoQSec = 2⋅qSec
	twoPSec, twoQSec *saferith.Nat

	pSquared, qSquared *saferith.Nat
	// pSquaredInv = (P²)⁻¹ (mod Q²), qSquaredInv = (Q²)⁻¹ (mod P²)
	pSquaredInv, qSquaredInv *saferith.Nat
	// pInv = P⁻¹ (mod Q), qInv = Q⁻¹ (mod P)
	pInv, qInv *saferith.Nat

	phiP, phiQ, phiPSquared, phiQSquared *saferith.Nat

	// q2pInvP = (2⋅pSec⋅Q)⁻¹ (mod P)
	q2pInvP *saferith.Nat
	// p2qInvQ = (2⋅qSec⋅P)⁻¹ (mod Q)
	p2qInvQ *saferith.Nat
	// pInvP = P⋅[P⁻¹ (mod Q)] (mod N), the CRT coefficient mod N
	pInvP *saferith.Nat

	crtN2, crtN *arith.CRT
}

func natFromBig(x *big.Int) *saferith.Nat {
	return new(saferith.Nat).SetBig(x, x.BitLen())
}

// checkStrongPrimes verifies that two strong primes can form a key:
// P ≠ Q, pSec ≠ qSec, and pOdd, qOdd, pSec, qSec pairwise coprime across P and Q.
// gcd(pOdd, qSec) = gcd(qOdd, pSec) = 1 makes both decryption paths accept the same ciphertexts.
func checkStrongPrimes(a, b *sample.StrongPrime) error {
	if a.P.Cmp(b.P) == 0 {
		return errors.New("P = Q")
	}
	if a.Sec.Cmp(b.Sec) == 0 {
		return errors.New("pSec = qSec")
	}
	if !arith.IsCoprime(a.Odd, b.Sec) {
		return errors.New("gcd(pOdd, qSec) ≠ 1")
	}
	if !arith.IsCoprime(b.Odd, a.Sec) {
		return errors.New("gcd(qOdd, pSec) ≠ 1")
	}
	if !arith.IsCoprime(a.Odd, b.Odd) {
		return errors.New("gcd(pOdd, qOdd) ≠ 1")
	}
	return nil
}

// newSecretKey derives every cached value from the two strong primes.
// The returned key has no hs yet.
func newSecretKey(a, b *sample.StrongPrime) (*SecretKey, error) {
	if err := checkStrongPrimes(a, b); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
	}
	one := new(saferith.Nat).SetUint64(1)

	sk := &SecretKey{
		pSec: natFromBig(a.Sec),
		pOdd: natFromBig(a.Odd),
		qSec: natFromBig(b.Sec),
		qOdd: natFromBig(b.Odd),
		p:    natFromBig(a.P),
		q:    natFromBig(b.P),
	}
	sk.pMod = saferith.ModulusFromNat(sk.p)
	sk.qMod = saferith.ModulusFromNat(sk.q)

	n := new(saferith.Nat).Mul(sk.p, sk.q, -1)
	nonceBits := a.Sec.BitLen() + b.Sec.BitLen()
	sk.PublicKey = newPublicKey(n, nonceBits)
	nMod := sk.PublicKey.n

	sk.twoPSec = new(saferith.Nat).Lsh(sk.pSec, 1, -1)
	sk.twoQSec = new(saferith.Nat).Lsh(sk.qSec, 1, -1)
	sk.alpha = new(saferith.Nat).Mul(sk.twoPSec, sk.qSec, -1)

	alphaModN := new(saferith.Nat).Mod(sk.alpha, nMod)
	if alphaModN.IsUnit(nMod) != 1 {
		return nil, fmt.Errorf("%w: gcd(α, N) ≠ 1", ErrInvalidKey)
	}
	sk.miu = new(saferith.Nat).ModInverse(alphaModN, nMod)

	sk.pSquared = new(saferith.Nat).Mul(sk.p, sk.p, -1)
	sk.qSquared = new(saferith.Nat).Mul(sk.q, sk.q, -1)
	pSquaredMod := saferith.ModulusFromNat(sk.pSquared)
	qSquaredMod := saferith.ModulusFromNat(sk.qSquared)
	sk.pSquaredInv = new(saferith.Nat).Mod(sk.pSquared, qSquaredMod)
	sk.pSquaredInv.ModInverse(sk.pSquaredInv, qSquaredMod)
	sk.qSquaredInv = new(saferith.Nat).Mod(sk.qSquared, pSquaredMod)
	sk.qSquaredInv.ModInverse(sk.qSquaredInv, pSquaredMod)

	sk.pInv = new(saferith.Nat).Mod(sk.p, sk.qMod)
	sk.pInv.ModInverse(sk.pInv, sk.qMod)
	sk.qInv = new(saferith.Nat).Mod(sk.q, sk.pMod)
	sk.qInv.ModInverse(sk.qInv, sk.pMod)

	sk.phiP = new(saferith.Nat).Sub(sk.p, one, -1)
	sk.phiQ = new(saferith.Nat).Sub(sk.q, one, -1)
	sk.phiPSquared = new(saferith.Nat).Mul(sk.p, sk.phiP, -1)
	sk.phiQSquared = new(saferith.Nat).Mul(sk.q, sk.phiQ, -1)

	// (2⋅pSec⋅Q)⁻¹ (mod P)
	sk.q2pInvP = new(saferith.Nat).Mod(sk.twoPSec, sk.pMod)
	sk.q2pInvP.ModMul(sk.q2pInvP, new(saferith.Nat).Mod(sk.q, sk.pMod), sk.pMod)
	sk.q2pInvP.ModInverse(sk.q2pInvP, sk.pMod)
	// (2⋅qSec⋅P)⁻¹ (mod Q)
	sk.p2qInvQ = new(saferith.Nat).Mod(sk.twoQSec, sk.qMod)
	sk.p2qInvQ.ModMul(sk.p2qInvQ, new(saferith.Nat).Mod(sk.p, sk.qMod), sk.qMod)
	sk.p2qInvQ.ModInverse(sk.p2qInvQ, sk.qMod)

	var err error
	if sk.crtN2, err = arith.NewCRTWithInverse(sk.pSquared, sk.qSquared, sk.pSquaredInv); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
	}
	if sk.crtN, err = arith.NewCRTWithInverse(sk.p, sk.q, sk.pInv); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKey, err)
	}
	sk.pInvP = new(saferith.Nat).Mod(sk.p, nMod)
	sk.pInvP.ModMul(sk.pInvP, new(saferith.Nat).Mod(sk.pInv, nMod), nMod)
	return sk, nil
}

// clone returns a deep copy of sk, for use by another goroutine.
func (sk *SecretKey) clone() *SecretKey {
	return &SecretKey{
		PublicKey:   sk.PublicKey.clone(),
		pSec:        sk.pSec.Clone(),
		pOdd:        sk.pOdd.Clone(),
		qSec:        sk.qSec.Clone(),
		qOdd:        sk.qOdd.Clone(),
		p:           sk.p.Clone(),
		q:           sk.q.Clone(),
		pMod:        arith.CloneModulus(sk.pMod),
		qMod:        arith.CloneModulus(sk.qMod),
		alpha:       sk.alpha.Clone(),
		miu:         sk.miu.Clone(),
		twoPSec:     sk.twoPSec.Clone(),
		twoQSec:     sk.twoQSec.Clone(),
		pSquared:    sk.pSquared.Clone(),
		qSquared:    sk.qSquared.Clone(),
		pSquaredInv: sk.pSquaredInv.Clone(),
		qSquaredInv: sk.qSquaredInv.Clone(),
		pInv:        sk.pInv.Clone(),
		qInv:        sk.qInv.Clone(),
		phiP:        sk.phiP.Clone(),
		phiQ:        sk.phiQ.Clone(),
		phiPSquared: sk.phiPSquared.Clone(),
		phiQSquared: sk.phiQSquared.Clone(),
		q2pInvP:     sk.q2pInvP.Clone(),
		p2qInvQ:     sk.p2qInvQ.Clone(),
		pInvP:       sk.pInvP.Clone(),
		crtN2:       sk.crtN2.Clone(),
		crtN:        sk.crtN.Clone(),
	}
}

// sampleHs samples y ∈ ℤₙˣ and sets hs = hᴺ (mod N²) with h = −y^(2β) (mod N), β = 2⋅pOdd⋅qOdd.
func (sk *SecretKey) sampleHs(rand io.Reader) error {
	y, err := sample.UnitModN(rand, sk.n)
	if err != nil {
		return err
	}
	// 2β = 4⋅pOdd⋅qOdd
	twoBeta := new(saferith.Nat).Mul(sk.pOdd, sk.qOdd, -1)
	twoBeta.Lsh(twoBeta, 2, -1)
	h := new(saferith.Nat).Exp(y, twoBeta, sk.n)
	h.ModNeg(h, sk.n)
	hs := new(saferith.Nat).Exp(h, sk.nNat, sk.nSquared)
	return sk.PublicKey.setHs(hs)
}

// checkHs verifies that hs is a unit mod N² whose order divides α.
func (sk *SecretKey) checkHs(hs *saferith.Nat) error {
	pk := &PublicKey{n: sk.n, nSquared: sk.nSquared, nNat: sk.nNat, nonceBits: sk.nonceBits}
	if err := pk.setHs(hs); err != nil {
		return err
	}
	one := new(saferith.Nat).SetUint64(1)
	if sk.crtN2.Exp(nil, hs, sk.alpha).Eq(one) != 1 {
		return fmt.Errorf("%w: hs^α ≠ 1 (mod N²)", ErrInvalidKey)
	}
	return nil
}

// Validate checks every defining relation of the key.
func (sk *SecretKey) Validate() error {
	one := new(saferith.Nat).SetUint64(1)
	fail := func(what string) error {
		return fmt.Errorf("%w: %s", ErrInvalidKey, what)
	}

	if !sample.IsStrongPrime(sk.pSec.Big(), sk.pOdd.Big(), sk.p.Big()) {
		return fail("P is not 2⋅pSec⋅pOdd + 1 with pSec, P prime")
	}
	if !sample.IsStrongPrime(sk.qSec.Big(), sk.qOdd.Big(), sk.q.Big()) {
		return fail("Q is not 2⋅qSec⋅qOdd + 1 with qSec, Q prime")
	}
	if err := checkStrongPrimes(
		&sample.StrongPrime{Sec: sk.pSec.Big(), Odd: sk.pOdd.Big(), P: sk.p.Big()},
		&sample.StrongPrime{Sec: sk.qSec.Big(), Odd: sk.qOdd.Big(), P: sk.q.Big()},
	); err != nil {
		return fail(err.Error())
	}
	if new(saferith.Nat).Mul(sk.p, sk.q, -1).Eq(sk.nNat) != 1 {
		return fail("N ≠ P⋅Q")
	}
	if sk.alpha.Eq(new(saferith.Nat).Mul(sk.twoPSec, sk.qSec, -1)) != 1 {
		return fail("α ≠ 2⋅pSec⋅qSec")
	}
	checks := []struct {
		what    string
		x, y    *saferith.Nat
		modulus *saferith.Modulus
	}{
		{"α⋅miu ≠ 1 (mod N)", sk.alpha, sk.miu, sk.n},
		{"P²⋅pSquaredInv ≠ 1 (mod Q²)", sk.pSquared, sk.pSquaredInv, sk.crtN2.B()},
		{"Q²⋅qSquaredInv ≠ 1 (mod P²)", sk.qSquared, sk.qSquaredInv, sk.crtN2.A()},
		{"P⋅pInv ≠ 1 (mod Q)", sk.p, sk.pInv, sk.qMod},
		{"Q⋅qInv ≠ 1 (mod P)", sk.q, sk.qInv, sk.pMod},
		{"2⋅pSec⋅Q⋅q2pInvP ≠ 1 (mod P)", new(saferith.Nat).Mul(sk.twoPSec, sk.q, -1), sk.q2pInvP, sk.pMod},
		{"2⋅qSec⋅P⋅p2qInvQ ≠ 1 (mod Q)", new(saferith.Nat).Mul(sk.twoQSec, sk.p, -1), sk.p2qInvQ, sk.qMod},
	}
	for _, c := range checks {
		x := new(saferith.Nat).Mod(c.x, c.modulus)
		if x.ModMul(x, c.y, c.modulus).Eq(one) != 1 {
			return fail(c.what)
		}
	}
	if new(saferith.Nat).Mod(sk.pInvP, sk.pMod).EqZero() != 1 ||
		new(saferith.Nat).Mod(sk.pInvP, sk.qMod).Eq(one) != 1 {
		return fail("pInvP is not the CRT coefficient of N")
	}
	if sk.hs == nil {
		return fail("hs is missing")
	}
	return sk.checkHs(sk.hs)
}

// PSec returns the secret prime factor of P-1.
// WARNING: Do not modify the returned value.
func (sk *SecretKey) PSec() *saferith.Nat { return sk.pSec }

// POdd returns the odd cofactor of P-1.
// WARNING: Do not modify the returned value.
func (sk *SecretKey) POdd() *saferith.Nat { return sk.pOdd }

// QSec returns the secret prime factor of Q-1.
// WARNING: Do not modify the returned value.
func (sk *SecretKey) QSec() *saferith.Nat { return sk.qSec }

// QOdd returns the odd cofactor of Q-1.
// WARNING: Do not modify the returned value.
func (sk *SecretKey) QOdd() *saferith.Nat { return sk.qOdd }

// P returns the first of the two factors composing this key.
// WARNING: Do not modify the returned value.
func (sk *SecretKey) P() *saferith.Nat { return sk.p }

// Q returns the second of the two factors composing this key.
// WARNING: Do not modify the returned value.
func (sk *SecretKey) Q() *saferith.Nat { return sk.q }

// Alpha returns the decryption exponent α = 2⋅pSec⋅qSec.
// WARNING: Do not modify the returned value.
func (sk *SecretKey) Alpha() *saferith.Nat { return sk.alpha }

// Miu returns α⁻¹ (mod N).
// WARNING: Do not modify the returned value.
func (sk *SecretKey) Miu() *saferith.Nat { return sk.miu }

// TwoPSec returns 2⋅pSec, a multiple of the order of hs (mod P²).
// WARNING: Do not modify the returned value.
func (sk *SecretKey) TwoPSec() *saferith.Nat { return sk.twoPSec }

// TwoQSec returns 2⋅qSec, a multiple of the order of hs (mod Q²).
// WARNING: Do not modify the returned value.
func (sk *SecretKey) TwoQSec() *saferith.Nat { return sk.twoQSec }

// PSquared returns P².
// WARNING: Do not modify the returned value.
func (sk *SecretKey) PSquared() *saferith.Nat { return sk.pSquared }

// QSquared returns Q².
// WARNING: Do not modify the returned value.
func (sk *SecretKey) QSquared() *saferith.Nat { return sk.qSquared }

// PSquaredInv returns (P²)⁻¹ (mod Q²).
// WARNING: Do not modify the returned value.
func (sk *SecretKey) PSquaredInv() *saferith.Nat { return sk.pSquaredInv }

// QSquaredInv returns (Q²)⁻¹ (mod P²).
// WARNING: Do not modify the returned value.
func (sk *SecretKey) QSquaredInv() *saferith.Nat { return sk.qSquaredInv }

// PInv returns P⁻¹ (mod Q).
// WARNING: Do not modify the returned value.
func (sk *SecretKey) PInv() *saferith.Nat { return sk.pInv }

// QInv returns Q⁻¹ (mod P).
// WARNING: Do not modify the returned value.
func (sk *SecretKey) QInv() *saferith.Nat { return sk.qInv }

// PhiP returns ϕ(P) = P-1.
// WARNING: Do not modify the returned value.
func (sk *SecretKey) PhiP() *saferith.Nat { return sk.phiP }

// PhiQ returns ϕ(Q) = Q-1.
// WARNING: Do not modify the returned value.
func (sk *SecretKey) PhiQ() *saferith.Nat { return sk.phiQ }

// PhiPSquared returns ϕ(P²) = P⋅(P-1).
// WARNING: Do not modify the returned value.
func (sk *SecretKey) PhiPSquared() *saferith.Nat { return sk.phiPSquared }

// PhiQSquared returns ϕ(Q²) = Q⋅(Q-1).
// WARNING: Do not modify the returned value.
func (sk *SecretKey) PhiQSquared() *saferith.Nat { return sk.phiQSquared }

// Phi returns ϕ = (P-1)(Q-1).
func (sk *SecretKey) Phi() *saferith.Nat {
	return new(saferith.Nat).Mul(sk.phiP.Clone(), sk.phiQ.Clone(), -1)
}

// Q2pInvP returns (2⋅pSec⋅Q)⁻¹ (mod P).
// WARNING: Do not modify the returned value.
func (sk *SecretKey) Q2pInvP() *saferith.Nat { return sk.q2pInvP }

// P2qInvQ returns (2⋅qSec⋅P)⁻¹ (mod Q).
// WARNING: Do not modify the returned value.
func (sk *SecretKey) P2qInvQ() *saferith.Nat { return sk.p2qInvQ }

// PInvP returns P⋅[P⁻¹ (mod Q)] (mod N).
// WARNING: Do not modify the returned value.
func (sk *SecretKey) PInvP() *saferith.Nat { return sk.pInvP }
