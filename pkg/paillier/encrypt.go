package paillier

import (
	"fmt"

	"github.com/cronokirby/saferith"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/taurusgroup/crt-paillier/internal/params"
	"github.com/taurusgroup/crt-paillier/pkg/math/arith"
	"github.com/taurusgroup/crt-paillier/pkg/math/sample"
)

// Encrypter is an encryption session holding fixed-base tables for hs.
//
// With the secret key, hsʳ is computed with one table mod P² and one mod Q²,
// recombined by CRT. With only the public key, a single table mod N² is used.
// Close releases the tables, after which encryption fails with ErrSessionClosed.
type Encrypter struct {
	actx   *arith.Context
	pk     *PublicKey
	crt    *arith.CRT
	bricks []*arith.Brick
}

type encrypterConfig struct {
	window     int
	maxExpBits int
}

// EncrypterOption configures the tables of an Encrypter.
type EncrypterOption func(*encrypterConfig)

// WithWindow sets the comb window of the tables, which then hold 2ʷⁱⁿᵈᵒʷ residues each.
func WithWindow(bits int) EncrypterOption {
	return func(c *encrypterConfig) {
		c.window = bits
	}
}

// WithMaxExpBits sets the largest nonce bit length the tables accept.
func WithMaxExpBits(bits int) EncrypterOption {
	return func(c *encrypterConfig) {
		c.maxExpBits = bits
	}
}

func newEncrypterConfig(pk *PublicKey, opts []EncrypterOption) encrypterConfig {
	cfg := encrypterConfig{
		window:     params.BrickWindowBits,
		maxExpBits: pk.nonceBits + 1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewEncrypter prepares the CRT tables of sk's hs.
func NewEncrypter(actx *arith.Context, sk *SecretKey, opts ...EncrypterOption) (*Encrypter, error) {
	if !actx.Active() {
		return nil, arith.ErrUninitialized
	}
	cfg := newEncrypterConfig(sk.PublicKey, opts)
	hsP := new(saferith.Nat).Mod(sk.hs, sk.crtN2.A())
	hsQ := new(saferith.Nat).Mod(sk.hs, sk.crtN2.B())
	brickP, err := arith.NewBrick(hsP, sk.crtN2.A(), cfg.window, cfg.maxExpBits)
	if err != nil {
		return nil, fmt.Errorf("paillier: table mod P²: %w", err)
	}
	brickQ, err := arith.NewBrick(hsQ, sk.crtN2.B(), cfg.window, cfg.maxExpBits)
	if err != nil {
		return nil, fmt.Errorf("paillier: table mod Q²: %w", err)
	}
	jww.DEBUG.Printf("paillier: prepared CRT tables, window %d, nonces up to %d bits",
		brickP.Window(), cfg.maxExpBits)
	return &Encrypter{
		actx:   actx,
		pk:     sk.PublicKey,
		crt:    sk.crtN2,
		bricks: []*arith.Brick{brickP, brickQ},
	}, nil
}

// NewPublicEncrypter prepares a single table of hs mod N², for encryption without the secret key.
func NewPublicEncrypter(actx *arith.Context, pk *PublicKey, opts ...EncrypterOption) (*Encrypter, error) {
	if !actx.Active() {
		return nil, arith.ErrUninitialized
	}
	cfg := newEncrypterConfig(pk, opts)
	brick, err := arith.NewBrick(pk.hs, pk.nSquared, cfg.window, cfg.maxExpBits)
	if err != nil {
		return nil, fmt.Errorf("paillier: table mod N²: %w", err)
	}
	jww.DEBUG.Printf("paillier: prepared public table, window %d, nonces up to %d bits",
		brick.Window(), cfg.maxExpBits)
	return &Encrypter{
		actx:   actx,
		pk:     pk,
		bricks: []*arith.Brick{brick},
	}, nil
}

// PublicKey returns the key this session encrypts under.
func (e *Encrypter) PublicKey() *PublicKey {
	return e.pk
}

// WithContext returns a view of the session bound to another Context, with its own copy
// of the key. The result may run concurrently with e. The tables are shared and only read
// by Encrypt, and are released by Close on either.
func (e *Encrypter) WithContext(actx *arith.Context) *Encrypter {
	e2 := *e
	e2.actx = actx
	e2.pk = e.pk.clone()
	if e.crt != nil {
		e2.crt = e.crt.Clone()
	}
	return &e2
}

// Encrypt returns an encryption of m ∈ [0, N) under a fresh nonce r ∈ [1, 2ˡ).
func (e *Encrypter) Encrypt(m *saferith.Nat) (*Ciphertext, error) {
	r, err := sample.NonZeroBits(e.actx.Rand(), e.pk.nonceBits)
	if err != nil {
		return nil, err
	}
	return e.EncryptWithNonce(m, r)
}

// EncryptWithNonce returns (1 + m⋅N) ⋅ hsʳ (mod N²).
func (e *Encrypter) EncryptWithNonce(m, r *saferith.Nat) (*Ciphertext, error) {
	if e.Closed() {
		return nil, ErrSessionClosed
	}
	if err := e.pk.validatePlaintext(m); err != nil {
		return nil, err
	}
	s, err := e.actx.Acquire()
	if err != nil {
		return nil, err
	}
	defer e.actx.Release()

	rhs := s.Reg(0)
	if e.crt != nil {
		_, err = e.crt.ExpBrick(rhs, e.bricks[0], e.bricks[1], r)
	} else {
		_, err = e.bricks[0].Exp(rhs, r)
	}
	if err != nil {
		return nil, fmt.Errorf("paillier: nonce: %w", err)
	}
	lhs := e.pk.encodePlaintext(s.Reg(1), m)
	c := new(saferith.Nat).ModMul(lhs, rhs, e.pk.nSquared)
	return &Ciphertext{c: c}, nil
}

// Close releases the tables.
func (e *Encrypter) Close() {
	for _, b := range e.bricks {
		b.Release()
	}
}

// Closed reports whether Close was called.
func (e *Encrypter) Closed() bool {
	return len(e.bricks) == 0 || e.bricks[0].Released()
}
