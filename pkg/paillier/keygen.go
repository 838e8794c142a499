package paillier

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	jww "github.com/spf13/jwalterweatherman"
	"github.com/taurusgroup/crt-paillier/internal/params"
	"github.com/taurusgroup/crt-paillier/pkg/math/arith"
	"github.com/taurusgroup/crt-paillier/pkg/math/sample"
	"github.com/taurusgroup/crt-paillier/pkg/pool"
)

// KeyGenerator builds key pairs from the randomness of an arithmetic Context.
type KeyGenerator struct {
	actx        *arith.Context
	pl          *pool.Pool
	maxAttempts int64
}

// KeyGenOption configures a KeyGenerator.
type KeyGenOption func(*KeyGenerator)

// WithPool runs the strong prime search on the workers of pl.
// Without a pool the search is sequential, and deterministic for a deterministic random source.
func WithPool(pl *pool.Pool) KeyGenOption {
	return func(g *KeyGenerator) {
		g.pl = pl
	}
}

// WithMaxAttempts bounds the number of strong prime candidates tried.
func WithMaxAttempts(n int) KeyGenOption {
	return func(g *KeyGenerator) {
		if n > 0 {
			g.maxAttempts = int64(n)
		}
	}
}

// NewKeyGenerator returns a KeyGenerator drawing randomness from actx.
func NewKeyGenerator(actx *arith.Context, opts ...KeyGenOption) *KeyGenerator {
	g := &KeyGenerator{
		actx:        actx,
		maxAttempts: params.MaxKeyGenAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// primeSizes returns the bit lengths of the secret prime and of the odd cofactor
// of each of P and Q, so that P and Q have about k bits.
func primeSizes(k, l int) (secBits, oddBits int, err error) {
	if l < params.MinStatisticalBits {
		return 0, 0, fmt.Errorf("%w: l = %d is below %d", ErrInvalidParameter, l, params.MinStatisticalBits)
	}
	if k <= l {
		return 0, 0, fmt.Errorf("%w: k = %d must exceed l = %d", ErrInvalidParameter, k, l)
	}
	secBits = (l + 1) / 2
	oddBits = (2*k-l)/2 - 1
	if oddBits < 2 {
		return 0, 0, fmt.Errorf("%w: k = %d is too small for l = %d", ErrInvalidParameter, k, l)
	}
	return secBits, oddBits, nil
}

// Generate returns a new key pair whose primes P, Q have about k bits, with
// secret primes of l/2 bits.
//
// The search stops with ErrExhaustedAttempts once the attempt budget is spent,
// or with ctx.Err() if ctx ends first.
func (g *KeyGenerator) Generate(ctx context.Context, k, l int) (*PublicKey, *SecretKey, error) {
	secBits, oddBits, err := primeSizes(k, l)
	if err != nil {
		return nil, nil, err
	}
	if _, err = g.actx.Acquire(); err != nil {
		return nil, nil, err
	}
	defer g.actx.Release()

	rand := g.actx.Rand()
	var attempts int64
	try := func() interface{} {
		if atomic.AddInt64(&attempts, 1) > g.maxAttempts {
			return ErrExhaustedAttempts
		}
		sp, err := sample.TryStrongPrime(rand, secBits, oddBits)
		if err != nil {
			return err
		}
		if sp == nil {
			return nil
		}
		return sp
	}

	for {
		results, err := g.pl.Search(ctx, 2, try)
		if err != nil {
			return nil, nil, err
		}
		var primes [2]*sample.StrongPrime
		for i, res := range results {
			switch r := res.(type) {
			case error:
				if errors.Is(r, ErrExhaustedAttempts) {
					return nil, nil, fmt.Errorf("%w: %d candidates", ErrExhaustedAttempts, g.maxAttempts)
				}
				return nil, nil, r
			case *sample.StrongPrime:
				primes[i] = r
			}
		}

		sk, err := newSecretKey(primes[0], primes[1])
		if errors.Is(err, ErrInvalidKey) {
			jww.DEBUG.Printf("paillier: discarding incompatible primes: %v", err)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if err = sk.sampleHs(rand); err != nil {
			return nil, nil, err
		}
		jww.DEBUG.Printf("paillier: generated %d-bit modulus after %d attempts",
			sk.n.BitLen(), atomic.LoadInt64(&attempts))
		return sk.PublicKey, sk, nil
	}
}
