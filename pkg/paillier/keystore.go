package paillier

import (
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/taurusgroup/crt-paillier/pkg/keystore"
	"github.com/taurusgroup/crt-paillier/pkg/math/arith"
	"github.com/taurusgroup/crt-paillier/pkg/math/sample"
)

// Names of the key components in a KeyStore.
const (
	ComponentPSec = "pSec"
	ComponentPOdd = "pOdd"
	ComponentQSec = "qSec"
	ComponentQOdd = "qOdd"
	ComponentP    = "P"
	ComponentQ    = "Q"
	ComponentHs   = "hs"
)

// KeyStore persists named non-negative integers.
//
// Load must return an error wrapping keystore.ErrNotFound for a missing component.
type KeyStore interface {
	Save(name string, v *saferith.Nat) error
	Load(name string) (*saferith.Nat, error)
}

// SaveKeypair writes the defining components of sk to store, including hs.
func SaveKeypair(store KeyStore, sk *SecretKey) error {
	components := []struct {
		name string
		v    *saferith.Nat
	}{
		{ComponentPSec, sk.pSec},
		{ComponentPOdd, sk.pOdd},
		{ComponentQSec, sk.qSec},
		{ComponentQOdd, sk.qOdd},
		{ComponentP, sk.p},
		{ComponentQ, sk.q},
		{ComponentHs, sk.hs},
	}
	for _, c := range components {
		if err := store.Save(c.name, c.v); err != nil {
			return fmt.Errorf("%w: save %s: %w", ErrKeyStore, c.name, err)
		}
	}
	return nil
}

// LoadKeypair rebuilds a key pair from the components in store and validates it.
//
// If store holds no hs, a fresh one is sampled from the randomness of actx.
// The key then encrypts differently but decrypts the same ciphertexts.
func LoadKeypair(actx *arith.Context, store KeyStore) (*PublicKey, *SecretKey, error) {
	if _, err := actx.Acquire(); err != nil {
		return nil, nil, err
	}
	defer actx.Release()

	names := [6]string{ComponentPSec, ComponentPOdd, ComponentP, ComponentQSec, ComponentQOdd, ComponentQ}
	var values [6]*saferith.Nat
	for i, name := range names {
		v, err := store.Load(name)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: load %s: %w", ErrKeyStore, name, err)
		}
		values[i] = v
	}
	primes := [2]*sample.StrongPrime{
		{Sec: values[0].Big(), Odd: values[1].Big(), P: values[2].Big()},
		{Sec: values[3].Big(), Odd: values[4].Big(), P: values[5].Big()},
	}
	for i, sp := range primes {
		if !sample.IsStrongPrime(sp.Sec, sp.Odd, sp.P) {
			return nil, nil, fmt.Errorf("%w: %s is not a strong prime", ErrInvalidKey, names[3*i+2])
		}
	}
	sk, err := newSecretKey(primes[0], primes[1])
	if err != nil {
		return nil, nil, err
	}

	hs, err := store.Load(ComponentHs)
	switch {
	case errors.Is(err, keystore.ErrNotFound):
		jww.INFO.Println("paillier: no stored hs, sampling a new one")
		if err = sk.sampleHs(actx.Rand()); err != nil {
			return nil, nil, err
		}
	case err != nil:
		return nil, nil, fmt.Errorf("%w: load %s: %w", ErrKeyStore, ComponentHs, err)
	default:
		if err = sk.checkHs(hs); err != nil {
			return nil, nil, err
		}
		if err = sk.PublicKey.setHs(hs); err != nil {
			return nil, nil, err
		}
	}

	if err = sk.Validate(); err != nil {
		return nil, nil, err
	}
	return sk.PublicKey, sk, nil
}
