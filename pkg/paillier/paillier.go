// Package paillier implements a Paillier variant whose secret key is built from
// strong primes P = 2⋅p⋅p' + 1 and Q = 2⋅q⋅q' + 1.
//
// The public key is (N, hs) where hs = (−y^(2β))ᴺ (mod N²) has order dividing
// 2⋅p⋅q. A plaintext m ∈ [0, N) is encrypted as
//
//	c = (1 + m⋅N) ⋅ hsʳ (mod N²)
//
// with a short nonce r of about l bits, so that encryption only needs a short
// fixed-base exponentiation, which Encrypter accelerates with precomputed tables.
//
// Decryption is available along two paths:
//   - PathGeneric raises c to α = 2⋅p⋅q modulo P² and Q², recombines mod N²,
//     and applies L(x) = (x − 1)/N.
//   - PathFast raises c to 2⋅p mod P² and 2⋅q mod Q², applies L per prime and
//     recombines mod N, working on half-size exponents and moduli.
//
// Both paths validate the ciphertext and return the same plaintext.
package paillier

import "errors"

var (
	ErrInvalidParameter    = errors.New("paillier: invalid key generation parameters")
	ErrExhaustedAttempts   = errors.New("paillier: strong prime search exhausted its attempts")
	ErrInvalidKey          = errors.New("paillier: invalid key")
	ErrInvalidCiphertext   = errors.New("paillier: failed to decrypt invalid ciphertext")
	ErrPlaintextOutOfRange = errors.New("paillier: plaintext must be in [0, N)")
	ErrSessionClosed       = errors.New("paillier: encryption session is closed")
	ErrKeyStore            = errors.New("paillier: key store")
)
