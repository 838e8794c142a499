package sample

import (
	"io"
	"math/big"

	"github.com/taurusgroup/crt-paillier/internal/params"
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// NextPrime returns the smallest probable prime ⩾ x.
func NextPrime(x *big.Int) *big.Int {
	if x.Cmp(two) <= 0 {
		return big.NewInt(2)
	}
	p := new(big.Int).Set(x)
	p.SetBit(p, 0, 1)
	for !p.ProbablyPrime(params.PrimalityIterations) {
		p.Add(p, two)
	}
	return p
}

// StrongPrime is a prime P = 2⋅Sec⋅Odd + 1, where Sec is prime and Odd is odd.
type StrongPrime struct {
	Sec, Odd, P *big.Int
}

// TryStrongPrime makes a single attempt at a strong prime.
//
// Sec is the first prime after a random odd secBits integer, Odd a random odd oddBits integer.
// It returns nil if P = 2⋅Sec⋅Odd + 1 is not prime, and an error only if rand fails.
func TryStrongPrime(rand io.Reader, secBits, oddBits int) (*StrongPrime, error) {
	start, err := OddBits(rand, secBits)
	if err != nil {
		return nil, err
	}
	sec := NextPrime(start)
	odd, err := OddBits(rand, oddBits)
	if err != nil {
		return nil, err
	}
	p := new(big.Int).Mul(sec, odd)
	p.Lsh(p, 1)
	p.Add(p, one)
	if !p.ProbablyPrime(params.PrimalityIterations) {
		return nil, nil
	}
	return &StrongPrime{Sec: sec, Odd: odd, P: p}, nil
}

// IsStrongPrime checks that p = 2⋅sec⋅odd + 1, sec and p are prime, and odd is odd.
func IsStrongPrime(sec, odd, p *big.Int) bool {
	if odd.Bit(0) != 1 {
		return false
	}
	expected := new(big.Int).Mul(sec, odd)
	expected.Lsh(expected, 1)
	expected.Add(expected, one)
	return expected.Cmp(p) == 0 &&
		sec.ProbablyPrime(params.PrimalityIterations) &&
		p.ProbablyPrime(params.PrimalityIterations)
}
