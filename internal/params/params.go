package params

const (
	// SecParam is the default bit length of each strong prime P, Q.
	// The modulus N = P⋅Q is then about 2⋅SecParam bits.
	SecParam = 1024
	// StatParam is the default statistical parameter l. The secret primes pSec, qSec
	// have l/2 bits and encryption nonces are sampled from [1, 2ˡ).
	StatParam = 80

	// MinStatisticalBits is the smallest l accepted by key generation.
	MinStatisticalBits = 16

	// MaxKeyGenAttempts bounds the number of strong prime candidates tried
	// by a single key generation.
	MaxKeyGenAttempts = 1 << 20

	// PrimalityIterations is the number of Miller-Rabin rounds used on candidates.
	// 20 is the same number that Go uses internally.
	PrimalityIterations = 20

	// BrickWindowBits is the default comb window of the fixed-base tables.
	BrickWindowBits = 19
	// MaxBrickWindowBits caps the table at 2²⁴ entries.
	MaxBrickWindowBits = 24

	// IOBase is the default number base for text I/O of big integers.
	IOBase = 10
	// MinIOBase and MaxIOBase bound the accepted text I/O bases.
	MinIOBase = 2
	MaxIOBase = 256

	// MaxMemBase is the largest accepted internal digit base (a full 32-bit digit).
	MaxMemBase = 1 << 32

	// ScratchRegisters is the size of the scratch arena owned by each arithmetic context.
	ScratchRegisters = 8
)
