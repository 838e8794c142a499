package paillier

import (
	"context"
	"sync"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/crt-paillier/internal/test"
	"github.com/taurusgroup/crt-paillier/pkg/math/arith"
	"github.com/taurusgroup/crt-paillier/pkg/math/sample"
)

const (
	toyK      = 112
	toyL      = 40
	toyWindow = 6
)

var (
	toyOnce sync.Once
	toyPk   *PublicKey
	toySk   *SecretKey
	toyErr  error
)

func newContext(t testing.TB) *arith.Context {
	actx, err := arith.NewContext(0, 0, 10, test.Reader(t.Name()))
	require.NoError(t, err)
	return actx
}

// toyKey returns a small key pair shared by the tests of this package.
func toyKey(t testing.TB) (*PublicKey, *SecretKey) {
	toyOnce.Do(func() {
		var actx *arith.Context
		actx, toyErr = arith.NewContext(0, 0, 10, test.Reader("toy key"))
		if toyErr != nil {
			return
		}
		toyPk, toySk, toyErr = NewKeyGenerator(actx).Generate(context.Background(), toyK, toyL)
	})
	require.NoError(t, toyErr)
	return toyPk, toySk
}

func natEqual(t testing.TB, expected, actual *saferith.Nat, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, expected.Big().String(), actual.Big().String(), msgAndArgs...)
}

func plaintexts(t testing.TB, pk *PublicKey, random int) []*saferith.Nat {
	one := new(saferith.Nat).SetUint64(1)
	ms := []*saferith.Nat{
		new(saferith.Nat).SetUint64(0),
		new(saferith.Nat).SetUint64(1),
		new(saferith.Nat).SetUint64(42),
		new(saferith.Nat).Sub(pk.N().Nat(), one, -1),
	}
	rand := test.Reader(t.Name() + " plaintexts")
	for i := 0; i < random; i++ {
		m, err := sample.ModN(rand, pk.N())
		require.NoError(t, err)
		ms = append(ms, m)
	}
	return ms
}

func TestRoundTrip(t *testing.T) {
	pk, sk := toyKey(t)
	actx := newContext(t)

	enc, err := NewEncrypter(actx, sk, WithWindow(toyWindow))
	require.NoError(t, err)
	defer enc.Close()
	pubEnc, err := NewPublicEncrypter(actx, pk, WithWindow(toyWindow))
	require.NoError(t, err)
	defer pubEnc.Close()
	dec := NewDecrypter(actx, sk)

	for _, m := range plaintexts(t, pk, 100) {
		for name, e := range map[string]*Encrypter{"crt": enc, "public": pubEnc} {
			ct, err := e.Encrypt(m)
			require.NoError(t, err, name)
			require.True(t, pk.ValidateCiphertexts(ct), name)

			generic, err := dec.Decrypt(ct, PathGeneric)
			require.NoError(t, err, name)
			natEqual(t, m, generic, "generic path, %s encrypter", name)

			fast, err := dec.Decrypt(ct, PathFast)
			require.NoError(t, err, name)
			natEqual(t, m, fast, "fast path, %s encrypter", name)
		}
	}
}

func TestEncrypterMatchesReference(t *testing.T) {
	pk, sk := toyKey(t)
	actx := newContext(t)
	rand := test.Reader(t.Name())

	enc, err := NewEncrypter(actx, sk, WithWindow(toyWindow))
	require.NoError(t, err)
	defer enc.Close()
	pubEnc, err := NewPublicEncrypter(actx, pk, WithWindow(toyWindow+1))
	require.NoError(t, err)
	defer pubEnc.Close()

	for _, m := range plaintexts(t, pk, 20) {
		r, err := sample.NonZeroBits(rand, pk.NonceBits())
		require.NoError(t, err)

		expected, err := pk.EncWithNonce(m, r)
		require.NoError(t, err)
		ct, err := enc.EncryptWithNonce(m, r)
		require.NoError(t, err)
		assert.True(t, expected.Equal(ct), "CRT tables")
		ct, err = pubEnc.EncryptWithNonce(m, r)
		require.NoError(t, err)
		assert.True(t, expected.Equal(ct), "public table")
	}
}

func TestReferenceEnc(t *testing.T) {
	pk, sk := toyKey(t)
	dec := NewDecrypter(newContext(t), sk)
	m := new(saferith.Nat).SetUint64(123456789)

	ct, r, err := pk.Enc(test.Reader(t.Name()), m)
	require.NoError(t, err)
	assert.LessOrEqual(t, r.Big().BitLen(), pk.NonceBits())
	assert.Equal(t, 1, r.Big().Sign())

	again, err := pk.EncWithNonce(m, r)
	require.NoError(t, err)
	assert.True(t, ct.Equal(again))

	for _, path := range []Path{PathGeneric, PathFast} {
		res, err := dec.Decrypt(ct, path)
		require.NoError(t, err)
		natEqual(t, m, res, path.String())
	}
}

func TestRandomization(t *testing.T) {
	pk, sk := toyKey(t)
	actx := newContext(t)
	enc, err := NewEncrypter(actx, sk, WithWindow(toyWindow))
	require.NoError(t, err)
	defer enc.Close()
	dec := NewDecrypter(actx, sk)

	m := new(saferith.Nat).SetUint64(42)
	ct1, err := enc.Encrypt(m)
	require.NoError(t, err)
	ct2, err := enc.Encrypt(m)
	require.NoError(t, err)
	assert.False(t, ct1.Equal(ct2), "two encryptions of the same plaintext should differ")

	ct3 := ct1.Clone().Randomize(pk, new(saferith.Nat).SetUint64(987654321))
	assert.False(t, ct1.Equal(ct3))
	res, err := dec.DecryptFast(ct3)
	require.NoError(t, err)
	natEqual(t, m, res)
}

func TestPlaintextOutOfRange(t *testing.T) {
	pk, sk := toyKey(t)
	actx := newContext(t)
	enc, err := NewEncrypter(actx, sk, WithWindow(toyWindow))
	require.NoError(t, err)
	defer enc.Close()

	n := new(saferith.Nat).SetNat(pk.N().Nat())
	_, err = enc.Encrypt(n)
	assert.ErrorIs(t, err, ErrPlaintextOutOfRange)
	_, err = enc.Encrypt(nil)
	assert.ErrorIs(t, err, ErrPlaintextOutOfRange)
	_, err = pk.EncWithNonce(n, new(saferith.Nat).SetUint64(1))
	assert.ErrorIs(t, err, ErrPlaintextOutOfRange)
}

func TestNonceTooLarge(t *testing.T) {
	_, sk := toyKey(t)
	enc, err := NewEncrypter(newContext(t), sk, WithWindow(toyWindow), WithMaxExpBits(16))
	require.NoError(t, err)
	defer enc.Close()

	r := new(saferith.Nat).SetUint64(1 << 16)
	_, err = enc.EncryptWithNonce(new(saferith.Nat).SetUint64(1), r)
	assert.ErrorIs(t, err, arith.ErrBrickExponent)
}

func TestInvalidCiphertexts(t *testing.T) {
	pk, sk := toyKey(t)
	dec := NewDecrypter(newContext(t), sk)

	n2 := new(saferith.Nat).SetNat(pk.N2().Nat())
	pTimes2 := new(saferith.Nat).Lsh(sk.P(), 1, -1)
	random, err := sample.UnitModN(test.Reader(t.Name()), pk.N2())
	require.NoError(t, err)

	cases := map[string]*Ciphertext{
		"nil":           nil,
		"zero":          NewCiphertext(new(saferith.Nat).SetUint64(0)),
		"N²":            NewCiphertext(n2),
		"N":             NewCiphertext(pk.N().Nat()),
		"multiple of P": NewCiphertext(pTimes2),
		"random unit":   NewCiphertext(random),
	}
	for name, ct := range cases {
		for _, path := range []Path{PathGeneric, PathFast} {
			_, err := dec.Decrypt(ct, path)
			assert.ErrorIs(t, err, ErrInvalidCiphertext, "%s, %s path", name, path)
		}
	}
	assert.False(t, pk.ValidateCiphertexts(cases["zero"]))
	assert.False(t, pk.ValidateCiphertexts(cases["N"]))
	assert.True(t, pk.ValidateCiphertexts(cases["random unit"]))
}

func TestUnknownPath(t *testing.T) {
	pk, sk := toyKey(t)
	ct, err := pk.EncWithNonce(new(saferith.Nat).SetUint64(1), new(saferith.Nat).SetUint64(1))
	require.NoError(t, err)
	_, err = NewDecrypter(newContext(t), sk).Decrypt(ct, Path(7))
	assert.Error(t, err)
}

func TestParsePath(t *testing.T) {
	for s, expected := range map[string]Path{"generic": PathGeneric, "Fast": PathFast, "crt": PathFast} {
		p, err := ParsePath(s)
		require.NoError(t, err)
		assert.Equal(t, expected, p)
	}
	_, err := ParsePath("slow")
	assert.Error(t, err)
	assert.Equal(t, "fast", PathFast.String())
	assert.Equal(t, "Path(9)", Path(9).String())
}

func TestHomomorphic(t *testing.T) {
	pk, sk := toyKey(t)
	actx := newContext(t)
	enc, err := NewEncrypter(actx, sk, WithWindow(toyWindow))
	require.NoError(t, err)
	defer enc.Close()
	dec := NewDecrypter(actx, sk)

	ms := plaintexts(t, pk, 6)
	cts := make([]*Ciphertext, len(ms))
	expected := new(saferith.Nat).SetUint64(0)
	for i, m := range ms {
		cts[i], err = enc.Encrypt(m)
		require.NoError(t, err)
		expected.ModAdd(expected, m, pk.N())
	}

	sum, err := pk.Sum(cts...)
	require.NoError(t, err)
	res, err := dec.DecryptGeneric(sum)
	require.NoError(t, err)
	natEqual(t, expected, res)

	k := new(saferith.Nat).SetUint64(1000)
	prod := cts[2].Clone().Mul(pk, k)
	res, err = dec.DecryptFast(prod)
	require.NoError(t, err)
	natEqual(t, new(saferith.Nat).SetUint64(42000), res)

	_, err = pk.Sum()
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
	_, err = pk.Sum(cts[0], NewCiphertext(new(saferith.Nat).SetUint64(0)))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestDigest(t *testing.T) {
	pk, _ := toyKey(t)
	c1, err := pk.EncWithNonce(new(saferith.Nat).SetUint64(1), new(saferith.Nat).SetUint64(11))
	require.NoError(t, err)
	c2, err := pk.EncWithNonce(new(saferith.Nat).SetUint64(2), new(saferith.Nat).SetUint64(22))
	require.NoError(t, err)

	d12, err := pk.Digest(c1, c2)
	require.NoError(t, err)
	assert.Len(t, d12, 32)
	again, err := pk.Digest(c1.Clone(), c2.Clone())
	require.NoError(t, err)
	assert.Equal(t, d12, again)
	d21, err := pk.Digest(c2, c1)
	require.NoError(t, err)
	assert.NotEqual(t, d12, d21)

	_, err = pk.Digest(c1, nil)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestClosedSession(t *testing.T) {
	_, sk := toyKey(t)
	enc, err := NewEncrypter(newContext(t), sk, WithWindow(toyWindow))
	require.NoError(t, err)
	assert.False(t, enc.Closed())
	enc.Close()
	assert.True(t, enc.Closed())

	_, err = enc.Encrypt(new(saferith.Nat).SetUint64(1))
	assert.ErrorIs(t, err, ErrSessionClosed)
	// closing twice is harmless
	enc.Close()
}

func TestContextBusy(t *testing.T) {
	pk, sk := toyKey(t)
	actx := newContext(t)
	enc, err := NewEncrypter(actx, sk, WithWindow(toyWindow))
	require.NoError(t, err)
	defer enc.Close()
	ct, err := pk.EncWithNonce(new(saferith.Nat).SetUint64(5), new(saferith.Nat).SetUint64(77))
	require.NoError(t, err)

	_, err = actx.Acquire()
	require.NoError(t, err)
	_, err = enc.Encrypt(new(saferith.Nat).SetUint64(1))
	assert.ErrorIs(t, err, arith.ErrContextBusy)
	_, err = NewDecrypter(actx, sk).DecryptFast(ct)
	assert.ErrorIs(t, err, arith.ErrContextBusy)
	actx.Release()

	res, err := NewDecrypter(actx, sk).DecryptFast(ct)
	require.NoError(t, err)
	natEqual(t, new(saferith.Nat).SetUint64(5), res)
}

func TestClosedLifecycle(t *testing.T) {
	_, sk := toyKey(t)
	lc := arith.Lifecycle{Rand: test.Reader(t.Name())}
	actx, err := lc.StartUp(0, 0, 10)
	require.NoError(t, err)

	enc, err := NewEncrypter(actx, sk, WithWindow(toyWindow))
	require.NoError(t, err)
	defer enc.Close()
	require.NoError(t, lc.Close())

	_, err = enc.Encrypt(new(saferith.Nat).SetUint64(1))
	assert.ErrorIs(t, err, arith.ErrUninitialized)
	_, err = NewEncrypter(actx, sk)
	assert.ErrorIs(t, err, arith.ErrUninitialized)
}

func BenchmarkEncrypt(b *testing.B) {
	_, sk := toyKey(b)
	enc, err := NewEncrypter(newContext(b), sk, WithWindow(toyWindow))
	require.NoError(b, err)
	defer enc.Close()
	m := new(saferith.Nat).SetUint64(42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = enc.Encrypt(m)
	}
}

func BenchmarkDecrypt(b *testing.B) {
	pk, sk := toyKey(b)
	ct, err := pk.EncWithNonce(new(saferith.Nat).SetUint64(42), new(saferith.Nat).SetUint64(1<<38+5))
	require.NoError(b, err)
	dec := NewDecrypter(newContext(b), sk)
	for _, path := range []Path{PathGeneric, PathFast} {
		b.Run(path.String(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_, _ = dec.Decrypt(ct, path)
			}
		})
	}
}
