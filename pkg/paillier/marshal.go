package paillier

import (
	"encoding"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
)

var (
	_ encoding.BinaryMarshaler   = (*PublicKey)(nil)
	_ encoding.BinaryUnmarshaler = (*PublicKey)(nil)
	_ encoding.BinaryMarshaler   = (*Ciphertext)(nil)
	_ encoding.BinaryUnmarshaler = (*Ciphertext)(nil)
)

type cborPublicKey struct {
	N         []byte `cbor:"1,keyasint"`
	Hs        []byte `cbor:"2,keyasint"`
	NonceBits int    `cbor:"3,keyasint"`
}

// MarshalBinary encodes (N, hs, nonce size) as CBOR.
func (pk *PublicKey) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(cborPublicKey{
		N:         pk.nNat.Big().Bytes(),
		Hs:        pk.hs.Big().Bytes(),
		NonceBits: pk.nonceBits,
	})
}

// UnmarshalBinary decodes and validates a key written by MarshalBinary.
func (pk *PublicKey) UnmarshalBinary(data []byte) error {
	var x cborPublicKey
	if err := cbor.Unmarshal(data, &x); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	decoded, err := NewPublicKey(
		new(saferith.Nat).SetBytes(x.N),
		new(saferith.Nat).SetBytes(x.Hs),
		x.NonceBits)
	if err != nil {
		return err
	}
	*pk = *decoded
	return nil
}

// MarshalBinary encodes the ciphertext as a CBOR byte string.
func (ct *Ciphertext) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(ct.c.Big().Bytes())
}

// UnmarshalBinary decodes a ciphertext written by MarshalBinary.
// The value is checked against a key only when it is used.
func (ct *Ciphertext) UnmarshalBinary(data []byte) error {
	var b []byte
	if err := cbor.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	ct.c = new(saferith.Nat).SetBytes(b)
	return nil
}
