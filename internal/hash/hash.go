package hash

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/zeebo/blake3"
)

// DigestLengthBytes is the length of Sum's output.
const DigestLengthBytes = 32

// WriterToWithDomain represents a type writing itself, and knowing its domain.
//
// Providing a domain string lets us distinguish the output of different types
// implementing this same interface.
type WriterToWithDomain interface {
	io.WriterTo

	// Domain returns a context string, which should be unique for each implementor
	Domain() string
}

// BytesWithDomain annotates some chunk of data with a domain.
type BytesWithDomain struct {
	TheDomain string
	Bytes     []byte
}

// WriteTo implements io.WriterTo.
func (b BytesWithDomain) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes)
	return int64(n), err
}

// Domain implements WriterToWithDomain.
func (b BytesWithDomain) Domain() string {
	return b.TheDomain
}

// Hash is the hash function used for key fingerprints and ciphertext digests.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash whose state starts with the given domain.
func New(domain string) *Hash {
	hash := &Hash{h: blake3.New()}
	_ = writeWithDomain(hash.h, BytesWithDomain{TheDomain: "Domain", Bytes: []byte(domain)})
	return hash
}

// Digest returns a reader for the current output of the function.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny writes each value with its own domain separation.
//
// Supported types are []byte, *saferith.Nat, *saferith.Modulus and WriterToWithDomain.
func (hash *Hash) WriteAny(data ...interface{}) error {
	for _, d := range data {
		var w WriterToWithDomain
		switch t := d.(type) {
		case []byte:
			w = BytesWithDomain{TheDomain: "[]byte", Bytes: t}
		case *saferith.Nat:
			if t == nil {
				return errors.New("hash.Hash: write *saferith.Nat: nil")
			}
			w = BytesWithDomain{TheDomain: "saferith.Nat", Bytes: t.Bytes()}
		case *saferith.Modulus:
			if t == nil {
				return errors.New("hash.Hash: write *saferith.Modulus: nil")
			}
			w = BytesWithDomain{TheDomain: "saferith.Modulus", Bytes: t.Bytes()}
		case WriterToWithDomain:
			w = t
		default:
			return fmt.Errorf("hash.Hash: unsupported type %T", d)
		}
		if err := writeWithDomain(hash.h, w); err != nil {
			return fmt.Errorf("hash.Hash: write %s: %w", w.Domain(), err)
		}
	}
	return nil
}

// writeWithDomain writes out `(<domain><data>)`, so that each domain separated
// piece of data is distinguished from others.
func writeWithDomain(w io.Writer, object WriterToWithDomain) error {
	if _, err := w.Write([]byte("(")); err != nil {
		return err
	}
	if _, err := w.Write([]byte(object.Domain())); err != nil {
		return err
	}
	if _, err := object.WriteTo(w); err != nil {
		return err
	}
	_, err := w.Write([]byte(")"))
	return err
}
