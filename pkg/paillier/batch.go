package paillier

import (
	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/crt-paillier/pkg/pool"
)

// EncryptBatch encrypts every plaintext of ms on the workers of pl.
// Each item runs on a fork of the Encrypter's Context with its own copy of the key and plaintext,
// so nothing saferith writes to is shared between workers.
func EncryptBatch(e *Encrypter, pl *pool.Pool, ms []*saferith.Nat) ([]*Ciphertext, error) {
	results := pl.Parallelize(len(ms), func(i int) interface{} {
		actx, err := e.actx.Fork()
		if err != nil {
			return err
		}
		m := ms[i]
		if m != nil {
			m = m.Clone()
		}
		ct, err := e.WithContext(actx).Encrypt(m)
		if err != nil {
			return err
		}
		return ct
	})
	cts := make([]*Ciphertext, len(ms))
	for i, res := range results {
		switch r := res.(type) {
		case error:
			return nil, r
		case *Ciphertext:
			cts[i] = r
		}
	}
	return cts, nil
}

// DecryptBatch decrypts every ciphertext of cts along path on the workers of pl.
func DecryptBatch(d *Decrypter, pl *pool.Pool, path Path, cts []*Ciphertext) ([]*saferith.Nat, error) {
	results := pl.Parallelize(len(cts), func(i int) interface{} {
		actx, err := d.actx.Fork()
		if err != nil {
			return err
		}
		ct := cts[i]
		if ct != nil && ct.c != nil {
			ct = ct.Clone()
		}
		m, err := d.WithContext(actx).Decrypt(ct, path)
		if err != nil {
			return err
		}
		return m
	})
	ms := make([]*saferith.Nat, len(cts))
	for i, res := range results {
		switch r := res.(type) {
		case error:
			return nil, r
		case *saferith.Nat:
			ms[i] = r
		}
	}
	return ms, nil
}
