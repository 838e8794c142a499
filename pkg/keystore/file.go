package keystore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
)

// File is a KeyStore backed by a CBOR map in a single file.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a store writing to path. The file is created by the first Save.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file backing the store.
func (f *File) Path() string {
	return f.path
}

func (f *File) read() (map[string][]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, err
	}
	values := map[string][]byte{}
	if err = cbor.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, f.path, err)
	}
	return values, nil
}

func (f *File) write(values map[string][]byte) error {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return err
	}
	data, err := em.Marshal(values)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Save stores v under name, replacing any previous value.
func (f *File) Save(name string, v *saferith.Nat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read()
	if err != nil {
		return err
	}
	values[name] = encode(v)
	return f.write(values)
}

// Load returns the value stored under name.
func (f *File) Load(name string) (*saferith.Nat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read()
	if err != nil {
		return nil, err
	}
	b, ok := values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return decode(b), nil
}

// Names returns the stored names in sorted order.
func (f *File) Names() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read()
	if err != nil {
		return nil, err
	}
	return sortedNames(values), nil
}
