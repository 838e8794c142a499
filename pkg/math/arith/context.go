package arith

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/crt-paillier/internal/params"
	"github.com/taurusgroup/crt-paillier/pkg/pool"
)

var (
	ErrUninitialized  = errors.New("arith: context is not started")
	ErrAlreadyClosed  = errors.New("arith: context already closed")
	ErrContextBusy    = errors.New("arith: context is in use by another operation")
	ErrInvalidIOBase  = fmt.Errorf("arith: io base must be in [%d, %d]", params.MinIOBase, params.MaxIOBase)
	ErrInvalidMemBase = fmt.Errorf("arith: mem base must be 0 or in [2, %d]", uint64(params.MaxMemBase))
	ErrInvalidVarSize = errors.New("arith: variable size must not be negative")
)

// config is shared by a Context and all of its forks.
type config struct {
	closed  atomic.Bool
	ioBase  atomic.Int32
	varSize int
	memBase uint64
	rand    io.Reader
}

// Scratch is the register arena of a Context.
// Values held in a register are overwritten by the next operation on the same Context,
// so results handed back to callers must be copied out.
type Scratch struct {
	regs [params.ScratchRegisters]saferith.Nat
}

// Reg returns the i-th scratch register.
func (s *Scratch) Reg(i int) *saferith.Nat {
	return &s.regs[i]
}

// Context is the arithmetic workspace used by key generation, encryption and decryption.
//
// A Context must be owned by a single goroutine. Operations claim it through Acquire,
// and a second concurrent claim fails with ErrContextBusy instead of sharing the
// scratch registers. Goroutines that need to work in parallel each get their own
// Context through Fork.
type Context struct {
	cfg     *config
	busy    atomic.Bool
	scratch Scratch
}

// NewContext creates a standalone, started Context.
//
// varSize is the capacity in bits preallocated for each scratch register (0 lets them grow),
// memBase is the internal digit base (0 for full machine words), ioBase the base used for
// text I/O. If r is nil, crypto/rand.Reader is used.
func NewContext(varSize, memBase, ioBase int, r io.Reader) (*Context, error) {
	if varSize < 0 {
		return nil, ErrInvalidVarSize
	}
	if memBase != 0 && (memBase < 2 || uint64(memBase) > params.MaxMemBase) {
		return nil, ErrInvalidMemBase
	}
	if !validIOBase(ioBase) {
		return nil, ErrInvalidIOBase
	}
	if r == nil {
		r = rand.Reader
	}
	cfg := &config{
		varSize: varSize,
		memBase: uint64(memBase),
		rand:    pool.NewLockedReader(r),
	}
	cfg.ioBase.Store(int32(ioBase))
	return newContext(cfg), nil
}

func newContext(cfg *config) *Context {
	c := &Context{cfg: cfg}
	if cfg.varSize > 0 {
		for i := range c.scratch.regs {
			c.scratch.regs[i].Resize(cfg.varSize)
		}
	}
	return c
}

func validIOBase(b int) bool {
	return b >= params.MinIOBase && b <= params.MaxIOBase
}

// Active returns false once the owning Lifecycle was closed.
func (c *Context) Active() bool {
	return c != nil && !c.cfg.closed.Load()
}

// Acquire claims the Context for one operation and returns its scratch arena.
// Every successful Acquire must be paired with Release.
func (c *Context) Acquire() (*Scratch, error) {
	if !c.Active() {
		return nil, ErrUninitialized
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrContextBusy
	}
	return &c.scratch, nil
}

// Release ends the operation started by Acquire.
func (c *Context) Release() {
	c.busy.Store(false)
}

// Fork returns a new Context sharing this one's configuration and random source,
// with its own scratch arena.
func (c *Context) Fork() (*Context, error) {
	if !c.Active() {
		return nil, ErrUninitialized
	}
	return newContext(c.cfg), nil
}

// Rand returns the random source. It is safe for concurrent use.
func (c *Context) Rand() io.Reader {
	return c.cfg.rand
}

// IOBase returns the base used for text I/O.
func (c *Context) IOBase() (int, error) {
	if !c.Active() {
		return 0, ErrUninitialized
	}
	return int(c.cfg.ioBase.Load()), nil
}

// SetIOBase changes the base used for text I/O, for this Context and all its forks.
func (c *Context) SetIOBase(b int) error {
	if !c.Active() {
		return ErrUninitialized
	}
	if !validIOBase(b) {
		return ErrInvalidIOBase
	}
	c.cfg.ioBase.Store(int32(b))
	return nil
}

// VarSize returns the preallocated register capacity in bits.
func (c *Context) VarSize() int {
	return c.cfg.varSize
}

// MemBase returns the configured internal digit base, 0 meaning full machine words.
// saferith always works on full words, so any other value is only recorded.
func (c *Context) MemBase() uint64 {
	return c.cfg.memBase
}

// Lifecycle owns the single shared Context of a process.
//
// The zero value is uninitialized; StartUp creates the Context on first use and
// Close destroys it. After Close, the Context and every fork of it report ErrUninitialized.
type Lifecycle struct {
	// Rand is the random source handed to the Context. nil means crypto/rand.Reader.
	Rand io.Reader

	mu     sync.Mutex
	ctx    atomic.Pointer[Context]
	closed bool
}

// StartUp creates the shared Context if needed and returns it.
// Later calls return the existing Context and ignore their arguments.
func (l *Lifecycle) StartUp(varSize, memBase, ioBase int) (*Context, error) {
	if c := l.ctx.Load(); c != nil {
		return c, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if c := l.ctx.Load(); c != nil {
		return c, nil
	}
	c, err := NewContext(varSize, memBase, ioBase, l.Rand)
	if err != nil {
		return nil, err
	}
	l.ctx.Store(c)
	l.closed = false
	return c, nil
}

// Context returns the shared Context.
func (l *Lifecycle) Context() (*Context, error) {
	c := l.ctx.Load()
	if c == nil {
		return nil, ErrUninitialized
	}
	return c, nil
}

// IOBase returns the text I/O base of the shared Context.
func (l *Lifecycle) IOBase() (int, error) {
	c, err := l.Context()
	if err != nil {
		return 0, err
	}
	return c.IOBase()
}

// SetIOBase sets the text I/O base of the shared Context.
func (l *Lifecycle) SetIOBase(b int) error {
	c, err := l.Context()
	if err != nil {
		return err
	}
	return c.SetIOBase(b)
}

// Close destroys the shared Context.
func (l *Lifecycle) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.ctx.Load()
	if c == nil {
		if l.closed {
			return ErrAlreadyClosed
		}
		return ErrUninitialized
	}
	c.cfg.closed.Store(true)
	l.ctx.Store(nil)
	l.closed = true
	return nil
}
