package pool

import (
	"context"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
)

// searchAlone runs f, which may return nil, until count elements are found or ctx is done.
func searchAlone(ctx context.Context, f func() interface{}, count int) ([]interface{}, error) {
	results := make([]interface{}, count)
	for i := 0; i < len(results); i++ {
		for results[i] == nil {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = f()
		}
	}
	return results, nil
}

// parallelizeAlone calculates the result of f count times
func parallelizeAlone(f func(int) interface{}, count int) []interface{} {
	results := make([]interface{}, count)
	for i := 0; i < len(results); i++ {
		results[i] = f(i)
	}
	return results
}

// command is used to trigger our latent workers to do something.
//
// A worker is told to either calculate a function once,
// or keep calculating a function until enough non nil results were found.
type command struct {
	search bool
	ctx    context.Context
	// ctr is the number of results that still need to be produced when searching.
	ctr *int64
	// This is the index we evaluate our function at, when not searching
	i       int
	f       func(int) interface{}
	results []interface{}
	done    *sync.WaitGroup
}

// workerSearch keeps querying f while *ctr > 0 and the search was not cancelled.
func workerSearch(c command) {
	for atomic.LoadInt64(c.ctr) > 0 && c.ctx.Err() == nil {
		res := c.f(0)
		if res == nil {
			continue
		}
		if i := atomic.AddInt64(c.ctr, -1); i >= 0 {
			c.results[i] = res
		}
	}
}

// worker listens to commands and produces results until the pool is torn down.
func worker(commands <-chan command) {
	for c := range commands {
		if c.search {
			workerSearch(c)
		} else {
			c.results[c.i] = c.f(c.i)
		}
		c.done.Done()
	}
}

// Pool represents a pool of workers, used for parallelizing functions.
//
// Functions needing a *Pool will work with a nil receiver, doing the equivalent
// work on the current goroutine instead.
//
// By creating a pool, you avoid the overhead of spinning up goroutines for
// each new operation.
type Pool struct {
	// The common channel used to send commands to the workers.
	//
	// This effectively makes a work stealing pool.
	commands    chan command
	workerCount int
}

// NewPool creates a new pool, with a certain number of workers.
//
// If count <= 0, this will use the number of available CPUs instead.
func NewPool(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	p := &Pool{
		commands:    make(chan command),
		workerCount: count,
	}
	for i := 0; i < count; i++ {
		go worker(p.commands)
	}
	return p
}

// Workers returns the number of workers, 1 for a nil pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workerCount
}

// TearDown cleanly tears down a pool, closing channels, etc.
func (p *Pool) TearDown() {
	if p != nil {
		close(p.commands)
	}
}

// Search queries the function f until count successes are found, or ctx is done.
//
// f is supposed to try a single candidate, returning nil if that candidate isn't
// successful. It may be called concurrently.
//
// The result will be an array containing the first count successes.
// If ctx ends first, ctx.Err() is returned.
func (p *Pool) Search(ctx context.Context, count int, f func() interface{}) ([]interface{}, error) {
	if p == nil {
		return searchAlone(ctx, f, count)
	}

	results := make([]interface{}, count)
	ctr := int64(count)
	var wg sync.WaitGroup
	cmd := command{
		search:  true,
		ctx:     ctx,
		ctr:     &ctr,
		f:       func(int) interface{} { return f() },
		results: results,
		done:    &wg,
	}
	wg.Add(p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		p.commands <- cmd
	}
	wg.Wait()

	if atomic.LoadInt64(&ctr) > 0 {
		return nil, ctx.Err()
	}
	return results, nil
}

// Parallelize calls a function count times, passing in indices from 0..count-1.
//
// The result will be a slice containing [f(0), f(1), ..., f(count - 1)].
func (p *Pool) Parallelize(count int, f func(int) interface{}) []interface{} {
	if p == nil {
		return parallelizeAlone(f, count)
	}

	results := make([]interface{}, count)
	var wg sync.WaitGroup
	wg.Add(count)
	for i := 0; i < count; i++ {
		p.commands <- command{
			i:       i,
			f:       f,
			results: results,
			done:    &wg,
		}
	}
	wg.Wait()

	return results
}

// LockedReader wraps an io.Reader to be safe for concurrent reads.
//
// This means acquiring a lock whenever a read happens, so be aware of that
// for performance or concurrency reasons.
type LockedReader struct {
	reader io.Reader
	m      sync.Mutex
}

// NewLockedReader creates a LockedReader by wrapping an underlying value.
// A reader that is already a *LockedReader is returned as is.
func NewLockedReader(r io.Reader) *LockedReader {
	if lr, ok := r.(*LockedReader); ok {
		return lr
	}
	return &LockedReader{reader: r}
}

// Read implements io.Reader, returning the same output as the underlying reader.
//
// Naturally, when calling this function concurrently, what value ends up getting
// read is raced, but you won't end up reading the same value twice, or otherwise
// messing up the state of the reader.
func (r *LockedReader) Read(p []byte) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	return r.reader.Read(p)
}
