package pool

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_Search(t *testing.T) {
	for _, p := range []*Pool{nil, NewPool(4)} {
		var calls int64
		results, err := p.Search(context.Background(), 3, func() interface{} {
			if atomic.AddInt64(&calls, 1)%5 != 0 {
				return nil
			}
			return true
		})
		require.NoError(t, err)
		assert.Len(t, results, 3)
		for _, r := range results {
			assert.Equal(t, true, r)
		}
		p.TearDown()
	}
}

func TestPool_SearchCancelled(t *testing.T) {
	for _, p := range []*Pool{nil, NewPool(2)} {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := p.Search(ctx, 1, func() interface{} { return nil })
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		p.TearDown()
	}
}

func TestPool_Parallelize(t *testing.T) {
	for _, p := range []*Pool{nil, NewPool(0)} {
		results := p.Parallelize(100, func(i int) interface{} { return i * i })
		require.Len(t, results, 100)
		for i, r := range results {
			assert.Equal(t, i*i, r)
		}
		p.TearDown()
	}
}

func TestPool_Workers(t *testing.T) {
	var p *Pool
	assert.Equal(t, 1, p.Workers())
	p = NewPool(3)
	defer p.TearDown()
	assert.Equal(t, 3, p.Workers())
}
