package taskrunner

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDequeCapacityRounding(t *testing.T) {
	assert.Equal(t, 1, NewDeque[int](0).Capacity())
	assert.Equal(t, 4, NewDeque[int](3).Capacity())
	assert.Equal(t, 8, NewDeque[int](8).Capacity())
	assert.Equal(t, 16, NewDeque[int](9).Capacity())
}

func TestDequeOwnerLIFO(t *testing.T) {
	d := NewDeque[int](8)
	for i := 0; i < 5; i++ {
		require.True(t, d.PushBottom(i))
	}
	assert.Equal(t, 5, d.Size())

	for want := 4; want >= 0; want-- {
		v, ok := d.PopBottom()
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	_, ok := d.PopBottom()
	assert.False(t, ok)
}

func TestDequeStealFIFO(t *testing.T) {
	d := NewDeque[int](8)
	for i := 0; i < 5; i++ {
		require.True(t, d.PushBottom(i))
	}

	for want := 0; want < 5; want++ {
		v, ok := d.Steal()
		require.True(t, ok)
		assert.Equal(t, want, v)
	}
	_, ok := d.Steal()
	assert.False(t, ok)
}

func TestDequeOverflow(t *testing.T) {
	d := NewDeque[int](4)
	for i := 0; i < 4; i++ {
		require.True(t, d.PushBottom(i))
	}
	assert.False(t, d.PushBottom(4))

	// Draining one slot makes room again.
	_, ok := d.PopBottom()
	require.True(t, ok)
	assert.True(t, d.PushBottom(4))
}

func TestDequeMixedPopAndSteal(t *testing.T) {
	d := NewDeque[int](8)
	for i := 0; i < 4; i++ {
		require.True(t, d.PushBottom(i))
	}

	v, ok := d.Steal()
	require.True(t, ok)
	assert.Equal(t, 0, v)

	v, ok = d.PopBottom()
	require.True(t, ok)
	assert.Equal(t, 3, v)

	v, ok = d.Steal()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = d.PopBottom()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	assert.Equal(t, 0, d.Size())
}

// Stress the single-producer/multi-thief contract: every pushed value must
// come out exactly once, whether popped by the owner or stolen.
func TestDequeStress(t *testing.T) {
	const n = 10000
	d := NewDeque[int](16384)

	seen := make([]atomic.Int32, n)
	var taken atomic.Int64

	var wg sync.WaitGroup
	for thief := 0; thief < 2; thief++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for taken.Load() < n {
				if v, ok := d.Steal(); ok {
					seen[v].Add(1)
					taken.Add(1)
				} else {
					runtime.Gosched()
				}
			}
		}()
	}

	// Owner: push everything, then drain whatever the thieves left.
	for i := 0; i < n; i++ {
		require.True(t, d.PushBottom(i))
	}
	for taken.Load() < n {
		if v, ok := d.PopBottom(); ok {
			seen[v].Add(1)
			taken.Add(1)
		} else {
			runtime.Gosched()
		}
	}
	wg.Wait()

	assert.Equal(t, int64(n), taken.Load())
	for i := range seen {
		assert.Equal(t, int32(1), seen[i].Load(), "value %d", i)
	}
}
