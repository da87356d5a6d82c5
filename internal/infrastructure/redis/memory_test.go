package redisstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.SetWithTTL(ctx, "k", "v", time.Minute))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemory_TTLExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	now := time.Now()
	m.SetClock(func() time.Time { return now })
	require.NoError(t, m.SetWithTTL(ctx, "k", "v", 30*time.Second))

	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	m.SetClock(func() time.Time { return now.Add(31 * time.Second) })
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok, "entry should expire after its TTL")

	// An expired key no longer blocks SetNX.
	set, err := m.SetNX(ctx, "k", "v2", time.Minute)
	require.NoError(t, err)
	assert.True(t, set)
}

func TestMemory_SetNX_SingleWinner(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wins int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := m.SetNX(ctx, "throttle", "x", time.Minute)
			require.NoError(t, err)
			if set {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), wins, "exactly one concurrent SetNX should win")
}

func TestMemory_Increment(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	n, err := m.Increment(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = m.Increment(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, m.Delete(ctx, "count"))
	n, err = m.Increment(ctx, "count")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counter restarts after delete")
}
