// internal/repository/memory/kv_memory_test.go
package memory

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStoreBasicOperations(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "k", "v1"))
	v, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v1", v)

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"), "deleting twice is fine")
	_, found, _ = s.Get(ctx, "k")
	assert.False(t, found)
	assert.NoError(t, s.Close())
}

func TestKVStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	t.Run("ErrorLeavesValueUntouched", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "k", "keep"))
		boom := errors.New("boom")
		err := s.Update(ctx, "k", func(string, bool) (string, error) { return "", boom })
		assert.ErrorIs(t, err, boom)
		v, _, _ := s.Get(ctx, "k")
		assert.Equal(t, "keep", v)
	})

	t.Run("ConcurrentIncrementsAreNotLost", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Update(ctx, "counter", func(cur string, found bool) (string, error) {
					n := 0
					if found {
						n, _ = strconv.Atoi(cur)
					}
					return strconv.Itoa(n + 1), nil
				})
			}()
		}
		wg.Wait()
		v, _, _ := s.Get(ctx, "counter")
		assert.Equal(t, "50", v)
	})
}

func TestKVStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewKVStore()

	assert.ErrorIs(t, s.Set(ctx, "k", "v"), context.Canceled)
	_, _, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}
