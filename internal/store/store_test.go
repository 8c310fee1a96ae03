package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetPutDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemory[string]()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "a", "first"))
	require.NoError(t, s.Put(ctx, "a", "second"))

	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", v)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "a"))
	_, ok, _ = s.Get(ctx, "a")
	assert.False(t, ok)

	// Deleting an absent key is not an error.
	assert.NoError(t, s.Delete(ctx, "a"))
}

func TestMemory_ConcurrentWritersSameKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemory[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = s.Put(ctx, "caller", n)
			_ = s.Put(ctx, fmt.Sprintf("caller-%d", n), n)
		}(i)
	}
	wg.Wait()

	v, ok, err := s.Get(ctx, "caller")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, v, 0)
	assert.Less(t, v, 50)
	assert.Equal(t, 51, s.Len())
}
