package mask

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_HitAndMiss(t *testing.T) {
	c, err := NewCache(4)
	require.NoError(t, err)

	a, err := c.Get(Circle, 32, 32, Params{})
	require.NoError(t, err)
	b, err := c.Get(Circle, 32, 32, Params{})
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, CacheStats{Entries: 1, Hits: 1, Misses: 1}, c.Stats())

	// explicit defaults share the key with zero params
	d, err := c.Get(Circle, 32, 32, Params{Points: 5, InnerRatio: 0.4, SizeFactor: 0.8})
	require.NoError(t, err)
	assert.Same(t, a, d)
}

func TestCache_Bounded(t *testing.T) {
	c, err := NewCache(2)
	require.NoError(t, err)

	for _, s := range []Shape{Circle, Star, Heart, Hexagon} {
		_, err := c.Get(s, 16, 16, Params{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Stats().Entries)

	// Circle was evicted first.
	_, err = c.Get(Circle, 16, 16, Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), c.Stats().Misses)
}

func TestCache_Clear(t *testing.T) {
	c, err := NewCache(0)
	require.NoError(t, err)
	_, err = c.Get(Star, 16, 16, Params{})
	require.NoError(t, err)

	c.Clear()
	assert.Equal(t, CacheStats{}, c.Stats())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	c, err := NewCache(2)
	require.NoError(t, err)
	_, err = c.Get("blob", 8, 8, Params{})
	assert.ErrorIs(t, err, ErrUnknownShape)
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestCache_Concurrent(t *testing.T) {
	c, err := NewCache(8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := c.Get(Shapes[i%len(Shapes)], 24, 24, Params{})
			assert.NoError(t, err)
			assert.NotNil(t, m)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, len(Shapes), c.Stats().Entries)
}
