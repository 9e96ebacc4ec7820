package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewCache_GetPut(t *testing.T) {
	c := newViewCache(10)

	_, ok := c.get("missing")
	assert.False(t, ok)

	v := &View{Region: "Odisha"}
	c.put("a", v)

	got, ok := c.get("a")
	require.True(t, ok)
	assert.Same(t, v, got)
}

func TestViewCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newViewCache(2)
	c.put("a", &View{Region: "a"})
	c.put("b", &View{Region: "b"})

	// Touch a so b becomes the oldest.
	_, ok := c.get("a")
	require.True(t, ok)

	c.put("c", &View{Region: "c"})

	_, ok = c.get("b")
	assert.False(t, ok, "b should be evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.len())
}

func TestViewCache_UpdateExisting(t *testing.T) {
	c := newViewCache(2)
	c.put("a", &View{Region: "old"})
	c.put("a", &View{Region: "new"})

	got, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "new", got.Region)
	assert.Equal(t, 1, c.len())
}

func TestViewCache_ZeroSizeDisabled(t *testing.T) {
	c := newViewCache(0)
	c.put("a", &View{})

	_, ok := c.get("a")
	assert.False(t, ok)
	assert.Zero(t, c.len())
}
