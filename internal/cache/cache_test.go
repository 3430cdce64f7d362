package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tilemap/internal/geo"
)

func coord(x, y uint32, z uint8) geo.TileCoord {
	return geo.TileCoord{X: x, Y: y, Z: z}
}

func TestPutGet(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	c.Put(coord(1, 2, 3), []byte("tile"))

	data, ok := c.Get(coord(1, 2, 3))
	require.True(t, ok)
	assert.Equal(t, []byte("tile"), data)

	_, ok = c.Get(coord(9, 9, 5))
	assert.False(t, ok)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	c.Put(coord(0, 0, 1), []byte("a"))
	c.Put(coord(1, 0, 1), []byte("b"))

	// Touch the first entry so the second becomes the eviction victim.
	_, ok := c.Get(coord(0, 0, 1))
	require.True(t, ok)

	c.Put(coord(1, 1, 1), []byte("c"))

	assert.True(t, c.Contains(coord(0, 0, 1)))
	assert.False(t, c.Contains(coord(1, 0, 1)))
	assert.True(t, c.Contains(coord(1, 1, 1)))
	assert.Equal(t, 2, c.Len())
}

func TestCapacityNeverExceeded(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	for x := uint32(0); x < 32; x++ {
		c.Put(coord(x, 0, 6), []byte{byte(x)})
		assert.LessOrEqual(t, c.Len(), 4)
	}
}

func TestDefaultCapacity(t *testing.T) {
	c, err := New(0)
	require.NoError(t, err)
	for x := uint32(0); x < DefaultCapacity+10; x++ {
		c.Put(coord(x, 1, 12), nil)
	}
	assert.Equal(t, DefaultCapacity, c.Len())
}

func TestRemoveAndClear(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	c.Put(coord(1, 1, 2), []byte("x"))
	c.Remove(coord(1, 1, 2))
	assert.False(t, c.Contains(coord(1, 1, 2)))

	c.Put(coord(2, 2, 2), []byte("y"))
	c.Clear()
	assert.Zero(t, c.Len())
}
