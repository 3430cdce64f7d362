package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBBox(t *testing.T) {
	b, err := parseBBox("-122.6,37.6,-122.2,37.9")
	require.NoError(t, err)
	assert.Equal(t, 37.6, b.SouthWest.Lat)
	assert.Equal(t, -122.6, b.SouthWest.Lng)
	assert.Equal(t, 37.9, b.NorthEast.Lat)
	assert.Equal(t, -122.2, b.NorthEast.Lng)
}

func TestParseBBoxRejectsBadInput(t *testing.T) {
	for _, s := range []string{
		"",
		"1,2,3",
		"a,b,c,d",
		"-122.2,37.9,-122.6,37.6", // corners swapped
		"-200,37.6,-122.2,37.9",   // out of range
	} {
		_, err := parseBBox(s)
		assert.Error(t, err, s)
	}
}

func TestPickSource(t *testing.T) {
	s, err := pickSource("osm")
	require.NoError(t, err)
	assert.Equal(t, "openstreetmap", s.Name())

	s, err = pickSource("satellite")
	require.NoError(t, err)
	assert.Equal(t, "satellite", s.Name())

	s, err = pickSource("https://tiles.example.com/{z}/{x}/{y}.png")
	require.NoError(t, err)
	assert.Equal(t, "custom", s.Name())

	_, err = pickSource("https://tiles.example.com/broken")
	assert.Error(t, err)
}
