package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// TileCoord identifies a single tile in the z/x/y pyramid.
type TileCoord struct {
	X uint32
	Y uint32
	Z uint8
}

func NewTileCoord(x, y uint32, z uint8) TileCoord {
	return TileCoord{X: x, Y: y, Z: z}
}

// TileAt returns the tile containing the given position at the given zoom.
// Out-of-range latitudes are clamped and longitudes wrapped first, so the
// result is always a valid coordinate.
func TileAt(ll LatLng, zoom uint8) TileCoord {
	p := orb.Point{WrapLng(ll.Lng), ClampLat(ll.Lat)}
	t := maptile.At(p, maptile.Zoom(zoom))
	c := TileCoord{X: t.X, Y: t.Y, Z: zoom}
	return c.clamped()
}

// Valid reports whether X and Y fall inside the 2^Z grid.
func (c TileCoord) Valid() bool {
	n := uint32(1) << c.Z
	return c.X < n && c.Y < n
}

func (c TileCoord) clamped() TileCoord {
	max := uint32(1)<<c.Z - 1
	if c.X > max {
		c.X = max
	}
	if c.Y > max {
		c.Y = max
	}
	return c
}

// Parent returns the covering tile one zoom level up. At zoom 0 the tile is
// its own parent and ok is false.
func (c TileCoord) Parent() (TileCoord, bool) {
	if c.Z == 0 {
		return c, false
	}
	return TileCoord{X: c.X / 2, Y: c.Y / 2, Z: c.Z - 1}, true
}

// Children returns the four tiles covering this tile one zoom level down.
func (c TileCoord) Children() [4]TileCoord {
	x, y, z := c.X*2, c.Y*2, c.Z+1
	return [4]TileCoord{
		{X: x, Y: y, Z: z},
		{X: x + 1, Y: y, Z: z},
		{X: x, Y: y + 1, Z: z},
		{X: x + 1, Y: y + 1, Z: z},
	}
}

// MapTile converts to the orb tile representation.
func (c TileCoord) MapTile() maptile.Tile {
	return maptile.New(c.X, c.Y, maptile.Zoom(c.Z))
}

// Bounds returns the geographic rectangle covered by the tile.
func (c TileCoord) Bounds() LatLngBounds {
	b := c.MapTile().Bound()
	return LatLngBounds{
		SouthWest: LatLng{Lat: b.Min.Lat(), Lng: b.Min.Lon()},
		NorthEast: LatLng{Lat: b.Max.Lat(), Lng: b.Max.Lon()},
	}
}

// Center returns the geographic center of the tile.
func (c TileCoord) Center() LatLng {
	return c.Bounds().Center()
}

// NorthWest returns the geographic position of the tile's top-left corner.
func (c TileCoord) NorthWest() LatLng {
	return Unproject(Point{X: float64(c.X) * TileSize, Y: float64(c.Y) * TileSize}, float64(c.Z))
}

func (c TileCoord) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Z, c.X, c.Y)
}

// TileRange is an inclusive rectangle of tile indices at one zoom level.
type TileRange struct {
	MinX, MinY uint32
	MaxX, MaxY uint32
	Zoom       uint8
}

// Contains reports whether the coordinate lies inside the range. Tiles at a
// different zoom are never contained.
func (r TileRange) Contains(c TileCoord) bool {
	return c.Z == r.Zoom && c.X >= r.MinX && c.X <= r.MaxX && c.Y >= r.MinY && c.Y <= r.MaxY
}

// Expand grows the range by n tiles on every side, clipped to the grid.
func (r TileRange) Expand(n uint32) TileRange {
	max := uint32(1)<<r.Zoom - 1
	if r.MinX >= n {
		r.MinX -= n
	} else {
		r.MinX = 0
	}
	if r.MinY >= n {
		r.MinY -= n
	} else {
		r.MinY = 0
	}
	if r.MaxX+n <= max {
		r.MaxX += n
	} else {
		r.MaxX = max
	}
	if r.MaxY+n <= max {
		r.MaxY += n
	} else {
		r.MaxY = max
	}
	return r
}

// Center returns the centroid of the range in fractional tile units.
func (r TileRange) Center() (float64, float64) {
	return (float64(r.MinX) + float64(r.MaxX)) / 2, (float64(r.MinY) + float64(r.MaxY)) / 2
}

// Count returns the number of tiles in the range.
func (r TileRange) Count() int {
	return int(r.MaxX-r.MinX+1) * int(r.MaxY-r.MinY+1)
}

// Coords lists every coordinate in the range in row order.
func (r TileRange) Coords() []TileCoord {
	out := make([]TileCoord, 0, r.Count())
	for y := r.MinY; y <= r.MaxY; y++ {
		for x := r.MinX; x <= r.MaxX; x++ {
			out = append(out, TileCoord{X: x, Y: y, Z: r.Zoom})
		}
	}
	return out
}

// TilesInBounds returns the range of tiles covering a geographic rectangle
// at the given zoom.
func TilesInBounds(b LatLngBounds, zoom uint8) TileRange {
	min := maptile.At(orb.Point{b.SouthWest.Lng, ClampLat(b.NorthEast.Lat)}, maptile.Zoom(zoom))
	max := maptile.At(orb.Point{b.NorthEast.Lng, ClampLat(b.SouthWest.Lat)}, maptile.Zoom(zoom))
	r := TileRange{MinX: min.X, MinY: min.Y, MaxX: max.X, MaxY: max.Y, Zoom: zoom}
	if r.MinX > r.MaxX {
		r.MinX, r.MaxX = r.MaxX, r.MinX
	}
	if r.MinY > r.MaxY {
		r.MinY, r.MaxY = r.MaxY, r.MinY
	}
	return r
}
