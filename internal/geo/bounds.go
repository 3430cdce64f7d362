package geo

// LatLngBounds is a geographic rectangle described by its south-west and
// north-east corners.
type LatLngBounds struct {
	SouthWest LatLng
	NorthEast LatLng
}

func NewLatLngBounds(sw, ne LatLng) LatLngBounds {
	return LatLngBounds{SouthWest: sw, NorthEast: ne}
}

// BoundsFromPoints builds the smallest bounds containing all the given
// positions. Returns a zero bounds when the slice is empty.
func BoundsFromPoints(points []LatLng) LatLngBounds {
	if len(points) == 0 {
		return LatLngBounds{}
	}
	b := LatLngBounds{SouthWest: points[0], NorthEast: points[0]}
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	return b
}

func (b LatLngBounds) Contains(ll LatLng) bool {
	return ll.Lat >= b.SouthWest.Lat && ll.Lat <= b.NorthEast.Lat &&
		ll.Lng >= b.SouthWest.Lng && ll.Lng <= b.NorthEast.Lng
}

func (b LatLngBounds) Intersects(o LatLngBounds) bool {
	return b.SouthWest.Lat <= o.NorthEast.Lat && b.NorthEast.Lat >= o.SouthWest.Lat &&
		b.SouthWest.Lng <= o.NorthEast.Lng && b.NorthEast.Lng >= o.SouthWest.Lng
}

// Extend grows the bounds to include ll.
func (b LatLngBounds) Extend(ll LatLng) LatLngBounds {
	if ll.Lat < b.SouthWest.Lat {
		b.SouthWest.Lat = ll.Lat
	}
	if ll.Lng < b.SouthWest.Lng {
		b.SouthWest.Lng = ll.Lng
	}
	if ll.Lat > b.NorthEast.Lat {
		b.NorthEast.Lat = ll.Lat
	}
	if ll.Lng > b.NorthEast.Lng {
		b.NorthEast.Lng = ll.Lng
	}
	return b
}

// Union returns the smallest bounds containing both b and o.
func (b LatLngBounds) Union(o LatLngBounds) LatLngBounds {
	return b.Extend(o.SouthWest).Extend(o.NorthEast)
}

func (b LatLngBounds) Center() LatLng {
	return LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

// LatSpan returns the north-south extent in degrees.
func (b LatLngBounds) LatSpan() float64 { return b.NorthEast.Lat - b.SouthWest.Lat }

// LngSpan returns the east-west extent in degrees.
func (b LatLngBounds) LngSpan() float64 { return b.NorthEast.Lng - b.SouthWest.Lng }

// Pad expands the bounds by the given number of degrees on every side.
func (b LatLngBounds) Pad(degrees float64) LatLngBounds {
	b.SouthWest.Lat -= degrees
	b.SouthWest.Lng -= degrees
	b.NorthEast.Lat += degrees
	b.NorthEast.Lng += degrees
	return b
}
