package geo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// BBox is a named lat/lon rectangle. Bounds are inclusive.
type BBox struct {
	Name   string
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

func NewBBox(name string, minLat, maxLat, minLon, maxLon float64) (BBox, error) {
	if minLat > maxLat || minLon > maxLon {
		return BBox{}, fmt.Errorf("invalid bounding box %s: min must not exceed max (lat %f..%f, lon %f..%f)", name, minLat, maxLat, minLon, maxLon)
	}
	return BBox{Name: name, MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}, nil
}

// FromBound names an orb bound. Orb points are (lon, lat).
func FromBound(name string, b orb.Bound) BBox {
	return BBox{
		Name:   name,
		MinLat: b.Min.Lat(),
		MaxLat: b.Max.Lat(),
		MinLon: b.Min.Lon(),
		MaxLon: b.Max.Lon(),
	}
}

func (b BBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

func (b BBox) ContainsPoint(p orb.Point) bool {
	return b.Bound().Contains(p)
}

// ContainsBBox reports whether other is nested inside b on both axes.
func (b BBox) ContainsBBox(other BBox) bool {
	bound := b.Bound()
	return bound.Contains(other.Bound().Min) && bound.Contains(other.Bound().Max)
}

func (b BBox) String() string {
	return fmt.Sprintf("%s(lat %.5f..%.5f, lon %.5f..%.5f)", b.Name, b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
}
