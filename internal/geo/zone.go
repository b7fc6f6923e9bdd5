package geo

import "github.com/deepseaguard/insight-engine/internal/types"

// Vertex is one corner of a zone boundary ring.
type Vertex struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// Range is an inclusive [Min, Max] limit for one metric.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Within reports whether v is inside the range. Bounds are inclusive: a
// reading exactly at Min or Max is in range.
func (r Range) Within(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Zone is a geofenced polygonal region with environmental limits. Zones are
// reference data: populated at load time, never mutated during evaluation.
type Zone struct {
	ID       string           `yaml:"id" json:"id"`
	Name     string           `yaml:"name,omitempty" json:"name,omitempty"`
	Boundary []Vertex         `yaml:"boundary" json:"boundary"`
	Limits   map[string]Range `yaml:"limits,omitempty" json:"limits,omitempty"`
	// AUVTypes restricts which vehicle types the zone applies to.
	// Empty means all types.
	AUVTypes []string `yaml:"auv_types,omitempty" json:"auv_types,omitempty"`
	// Severity overrides the default severity for environmental alerts
	// raised against this zone's limits.
	Severity string `yaml:"severity,omitempty" json:"severity,omitempty"`
}

// AppliesTo reports whether the zone's rules apply to a vehicle type.
func (z *Zone) AppliesTo(vehicleType string) bool {
	if len(z.AUVTypes) == 0 {
		return true
	}
	for _, t := range z.AUVTypes {
		if t == vehicleType {
			return true
		}
	}
	return false
}

// Contains reports whether a position lies inside the zone boundary.
// Points exactly on an edge or vertex count as inside.
func (z *Zone) Contains(p types.Position) bool {
	ring := z.ring()
	if len(ring) < 3 {
		return false
	}

	for i := range ring {
		j := (i + 1) % len(ring)
		if onSegment(ring[i], ring[j], p.Lat, p.Lon) {
			return true
		}
	}

	// Ray casting: count boundary crossings of a ray heading east.
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		vi, vj := ring[i], ring[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			cross := vj.Lon + (p.Lat-vj.Lat)*(vi.Lon-vj.Lon)/(vi.Lat-vj.Lat)
			if p.Lon < cross {
				inside = !inside
			}
		}
	}
	return inside
}

// ring returns the boundary without a duplicated closing vertex.
func (z *Zone) ring() []Vertex {
	ring := z.Boundary
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	return ring
}

// onSegment reports whether (lat, lon) lies on the segment a-b.
func onSegment(a, b Vertex, lat, lon float64) bool {
	cross := (b.Lat-a.Lat)*(lon-a.Lon) - (b.Lon-a.Lon)*(lat-a.Lat)
	if cross != 0 {
		return false
	}
	if lat < min(a.Lat, b.Lat) || lat > max(a.Lat, b.Lat) {
		return false
	}
	if lon < min(a.Lon, b.Lon) || lon > max(a.Lon, b.Lon) {
		return false
	}
	return true
}
