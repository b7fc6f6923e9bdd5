package geo

import "github.com/deepseaguard/insight-engine/internal/types"

// Index answers containment and limit-lookup queries over a fixed set of
// zones. An Index is immutable once built; reload builds a fresh Index and
// swaps it in, so evaluation goroutines may read concurrently without locks.
type Index struct {
	zones []*Zone
	byID  map[string]*Zone
}

// NewIndex builds an index over the given zones.
func NewIndex(zones []Zone) *Index {
	idx := &Index{
		zones: make([]*Zone, 0, len(zones)),
		byID:  make(map[string]*Zone, len(zones)),
	}
	for i := range zones {
		z := zones[i]
		idx.zones = append(idx.zones, &z)
		idx.byID[z.ID] = &z
	}
	return idx
}

// ZonesContaining returns every zone whose boundary contains the position.
// Zones may overlap; all matches are returned and evaluated independently.
func (idx *Index) ZonesContaining(p types.Position) []*Zone {
	var matches []*Zone
	for _, z := range idx.zones {
		if z.Contains(p) {
			matches = append(matches, z)
		}
	}
	return matches
}

// Zone returns the zone with the given ID, or nil.
func (idx *Index) Zone(id string) *Zone {
	return idx.byID[id]
}

// Zones returns all zones in the index.
func (idx *Index) Zones() []*Zone {
	return idx.zones
}

// Len returns the number of zones.
func (idx *Index) Len() int {
	return len(idx.zones)
}

// LimitsFor returns the configured range for a metric in a zone, if any.
func (idx *Index) LimitsFor(zoneID, metric string) (Range, bool) {
	z := idx.byID[zoneID]
	if z == nil {
		return Range{}, false
	}
	r, ok := z.Limits[metric]
	return r, ok
}
