package geo

import (
	"testing"

	"github.com/deepseaguard/insight-engine/internal/types"
)

func square(id string) Zone {
	return Zone{
		ID: id,
		Boundary: []Vertex{
			{Lat: 0, Lon: 0},
			{Lat: 0, Lon: 1},
			{Lat: 1, Lon: 1},
			{Lat: 1, Lon: 0},
		},
		Limits: map[string]Range{
			"temperature_c": {Min: 2, Max: 30},
		},
	}
}

func TestZoneContains(t *testing.T) {
	z := square("Z1")
	cases := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"center", 0.5, 0.5, true},
		{"outside", 2, 2, false},
		{"outside negative", -0.5, 0.5, false},
		{"on edge", 0, 0.5, true},
		{"on vertical edge", 0.5, 1, true},
		{"on vertex", 0, 0, true},
		{"on far vertex", 1, 1, true},
		{"just outside edge", 1.0001, 0.5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := z.Contains(types.Position{Lat: tc.lat, Lon: tc.lon})
			if got != tc.want {
				t.Fatalf("Contains(%v, %v) = %v, want %v", tc.lat, tc.lon, got, tc.want)
			}
		})
	}
}

func TestZoneContainsClosedRing(t *testing.T) {
	z := square("Z1")
	z.Boundary = append(z.Boundary, z.Boundary[0]) // explicit closing vertex

	if !z.Contains(types.Position{Lat: 0.5, Lon: 0.5}) {
		t.Fatal("center should be inside a closed ring")
	}
	if z.Contains(types.Position{Lat: 2, Lon: 2}) {
		t.Fatal("point outside should stay outside a closed ring")
	}
}

func TestZoneContainsConcavePolygon(t *testing.T) {
	// A "U" shape: the notch between the arms is outside.
	z := Zone{
		ID: "U",
		Boundary: []Vertex{
			{Lat: 0, Lon: 0},
			{Lat: 3, Lon: 0},
			{Lat: 3, Lon: 1},
			{Lat: 1, Lon: 1},
			{Lat: 1, Lon: 2},
			{Lat: 3, Lon: 2},
			{Lat: 3, Lon: 3},
			{Lat: 0, Lon: 3},
		},
	}
	if !z.Contains(types.Position{Lat: 0.5, Lon: 1.5}) {
		t.Fatal("base of the U should be inside")
	}
	if z.Contains(types.Position{Lat: 2, Lon: 1.5}) {
		t.Fatal("notch of the U should be outside")
	}
}

func TestZoneAppliesTo(t *testing.T) {
	z := square("Z1")
	if !z.AppliesTo("survey") {
		t.Fatal("zone without type restriction should apply to all")
	}
	z.AUVTypes = []string{"survey"}
	if !z.AppliesTo("survey") {
		t.Fatal("listed type should apply")
	}
	if z.AppliesTo("cargo") {
		t.Fatal("unlisted type should not apply")
	}
}

func TestRangeWithinInclusive(t *testing.T) {
	r := Range{Min: 2, Max: 30}
	cases := []struct {
		v    float64
		want bool
	}{
		{2, true},
		{30, true},
		{15, true},
		{1.999, false},
		{30.001, false},
	}
	for _, tc := range cases {
		if got := r.Within(tc.v); got != tc.want {
			t.Fatalf("Within(%v) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestIndexZonesContainingOverlap(t *testing.T) {
	inner := square("inner")
	outer := Zone{
		ID: "outer",
		Boundary: []Vertex{
			{Lat: -1, Lon: -1},
			{Lat: -1, Lon: 2},
			{Lat: 2, Lon: 2},
			{Lat: 2, Lon: -1},
		},
	}
	idx := NewIndex([]Zone{inner, outer})

	matches := idx.ZonesContaining(types.Position{Lat: 0.5, Lon: 0.5})
	if len(matches) != 2 {
		t.Fatalf("expected 2 overlapping zones, got %d", len(matches))
	}

	matches = idx.ZonesContaining(types.Position{Lat: 1.5, Lon: 1.5})
	if len(matches) != 1 || matches[0].ID != "outer" {
		t.Fatalf("expected only outer zone, got %v", matches)
	}

	if idx.ZonesContaining(types.Position{Lat: 10, Lon: 10}) != nil {
		t.Fatal("expected no zones for distant point")
	}
}

func TestIndexLimitsFor(t *testing.T) {
	idx := NewIndex([]Zone{square("Z1")})

	r, ok := idx.LimitsFor("Z1", "temperature_c")
	if !ok || r.Min != 2 || r.Max != 30 {
		t.Fatalf("LimitsFor(Z1, temperature_c) = %v, %v", r, ok)
	}
	if _, ok := idx.LimitsFor("Z1", "salinity_psu"); ok {
		t.Fatal("unconfigured metric should have no limits")
	}
	if _, ok := idx.LimitsFor("nope", "temperature_c"); ok {
		t.Fatal("unknown zone should have no limits")
	}
}
