package state

import (
	"sync"
	"testing"
	"time"

	"github.com/deepseaguard/insight-engine/internal/types"
)

func sampleAt(ts time.Time, lat, lon float64) types.TelemetrySample {
	return types.TelemetrySample{
		VehicleID: "auv-1",
		Timestamp: ts,
		Position:  types.Position{Lat: lat, Lon: lon},
	}
}

func TestWithRegistersVehicle(t *testing.T) {
	s := NewStore()
	s.With("auv-1", func(st *VehicleState) {
		if st.ID != "auv-1" {
			t.Fatalf("ID = %q", st.ID)
		}
		if st.Seen() {
			t.Fatal("fresh vehicle should not be seen")
		}
		if st.Open == nil {
			t.Fatal("open index should be initialized")
		}
	})
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestObserveOutOfOrder(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s.With("auv-1", func(st *VehicleState) {
		st.Observe(sampleAt(t0, 1, 1))
	})
	// Stale replay: accepted, but must not move last-seen or position back.
	s.With("auv-1", func(st *VehicleState) {
		st.Observe(sampleAt(t0.Add(-time.Hour), 9, 9))
		if !st.LastSeen.Equal(t0) {
			t.Fatalf("LastSeen moved backward to %v", st.LastSeen)
		}
		if st.LastPosition.Lat != 1 {
			t.Fatalf("position clobbered by stale sample: %+v", st.LastPosition)
		}
	})
	s.With("auv-1", func(st *VehicleState) {
		st.Observe(sampleAt(t0.Add(time.Minute), 2, 2))
		if !st.LastSeen.Equal(t0.Add(time.Minute)) {
			t.Fatalf("LastSeen = %v", st.LastSeen)
		}
		if st.LastPosition.Lat != 2 {
			t.Fatalf("position not advanced: %+v", st.LastPosition)
		}
	})
}

func TestConcurrentVehicles(t *testing.T) {
	s := NewStore()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	ids := []string{"auv-1", "auv-2", "auv-3", "auv-4"}
	for _, id := range ids {
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(id string, i int) {
				defer wg.Done()
				s.With(id, func(st *VehicleState) {
					st.Observe(types.TelemetrySample{
						VehicleID: id,
						Timestamp: base.Add(time.Duration(i) * time.Second),
					})
				})
			}(id, i)
		}
	}
	wg.Wait()

	if s.Len() != len(ids) {
		t.Fatalf("Len = %d, want %d", s.Len(), len(ids))
	}
	for _, id := range ids {
		s.With(id, func(st *VehicleState) {
			if !st.LastSeen.Equal(base.Add(49 * time.Second)) {
				t.Fatalf("%s LastSeen = %v", id, st.LastSeen)
			}
		})
	}
}

func TestSnapshots(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s.With("auv-2", func(st *VehicleState) { st.Observe(sampleAt(t0, 3, 4)) })
	s.With("auv-1", func(st *VehicleState) {
		st.Observe(sampleAt(t0, 1, 2))
		st.Open[types.AlertRef{Kind: types.KindDeadAUV, Key: types.KeyLiveness}] = &types.Alert{}
	})

	snaps := s.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots", len(snaps))
	}
	// Sorted by vehicle ID.
	if snaps[0].ID != "auv-1" || snaps[1].ID != "auv-2" {
		t.Fatalf("unexpected order: %s, %s", snaps[0].ID, snaps[1].ID)
	}
	if snaps[0].OpenAlerts != 1 {
		t.Fatalf("auv-1 open alerts = %d", snaps[0].OpenAlerts)
	}
	if snaps[1].LastPosition.Lon != 4 {
		t.Fatalf("auv-2 position = %+v", snaps[1].LastPosition)
	}
}
