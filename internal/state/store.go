// Package state owns mutable per-vehicle state. Mutation always happens
// under that vehicle's lock via Store.With, so sample processing and the
// liveness sweep contend per vehicle, never globally.
package state

import (
	"sort"
	"sync"
	"time"

	"github.com/deepseaguard/insight-engine/internal/types"
)

// VehicleState is the mutable record for one AUV. Open is a non-owning index
// of currently-open alerts; the lifecycle engine owns the canonical records.
type VehicleState struct {
	ID           string
	Type         string
	LastSeen     time.Time
	LastPosition types.Position
	Open         map[types.AlertRef]*types.Alert
}

// Observe folds a sample into the state. Out-of-order samples are accepted
// but never move LastSeen backward, so a stale replay cannot reset the
// liveness timer or clobber the newest known position.
func (v *VehicleState) Observe(s types.TelemetrySample) {
	if s.VehicleType != "" {
		v.Type = s.VehicleType
	}
	if s.Timestamp.After(v.LastSeen) {
		v.LastSeen = s.Timestamp
		v.LastPosition = s.Position
	}
}

// Seen reports whether the vehicle has ever recorded a sample.
func (v *VehicleState) Seen() bool {
	return !v.LastSeen.IsZero()
}

type entry struct {
	mu sync.Mutex
	st VehicleState
}

// Store holds all known vehicles. The registry map has its own lock; each
// vehicle carries its own mutex so unrelated vehicles process in parallel.
type Store struct {
	mu       sync.RWMutex
	vehicles map[string]*entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{vehicles: make(map[string]*entry)}
}

// With runs fn with exclusive access to the vehicle's state, registering the
// vehicle on first use. fn must not call back into the store.
func (s *Store) With(vehicleID string, fn func(*VehicleState)) {
	e := s.entryFor(vehicleID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.st)
}

func (s *Store) entryFor(vehicleID string) *entry {
	s.mu.RLock()
	e, ok := s.vehicles[vehicleID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.vehicles[vehicleID]; ok {
		return e
	}
	e = &entry{st: VehicleState{
		ID:   vehicleID,
		Open: make(map[types.AlertRef]*types.Alert),
	}}
	s.vehicles[vehicleID] = e
	return e
}

// VehicleIDs returns the IDs of all registered vehicles, sorted.
func (s *Store) VehicleIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.vehicles))
	for id := range s.vehicles {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered vehicles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vehicles)
}

// Snapshot is a read-only copy of one vehicle's state for API consumers.
type Snapshot struct {
	ID           string         `json:"auv_id"`
	Type         string         `json:"auv_type,omitempty"`
	LastSeen     time.Time      `json:"last_seen"`
	LastPosition types.Position `json:"last_position"`
	OpenAlerts   int            `json:"open_alerts"`
}

// Snapshots returns a point-in-time copy of every vehicle's state. Each
// vehicle is copied under its own lock; the result is not a global
// consistent cut, which is fine for status reporting.
func (s *Store) Snapshots() []Snapshot {
	ids := s.VehicleIDs()
	snaps := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		s.With(id, func(st *VehicleState) {
			snaps = append(snaps, Snapshot{
				ID:           st.ID,
				Type:         st.Type,
				LastSeen:     st.LastSeen,
				LastPosition: st.LastPosition,
				OpenAlerts:   len(st.Open),
			})
		})
	}
	return snaps
}
