// Package pipeline orchestrates evaluation: each inbound sample updates
// vehicle state and runs the sample-triggered rules under that vehicle's
// lock, and a periodic sweep drives the liveness rule over all vehicles.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/deepseaguard/insight-engine/internal/alerter"
	"github.com/deepseaguard/insight-engine/internal/config"
	"github.com/deepseaguard/insight-engine/internal/evaluator"
	"github.com/deepseaguard/insight-engine/internal/geo"
	"github.com/deepseaguard/insight-engine/internal/metrics"
	"github.com/deepseaguard/insight-engine/internal/state"
	"github.com/deepseaguard/insight-engine/internal/types"
	"github.com/rs/zerolog"
)

// Pipeline wires the store, zone index, evaluators and alert engine.
type Pipeline struct {
	logger zerolog.Logger
	store  *state.Store
	engine *alerter.Engine

	cfg   atomic.Pointer[config.Config]
	zones atomic.Pointer[geo.Index]

	now func() time.Time
}

// New creates a pipeline. The zone index is built once from cfg and treated
// as an immutable snapshot; Reload swaps in a fresh one.
func New(logger zerolog.Logger, store *state.Store, engine *alerter.Engine, cfg *config.Config) *Pipeline {
	p := &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		store:  store,
		engine: engine,
		now:    time.Now,
	}
	p.cfg.Store(cfg)
	p.zones.Store(geo.NewIndex(cfg.Zones.Zones))
	return p
}

// Reload swaps configuration and zone index. In-flight evaluations finish
// against the snapshot they loaded; new ones see the new index.
func (p *Pipeline) Reload(cfg *config.Config) {
	p.cfg.Store(cfg)
	p.zones.Store(geo.NewIndex(cfg.Zones.Zones))
	p.logger.Info().Int("zone_count", len(cfg.Zones.Zones)).Msg("Zone index reloaded")
}

// Zones returns the current zone index snapshot.
func (p *Pipeline) Zones() *geo.Index {
	return p.zones.Load()
}

// Ingest processes one telemetry sample. Malformed samples are rejected
// here, at the boundary, and never reach the evaluators. The last-seen
// update happens before any rule evaluation so liveness tracking stays
// accurate no matter what the rules do.
func (p *Pipeline) Ingest(sample types.TelemetrySample) error {
	if err := validate(sample); err != nil {
		metrics.SamplesRejected.Add(1)
		return err
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = p.now()
	}

	cfg := p.cfg.Load()
	index := p.zones.Load()

	p.store.With(sample.VehicleID, func(st *state.VehicleState) {
		st.Observe(sample)

		// A sample is proof of life: close any open dead alert right away
		// rather than waiting for the next sweep.
		deadRef := types.AlertRef{Kind: types.KindDeadAUV, Key: types.KeyLiveness}
		if _, ok := st.Open[deadRef]; ok {
			p.apply(st, types.Transition{
				VehicleID: sample.VehicleID,
				Kind:      deadRef.Kind,
				Key:       deadRef.Key,
				Type:      types.TransitionClear,
				Message:   "telemetry resumed",
				Timestamp: p.now(),
			})
		}

		containing := index.ZonesContaining(sample.Position)

		for _, tr := range evaluator.Threshold(sample, containing, st.Open, cfg.Alerts.SeverityFor(string(types.KindEnvironmental))) {
			p.apply(st, tr)
		}

		if tr := evaluator.ZoneCompliance(sample, containing, cfg.Policy(sample.VehicleID), st.Open, cfg.Alerts.SeverityFor(string(types.KindZoneViolation))); tr != nil {
			p.apply(st, *tr)
		}
	})

	metrics.SamplesReceived.Add(1)
	return nil
}

// Sweep runs one liveness pass over all known vehicles, taking each
// vehicle's lock in turn so it never races an in-flight sample.
func (p *Pipeline) Sweep() {
	cfg := p.cfg.Load()
	now := p.now()
	deadAfter := cfg.Monitoring.DeadThreshold()
	severity := cfg.Alerts.SeverityFor(string(types.KindDeadAUV))

	for _, id := range p.store.VehicleIDs() {
		p.store.With(id, func(st *state.VehicleState) {
			deadRef := types.AlertRef{Kind: types.KindDeadAUV, Key: types.KeyLiveness}
			_, hasOpenDead := st.Open[deadRef]
			if tr := evaluator.Liveness(now, id, st.LastSeen, hasOpenDead, deadAfter, severity); tr != nil {
				p.apply(st, *tr)
			}
		})
	}
	metrics.SweepsRun.Add(1)
}

// RunSweeper runs the periodic liveness sweep until ctx is cancelled. An
// in-flight sweep pass completes before return, so no alert mutation is
// left half-applied on shutdown.
func (p *Pipeline) RunSweeper(ctx context.Context) {
	interval := p.cfg.Load().Monitoring.SweepInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", interval).Msg("Liveness sweeper started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Liveness sweeper stopped")
			return
		case <-ticker.C:
			p.Sweep()
		}
	}
}

// apply routes a transition through the lifecycle engine and keeps the
// vehicle's open-alert index in sync. The caller holds the vehicle lock.
func (p *Pipeline) apply(st *state.VehicleState, tr types.Transition) {
	alert, _ := p.engine.Apply(tr)
	if alert == nil {
		return
	}
	ref := alert.Ref()
	if tr.Type == types.TransitionViolation {
		st.Open[ref] = alert
	} else {
		delete(st.Open, ref)
	}
}

func validate(s types.TelemetrySample) error {
	if s.VehicleID == "" {
		return fmt.Errorf("sample missing auv_id")
	}
	if math.Abs(s.Position.Lat) > 90 || math.Abs(s.Position.Lon) > 180 {
		return fmt.Errorf("sample for %s has invalid coordinates (%v, %v)", s.VehicleID, s.Position.Lat, s.Position.Lon)
	}
	for metric, v := range s.Readings {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("sample for %s has non-finite reading %s", s.VehicleID, metric)
		}
	}
	return nil
}
