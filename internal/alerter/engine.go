// Package alerter owns the alert lifecycle. The engine is the sole mutation
// path for Alert state: evaluators emit transition intents, the engine turns
// them into open/update/close edges and guarantees at most one open alert
// per (vehicle, kind, key).
package alerter

import (
	"fmt"
	"sync"

	"github.com/deepseaguard/insight-engine/internal/metrics"
	"github.com/deepseaguard/insight-engine/internal/types"
	"github.com/rs/zerolog"
)

// Engine manages alert lifecycle and event emission.
type Engine struct {
	logger zerolog.Logger

	mu     sync.Mutex
	active map[string]*types.Alert // vehicle:kind:key -> open alert

	events chan types.AlertEvent
	closed bool
}

// NewEngine creates an alert engine. bufSize bounds the event hand-off
// channel; when sinks fall behind, events are dropped and counted rather
// than blocking ingestion.
func NewEngine(logger zerolog.Logger, bufSize int) *Engine {
	if bufSize <= 0 {
		bufSize = 1024
	}
	return &Engine{
		logger: logger.With().Str("component", "alerter").Logger(),
		active: make(map[string]*types.Alert),
		events: make(chan types.AlertEvent, bufSize),
	}
}

func activeKey(vehicleID string, kind types.AlertKind, key string) string {
	return fmt.Sprintf("%s:%s:%s", vehicleID, kind, key)
}

// Apply processes one transition. It returns the affected alert (nil for an
// idempotent no-op clear) and whether a new alert was opened.
//
// Violation with no open alert opens one and emits an "opened" event.
// Violation with an open alert refreshes detail in place without emitting,
// suppressing re-notification storms. Clear with an open alert closes it and
// emits a "closed" event; clear with none is a no-op.
func (e *Engine) Apply(tr types.Transition) (*types.Alert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := activeKey(tr.VehicleID, tr.Kind, tr.Key)
	existing := e.active[key]

	switch tr.Type {
	case types.TransitionViolation:
		if existing != nil {
			existing.UpdatedAt = tr.Timestamp
			existing.Message = tr.Message
			existing.Context = tr.Context
			return existing, false
		}

		alert := &types.Alert{
			ID:        fmt.Sprintf("%s:%d", key, tr.Timestamp.UnixNano()),
			VehicleID: tr.VehicleID,
			Kind:      tr.Kind,
			Key:       tr.Key,
			Severity:  tr.Severity,
			OpenedAt:  tr.Timestamp,
			UpdatedAt: tr.Timestamp,
			Message:   tr.Message,
			Context:   tr.Context,
		}
		e.active[key] = alert
		metrics.AlertsOpened.Add(1)

		e.logger.Info().
			Str("alert_id", alert.ID).
			Str("auv_id", alert.VehicleID).
			Str("type", string(alert.Kind)).
			Str("key", alert.Key).
			Str("severity", alert.Severity).
			Msg("Alert opened")

		e.emit(types.AlertEvent{Type: types.EventOpened, Alert: *alert})
		return alert, true

	case types.TransitionClear:
		if existing == nil {
			return nil, false
		}

		closedAt := tr.Timestamp
		existing.ClosedAt = &closedAt
		existing.UpdatedAt = tr.Timestamp
		delete(e.active, key)
		metrics.AlertsClosed.Add(1)

		e.logger.Info().
			Str("alert_id", existing.ID).
			Str("auv_id", existing.VehicleID).
			Str("type", string(existing.Kind)).
			Dur("open_for", closedAt.Sub(existing.OpenedAt)).
			Msg("Alert closed")

		e.emit(types.AlertEvent{Type: types.EventClosed, Alert: *existing})
		return existing, false
	}

	return nil, false
}

// emit hands an event to the sink pump without ever blocking. The in-memory
// transition is authoritative; delivery is the sinks' concern.
func (e *Engine) emit(evt types.AlertEvent) {
	if e.closed {
		return
	}
	select {
	case e.events <- evt:
	default:
		metrics.EventDrops.Add(1)
		e.logger.Warn().
			Str("alert_id", evt.Alert.ID).
			Str("event", string(evt.Type)).
			Msg("Event buffer full, dropping alert event")
	}
}

// Events returns the channel sinks consume from.
func (e *Engine) Events() <-chan types.AlertEvent {
	return e.events
}

// Close stops event emission. Call after the pipeline has drained.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.events)
	}
}

// ActiveAlerts returns copies of all currently-open alerts.
func (e *Engine) ActiveAlerts() []types.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	alerts := make([]types.Alert, 0, len(e.active))
	for _, a := range e.active {
		alerts = append(alerts, *a)
	}
	return alerts
}

// ActiveCount returns the number of open alerts.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}
