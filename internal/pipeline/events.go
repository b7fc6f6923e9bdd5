package pipeline

import (
	"context"

	"github.com/deepseaguard/insight-engine/internal/metrics"
	"github.com/deepseaguard/insight-engine/internal/types"
	"github.com/rs/zerolog"
)

// EventSink receives opened/closed alert events. Delivery is best-effort
// and at-least-once; sinks dedup on (alert ID, event type). A failing sink
// is logged and counted, never propagated back to ingestion.
type EventSink interface {
	Name() string
	Publish(ctx context.Context, evt types.AlertEvent) error
}

// Pump drains the engine's event channel and fans events out to sinks.
type Pump struct {
	logger zerolog.Logger
	sinks  []EventSink
}

// NewPump creates an event pump over the given sinks.
func NewPump(logger zerolog.Logger, sinks ...EventSink) *Pump {
	return &Pump{
		logger: logger.With().Str("component", "event-pump").Logger(),
		sinks:  sinks,
	}
}

// Run consumes events until the channel closes or ctx is cancelled.
func (p *Pump) Run(ctx context.Context, events <-chan types.AlertEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			for _, sink := range p.sinks {
				if err := sink.Publish(ctx, evt); err != nil {
					metrics.SinkFailures.Add(1)
					p.logger.Warn().
						Err(err).
						Str("sink", sink.Name()).
						Str("alert_id", evt.Alert.ID).
						Str("event", string(evt.Type)).
						Msg("Sink delivery failed")
				}
			}
		}
	}
}
