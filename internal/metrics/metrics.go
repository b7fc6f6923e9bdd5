package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	SamplesReceived  atomic.Int64
	SamplesRejected  atomic.Int64
	SweepsRun        atomic.Int64
	AlertsOpened     atomic.Int64
	AlertsClosed     atomic.Int64
	EventDrops       atomic.Int64
	SinkFailures     atomic.Int64
	PersistFailures  atomic.Int64
	BroadcastClients atomic.Int64
)

// HandleMetrics serves counters in Prometheus text exposition format.
func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "insight_samples_received_total %d\n", SamplesReceived.Load())
	fmt.Fprintf(w, "insight_samples_rejected_total %d\n", SamplesRejected.Load())
	fmt.Fprintf(w, "insight_liveness_sweeps_total %d\n", SweepsRun.Load())
	fmt.Fprintf(w, "insight_alerts_opened_total %d\n", AlertsOpened.Load())
	fmt.Fprintf(w, "insight_alerts_closed_total %d\n", AlertsClosed.Load())
	fmt.Fprintf(w, "insight_alert_event_drops_total %d\n", EventDrops.Load())
	fmt.Fprintf(w, "insight_sink_failures_total %d\n", SinkFailures.Load())
	fmt.Fprintf(w, "insight_persist_failures_total %d\n", PersistFailures.Load())
	fmt.Fprintf(w, "insight_ws_clients %d\n", BroadcastClients.Load())
}
