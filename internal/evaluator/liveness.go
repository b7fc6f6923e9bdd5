package evaluator

import (
	"fmt"
	"time"

	"github.com/deepseaguard/insight-engine/internal/types"
)

// Liveness decides whether a vehicle has gone silent. It is driven by the
// periodic sweep, not by sample arrival. A vehicle that has never reported
// is skipped: there is no baseline to be overdue against. Recovery is not
// signalled here; the pipeline clears the dead alert the moment a fresh
// sample arrives.
func Liveness(now time.Time, vehicleID string, lastSeen time.Time, hasOpenDead bool, deadAfter time.Duration, severity string) *types.Transition {
	if lastSeen.IsZero() || hasOpenDead || deadAfter <= 0 {
		return nil
	}

	silent := now.Sub(lastSeen)
	if silent <= deadAfter {
		return nil
	}

	return &types.Transition{
		VehicleID: vehicleID,
		Kind:      types.KindDeadAUV,
		Key:       types.KeyLiveness,
		Type:      types.TransitionViolation,
		Severity:  severity,
		Message:   fmt.Sprintf("no telemetry for %s (threshold %s)", silent.Round(time.Second), deadAfter),
		Context: map[string]string{
			"last_seen": lastSeen.UTC().Format(time.RFC3339),
		},
		Timestamp: now,
	}
}
