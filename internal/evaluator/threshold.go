// Package evaluator holds the stateless rule evaluators. Each call consumes
// a telemetry sample (or a sweep tick) plus current state and produces alert
// transitions; the alerter engine is the only component that acts on them.
package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deepseaguard/insight-engine/internal/geo"
	"github.com/deepseaguard/insight-engine/internal/types"
)

// thresholdKey identifies an environmental condition as metric@zone.
func thresholdKey(metric, zoneID string) string {
	return metric + "@" + zoneID
}

func splitThresholdKey(key string) (metric, zoneID string, ok bool) {
	i := strings.LastIndex(key, "@")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// Threshold evaluates a sample's readings against the limits of every zone
// containing its position. Violations are keyed (metric, zone) so the same
// metric can alert independently per overlapping zone. A metric with no
// configured range in a zone produces nothing.
//
// An open environmental alert clears when its reading comes back inside the
// inclusive bounds, or when the vehicle leaves the zone (the range no longer
// applies). A sample that simply omits the metric leaves the alert open.
func Threshold(sample types.TelemetrySample, containing []*geo.Zone, open map[types.AlertRef]*types.Alert, defaultSeverity string) []types.Transition {
	var out []types.Transition

	violating := make(map[types.AlertRef]struct{})
	inRange := make(map[types.AlertRef]struct{})
	byID := make(map[string]*geo.Zone, len(containing))

	for _, zone := range containing {
		if !zone.AppliesTo(sample.VehicleType) {
			continue
		}
		byID[zone.ID] = zone
		for metric, value := range sample.Readings {
			limits, ok := zone.Limits[metric]
			if !ok {
				continue
			}
			ref := types.AlertRef{Kind: types.KindEnvironmental, Key: thresholdKey(metric, zone.ID)}
			if limits.Within(value) {
				inRange[ref] = struct{}{}
				continue
			}
			violating[ref] = struct{}{}

			severity := defaultSeverity
			if zone.Severity != "" {
				severity = zone.Severity
			}
			out = append(out, types.Transition{
				VehicleID: sample.VehicleID,
				Kind:      types.KindEnvironmental,
				Key:       ref.Key,
				Type:      types.TransitionViolation,
				Severity:  severity,
				Message:   fmt.Sprintf("%s %.2f outside [%.2f, %.2f] in zone %s", metric, value, limits.Min, limits.Max, zone.ID),
				Context: map[string]string{
					"metric": metric,
					"zone":   zone.ID,
					"value":  strconv.FormatFloat(value, 'f', -1, 64),
					"min":    strconv.FormatFloat(limits.Min, 'f', -1, 64),
					"max":    strconv.FormatFloat(limits.Max, 'f', -1, 64),
				},
				Timestamp: sample.Timestamp,
			})
		}
	}

	for ref := range open {
		if ref.Kind != types.KindEnvironmental {
			continue
		}
		if _, still := violating[ref]; still {
			continue
		}

		metric, zoneID, ok := splitThresholdKey(ref.Key)
		if !ok {
			continue
		}

		_, backInRange := inRange[ref]
		_, stillInZone := byID[zoneID]
		if !backInRange && stillInZone {
			// Still inside the zone but this sample carried no reading
			// for the metric: no evidence either way, leave it open.
			continue
		}

		reason := fmt.Sprintf("%s back in range in zone %s", metric, zoneID)
		if !stillInZone {
			reason = fmt.Sprintf("left zone %s, %s limit no longer applies", zoneID, metric)
		}
		out = append(out, types.Transition{
			VehicleID: sample.VehicleID,
			Kind:      types.KindEnvironmental,
			Key:       ref.Key,
			Type:      types.TransitionClear,
			Message:   reason,
			Timestamp: sample.Timestamp,
		})
	}

	return out
}
