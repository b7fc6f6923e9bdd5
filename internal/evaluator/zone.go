package evaluator

import (
	"fmt"
	"strings"

	"github.com/deepseaguard/insight-engine/internal/config"
	"github.com/deepseaguard/insight-engine/internal/geo"
	"github.com/deepseaguard/insight-engine/internal/types"
)

// ZoneCompliance checks a vehicle's position against its permitted-zone
// policy. A vehicle with no allow-list is always compliant. One sentinel-key
// alert covers the whole policy: the vehicle is either compliant or it is
// not, so per-zone alerts would only be noise.
func ZoneCompliance(sample types.TelemetrySample, containing []*geo.Zone, policy config.VehicleConfig, open map[types.AlertRef]*types.Alert, severity string) *types.Transition {
	ref := types.AlertRef{Kind: types.KindZoneViolation, Key: types.KeyZoneCompliance}
	_, hasOpen := open[ref]

	if len(policy.AllowedZones) == 0 {
		if hasOpen {
			return &types.Transition{
				VehicleID: sample.VehicleID,
				Kind:      ref.Kind,
				Key:       ref.Key,
				Type:      types.TransitionClear,
				Message:   "zone policy removed",
				Timestamp: sample.Timestamp,
			}
		}
		return nil
	}

	allowed := make(map[string]struct{}, len(policy.AllowedZones))
	for _, id := range policy.AllowedZones {
		allowed[id] = struct{}{}
	}

	compliant := false
	for _, z := range containing {
		if _, ok := allowed[z.ID]; ok {
			compliant = true
			break
		}
	}

	if compliant {
		if hasOpen {
			return &types.Transition{
				VehicleID: sample.VehicleID,
				Kind:      ref.Kind,
				Key:       ref.Key,
				Type:      types.TransitionClear,
				Message:   "back inside permitted zones",
				Timestamp: sample.Timestamp,
			}
		}
		return nil
	}

	return &types.Transition{
		VehicleID: sample.VehicleID,
		Kind:      ref.Kind,
		Key:       ref.Key,
		Type:      types.TransitionViolation,
		Severity:  severity,
		Message: fmt.Sprintf("position (%.5f, %.5f) outside permitted zones [%s]",
			sample.Position.Lat, sample.Position.Lon, strings.Join(policy.AllowedZones, ", ")),
		Context: map[string]string{
			"allowed_zones": strings.Join(policy.AllowedZones, ","),
		},
		Timestamp: sample.Timestamp,
	}
}
