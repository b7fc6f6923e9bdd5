package types

import "time"

// Position is a geographic fix. Depth is meters below surface and may be
// absent (nil) for surface-only fixes.
type Position struct {
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Depth *float64 `json:"depth_m,omitempty"`
}

// TelemetrySample is one validated report from an AUV. Readings maps metric
// name (temperature_c, salinity_psu, battery_pct, ...) to its value.
//
// Timestamps are source-supplied. Samples may arrive out of order; the state
// store accepts them but never moves a vehicle's last-seen backward.
type TelemetrySample struct {
	VehicleID   string             `json:"auv_id"`
	VehicleType string             `json:"auv_type,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
	Position    Position           `json:"position"`
	Readings    map[string]float64 `json:"readings"`
}
