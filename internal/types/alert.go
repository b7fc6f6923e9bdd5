package types

import "time"

// AlertKind identifies which rule produced an alert.
type AlertKind string

const (
	KindEnvironmental AlertKind = "environmental"
	KindZoneViolation AlertKind = "zone_violation"
	KindDeadAUV       AlertKind = "dead_auv"
)

// Sentinel keys for rules that raise at most one alert per vehicle.
const (
	KeyZoneCompliance = "compliance"
	KeyLiveness       = "liveness"
)

// AlertRef identifies the condition an alert tracks. There is at most one
// open alert per (vehicle, kind, key) at any time.
type AlertRef struct {
	Kind AlertKind
	Key  string
}

// Alert represents an open or closed alert. Once ClosedAt is set the record
// is never mutated again.
type Alert struct {
	ID        string            `json:"id"`
	VehicleID string            `json:"auv_id"`
	Kind      AlertKind         `json:"type"`
	Key       string            `json:"key"`
	Severity  string            `json:"severity"`
	OpenedAt  time.Time         `json:"started_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	ClosedAt  *time.Time        `json:"closed_at,omitempty"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
}

// Ref returns the condition this alert tracks.
func (a *Alert) Ref() AlertRef {
	return AlertRef{Kind: a.Kind, Key: a.Key}
}

// TransitionType says whether a rule started or stopped violating.
type TransitionType string

const (
	TransitionViolation TransitionType = "violation"
	TransitionClear     TransitionType = "clear"
)

// Transition is a rule evaluator's intent. Evaluators never touch Alert
// state directly; the lifecycle engine is the only mutation path.
type Transition struct {
	VehicleID string
	Kind      AlertKind
	Key       string
	Type      TransitionType
	Severity  string
	Message   string
	Context   map[string]string
	Timestamp time.Time
}

// EventType is the lifecycle edge delivered to alert sinks.
type EventType string

const (
	EventOpened EventType = "opened"
	EventClosed EventType = "closed"
)

// AlertEvent is handed off to external sinks when an alert opens or closes.
// Sinks must tolerate at-least-once delivery, idempotent on (Alert.ID, Type).
type AlertEvent struct {
	Type  EventType `json:"event"`
	Alert Alert     `json:"alert"`
}
