package config

import (
	"time"

	"github.com/deepseaguard/insight-engine/internal/geo"
)

// Config is the complete domain configuration, assembled from the files in
// the config directory (zones.yaml, vehicles.yaml, alerts.yaml).
type Config struct {
	Zones      ZonesConfig
	Vehicles   VehiclesConfig
	Alerts     AlertsConfig
	Monitoring MonitoringConfig
}

// ZonesConfig holds the geofenced zone definitions.
type ZonesConfig struct {
	Zones []geo.Zone `yaml:"zones"`
}

// VehiclesConfig defines per-vehicle policy.
type VehiclesConfig struct {
	Vehicles map[string]VehicleConfig `yaml:"vehicles,omitempty"`
}

// VehicleConfig is the permitted-zone policy for one AUV.
type VehicleConfig struct {
	Description string `yaml:"description,omitempty"`
	Type        string `yaml:"type,omitempty"`
	// AllowedZones is the zone allow-list. Empty means any position is
	// compliant; non-empty means the vehicle must stay inside at least
	// one listed zone.
	AllowedZones []string `yaml:"allowed_zones,omitempty"`
}

// MonitoringConfig tunes the liveness sweep. Durations are whole seconds in
// YAML to keep the files hand-editable.
type MonitoringConfig struct {
	DeadAfterS  int `yaml:"dead_after_s"`
	SweepEveryS int `yaml:"sweep_every_s"`
}

// DeadThreshold returns the configured dead-vehicle timeout.
func (m MonitoringConfig) DeadThreshold() time.Duration {
	return time.Duration(m.DeadAfterS) * time.Second
}

// SweepInterval returns how often the liveness sweep runs.
func (m MonitoringConfig) SweepInterval() time.Duration {
	return time.Duration(m.SweepEveryS) * time.Second
}

// AlertsConfig defines severities and sink routing.
type AlertsConfig struct {
	// Severities maps alert kind to severity, overriding the defaults
	// (environmental=warning, zone_violation=critical, dead_auv=critical).
	Severities map[string]string `yaml:"severities,omitempty"`
	Webhook    WebhookConfig     `yaml:"webhook,omitempty"`
}

// WebhookConfig defines the outbound webhook sink.
type WebhookConfig struct {
	// URLEnv names the environment variable holding the webhook URL.
	// The URL itself never lives in config files.
	URLEnv string `yaml:"url_env,omitempty"`
	// SeverityFilter limits which severities are delivered. Empty means all.
	SeverityFilter []string `yaml:"severity_filter,omitempty"`
}

// SeverityFor returns the severity for an alert kind, falling back to the
// built-in defaults.
func (a AlertsConfig) SeverityFor(kind string) string {
	if s, ok := a.Severities[kind]; ok && s != "" {
		return s
	}
	switch kind {
	case "environmental":
		return "warning"
	default:
		return "critical"
	}
}

// Policy returns the zone policy for a vehicle. Unknown vehicles get the
// permissive default (no allow-list).
func (c *Config) Policy(vehicleID string) VehicleConfig {
	if v, ok := c.Vehicles.Vehicles[vehicleID]; ok {
		return v
	}
	return VehicleConfig{}
}
