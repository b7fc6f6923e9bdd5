package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadConfigDir loads all configuration files from a directory. zones.yaml,
// vehicles.yaml and alerts.yaml are each optional: a missing file leaves its
// section empty, since an under-configured engine is a valid (if quiet)
// state.
func LoadConfigDir(dir string) (*Config, error) {
	cfg := &Config{}

	if err := loadOptionalYAML(filepath.Join(dir, "zones.yaml"), &cfg.Zones); err != nil {
		return nil, fmt.Errorf("loading zones.yaml: %w", err)
	}

	vehiclesFile := struct {
		Vehicles   map[string]VehicleConfig `yaml:"vehicles,omitempty"`
		Monitoring MonitoringConfig         `yaml:"monitoring,omitempty"`
	}{}
	if err := loadOptionalYAML(filepath.Join(dir, "vehicles.yaml"), &vehiclesFile); err != nil {
		return nil, fmt.Errorf("loading vehicles.yaml: %w", err)
	}
	cfg.Vehicles.Vehicles = vehiclesFile.Vehicles
	cfg.Monitoring = vehiclesFile.Monitoring

	if err := loadOptionalYAML(filepath.Join(dir, "alerts.yaml"), &cfg.Alerts); err != nil {
		return nil, fmt.Errorf("loading alerts.yaml: %w", err)
	}

	applyDefaults(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Monitoring.DeadAfterS == 0 {
		cfg.Monitoring.DeadAfterS = 60
	}
	if cfg.Monitoring.SweepEveryS == 0 {
		cfg.Monitoring.SweepEveryS = 10
	}
}

// loadOptionalYAML loads a YAML file into out; a missing file is not an error.
func loadOptionalYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, out)
}

var validSeverities = map[string]struct{}{
	"info":     {},
	"warning":  {},
	"critical": {},
}

// ValidateConfig validates the assembled configuration.
func ValidateConfig(cfg *Config) error {
	seen := make(map[string]struct{}, len(cfg.Zones.Zones))
	for _, z := range cfg.Zones.Zones {
		if z.ID == "" {
			return fmt.Errorf("zone %q: id is required", z.Name)
		}
		if _, dup := seen[z.ID]; dup {
			return fmt.Errorf("zone %s: duplicate id", z.ID)
		}
		seen[z.ID] = struct{}{}

		vertices := len(z.Boundary)
		if vertices > 1 && z.Boundary[0] == z.Boundary[vertices-1] {
			vertices--
		}
		if vertices < 3 {
			return fmt.Errorf("zone %s: boundary needs at least 3 distinct vertices", z.ID)
		}

		for metric, r := range z.Limits {
			if r.Min > r.Max {
				return fmt.Errorf("zone %s, metric %s: min %v exceeds max %v", z.ID, metric, r.Min, r.Max)
			}
		}

		if z.Severity != "" {
			if _, ok := validSeverities[z.Severity]; !ok {
				return fmt.Errorf("zone %s: unknown severity %q", z.ID, z.Severity)
			}
		}
	}

	for name, v := range cfg.Vehicles.Vehicles {
		for _, zoneID := range v.AllowedZones {
			if _, ok := seen[zoneID]; !ok {
				return fmt.Errorf("vehicle %s: references unknown zone %s", name, zoneID)
			}
		}
	}

	for kind, sev := range cfg.Alerts.Severities {
		if _, ok := validSeverities[sev]; !ok {
			return fmt.Errorf("alert kind %s: unknown severity %q", kind, sev)
		}
	}

	if cfg.Monitoring.DeadAfterS < 0 || cfg.Monitoring.SweepEveryS < 0 {
		return fmt.Errorf("monitoring intervals must not be negative")
	}

	return nil
}
