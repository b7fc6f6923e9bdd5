package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const zonesYAML = `
zones:
  - id: Z1
    name: Survey Area Alpha
    boundary:
      - {lat: 0, lon: 0}
      - {lat: 0, lon: 1}
      - {lat: 1, lon: 1}
      - {lat: 1, lon: 0}
    limits:
      temperature_c: {min: 2, max: 30}
      salinity_psu: {min: 30, max: 38}
  - id: Z2
    boundary:
      - {lat: 5, lon: 5}
      - {lat: 5, lon: 6}
      - {lat: 6, lon: 6}
    severity: critical
`

const vehiclesYAML = `
vehicles:
  auv-1:
    type: survey
    allowed_zones: [Z1]
monitoring:
  dead_after_s: 120
`

const alertsYAML = `
severities:
  environmental: info
webhook:
  url_env: ALERT_WEBHOOK_URL
  severity_filter: [critical]
`

func TestLoadConfigDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "zones.yaml", zonesYAML)
	writeFile(t, dir, "vehicles.yaml", vehiclesYAML)
	writeFile(t, dir, "alerts.yaml", alertsYAML)

	cfg, err := LoadConfigDir(dir)
	if err != nil {
		t.Fatalf("LoadConfigDir: %v", err)
	}

	if len(cfg.Zones.Zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(cfg.Zones.Zones))
	}
	z1 := cfg.Zones.Zones[0]
	if z1.ID != "Z1" || len(z1.Boundary) != 4 {
		t.Fatalf("unexpected zone Z1: %+v", z1)
	}
	if r := z1.Limits["temperature_c"]; r.Min != 2 || r.Max != 30 {
		t.Fatalf("unexpected temperature limits: %+v", r)
	}

	v := cfg.Policy("auv-1")
	if len(v.AllowedZones) != 1 || v.AllowedZones[0] != "Z1" {
		t.Fatalf("unexpected policy for auv-1: %+v", v)
	}
	if p := cfg.Policy("auv-unknown"); len(p.AllowedZones) != 0 {
		t.Fatalf("unknown vehicle should get permissive default, got %+v", p)
	}

	if got := cfg.Monitoring.DeadThreshold(); got != 120*time.Second {
		t.Fatalf("DeadThreshold = %v, want 120s", got)
	}
	if got := cfg.Monitoring.SweepInterval(); got != 10*time.Second {
		t.Fatalf("SweepInterval default = %v, want 10s", got)
	}

	if got := cfg.Alerts.SeverityFor("environmental"); got != "info" {
		t.Fatalf("environmental severity = %q, want info", got)
	}
	if got := cfg.Alerts.SeverityFor("dead_auv"); got != "critical" {
		t.Fatalf("dead_auv severity = %q, want critical", got)
	}
	if cfg.Alerts.Webhook.URLEnv != "ALERT_WEBHOOK_URL" {
		t.Fatalf("webhook url_env = %q", cfg.Alerts.Webhook.URLEnv)
	}
}

func TestLoadConfigDirMissingFiles(t *testing.T) {
	cfg, err := LoadConfigDir(t.TempDir())
	if err != nil {
		t.Fatalf("empty config dir should load: %v", err)
	}
	if len(cfg.Zones.Zones) != 0 {
		t.Fatal("expected no zones")
	}
	if cfg.Monitoring.DeadAfterS != 60 || cfg.Monitoring.SweepEveryS != 10 {
		t.Fatalf("defaults not applied: %+v", cfg.Monitoring)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	cases := []struct {
		name  string
		zones string
		extra string
	}{
		{
			name: "duplicate zone id",
			zones: `
zones:
  - id: Z1
    boundary: [{lat: 0, lon: 0}, {lat: 0, lon: 1}, {lat: 1, lon: 1}]
  - id: Z1
    boundary: [{lat: 0, lon: 0}, {lat: 0, lon: 1}, {lat: 1, lon: 1}]
`,
		},
		{
			name: "too few vertices",
			zones: `
zones:
  - id: Z1
    boundary: [{lat: 0, lon: 0}, {lat: 1, lon: 1}]
`,
		},
		{
			name: "degenerate closed ring",
			zones: `
zones:
  - id: Z1
    boundary: [{lat: 0, lon: 0}, {lat: 1, lon: 1}, {lat: 0, lon: 0}]
`,
		},
		{
			name: "inverted limits",
			zones: `
zones:
  - id: Z1
    boundary: [{lat: 0, lon: 0}, {lat: 0, lon: 1}, {lat: 1, lon: 1}]
    limits:
      temperature_c: {min: 30, max: 2}
`,
		},
		{
			name: "bad zone severity",
			zones: `
zones:
  - id: Z1
    boundary: [{lat: 0, lon: 0}, {lat: 0, lon: 1}, {lat: 1, lon: 1}]
    severity: loud
`,
		},
		{
			name: "unknown allowed zone",
			zones: `
zones:
  - id: Z1
    boundary: [{lat: 0, lon: 0}, {lat: 0, lon: 1}, {lat: 1, lon: 1}]
`,
			extra: `
vehicles:
  auv-1:
    allowed_zones: [missing]
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "zones.yaml", tc.zones)
			if tc.extra != "" {
				writeFile(t, dir, "vehicles.yaml", tc.extra)
			}
			if _, err := LoadConfigDir(dir); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
