package config

import (
	"os"
	"strconv"
)

// Env holds infrastructure settings sourced from the environment. Domain
// policy lives in the YAML config directory; endpoints and tuning knobs
// live here.
type Env struct {
	APIPort      string
	TelemetryURL string

	// Optional sinks. An empty address/DSN disables the sink.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostgresDSN   string

	EventBufferSize int
}

// LoadEnv reads infrastructure settings from the environment.
func LoadEnv() *Env {
	return &Env{
		APIPort:         getEnv("API_PORT", "8088"),
		TelemetryURL:    getEnv("TELEMETRY_WS_URL", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		PostgresDSN:     getEnv("POSTGRES_DSN", ""),
		EventBufferSize: getEnvInt("ALERT_EVENT_BUFFER", 1024),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
