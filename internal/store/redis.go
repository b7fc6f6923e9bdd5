package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/deepseaguard/insight-engine/internal/types"
)

const (
	vehicleStateTTL = 5 * time.Minute
	geoKey          = "auv:geo"
	alertChannel    = "auv:alerts"
)

// RedisStore mirrors live vehicle state for dashboards and publishes alert
// events on a pub/sub channel. Best-effort only.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore connects and pings Redis.
func NewRedisStore(ctx context.Context, addr, password string, db int, logger zerolog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 5,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{
		client: client,
		logger: logger.With().Str("component", "redis").Logger(),
	}, nil
}

// Close closes the client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// MirrorSample writes a vehicle's latest telemetry into a hash and the geo
// set in one pipeline round trip.
func (r *RedisStore) MirrorSample(ctx context.Context, s types.TelemetrySample) error {
	stateData := map[string]interface{}{
		"auv_id":    s.VehicleID,
		"lat":       s.Position.Lat,
		"lon":       s.Position.Lon,
		"timestamp": s.Timestamp.Unix(),
	}
	if s.Position.Depth != nil {
		stateData["depth_m"] = *s.Position.Depth
	}
	for metric, v := range s.Readings {
		stateData[metric] = v
	}

	stateKey := fmt.Sprintf("auv:%s:state", s.VehicleID)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, stateKey, stateData)
	pipe.Expire(ctx, stateKey, vehicleStateTTL)
	pipe.GeoAdd(ctx, geoKey, &redis.GeoLocation{
		Name:      s.VehicleID,
		Longitude: s.Position.Lon,
		Latitude:  s.Position.Lat,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// RunMirror consumes samples and mirrors them until the channel closes or
// ctx is cancelled. Failures are logged and skipped; the mirror is not a
// correctness dependency.
func (r *RedisStore) RunMirror(ctx context.Context, samples <-chan types.TelemetrySample) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-samples:
			if !ok {
				return
			}
			if err := r.MirrorSample(ctx, s); err != nil {
				r.logger.Warn().Err(err).Str("auv_id", s.VehicleID).Msg("State mirror failed")
			}
		}
	}
}

// Name implements pipeline.EventSink.
func (r *RedisStore) Name() string { return "redis" }

// Publish implements pipeline.EventSink, broadcasting the event on the
// alert pub/sub channel.
func (r *RedisStore) Publish(ctx context.Context, evt types.AlertEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := r.client.Publish(ctx, alertChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}
