// Package collector consumes the external telemetry feed over websocket.
// The feed is assumed validated upstream; frames that fail to decode are
// counted and skipped at this boundary and never reach the pipeline.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/deepseaguard/insight-engine/internal/metrics"
	"github.com/deepseaguard/insight-engine/internal/types"
)

const (
	defaultDialTimeout   = 10 * time.Second
	defaultBackoffMin    = 5 * time.Second
	defaultBackoffMax    = 120 * time.Second
	defaultUpdatesBuffer = 256
	pongWait             = 90 * time.Second
)

// Backoff holds reconnect backoff bounds.
type Backoff struct {
	Min time.Duration
	Max time.Duration
}

// FeedHealth tracks the state of the telemetry feed connection.
type FeedHealth struct {
	Connected      bool
	ConnectedSince time.Time
	LastSample     time.Time
	LastError      string
	ReconnectCount int
	SampleCount    int64
	DecodeFailures int64
}

// Collector maintains a websocket subscription to the telemetry source.
type Collector struct {
	url         string
	logger      zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	updates     chan types.TelemetrySample
	errors      chan error
	backoff     Backoff
	dialTimeout time.Duration

	mu     sync.RWMutex
	conn   *websocket.Conn
	health FeedHealth
}

// NewCollector creates a collector for the given websocket URL.
func NewCollector(url string, logger zerolog.Logger) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		url:         url,
		logger:      logger.With().Str("component", "collector").Logger(),
		ctx:         ctx,
		cancel:      cancel,
		updates:     make(chan types.TelemetrySample, defaultUpdatesBuffer),
		errors:      make(chan error, 1),
		backoff:     Backoff{Min: defaultBackoffMin, Max: defaultBackoffMax},
		dialTimeout: defaultDialTimeout,
	}
}

// Updates returns the stream of decoded telemetry samples.
func (c *Collector) Updates() <-chan types.TelemetrySample {
	return c.updates
}

// Errors returns the connection error channel.
func (c *Collector) Errors() <-chan error {
	return c.errors
}

// Done is closed when the collector is shut down.
func (c *Collector) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Health returns the current feed health.
func (c *Collector) Health() FeedHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

// Connect dials the feed and starts the read loop. A read failure is
// reported on Errors(); the caller decides when to reconnect.
func (c *Collector) Connect() error {
	c.closeExisting()

	dialer := websocket.Dialer{HandshakeTimeout: c.dialTimeout}
	conn, _, err := dialer.DialContext(c.ctx, c.url, nil)
	if err != nil {
		c.setError(err)
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.mu.Lock()
	c.conn = conn
	c.health.Connected = true
	c.health.ConnectedSince = time.Now()
	c.health.LastError = ""
	c.mu.Unlock()

	c.logger.Info().Str("url", c.url).Msg("Telemetry feed connected")
	go c.readLoop(conn)
	return nil
}

// Run keeps the feed connected until Close, reconnecting with exponential
// backoff after failures.
func (c *Collector) Run() {
	delay := c.backoff.Min
	for {
		if err := c.Connect(); err != nil {
			c.logger.Error().Err(err).Dur("retry_in", delay).Msg("Failed to connect, will retry")
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.backoff.Max {
				delay = c.backoff.Max
			}
			continue
		}

		delay = c.backoff.Min

		select {
		case <-c.ctx.Done():
			return
		case err := <-c.errors:
			if err != nil {
				select {
				case <-c.ctx.Done():
					return
				default:
				}
				c.mu.Lock()
				c.health.ReconnectCount++
				c.mu.Unlock()
				c.logger.Warn().Err(err).Msg("Feed connection lost, reconnecting")
				select {
				case <-c.ctx.Done():
					return
				case <-time.After(c.backoff.Min):
				}
			}
		}
	}
}

func (c *Collector) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.setError(err)
			select {
			case c.errors <- err:
			default:
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var sample types.TelemetrySample
		if err := json.Unmarshal(data, &sample); err != nil {
			metrics.SamplesRejected.Add(1)
			c.mu.Lock()
			c.health.DecodeFailures++
			c.mu.Unlock()
			c.logger.Warn().Err(err).Msg("Dropping undecodable telemetry frame")
			continue
		}

		c.mu.Lock()
		c.health.LastSample = time.Now()
		c.health.SampleCount++
		c.mu.Unlock()

		select {
		case c.updates <- sample:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Collector) setError(err error) {
	c.mu.Lock()
	c.health.Connected = false
	c.health.LastError = err.Error()
	c.mu.Unlock()
}

func (c *Collector) closeExisting() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.health.Connected = false
	}
}

// Close shuts the collector down.
func (c *Collector) Close() error {
	c.cancel()
	c.closeExisting()
	return nil
}
