package api

import (
	"strings"
	"sync"
	"time"
)

// LogEntry is one captured log line.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Raw       string    `json:"raw"`
}

// LogBuffer is a thread-safe ring buffer of recent log lines, fed through
// io.MultiWriter alongside stdout and served at /api/logs.
type LogBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	head    int
	count   int
}

// NewLogBuffer creates a buffer holding the last size entries.
func NewLogBuffer(size int) *LogBuffer {
	return &LogBuffer{entries: make([]LogEntry, size)}
}

// Write implements io.Writer for capturing zerolog output.
func (b *LogBuffer) Write(p []byte) (int, error) {
	raw := string(p)
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     levelOf(raw),
		Message:   messageOf(raw),
		Raw:       raw,
	}

	b.mu.Lock()
	b.entries[b.head] = entry
	b.head = (b.head + 1) % len(b.entries)
	if b.count < len(b.entries) {
		b.count++
	}
	b.mu.Unlock()

	return len(p), nil
}

// Recent returns up to n entries, oldest first.
func (b *LogBuffer) Recent(n int) []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > b.count {
		n = b.count
	}
	out := make([]LogEntry, n)
	start := b.head - n
	if start < 0 {
		start += len(b.entries)
	}
	for i := 0; i < n; i++ {
		out[i] = b.entries[(start+i)%len(b.entries)]
	}
	return out
}

var logLevels = []string{"debug", "info", "warn", "error", "fatal"}

// levelOf extracts the level from a zerolog JSON line.
func levelOf(raw string) string {
	for _, lvl := range logLevels {
		if strings.Contains(raw, `"level":"`+lvl+`"`) {
			return lvl
		}
	}
	return "info"
}

// messageOf extracts the message from a zerolog JSON line.
func messageOf(raw string) string {
	const marker = `"message":"`
	start := strings.Index(raw, marker)
	if start == -1 {
		return strings.TrimSpace(raw)
	}
	start += len(marker)
	end := start
	for end < len(raw) && raw[end] != '"' {
		if raw[end] == '\\' && end+1 < len(raw) {
			end += 2
			continue
		}
		end++
	}
	return raw[start:end]
}
