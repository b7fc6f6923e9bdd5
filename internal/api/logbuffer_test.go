package api

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

func TestLogBufferParsesZerologLines(t *testing.T) {
	buf := NewLogBuffer(10)
	logger := zerolog.New(buf)

	logger.Info().Str("component", "pipeline").Msg("Zone index reloaded")
	logger.Warn().Msg("Sink delivery failed")

	entries := buf.Recent(0)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Level != "info" || entries[0].Message != "Zone index reloaded" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Level != "warn" || entries[1].Message != "Sink delivery failed" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestLogBufferWraps(t *testing.T) {
	buf := NewLogBuffer(3)
	logger := zerolog.New(buf)

	for i := 0; i < 5; i++ {
		logger.Info().Msgf("line %d", i)
	}

	entries := buf.Recent(0)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// Oldest first, oldest two dropped.
	for i, want := range []string{"line 2", "line 3", "line 4"} {
		if entries[i].Message != want {
			t.Fatalf("entry %d = %q, want %q", i, entries[i].Message, want)
		}
	}
}

func TestLogBufferRecentLimit(t *testing.T) {
	buf := NewLogBuffer(10)
	logger := zerolog.New(buf)
	for i := 0; i < 6; i++ {
		logger.Info().Msgf("line %d", i)
	}

	entries := buf.Recent(2)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message != "line 4" || entries[1].Message != "line 5" {
		t.Fatalf("unexpected window: %+v", entries)
	}
}

func TestLogBufferNonJSONLine(t *testing.T) {
	buf := NewLogBuffer(4)
	fmt.Fprintln(buf, "plain text line")

	entries := buf.Recent(0)
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Level != "info" || entries[0].Message != "plain text line" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}
