package utils

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"
)

func TestDurationUS(t *testing.T) {
	d := 1234*time.Microsecond + 567*time.Nanosecond
	got := DurationUS(d)
	if math.Abs(got-1234.567) > 0.001 {
		t.Fatalf("want 1234.567µs, got %.3f", got)
	}
}

func TestPrintTimingStatsRespectsVerbose(t *testing.T) {
	stats := &TimingStats{
		TotalTime:    10 * time.Second,
		TrainingTime: 8 * time.Second,
	}

	var buf bytes.Buffer
	oldOut, oldVerbose := Output, Verbose
	Output, Verbose = &buf, false
	defer func() { Output, Verbose = oldOut, oldVerbose }()

	PrintTimingStats(stats)
	if buf.Len() != 0 {
		t.Fatalf("expected no output with Verbose off, got %q", buf.String())
	}

	Verbose = true
	PrintTimingStats(stats)
	if !strings.Contains(buf.String(), "Training: 8s") {
		t.Fatalf("missing training phase in output: %q", buf.String())
	}
}
