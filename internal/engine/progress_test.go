package engine

import (
	"math"
	"testing"
)

func TestProgressEventPercent(t *testing.T) {
	tests := []struct {
		name  string
		event ProgressEvent
		want  float64
	}{
		{name: "unknown total", event: ProgressEvent{Phase: PhaseDownloading, DownloadedBytes: 10}, want: 0},
		{name: "half", event: ProgressEvent{Phase: PhaseDownloading, DownloadedBytes: 50, TotalBytes: 100}, want: 50},
		{name: "overshoot", event: ProgressEvent{Phase: PhaseDownloading, DownloadedBytes: 150, TotalBytes: 100}, want: 100},
		{name: "finished", event: ProgressEvent{Phase: PhaseFinished}, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Percent(); got != tt.want {
				t.Fatalf("Percent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressEventValidate(t *testing.T) {
	if err := (ProgressEvent{DownloadedBytes: 1, TotalBytes: 2, SpeedBytesPerSec: 3, EtaSeconds: 4}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []ProgressEvent{
		{DownloadedBytes: -1},
		{TotalBytes: -1},
		{SpeedBytesPerSec: math.NaN()},
		{SpeedBytesPerSec: math.Inf(1)},
		{EtaSeconds: -1},
	}
	for i, ev := range bad {
		if err := ev.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
