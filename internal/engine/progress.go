package engine

import (
	"fmt"
	"math"
)

// Phase labels a progress snapshot.
type Phase string

const (
	PhaseDownloading    Phase = "downloading"
	PhasePostProcessing Phase = "post_processing"
	PhaseFinished       Phase = "finished"
)

// ProgressEvent is a point-in-time view of a running fetch. TotalBytes is zero
// when the engine cannot estimate the size.
type ProgressEvent struct {
	Phase            Phase
	DownloadedBytes  int64
	TotalBytes       int64
	SpeedBytesPerSec float64
	EtaSeconds       int
	Filename         string
}

// Percent returns completion in [0, 100]. Finished snapshots always report 100.
func (e ProgressEvent) Percent() float64 {
	if e.Phase == PhaseFinished {
		return 100
	}
	if e.TotalBytes <= 0 || e.DownloadedBytes <= 0 {
		return 0
	}
	pct := float64(e.DownloadedBytes) / float64(e.TotalBytes) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// Validate rejects snapshots the queue cannot store.
func (e ProgressEvent) Validate() error {
	switch {
	case e.DownloadedBytes < 0:
		return fmt.Errorf("negative downloaded bytes %d", e.DownloadedBytes)
	case e.TotalBytes < 0:
		return fmt.Errorf("negative total bytes %d", e.TotalBytes)
	case math.IsNaN(e.SpeedBytesPerSec) || math.IsInf(e.SpeedBytesPerSec, 0) || e.SpeedBytesPerSec < 0:
		return fmt.Errorf("invalid speed %v", e.SpeedBytesPerSec)
	case e.EtaSeconds < 0:
		return fmt.Errorf("negative eta %d", e.EtaSeconds)
	}
	return nil
}
