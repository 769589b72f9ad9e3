package queue

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatDuration renders the media duration as HH:MM:SS or MM:SS.
func (i Item) FormatDuration() string {
	if i.DurationSeconds <= 0 {
		return "--:--"
	}
	hours := i.DurationSeconds / 3600
	minutes := (i.DurationSeconds % 3600) / 60
	seconds := i.DurationSeconds % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// FormatSize renders the estimated size, or "Unknown".
func (i Item) FormatSize() string {
	if i.EstimatedSizeBytes <= 0 {
		return "Unknown"
	}
	return humanize.IBytes(uint64(i.EstimatedSizeBytes))
}

// FormatSpeed renders the current transfer rate.
func (i Item) FormatSpeed() string {
	if i.SpeedBytesPerSec <= 0 {
		return "--"
	}
	return humanize.IBytes(uint64(i.SpeedBytesPerSec)) + "/s"
}

// FormatETA renders the remaining time as 45s, 3m 20s, or 1h 5m.
func (i Item) FormatETA() string {
	eta := i.EtaSeconds
	switch {
	case eta <= 0:
		return "--"
	case eta < 60:
		return fmt.Sprintf("%ds", eta)
	case eta < 3600:
		return fmt.Sprintf("%dm %ds", eta/60, eta%60)
	default:
		return fmt.Sprintf("%dh %dm", eta/3600, (eta%3600)/60)
	}
}
