package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"

	"tubeq/internal/logging"
	"tubeq/internal/queue"
	"tubeq/internal/workflow"
)

// progressBucket is the percent step between progress lines for one item.
const progressBucket = 25

// downloadReporter renders workflow callbacks as terminal lines.
type downloadReporter struct {
	out      io.Writer
	colorize bool

	mu       sync.Mutex
	samplers map[string]*logging.ProgressSampler
}

func newDownloadReporter(out io.Writer, colorize bool) *downloadReporter {
	return &downloadReporter{
		out:      out,
		colorize: colorize,
		samplers: make(map[string]*logging.ProgressSampler),
	}
}

func (r *downloadReporter) progress(p workflow.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sampler, ok := r.samplers[p.ItemID]
	if !ok {
		sampler = logging.NewProgressSampler(progressBucket)
		r.samplers[p.ItemID] = sampler
	}
	if !sampler.ShouldLog(p.Percent, string(p.Phase)) {
		return
	}
	fmt.Fprintln(r.out, formatProgressLine(p))
}

func (r *downloadReporter) itemComplete(item queue.Item, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.samplers, item.ID)
	fmt.Fprintln(r.out, formatCompletionLine(item, success, r.colorize))
}

func formatProgressLine(p workflow.Progress) string {
	label := p.Title
	if label == "" {
		label = p.ItemID
	}
	speed := "--"
	if p.SpeedBytesPerSec > 0 {
		speed = humanize.IBytes(uint64(p.SpeedBytesPerSec)) + "/s"
	}
	eta := queue.Item{EtaSeconds: p.EtaSeconds}.FormatETA()
	return fmt.Sprintf("  %5.1f%%  %-15s %-12s eta %-8s %s", p.Percent, p.Phase, speed, eta, label)
}

func formatCompletionLine(item queue.Item, success bool, colorize bool) string {
	if success {
		message := item.Label()
		if item.EstimatedSizeBytes > 0 {
			message = fmt.Sprintf("%s (%s)", message, item.FormatSize())
		}
		return renderStatusLine("Downloaded", statusOK, message, colorize)
	}
	if item.Status == queue.StatusCancelled {
		return renderStatusLine("Cancelled", statusWarn, item.Label(), colorize)
	}
	message := item.Label()
	if item.ErrorMessage != "" {
		message = fmt.Sprintf("%s: %s", message, item.ErrorMessage)
	}
	return renderStatusLine("Failed", statusError, message, colorize)
}
