package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress through a fixed number of items.
type ProgressReporter interface {
	Start(total int64)
	Step(failed bool)
	Finish()
	Error(err error)
}

// SimpleProgress renders a single-line bar with pass and fail counts.
type SimpleProgress struct {
	mu      sync.Mutex
	label   string
	total   int64
	done    int64
	failed  int64
	started time.Time
	writer  io.Writer
}

const progressWidth = 30

// NewProgressReporter creates a reporter that writes to w, defaulting to
// os.Stderr so that it never mixes with formatted results on stdout.
func NewProgressReporter(w io.Writer, label string) *SimpleProgress {
	if w == nil {
		w = os.Stderr
	}
	if label == "" {
		label = "items"
	}
	return &SimpleProgress{writer: w, label: label}
}

// Start resets the reporter for total items.
func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.done = 0
	p.failed = 0
	p.started = time.Now()
	p.render()
}

// Step records one completed item.
func (p *SimpleProgress) Step(failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done < p.total {
		p.done++
	}
	if failed {
		p.failed++
	}
	p.render()
}

// Finish ends the progress line.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total > 0 {
		fmt.Fprintln(p.writer)
	}
}

// Error reports an error that aborted the run.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\nerror: %v\n", err)
}

// Counts returns the completed and failed item counts.
func (p *SimpleProgress) Counts() (done, failed int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed
}

func (p *SimpleProgress) render() {
	if p.total == 0 {
		return
	}

	filled := int(progressWidth * p.done / p.total)
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", progressWidth-filled)

	fmt.Fprintf(p.writer, "\r[%s] %d/%d %s, %d failed (%s)",
		bar, p.done, p.total, p.label, p.failed, time.Since(p.started).Round(time.Millisecond))
}
