package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

const barWidth = 40

// Bar renders download progress on a single terminal line.
type Bar struct {
	out       io.Writer
	total     int
	current   int
	bytes     uint64
	mu        sync.Mutex
	startTime time.Time
	lastPrint time.Time
	done      bool
}

// New creates a progress bar for total files writing to stdout.
func New(total int) *Bar {
	return NewWithWriter(total, os.Stdout)
}

// NewWithWriter creates a progress bar writing to w.
func NewWithWriter(total int, w io.Writer) *Bar {
	now := time.Now()
	return &Bar{
		out:       w,
		total:     total,
		startTime: now,
		lastPrint: now,
	}
}

// Increment records one finished file of size n bytes.
func (b *Bar) Increment(n int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current++
	if n > 0 {
		b.bytes += uint64(n)
	}

	// Update display every 500ms or when complete
	now := time.Now()
	if now.Sub(b.lastPrint) > 500*time.Millisecond || b.current >= b.total {
		b.render()
		b.lastPrint = now
	}
}

// Finish marks the progress as complete
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.done {
		b.current = b.total
		b.render()
		fmt.Fprintln(b.out)
		b.done = true
	}
}

func (b *Bar) render() {
	if b.done || b.total <= 0 {
		return
	}

	elapsed := time.Since(b.startTime)
	var eta time.Duration
	if b.current > 0 {
		eta = elapsed / time.Duration(b.current) * time.Duration(b.total-b.current)
	}

	filled := barWidth * b.current / b.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(b.out, "\r[%s] %d/%d (%.1f%%) %s - Elapsed: %s - ETA: %s   ",
		bar,
		b.current,
		b.total,
		float64(b.current)/float64(b.total)*100,
		humanize.IBytes(b.bytes),
		formatDuration(elapsed),
		formatDuration(eta),
	)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
