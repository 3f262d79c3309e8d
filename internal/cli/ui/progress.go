package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates an indeterminate catalog round trip on one terminal line.
type spinner struct {
	w       io.Writer
	message string
	noColor bool

	mu     sync.Mutex
	active bool
	stop   chan struct{}
	parked chan struct{}
}

func startSpinner(w io.Writer, message string, noColor bool) *spinner {
	s := &spinner{
		w:       w,
		message: message,
		noColor: noColor,
		active:  true,
		stop:    make(chan struct{}),
		parked:  make(chan struct{}),
	}
	go s.spin(100 * time.Millisecond)
	return s
}

func (s *spinner) spin(interval time.Duration) {
	defer close(s.parked)
	tick := time.NewTicker(interval)
	defer tick.Stop()

	style := color.New(color.FgCyan)
	if s.noColor {
		style.DisableColor()
	}
	for i := 0; ; i++ {
		select {
		case <-s.stop:
			return
		case <-tick.C:
			style.Fprintf(s.w, "\r%s %s", spinnerFrames[i%len(spinnerFrames)], s.message)
		}
	}
}

// halt stops the animation and clears the line. Safe to call more than once.
func (s *spinner) halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	close(s.stop)
	<-s.parked
	fmt.Fprint(s.w, "\r\033[K")
}

// WithSpinner runs fn behind a spinner and replaces it with a ✓ or ✗ line
// once fn returns.
func WithSpinner(w io.Writer, message string, noColor bool, fn func() error) error {
	s := startSpinner(w, message, noColor)
	defer s.halt()

	if err := fn(); err != nil {
		s.halt()
		failed := color.New(color.FgRed, color.Bold)
		if noColor {
			failed.DisableColor()
		}
		failed.Fprintf(w, "✗ %s failed\n", message)
		return err
	}

	s.halt()
	done := color.New(color.FgGreen, color.Bold)
	if noColor {
		done.DisableColor()
	}
	done.Fprintf(w, "✓ %s\n", message)
	return nil
}

// TransferProgress reports bytes moved during a file transfer. It implements
// io.Writer so it can sit behind an io.MultiWriter or io.TeeReader; renders
// are throttled so tight copy loops do not flood the terminal.
type TransferProgress struct {
	writer   io.Writer
	label    string
	total    int64 // <= 0 means unknown
	noColor  bool
	mu       sync.Mutex
	done     int64
	lastDraw time.Time
	started  time.Time
}

// NewTransferProgress creates a progress reporter for one file. total may be
// zero when the size is not known up front.
func NewTransferProgress(w io.Writer, label string, total int64, noColor bool) *TransferProgress {
	return &TransferProgress{
		writer:  w,
		label:   label,
		total:   total,
		noColor: noColor,
		started: time.Now(),
	}
}

// Write counts transferred bytes. It never fails.
func (t *TransferProgress) Write(p []byte) (int, error) {
	t.mu.Lock()
	t.done += int64(len(p))
	draw := time.Since(t.lastDraw) >= 100*time.Millisecond
	if draw {
		t.lastDraw = time.Now()
	}
	done := t.done
	t.mu.Unlock()

	if draw {
		t.render(done)
	}
	return len(p), nil
}

// Finish clears the progress line and prints the final byte count with the
// elapsed time.
func (t *TransferProgress) Finish() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	fmt.Fprint(t.writer, "\r\033[K")
	green := color.New(color.FgGreen, color.Bold)
	if t.noColor {
		green.DisableColor()
	}
	green.Fprintf(t.writer, "✓ %s (%s, %s)\n",
		t.label,
		humanize.Bytes(uint64(done)),
		time.Since(t.started).Round(time.Millisecond))
}

func (t *TransferProgress) render(done int64) {
	cyan := color.New(color.FgCyan)
	if t.noColor {
		cyan.DisableColor()
	}
	if t.total > 0 {
		cyan.Fprintf(t.writer, "\r%s  %s / %s", t.label,
			humanize.Bytes(uint64(done)), humanize.Bytes(uint64(t.total)))
		return
	}
	cyan.Fprintf(t.writer, "\r%s  %s", t.label, humanize.Bytes(uint64(done)))
}
