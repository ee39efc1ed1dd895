package ui

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a loading indicator on a line of out. It is the
// lightweight counterpart of the bubbletea views for one-shot commands.
type Spinner struct {
	out  io.Writer
	msg  string
	stop chan struct{}
	done chan struct{}
	once sync.Once
	live atomic.Bool
}

// NewSpinner creates a spinner that writes to out.
func NewSpinner(out io.Writer, msg string) *Spinner {
	return &Spinner{
		out:  out,
		msg:  msg,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Start begins the animation in a goroutine.
func (s *Spinner) Start() {
	s.live.Store(true)
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			fmt.Fprintf(s.out, "\r%s  %s", StyleBrand.Render(spinnerFrames[i%len(spinnerFrames)]), s.msg)
			select {
			case <-s.stop:
				fmt.Fprintf(s.out, "\r%-60s\r", "")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the spinner and waits for the line to be cleared. It is safe to
// call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.stop)
		if s.live.Load() {
			<-s.done
		}
	})
}

// StopWithMsg halts the spinner and prints a final line.
func (s *Spinner) StopWithMsg(msg string) {
	s.Stop()
	fmt.Fprintln(s.out, msg)
}
