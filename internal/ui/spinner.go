package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner animates the current action prompt on a single terminal line.
type Spinner struct {
	out    io.Writer
	frames []string

	mu     sync.Mutex
	msg    string
	paused bool

	stop chan struct{}
	done chan struct{}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer, msg string) *Spinner {
	return &Spinner{
		out:    out,
		frames: spinnerFrames,
		msg:    msg,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start begins the animation in a goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			s.mu.Lock()
			if !s.paused {
				frame := StyleTitle.Render(s.frames[i%len(s.frames)])
				fmt.Fprintf(s.out, "\r\033[K%s  %s", frame, s.msg)
			}
			s.mu.Unlock()

			select {
			case <-s.stop:
				fmt.Fprint(s.out, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()
}

// SetMessage replaces the text next to the spinner.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Pause clears the line and stops drawing until Resume.
func (s *Spinner) Pause() {
	s.mu.Lock()
	s.paused = true
	fmt.Fprint(s.out, "\r\033[K")
	s.mu.Unlock()
}

// Resume continues drawing after Pause.
func (s *Spinner) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

// Stop halts the spinner and waits for it to clear its line.
func (s *Spinner) Stop() {
	close(s.stop)
	<-s.done
}
