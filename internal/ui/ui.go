package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrCancelled is returned when the user dismisses a prompt.
var ErrCancelled = errors.New("cancelled by user")

// UI is everything the provider layer needs from the terminal. It reports
// progress and asks questions; nothing parses what it prints.
type UI interface {
	Write(message string)
	SetActionPrompt(message string)
	ClearActionPrompt()
	// Choose returns the index of the selected label.
	Choose(prompt string, labels []string) (int, error)
	Input(prompt string) (string, error)
}

// Choose asks the user to pick one of options, rendering each with label.
func Choose[T any](u UI, prompt string, options []T, label func(T) string) (T, error) {
	var zero T
	if len(options) == 0 {
		return zero, fmt.Errorf("no options for %q", prompt)
	}
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = label(o)
	}
	idx, err := u.Choose(prompt, labels)
	if err != nil {
		return zero, err
	}
	if idx < 0 || idx >= len(options) {
		return zero, fmt.Errorf("choice %d out of range", idx)
	}
	return options[idx], nil
}

// Confirm asks a yes/no question through Input. Anything but y/yes is no.
func Confirm(u UI, prompt string) (bool, error) {
	line, err := u.Input(prompt + " [y/N]")
	if err != nil {
		return false, err
	}
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes", nil
}

// Terminal is the interactive UI: styled output, a spinner for the action
// prompt and bubbletea prompts.
type Terminal struct {
	out     io.Writer
	mu      sync.Mutex
	spinner *Spinner
}

// NewTerminal writes to out (normally os.Stdout).
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) Write(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.spinner != nil {
		t.spinner.Pause()
		defer t.spinner.Resume()
	}
	fmt.Fprintln(t.out, message)
}

func (t *Terminal) SetActionPrompt(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.spinner != nil {
		t.spinner.SetMessage(message)
		return
	}
	t.spinner = NewSpinner(t.out, message)
	t.spinner.Start()
}

func (t *Terminal) ClearActionPrompt() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.spinner != nil {
		t.spinner.Stop()
		t.spinner = nil
	}
}

func (t *Terminal) Choose(prompt string, labels []string) (int, error) {
	t.ClearActionPrompt()
	return PickIndex(prompt, labels)
}

func (t *Terminal) Input(prompt string) (string, error) {
	t.ClearActionPrompt()
	return ReadLine(prompt)
}

// Plain is a non-interactive UI for pipes, CI and tests. Prompts are answered
// from a script; when the script runs out they fail.
type Plain struct {
	mu      sync.Mutex
	out     io.Writer
	prompt  string
	choices []int
	inputs  []string
}

// NewPlain writes plain lines to out.
func NewPlain(out io.Writer) *Plain {
	return &Plain{out: out}
}

// WithChoices queues answers for Choose.
func (p *Plain) WithChoices(idx ...int) *Plain {
	p.choices = append(p.choices, idx...)
	return p
}

// WithInputs queues answers for Input.
func (p *Plain) WithInputs(lines ...string) *Plain {
	p.inputs = append(p.inputs, lines...)
	return p
}

func (p *Plain) Write(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, message)
}

func (p *Plain) SetActionPrompt(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if message != p.prompt {
		fmt.Fprintln(p.out, message)
	}
	p.prompt = message
}

func (p *Plain) ClearActionPrompt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompt = ""
}

// ActionPrompt returns the prompt currently shown, "" if cleared.
func (p *Plain) ActionPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prompt
}

func (p *Plain) Choose(prompt string, labels []string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.choices) == 0 {
		return 0, fmt.Errorf("cannot ask %q: no interactive terminal", prompt)
	}
	idx := p.choices[0]
	p.choices = p.choices[1:]
	return idx, nil
}

func (p *Plain) Input(prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.inputs) == 0 {
		return "", fmt.Errorf("cannot ask %q: no interactive terminal", prompt)
	}
	line := p.inputs[0]
	p.inputs = p.inputs[1:]
	return line, nil
}
