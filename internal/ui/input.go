package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type inputModel struct {
	prompt    string
	value     string
	done      bool
	cancelled bool
}

func (m inputModel) Init() tea.Cmd { return nil }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyEnter:
		m.done = true
		return m, tea.Quit
	case tea.KeyBackspace:
		if r := []rune(m.value); len(r) > 0 {
			m.value = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		// Pasted text arrives as one multi-rune message.
		m.value += string(key.Runes)
	}
	return m, nil
}

func (m inputModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return StyleTitle.Render(m.prompt) + "\n> " + StyleAddress.Render(m.value) + "█\n"
}

// ReadLine prompts for one line of text.
func ReadLine(prompt string) (string, error) {
	final, err := tea.NewProgram(inputModel{prompt: prompt}).Run()
	if err != nil {
		return "", fmt.Errorf("input: %w", err)
	}
	m := final.(inputModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return strings.TrimSpace(m.value), nil
}
