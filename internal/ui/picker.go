package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// pickerModel backs Terminal.Choose. Options are numbered; typing a number
// selects directly, arrows move the cursor and wrap around.
type pickerModel struct {
	prompt   string
	labels   []string
	cursor   int
	chosen   int
	canceled bool
}

func newPicker(prompt string, labels []string) pickerModel {
	return pickerModel{prompt: prompt, labels: labels, chosen: -1}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	n := len(m.labels)
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.canceled = true
		return m, tea.Quit
	case tea.KeyUp, tea.KeyShiftTab:
		m.cursor = (m.cursor - 1 + n) % n
	case tea.KeyDown, tea.KeyTab:
		m.cursor = (m.cursor + 1) % n
	case tea.KeyEnter:
		m.chosen = m.cursor
		return m, tea.Quit
	case tea.KeyRunes:
		if i, err := strconv.Atoi(string(key.Runes)); err == nil && i >= 1 && i <= n {
			m.cursor, m.chosen = i-1, i-1
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.canceled || m.chosen >= 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("? "+m.prompt) + "\n")
	for i, label := range m.labels {
		num := StyleMeta.Render(fmt.Sprintf("%d)", i+1))
		if i == m.cursor {
			sb.WriteString(StyleSelected.Render("❯ ") + num + " " + StyleSelected.Render(label) + "\n")
			continue
		}
		sb.WriteString("  " + num + " " + label + "\n")
	}
	sb.WriteString(StyleMeta.Render("↑/↓ move, enter or number selects, esc cancels") + "\n")
	return sb.String()
}

// PickIndex shows labels and returns the index the user picked.
func PickIndex(prompt string, labels []string) (int, error) {
	if len(labels) == 0 {
		return 0, fmt.Errorf("no options for %q", prompt)
	}
	final, err := tea.NewProgram(newPicker(prompt, labels)).Run()
	if err != nil {
		return 0, fmt.Errorf("picker: %w", err)
	}
	m := final.(pickerModel)
	if m.canceled {
		return 0, ErrCancelled
	}
	return m.chosen, nil
}
