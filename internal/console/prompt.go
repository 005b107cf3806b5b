package console

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var labelStyle = lipgloss.NewStyle().Bold(true)

// promptModel is a single-line modal input. Enter submits whatever was
// typed, including nothing; Esc or Ctrl+C dismisses it.
type promptModel struct {
	input     textinput.Model
	label     string
	submitted bool
	done      bool
}

func newPromptModel(label string) promptModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Width = 40
	ti.Focus()

	return promptModel{input: ti, label: label}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.submitted = true
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done {
		return ""
	}
	return labelStyle.Render(m.label) + "\n" + m.input.View() + "\n"
}

// result returns the typed value and whether it was submitted.
func (m promptModel) result() (string, bool) {
	if !m.submitted {
		return "", false
	}
	return m.input.Value(), true
}
