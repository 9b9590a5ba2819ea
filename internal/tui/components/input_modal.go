package components

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/cutout/internal/tui/styles"
)

const inputModalWidth = 50

// InputModal is a simple text input modal
type InputModal struct {
	visible bool
	title   string
	hint    string
	input   textinput.Model
}

// NewInputModal creates a new input modal
func NewInputModal() InputModal {
	ti := textinput.New()
	ti.Placeholder = "Enter a path..."
	ti.CharLimit = 4096
	ti.Width = inputModalWidth - 2
	ti.Prompt = ""
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return InputModal{
		input: ti,
	}
}

// Show displays the modal with a title and an initial value
func (m *InputModal) Show(title, value string) {
	m.visible = true
	m.title = title
	m.hint = ""
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

// SetHint shows a one-line message under the input, e.g. a validation error
func (m *InputModal) SetHint(hint string) {
	m.hint = hint
}

// Hide dismisses the modal
func (m *InputModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m InputModal) IsVisible() bool {
	return m.visible
}

// Value returns the current input value
func (m InputModal) Value() string {
	return m.input.Value()
}

// Update handles input events, returns (modal, cmd, submitted)
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, InputModalKeys.Submit):
			return m, nil, true
		case key.Matches(keyMsg, InputModalKeys.Cancel):
			m.Hide()
			return m, nil, false
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

// View renders the input modal
func (m InputModal) View() string {
	if !m.visible {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.White).
		Bold(true).
		Width(inputModalWidth).
		Background(styles.SlateDark)

	inputStyle := lipgloss.NewStyle().
		Width(inputModalWidth).
		Background(styles.SlateDark)

	spacer := lipgloss.NewStyle().
		Width(inputModalWidth).
		Background(styles.SlateDark).
		Render("")

	rows := []string{
		titleStyle.Render(m.title),
		spacer,
		inputStyle.Render(m.input.View()),
	}
	if m.hint != "" {
		hintStyle := styles.ErrorStyle.
			Width(inputModalWidth).
			Background(styles.SlateDark)
		rows = append(rows, spacer, hintStyle.Render(m.hint))
	}

	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
