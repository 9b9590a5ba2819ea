package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/cutout/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	if m.State == StateHelp {
		return m.renderHelp()
	}

	panes := []string{m.Browser.View(), m.Selected.View()}
	if m.ShowPreview {
		panes = append(panes, m.Preview.View())
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, panes...),
		m.renderProgress(),
		m.renderFooter(),
	)

	// Overlay input modal if visible
	if m.InputModal.IsVisible() {
		view = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.InputModal.View())
	}

	return view
}

// renderHeader renders the app name, server and output directory
func (m Model) renderHeader() string {
	left := styles.TitleStyle.Render("cutout") + styles.DimStyle.Render(" · "+m.ServerURL)

	var right string
	if m.Output != nil {
		right = styles.DimStyle.Render("output ") + styles.SubtitleStyle.Render(m.Output.Dir())
	}

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return styles.Truncate(left, m.Width)
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderProgress renders the upload progress bar. The line is always
// reserved but stays blank unless a request is in flight.
func (m Model) renderProgress() string {
	if !m.Processing {
		return " "
	}

	label := fmt.Sprintf(" %3d%%", m.Progress)
	if m.Progress >= 100 {
		// Upload finished, waiting on the service
		label += styles.DimStyle.Render(" processing on server")
	}
	prefix := styles.RenderSpinner(m.SpinnerFrame) + " "

	barWidth := m.Width - lipgloss.Width(prefix) - lipgloss.Width(label)
	if barWidth > 60 {
		barWidth = 60
	}
	return prefix + styles.RenderProgressBar(float64(m.Progress), barWidth) + label
}

// renderFooter renders a single-line minimal footer
func (m Model) renderFooter() string {
	// Left side: status message, error styling keyed off the marker
	var left string
	if m.StatusMsg != "" {
		left = styles.RenderStatus(m.StatusMsg)
	}

	// Center section: action hints
	var center string
	if !m.Processing {
		hints := []string{"a", "use", "p", "process", "c", "clear"}
		var parts []string
		for i := 0; i < len(hints); i += 2 {
			parts = append(parts, styles.AccentStyle.Render(hints[i])+styles.DimStyle.Render(" "+hints[i+1]))
		}
		center = strings.Join(parts, "  ")
	}

	// Right side: "? help" hint
	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	totalContent := leftWidth + centerWidth + rightWidth
	if totalContent >= m.Width {
		// Not enough space - just left + right
		gap := m.Width - leftWidth - rightWidth
		if gap < 0 {
			gap = 0
		}
		return left + strings.Repeat(" ", gap) + right
	}

	// Center the hints in available space
	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad

	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      SELECTION
  j/k        Up/down               Space  Mark file
  h/l        Parent/open dir       a      Use marked files
  g/Home     First item            c      Clear selection
  G/End      Last item             .      Toggle hidden files
  PgUp/PgDn  Scroll page
  Ctrl+u/d   Scroll half page

PROCESSING                      OTHER
  p          Remove background     /      Filter
  Enter      Submit (selected)     Tab    Switch pane
  o          Output directory      i      Toggle preview
                                   q      Quit
                                   ?      This help

One image is saved as <name>_no_bg.png.
Several images are saved as processed_images.zip.

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}
