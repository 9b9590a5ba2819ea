package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cutout/internal/config"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key closes the help screen
	if m.State == StateHelp {
		m.State = StateBrowsing
		return m, nil
	}

	// Route to active modal if any
	if m.InputModal.IsVisible() {
		return m.handleInputModal(msg)
	}

	// While a filter is being typed, keys belong to the filter
	if m.isFilterTyping() {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.routeToPane(msg)
	}

	// Global keys
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.NextPane, Keys.PrevPane):
		if m.Focus == PaneBrowser {
			m.setFocus(PaneSelected)
		} else {
			m.setFocus(PaneBrowser)
		}
		return m, nil

	case key.Matches(msg, Keys.TogglePreview):
		m.ShowPreview = !m.ShowPreview
		m.updateLayout()
		cmd := m.syncPreview(true)
		return m, cmd

	case key.Matches(msg, Keys.Submit):
		return m.submit()

	case key.Matches(msg, Keys.Apply):
		if m.Processing {
			return m, nil
		}
		paths := m.Browser.Picked()
		if len(paths) == 0 {
			return m, nil
		}
		return m, ApplySelectionCmd(paths)

	case key.Matches(msg, Keys.Clear):
		if m.Processing {
			return m, nil
		}
		m.clearSelection()
		return m, nil

	case key.Matches(msg, Keys.OutputDir):
		if m.Processing || m.Output == nil {
			return m, nil
		}
		m.InputModal.Show("Output directory", m.Output.Dir())
		return m, nil

	case key.Matches(msg, Keys.Enter) && m.Focus == PaneSelected && !m.Selected.IsFiltering():
		return m.submit()
	}

	return m.routeToPane(msg)
}

// routeToPane forwards a key to the focused pane
func (m Model) routeToPane(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.Focus {
	case PaneBrowser:
		m.Browser, cmd = m.Browser.Update(msg)
		previewCmd := m.syncPreview(false)
		if err := m.Browser.TakeErr(); err != nil {
			return m, tea.Batch(cmd, previewCmd, ErrCmd(err, "opening directory"))
		}
		return m, tea.Batch(cmd, previewCmd)
	case PaneSelected:
		m.Selected, cmd = m.Selected.Update(msg)
	}
	return m, cmd
}

// handleInputModal routes keys to the output directory modal
func (m Model) handleInputModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var submitted bool
	m.InputModal, cmd, submitted = m.InputModal.Update(msg)
	if !submitted {
		return m, cmd
	}

	dir, err := config.ExpandPath(strings.TrimSpace(m.InputModal.Value()))
	if err == nil {
		err = m.setOutputDir(dir)
	}
	if err != nil {
		m.InputModal.SetHint(err.Error())
		return m, nil
	}

	m.InputModal.Hide()
	m.StatusMsg = "Saving results to " + dir
	return m, nil
}

func (m Model) isFilterTyping() bool {
	switch m.Focus {
	case PaneBrowser:
		return m.Browser.IsFilterTyping()
	case PaneSelected:
		return m.Selected.IsFilterTyping()
	}
	return false
}
