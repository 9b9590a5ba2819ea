package tui

// Layout proportions for the panes
const (
	// Preview visible
	BrowserPercent3  = 35
	SelectedPercent3 = 30

	// Preview hidden
	BrowserPercent2 = 55

	MinColumnWidth = 15

	// Vertical layout: header line, progress line, footer line
	ChromeHeight = 3
)

// paneLayout holds calculated pane widths for the View
type paneLayout struct {
	browserWidth  int
	selectedWidth int
	previewWidth  int // 0 if not shown
}

// calculatePaneLayout computes pane widths based on preview visibility
func (m Model) calculatePaneLayout(availableWidth int) paneLayout {
	applyMin := func(width int) int {
		return max(width, MinColumnWidth)
	}

	if m.ShowPreview {
		// [Browser | Selected | Preview]
		browser := applyMin(availableWidth * BrowserPercent3 / 100)
		selected := applyMin(availableWidth * SelectedPercent3 / 100)
		return paneLayout{
			browserWidth:  browser,
			selectedWidth: selected,
			previewWidth:  applyMin(availableWidth - browser - selected),
		}
	}

	// [Browser | Selected]
	browser := applyMin(availableWidth * BrowserPercent2 / 100)
	return paneLayout{
		browserWidth:  browser,
		selectedWidth: applyMin(availableWidth - browser),
	}
}

// updateLayout updates component sizes based on window size
func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}

	contentHeight := m.Height - ChromeHeight
	layout := m.calculatePaneLayout(m.Width)

	m.Browser.SetSize(layout.browserWidth, contentHeight)
	m.Selected.SetSize(layout.selectedWidth, contentHeight)
	if m.ShowPreview {
		m.Preview.SetSize(layout.previewWidth, contentHeight)
	}
}
