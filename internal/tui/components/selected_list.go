package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/cutout/internal/domain"
	"github.com/mmcdole/cutout/internal/tui/styles"
)

// SelectedList shows the files that will be submitted
type SelectedList struct {
	listView
	files []domain.SelectedFile
}

// NewSelectedList creates an empty selected-files pane
func NewSelectedList() *SelectedList {
	return &SelectedList{
		listView: newListView("Selected", RankMatcher),
	}
}

// SetFiles replaces the displayed files
func (s *SelectedList) SetFiles(files []domain.SelectedFile) {
	s.files = files
	s.reset()
}

// Files returns the displayed files
func (s *SelectedList) Files() []domain.SelectedFile {
	return s.files
}

// Update handles navigation and filtering
func (s *SelectedList) Update(msg tea.Msg) (*SelectedList, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !s.focused {
		return s, nil
	}

	if handled, cmd := s.handleFilterKey(keyMsg, s.titles()); handled {
		return s, cmd
	}
	if s.handleNavKey(keyMsg, s.ItemCount()) {
		return s, nil
	}
	if key.Matches(keyMsg, ListKeys.Filter) && len(s.files) > 0 {
		s.toggleFilter()
	}
	return s, nil
}

// SelectedFile returns the file under the cursor
func (s *SelectedList) SelectedFile() *domain.SelectedFile {
	count := s.ItemCount()
	if count == 0 || s.cursor >= count {
		return nil
	}
	f := s.files[s.mapIndex(s.cursor)]
	return &f
}

func (s *SelectedList) ItemCount() int {
	return s.count(len(s.files))
}

func (s *SelectedList) SetSize(width, height int) {
	s.setSize(width, height)
}

func (s *SelectedList) SetFocused(focused bool) {
	s.focused = focused
}

// IsFilterTyping returns true if filter is active AND input is focused
func (s *SelectedList) IsFilterTyping() bool {
	return s.filterActive && s.filterInput.Focused()
}

// IsFiltering returns true if filter mode is active
func (s *SelectedList) IsFiltering() bool {
	return s.filterActive
}

// ClearFilter deactivates the filter and shows all files
func (s *SelectedList) ClearFilter() {
	s.clearFilter()
}

func (s *SelectedList) titles() []string {
	titles := make([]string, len(s.files))
	for i, f := range s.files {
		titles[i] = f.Name
	}
	return titles
}

func (s *SelectedList) View() string {
	title := fmt.Sprintf("%s (%d)", s.title, len(s.files))
	return s.render(len(s.files), title, "No files selected", s.renderFile)
}

func (s *SelectedList) renderFile(idx int, selected bool, width int) string {
	f := s.files[idx]

	size := fmt.Sprintf(" (%s)", f.SizeKB())
	// Available space: width - margins(2) - size
	available := width - 2 - lipgloss.Width(size)
	if available < 5 {
		available = 5
	}

	dim := styles.DimGray
	parts := []styles.RowPart{
		{Text: styles.Truncate(f.Name, available)},
		{Text: size, Foreground: &dim},
	}
	return styles.RenderListRow(parts, selected, width)
}
