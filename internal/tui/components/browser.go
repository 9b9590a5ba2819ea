package components

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/cutout/internal/tui/styles"
)

// Entry is one row of the file browser
type Entry struct {
	Name  string
	Path  string
	IsDir bool
	Size  int64
}

// Browser lists a directory and lets the user mark files for selection
type Browser struct {
	listView

	dir        string
	entries    []Entry
	showHidden bool
	err        error
	unreported error // navigation failure not yet taken by the caller

	// Marks keep the order in which files were marked
	marks  []string
	marked map[string]bool

	// Disabled while a request is in flight
	disabled bool
}

// NewBrowser creates a browser rooted at dir. Call Open to read it.
func NewBrowser(dir string, showHidden bool) *Browser {
	return &Browser{
		listView:   newListView("Files", SubsequenceMatcher),
		dir:        dir,
		showHidden: showHidden,
		marked:     make(map[string]bool),
	}
}

// Open reads dir and makes it the current directory
func (b *Browser) Open(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	entries, err := readEntries(abs, b.showHidden)
	if err != nil {
		b.err = err
		return fmt.Errorf("reading %s: %w", abs, err)
	}

	b.dir = abs
	b.entries = entries
	b.err = nil
	b.reset()
	return nil
}

// Reload re-reads the current directory, keeping the cursor where possible
func (b *Browser) Reload() error {
	cursor := b.cursor
	if err := b.Open(b.dir); err != nil {
		return err
	}
	b.cursor = cursor
	b.clampCursor(len(b.entries))
	return nil
}

// readEntries lists dir with directories first, each group sorted by name
func readEntries(dir string, showHidden bool) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if !showHidden && strings.HasPrefix(name, ".") {
			continue
		}

		path := filepath.Join(dir, name)
		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			continue
		}

		entries = append(entries, Entry{
			Name:  name,
			Path:  path,
			IsDir: info.IsDir(),
			Size:  info.Size(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// Update handles navigation, filtering, marking and directory changes
func (b *Browser) Update(msg tea.Msg) (*Browser, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !b.focused || b.disabled {
		return b, nil
	}

	if handled, cmd := b.handleFilterKey(keyMsg, b.titles()); handled {
		return b, cmd
	}
	if b.handleNavKey(keyMsg, b.ItemCount()) {
		return b, nil
	}

	switch {
	case key.Matches(keyMsg, ListKeys.Filter):
		b.toggleFilter()
	case key.Matches(keyMsg, BrowserKeys.Open):
		if entry := b.SelectedEntry(); entry != nil && entry.IsDir {
			if err := b.Open(entry.Path); err != nil {
				b.unreported = err
			}
		}
	case key.Matches(keyMsg, BrowserKeys.Parent):
		b.Up()
	case key.Matches(keyMsg, BrowserKeys.Mark):
		b.ToggleMark()
		if b.cursor < b.ItemCount()-1 {
			b.cursor++
			b.ensureVisible()
		}
	case key.Matches(keyMsg, BrowserKeys.ToggleHidden):
		b.showHidden = !b.showHidden
		if err := b.Reload(); err != nil {
			b.unreported = err
		}
	}
	return b, nil
}

// Up moves to the parent directory and places the cursor on the directory we left
func (b *Browser) Up() {
	parent := filepath.Dir(b.dir)
	if parent == b.dir {
		return
	}

	left := b.dir
	if err := b.Open(parent); err != nil {
		b.unreported = err
		return
	}
	for i, e := range b.entries {
		if e.Path == left {
			b.cursor = i
			b.ensureVisible()
			break
		}
	}
}

// ToggleMark marks or unmarks the file under the cursor. Directories cannot be marked.
func (b *Browser) ToggleMark() {
	entry := b.SelectedEntry()
	if entry == nil || entry.IsDir {
		return
	}

	if b.marked[entry.Path] {
		delete(b.marked, entry.Path)
		for i, p := range b.marks {
			if p == entry.Path {
				b.marks = append(b.marks[:i], b.marks[i+1:]...)
				break
			}
		}
		return
	}
	b.marked[entry.Path] = true
	b.marks = append(b.marks, entry.Path)
}

// Marked returns the marked paths in the order they were marked
func (b *Browser) Marked() []string {
	out := make([]string, len(b.marks))
	copy(out, b.marks)
	return out
}

// ClearMarks drops all marks
func (b *Browser) ClearMarks() {
	b.marks = nil
	b.marked = make(map[string]bool)
}

// Picked returns the raw selection: the marked files, or the file under the
// cursor when nothing is marked
func (b *Browser) Picked() []string {
	if len(b.marks) > 0 {
		return b.Marked()
	}
	if entry := b.SelectedEntry(); entry != nil && !entry.IsDir {
		return []string{entry.Path}
	}
	return nil
}

// SelectedEntry returns the entry under the cursor
func (b *Browser) SelectedEntry() *Entry {
	count := b.ItemCount()
	if count == 0 || b.cursor >= count {
		return nil
	}
	e := b.entries[b.mapIndex(b.cursor)]
	return &e
}

// SelectPath moves the cursor to the entry with the given name or path
func (b *Browser) SelectPath(path string) bool {
	for i := 0; i < b.ItemCount(); i++ {
		e := b.entries[b.mapIndex(i)]
		if e.Path == path || e.Name == path {
			b.cursor = i
			b.ensureVisible()
			return true
		}
	}
	return false
}

// Dir returns the current directory
func (b *Browser) Dir() string {
	return b.dir
}

// Err returns the last directory read error
func (b *Browser) Err() error {
	return b.err
}

// TakeErr returns the last navigation failure from Update and clears it
func (b *Browser) TakeErr() error {
	err := b.unreported
	b.unreported = nil
	return err
}

// ShowHidden reports whether dotfiles are listed
func (b *Browser) ShowHidden() bool {
	return b.showHidden
}

func (b *Browser) ItemCount() int {
	return b.count(len(b.entries))
}

func (b *Browser) SetSize(width, height int) {
	b.setSize(width, height)
}

func (b *Browser) SetFocused(focused bool) {
	b.focused = focused
}

// SetDisabled blocks all input while a request is in flight
func (b *Browser) SetDisabled(disabled bool) {
	b.disabled = disabled
}

// ToggleFilter activates the filter input
func (b *Browser) ToggleFilter() {
	b.toggleFilter()
}

// IsFilterTyping returns true if filter is active AND input is focused
func (b *Browser) IsFilterTyping() bool {
	return b.filterActive && b.filterInput.Focused()
}

// IsFiltering returns true if filter mode is active
func (b *Browser) IsFiltering() bool {
	return b.filterActive
}

// ClearFilter deactivates the filter and shows all entries
func (b *Browser) ClearFilter() {
	b.clearFilter()
}

func (b *Browser) titles() []string {
	titles := make([]string, len(b.entries))
	for i, e := range b.entries {
		titles[i] = e.Name
	}
	return titles
}

func (b *Browser) View() string {
	title := styles.Truncate(b.dir, b.itemWidth())
	if n := len(b.marks); n > 0 {
		title = styles.Truncate(fmt.Sprintf("%s [%d marked]", b.dir, n), b.itemWidth())
	}

	empty := "Empty directory"
	if b.err != nil {
		empty = "Cannot read directory"
	}
	return b.render(len(b.entries), title, empty, b.renderEntry)
}

func (b *Browser) renderEntry(idx int, selected bool, width int) string {
	e := b.entries[idx]

	var prefix string
	var prefixFg lipgloss.Color
	switch {
	case b.marked[e.Path]:
		prefix = styles.MarkedChar + " "
		prefixFg = styles.Coral
	case e.IsDir:
		prefix = styles.FolderChar + " "
		prefixFg = styles.Blue
	default:
		prefix = "  "
		prefixFg = styles.DimGray
	}

	name := e.Name
	if e.IsDir {
		name += "/"
	}
	// Available space: width - prefix(2) - margins(2)
	truncated := styles.Truncate(name, width-4)
	if hl := b.highlights[idx]; len(hl) > 0 && truncated == name {
		truncated = styles.HighlightMatches(name, hl, selected)
	}
	name = truncated

	parts := []styles.RowPart{
		{Text: prefix, Foreground: &prefixFg},
	}
	if e.IsDir {
		blue := styles.Blue
		parts = append(parts, styles.RowPart{Text: name, Foreground: &blue})
	} else {
		parts = append(parts, styles.RowPart{Text: name})
	}
	return styles.RenderListRow(parts, selected, width)
}
