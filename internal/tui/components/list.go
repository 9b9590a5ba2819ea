package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/cutout/internal/tui/styles"
	sfuzzy "github.com/sahilm/fuzzy"
)

// Layout constants for list panes
const (
	// Border adds 1 char on each side (left+right for width, top+bottom for height)
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// Matcher filters titles against a query. It returns the matching indices in
// display order and, when available, the matched rune positions per index.
type Matcher func(query string, titles []string) ([]int, map[int][]int)

// SubsequenceMatcher ranks with sahilm/fuzzy and reports matched byte offsets.
// Matching folds case itself, so offsets index the original titles.
func SubsequenceMatcher(query string, titles []string) ([]int, map[int][]int) {
	matches := sfuzzy.Find(query, titles)
	idx := make([]int, len(matches))
	highlights := make(map[int][]int, len(matches))
	for i, match := range matches {
		idx[i] = match.Index
		highlights[match.Index] = match.MatchedIndexes
	}
	return idx, highlights
}

// RankMatcher ranks with lithammer/fuzzysearch by Levenshtein distance,
// keeping the original order between equal ranks
func RankMatcher(query string, titles []string) ([]int, map[int][]int) {
	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})

	idx := make([]int, len(ranks))
	for i, r := range ranks {
		idx[i] = r.OriginalIndex
	}
	return idx, nil
}

// listView holds the cursor, scroll and filter state shared by list panes
type listView struct {
	cursor     int
	offset     int
	maxVisible int

	width   int
	height  int
	focused bool

	title string

	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filteredIdx  []int         // indices into the raw item slice
	highlights   map[int][]int // matched byte offsets keyed by raw index
	match        Matcher
}

func newListView(title string, match Matcher) listView {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return listView{
		title:       title,
		filterInput: ti,
		match:       match,
	}
}

// handleFilterKey routes a key to the filter when it is active.
// It reports whether the key was consumed.
func (l *listView) handleFilterKey(msg tea.KeyMsg, titles []string) (bool, tea.Cmd) {
	if !l.filterActive {
		return false, nil
	}

	// Typing mode
	if l.filterInput.Focused() {
		switch {
		case key.Matches(msg, ListKeys.Escape):
			l.clearFilter()
			return true, nil
		case key.Matches(msg, ListKeys.Enter):
			// Accept filter, blur input to allow navigation
			l.filterInput.Blur()
			return true, nil
		case msg.String() == "backspace" && l.filterInput.Value() == "":
			l.clearFilter()
			return true, nil
		}

		var cmd tea.Cmd
		l.filterInput, cmd = l.filterInput.Update(msg)
		l.applyFilter(titles)
		return true, cmd
	}

	// Navigation mode with filter results
	switch {
	case key.Matches(msg, ListKeys.Escape):
		l.clearFilter()
		return true, nil
	case key.Matches(msg, ListKeys.Filter):
		l.filterInput.Focus()
		return true, nil
	}
	return false, nil
}

// handleNavKey moves the cursor. It reports whether the key was consumed.
func (l *listView) handleNavKey(msg tea.KeyMsg, count int) bool {
	if count == 0 {
		return false
	}

	switch {
	case key.Matches(msg, ListKeys.Down):
		if l.cursor < count-1 {
			l.cursor++
			l.ensureVisible()
		}
	case key.Matches(msg, ListKeys.Up):
		if l.cursor > 0 {
			l.cursor--
			l.ensureVisible()
		}
	case key.Matches(msg, ListKeys.Home):
		l.cursor = 0
		l.offset = 0
	case key.Matches(msg, ListKeys.End):
		l.cursor = count - 1
		l.ensureVisible()
	case key.Matches(msg, ListKeys.HalfDown):
		l.moveCursor(l.maxVisible/2, count)
	case key.Matches(msg, ListKeys.HalfUp):
		l.moveCursor(-l.maxVisible/2, count)
	case key.Matches(msg, ListKeys.PageDown):
		l.moveCursor(l.maxVisible, count)
	case key.Matches(msg, ListKeys.PageUp):
		l.moveCursor(-l.maxVisible, count)
	default:
		return false
	}
	return true
}

func (l *listView) moveCursor(delta, count int) {
	l.cursor += delta
	if l.cursor >= count {
		l.cursor = count - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.ensureVisible()
}

func (l *listView) setSize(width, height int) {
	l.width = width
	l.height = height
	l.recalcMaxVisible()
	l.ensureVisible()
}

func (l *listView) recalcMaxVisible() {
	// Interior height = total - border (top+bottom)
	// Reserve space for: title line + scroll indicators (header + footer)
	interiorHeight := l.height - BorderHeight
	l.maxVisible = interiorHeight - ScrollIndicatorLines - 1
	// Reserve space for filter bar when active
	if l.filterActive {
		l.maxVisible--
	}
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
}

func (l *listView) ensureVisible() {
	// Don't adjust offset if size hasn't been set yet
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
}

func (l *listView) toggleFilter() {
	l.filterActive = true
	l.filterInput.Focus()
	l.recalcMaxVisible()
}

func (l *listView) clearFilter() {
	l.filterActive = false
	l.filterQuery = ""
	l.filteredIdx = nil
	l.highlights = nil
	l.filterInput.SetValue("")
	l.filterInput.Blur()
	l.recalcMaxVisible()
}

func (l *listView) applyFilter(titles []string) {
	query := l.filterInput.Value()
	l.filterQuery = query

	if query == "" {
		l.filteredIdx = nil
		l.highlights = nil
		return
	}

	l.filteredIdx, l.highlights = l.match(query, titles)
	if l.filteredIdx == nil {
		l.filteredIdx = []int{}
	}

	// Reset cursor to first match
	l.cursor = 0
	l.offset = 0
}

// reset moves the cursor to the top and drops any filter
func (l *listView) reset() {
	l.cursor = 0
	l.offset = 0
	l.clearFilter()
}

func (l *listView) count(raw int) int {
	if l.filteredIdx != nil {
		return len(l.filteredIdx)
	}
	return raw
}

func (l *listView) mapIndex(i int) int {
	if l.filteredIdx != nil && i < len(l.filteredIdx) {
		return l.filteredIdx[i]
	}
	return i
}

// clampCursor keeps the cursor inside the list after the items shrink
func (l *listView) clampCursor(raw int) {
	count := l.count(raw)
	if l.cursor >= count {
		l.cursor = count - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.ensureVisible()
}

func (l *listView) itemWidth() int {
	w := l.width - BorderWidth
	if w < 10 {
		w = 10
	}
	return w
}

// render draws the title, visible rows, scroll indicators and filter bar
// inside the pane border
func (l *listView) render(raw int, title string, emptyMsg string, row func(idx int, selected bool, width int) string) string {
	itemWidth := l.itemWidth()
	titleLine := styles.AccentStyle.Render(styles.Truncate(title, itemWidth))

	var content string
	count := l.count(raw)
	if count == 0 {
		msg := emptyMsg
		if l.filterActive && l.filterQuery != "" {
			msg = "No matches"
		}
		content = titleLine + "\n" + " " + "\n" + styles.DimStyle.Render(msg) + "\n" + " "
	} else {
		end := l.offset + l.maxVisible
		if end > count {
			end = count
		}

		lines := make([]string, 0, end-l.offset)
		for i := l.offset; i < end; i++ {
			lines = append(lines, row(l.mapIndex(i), i == l.cursor && l.focused, itemWidth))
		}

		// ALWAYS reserve space for header and footer to prevent layout shifts
		header := " "
		if l.offset > 0 {
			header = styles.DimStyle.Render("↑ more")
		}
		footer := " "
		if end < count {
			footer = styles.DimStyle.Render("↓ more")
		}

		content = titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	}

	if l.filterActive {
		content += "\n" + l.renderFilterBar(raw)
	}

	style := styles.InactiveBorder
	if l.focused {
		style = styles.ActiveBorder
	}

	// Subtract frame (border) size so total rendered size equals width x height
	frameW, frameH := style.GetFrameSize()
	return style.
		Width(l.width - frameW).
		Height(l.height - frameH).
		Render(content)
}

func (l *listView) renderFilterBar(raw int) string {
	input := l.filterInput.View()

	countStr := ""
	if l.filterQuery != "" {
		countStr = styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", l.count(raw), raw))
	}
	return input + countStr
}
