package components

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	return path
}

func newTestBrowser(t *testing.T, dir string) *Browser {
	t.Helper()
	b := NewBrowser(dir, false)
	require.NoError(t, b.Open(dir))
	b.SetSize(40, 20)
	b.SetFocused(true)
	return b
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func space() tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
}

func entryNames(b *Browser) []string {
	var names []string
	for i := 0; i < b.ItemCount(); i++ {
		names = append(names, b.entries[b.mapIndex(i)].Name)
	}
	return names
}

func TestBrowser_DirectoriesFirst(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.png")
	touch(t, dir, "A.jpg")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "zeta"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "alpha"), 0755))

	b := newTestBrowser(t, dir)

	assert.Equal(t, []string{"alpha", "zeta", "A.jpg", "b.png"}, entryNames(b))
}

func TestBrowser_HiddenFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, ".secret.png")
	touch(t, dir, "cat.png")

	b := newTestBrowser(t, dir)
	assert.Equal(t, []string{"cat.png"}, entryNames(b))

	b.Update(keyPress("."))
	assert.True(t, b.ShowHidden())
	assert.Equal(t, []string{".secret.png", "cat.png"}, entryNames(b))
}

func TestBrowser_OpenAndUp(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "photos")
	require.NoError(t, os.Mkdir(sub, 0755))
	touch(t, dir, "a.png")
	touch(t, sub, "inner.png")

	b := newTestBrowser(t, dir)
	require.Equal(t, "photos", b.SelectedEntry().Name)

	b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, sub, b.Dir())
	assert.Equal(t, []string{"inner.png"}, entryNames(b))

	b.Update(keyPress("h"))
	assert.Equal(t, dir, b.Dir())
	// Cursor returns to the directory we left
	assert.Equal(t, "photos", b.SelectedEntry().Name)
}

func TestBrowser_FailedOpenIsReported(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "gone")
	require.NoError(t, os.Mkdir(sub, 0755))
	touch(t, dir, "a.png")

	b := newTestBrowser(t, dir)
	require.Equal(t, "gone", b.SelectedEntry().Name)
	require.NoError(t, os.Remove(sub))

	b.Update(keyPress("l"))

	// The current listing stays in place
	assert.Equal(t, dir, b.Dir())
	assert.Equal(t, []string{"gone", "a.png"}, entryNames(b))

	err := b.TakeErr()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone")
	assert.NoError(t, b.TakeErr())
}

func TestBrowser_MarksKeepOrder(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a.png")
	touch(t, dir, "b.png")
	c := touch(t, dir, "c.png")

	b := newTestBrowser(t, dir)

	// Mark c first, then a
	b.Update(keyPress("G"))
	b.Update(space())
	b.Update(keyPress("g"))
	b.Update(space())

	assert.Equal(t, []string{c, a}, b.Marked())

	// Unmark a
	b.Update(keyPress("g"))
	b.Update(space())
	assert.Equal(t, []string{c}, b.Marked())

	b.ClearMarks()
	assert.Empty(t, b.Marked())
}

func TestBrowser_DirectoriesCannotBeMarked(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "photos"), 0755))

	b := newTestBrowser(t, dir)
	b.Update(space())

	assert.Empty(t, b.Marked())
}

func TestBrowser_PickedFallsBackToCursor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "photos"), 0755))
	cat := touch(t, dir, "cat.png")

	b := newTestBrowser(t, dir)
	assert.Empty(t, b.Picked(), "a directory under the cursor picks nothing")

	b.Update(keyPress("j"))
	assert.Equal(t, []string{cat}, b.Picked())
}

func TestBrowser_Filter(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "cat.png")
	touch(t, dir, "dog.jpg")
	touch(t, dir, "catalog.pdf")

	b := newTestBrowser(t, dir)

	b.Update(keyPress("/"))
	require.True(t, b.IsFilterTyping())
	b.Update(keyPress("cat"))

	assert.ElementsMatch(t, []string{"cat.png", "catalog.pdf"}, entryNames(b))
	assert.NotEmpty(t, b.highlights)

	// Enter accepts the filter and returns to navigation
	b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, b.IsFilterTyping())
	assert.True(t, b.IsFiltering())

	b.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, b.IsFiltering())
	assert.Len(t, entryNames(b), 3)
}

func TestBrowser_DisabledIgnoresInput(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.png")
	touch(t, dir, "b.png")

	b := newTestBrowser(t, dir)
	b.SetDisabled(true)

	b.Update(keyPress("j"))
	b.Update(space())

	assert.Equal(t, "a.png", b.SelectedEntry().Name)
	assert.Empty(t, b.Marked())
}

func TestBrowser_OpenMissingDirectory(t *testing.T) {
	b := NewBrowser("", false)
	err := b.Open(filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
	assert.Error(t, b.Err())
}
