package selection

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmcdole/cutout/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func writeJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestFilter_KeepsOnlyImages(t *testing.T) {
	dir := t.TempDir()
	pdf := writeFile(t, dir, "doc.pdf", []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n"))
	a := writePNG(t, dir, "a.png")

	res := Filter([]string{pdf, a})

	require.Len(t, res.Kept, 1)
	assert.Equal(t, "a.png", res.Kept[0].Name)
	assert.Equal(t, domain.MimePNG, res.Kept[0].MimeType)
	assert.Equal(t, []string{pdf}, res.Dropped)
	assert.True(t, res.Filtered())
	assert.Contains(t, res.Message(), "1 file(s) selected")
	assert.Contains(t, res.Message(), FilteredNotice)
}

func TestFilter_AllAcceptedHasNoNotice(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png")
	b := writeJPEG(t, dir, "b.jpg")

	res := Filter([]string{a, b})

	require.Len(t, res.Kept, 2)
	assert.Equal(t, "a.png", res.Kept[0].Name)
	assert.Equal(t, "b.jpg", res.Kept[1].Name)
	assert.Equal(t, domain.MimeJPEG, res.Kept[1].MimeType)
	assert.False(t, res.Filtered())
	assert.Equal(t, "2 file(s) selected", res.Message())
}

func TestFilter_CountMatchesAcceptedTypes(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{
		writePNG(t, dir, "one.png"),
		writeFile(t, dir, "notes.txt", []byte("just text")),
		writeJPEG(t, dir, "two.jpeg"),
		writeFile(t, dir, "fake.png", []byte("not really a png")),
		filepath.Join(dir, "missing.png"),
		dir,
		writePNG(t, dir, "three.png"),
	}

	res := Filter(inputs)

	assert.Len(t, res.Kept, 3)
	assert.Len(t, res.Dropped, 4)
	assert.Equal(t, len(inputs), len(res.Kept)+len(res.Dropped))
}

func TestFilter_MessageNamesSkippedFiles(t *testing.T) {
	dir := t.TempDir()
	fake := writeFile(t, dir, "holiday.jpg", []byte("GIF89a not a jpeg"))
	a := writePNG(t, dir, "a.png")

	res := Filter([]string{fake, a})

	require.Len(t, res.Kept, 1)
	assert.Equal(t, "1 file(s) selected. "+FilteredNotice+" Skipped: holiday.jpg", res.Message())
}

func TestFilter_MessageElidesLongSkipLists(t *testing.T) {
	dir := t.TempDir()
	var inputs []string
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		inputs = append(inputs, writeFile(t, dir, name, []byte("text")))
	}

	res := Filter(inputs)

	assert.Empty(t, res.Kept)
	assert.True(t, strings.HasSuffix(res.Message(), "Skipped: a.txt, b.txt, c.txt and 2 more"), res.Message())
}

func TestFilter_DoesNotDeduplicate(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png")

	res := Filter([]string{a, a})
	assert.Len(t, res.Kept, 2)
}

func TestFilter_Empty(t *testing.T) {
	res := Filter(nil)
	assert.Empty(t, res.Kept)
	assert.False(t, res.Filtered())
	assert.Equal(t, "0 file(s) selected", res.Message())
}

func TestInspect_RecordsSize(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "cat.png")
	info, err := os.Stat(path)
	require.NoError(t, err)

	file, ok := Inspect(path)
	require.True(t, ok)
	assert.Equal(t, info.Size(), file.Size)
	assert.Equal(t, path, file.Path)
}

func TestIsAccepted(t *testing.T) {
	assert.True(t, IsAccepted("image/png"))
	assert.True(t, IsAccepted("image/jpeg"))
	assert.True(t, IsAccepted("image/jpg"))
	assert.False(t, IsAccepted("image/gif"))
	assert.False(t, IsAccepted("application/pdf"))
	assert.False(t, IsAccepted(""))
}

func TestDetectType_StripsParameters(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "readme.txt", []byte("hello world"))

	mime, err := DetectType(path)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)
}
