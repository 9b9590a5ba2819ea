package components

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"github.com/mmcdole/cutout/internal/domain"
	"github.com/mmcdole/cutout/internal/selection"
	"github.com/mmcdole/cutout/internal/service"
	"github.com/mmcdole/cutout/internal/tui/styles"
)

// Layout constants for the preview pane
const (
	PreviewBorderHeight = 2
	// Title, blank line and the info block above the thumbnail
	PreviewInfoLines = 8
)

// Checker shades drawn behind transparent pixels
var (
	checkerLight = color.NRGBA{R: 0x4B, G: 0x55, B: 0x63, A: 0xFF}
	checkerDark  = color.NRGBA{R: 0x37, G: 0x41, B: 0x51, A: 0xFF}
)

// PreviewData is the loaded description of one browser entry
type PreviewData struct {
	Path     string
	Name     string
	IsDir    bool
	Size     int64
	MimeType string
	Accepted bool
	Width    int // Image width in pixels, 0 when not decoded
	Height   int
	Thumb    []string // Rendered half-block rows
}

// LoadPreview stats path, sniffs its type and renders a thumbnail that fits
// in cols x rows terminal cells
func LoadPreview(path string, cols, rows int) (PreviewData, error) {
	info, err := os.Stat(path)
	if err != nil {
		return PreviewData{}, err
	}

	data := PreviewData{
		Path:  path,
		Name:  filepath.Base(path),
		IsDir: info.IsDir(),
		Size:  info.Size(),
	}
	if data.IsDir {
		return data, nil
	}

	mime, err := selection.DetectType(path)
	if err != nil {
		return data, err
	}
	data.MimeType = mime
	data.Accepted = selection.IsAccepted(mime)
	if !data.Accepted {
		return data, nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return data, fmt.Errorf("decoding image: %w", err)
	}
	bounds := img.Bounds()
	data.Width = bounds.Dx()
	data.Height = bounds.Dy()
	data.Thumb = RenderThumbnail(img, cols, rows)

	return data, nil
}

// RenderThumbnail scales img to fit cols x rows cells and draws it with upper
// half blocks, two pixels per cell. Transparency is shown over a checkerboard.
func RenderThumbnail(img image.Image, cols, rows int) []string {
	if cols < 1 || rows < 1 {
		return nil
	}

	thumb := imaging.Fit(img, cols, rows*2, imaging.Lanczos)
	w := thumb.Bounds().Dx()
	h := thumb.Bounds().Dy()

	lines := make([]string, 0, (h+1)/2)
	for y := 0; y < h; y += 2 {
		var b strings.Builder
		for x := 0; x < w; x++ {
			bg := checkerAt(x, y/2)
			top := blend(thumb.NRGBAAt(x, y), bg)
			bottom := bg
			if y+1 < h {
				bottom = blend(thumb.NRGBAAt(x, y+1), bg)
			}
			b.WriteString(lipgloss.NewStyle().
				Foreground(hexColor(top)).
				Background(hexColor(bottom)).
				Render("▀"))
		}
		lines = append(lines, b.String())
	}
	return lines
}

func checkerAt(x, y int) color.NRGBA {
	if (x/2+y)%2 == 0 {
		return checkerLight
	}
	return checkerDark
}

// blend composites c over an opaque background
func blend(c, bg color.NRGBA) color.NRGBA {
	a := uint32(c.A)
	mix := func(fg, bg uint8) uint8 {
		return uint8((uint32(fg)*a + uint32(bg)*(255-a)) / 255)
	}
	return color.NRGBA{R: mix(c.R, bg.R), G: mix(c.G, bg.G), B: mix(c.B, bg.B), A: 0xFF}
}

func hexColor(c color.NRGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}

// Preview displays details and a thumbnail for the entry under the browser cursor
type Preview struct {
	data    *PreviewData
	pending string // path being loaded
	err     error
	width   int
	height  int
}

// NewPreview creates an empty preview pane
func NewPreview() Preview {
	return Preview{}
}

// SetSize updates the component dimensions
func (p *Preview) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// ThumbSize returns the cell area available for the thumbnail
func (p Preview) ThumbSize() (cols, rows int) {
	cols = p.width - BorderWidth - 1
	rows = p.height - PreviewBorderHeight - PreviewInfoLines
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	return cols, rows
}

// SetLoading records that path is being loaded. Results for other paths are ignored.
func (p *Preview) SetLoading(path string) {
	p.pending = path
}

// Pending returns the path currently shown or being loaded
func (p Preview) Pending() string {
	return p.pending
}

// SetResult applies a load result if it is for the pending path
func (p *Preview) SetResult(path string, data PreviewData, err error) bool {
	if path != p.pending {
		return false
	}
	p.data = &data
	p.err = err
	return true
}

// Clear empties the pane
func (p *Preview) Clear() {
	p.data = nil
	p.err = nil
	p.pending = ""
}

// Data returns the loaded data, nil when nothing is loaded
func (p Preview) Data() *PreviewData {
	return p.data
}

// View renders the component
func (p Preview) View() string {
	style := styles.InactiveBorder

	// Border takes 2 chars (1 each side), leave 1 char safety margin
	contentWidth := p.width - 3
	if contentWidth < 10 {
		contentWidth = 10
	}

	var parts []string
	parts = append(parts, styles.AccentStyle.Render("Preview"), "")

	switch {
	case p.data == nil && p.pending != "":
		parts = append(parts, styles.DimStyle.Render("Loading..."))
	case p.data == nil:
		parts = append(parts, styles.DimStyle.Render("Nothing to preview"))
	default:
		parts = append(parts, p.renderInfo(contentWidth)...)
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(p.width - frameW).
		Height(p.height - frameH).
		MaxHeight(p.height).
		Render(strings.Join(parts, "\n"))
}

func (p Preview) renderInfo(width int) []string {
	d := p.data
	var lines []string

	lines = append(lines, styles.TitleStyle.Render(styles.Truncate(d.Name, width)))
	if d.IsDir {
		lines = append(lines, styles.DimStyle.Render("Directory"))
		return lines
	}

	file := domain.SelectedFile{Path: d.Path, Name: d.Name, Size: d.Size, MimeType: d.MimeType}
	lines = append(lines, styles.DimStyle.Render(file.SizeKB()))

	if d.MimeType != "" {
		typeLine := styles.DimStyle.Render(d.MimeType)
		if !d.Accepted {
			typeLine = styles.ErrorStyle.Render(d.MimeType + " (not supported)")
		}
		lines = append(lines, typeLine)
	}
	if d.Width > 0 {
		lines = append(lines, styles.DimStyle.Render(fmt.Sprintf("%d × %d px", d.Width, d.Height)))
	}
	if d.Accepted {
		out := "→ " + service.OutputName(file)
		lines = append(lines, styles.SubtitleStyle.Render(styles.Truncate(out, width)))
	}

	if p.err != nil {
		lines = append(lines, "", styles.ErrorStyle.Render(styles.Truncate(p.err.Error(), width)))
	}

	if len(d.Thumb) > 0 {
		lines = append(lines, "")
		lines = append(lines, d.Thumb...)
	}
	return lines
}
