// Package selection turns a raw file-picker selection into the list of
// images the removal service accepts.
package selection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mmcdole/cutout/internal/domain"
)

// FilteredNotice is appended to the status when unsupported files were dropped
const FilteredNotice = "Only PNG and JPEG images are supported. Some files were filtered out."

// maxSkippedNames caps how many dropped names the status lists
const maxSkippedNames = 3

// Result is the outcome of filtering a raw selection
type Result struct {
	Kept    []domain.SelectedFile // Accepted images, in input order
	Dropped []string              // Paths that were rejected
}

// Filtered reports whether any input was dropped
func (r Result) Filtered() bool {
	return len(r.Dropped) > 0
}

// Message returns the status text for this selection
func (r Result) Message() string {
	msg := fmt.Sprintf("%d file(s) selected", len(r.Kept))
	if r.Filtered() {
		msg += ". " + FilteredNotice + " Skipped: " + r.skippedNames()
	}
	return msg
}

// skippedNames lists the dropped base names, eliding past maxSkippedNames
func (r Result) skippedNames() string {
	names := make([]string, 0, maxSkippedNames)
	for i, p := range r.Dropped {
		if i == maxSkippedNames {
			break
		}
		names = append(names, filepath.Base(p))
	}
	list := strings.Join(names, ", ")
	if extra := len(r.Dropped) - len(names); extra > 0 {
		list += fmt.Sprintf(" and %d more", extra)
	}
	return list
}

// IsAccepted reports whether a content type is one the service accepts
func IsAccepted(mime string) bool {
	for _, accepted := range domain.AcceptedMimeTypes {
		if mime == accepted {
			return true
		}
	}
	return false
}

// Filter inspects each path and keeps the accepted images.
// Paths that cannot be read or are directories are dropped, not reported as errors.
func Filter(paths []string) Result {
	var res Result
	for _, p := range paths {
		file, ok := Inspect(p)
		if !ok {
			res.Dropped = append(res.Dropped, p)
			continue
		}
		res.Kept = append(res.Kept, file)
	}
	return res
}

// Inspect stats and sniffs a single path. ok is false when the path is not an
// accepted image.
func Inspect(path string) (domain.SelectedFile, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return domain.SelectedFile{}, false
	}

	mime, err := DetectType(path)
	if err != nil || !IsAccepted(mime) {
		return domain.SelectedFile{}, false
	}

	return domain.SelectedFile{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MimeType: mime,
	}, true
}

// DetectType sniffs the content type of a file. Subtypes of an accepted type
// (APNG is a PNG) report the accepted parent.
func DetectType(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to detect type of %s: %w", path, err)
	}
	for m := mt; m != nil; m = m.Parent() {
		if IsAccepted(m.String()) {
			return m.String(), nil
		}
	}
	// Strip parameters such as "; charset=utf-8"
	base, _, _ := strings.Cut(mt.String(), ";")
	return base, nil
}
