package domain

import "fmt"

// Accepted upload content types
const (
	MimePNG  = "image/png"
	MimeJPEG = "image/jpeg"
	MimeJPG  = "image/jpg"
)

// AcceptedMimeTypes lists every content type the removal service accepts
var AcceptedMimeTypes = []string{MimePNG, MimeJPEG, MimeJPG}

// SelectedFile is a local file chosen for upload
type SelectedFile struct {
	Path     string // Absolute or caller-relative path on disk
	Name     string // Base name sent as the multipart filename
	Size     int64  // Size in bytes
	MimeType string // Sniffed content type
}

// SizeKB returns the size formatted in kilobytes with two decimals
func (f SelectedFile) SizeKB() string {
	return fmt.Sprintf("%.2f KB", float64(f.Size)/1024)
}

// Label returns the list label, e.g. "cat.png (12.34 KB)"
func (f SelectedFile) Label() string {
	return fmt.Sprintf("%s (%s)", f.Name, f.SizeKB())
}
