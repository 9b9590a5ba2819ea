package service

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mmcdole/cutout/internal/domain"
)

const (
	// BatchArchiveName is the fixed file name for batch results
	BatchArchiveName = "processed_images.zip"

	outputSuffix = "_no_bg.png"

	// maxNameAttempts bounds the " (n)" suffix search
	maxNameAttempts = 1000
)

// OutputName returns the download name for a single processed image:
// the original name up to its first dot, plus "_no_bg.png". The extension is
// always .png whatever the service actually returned.
func OutputName(file domain.SelectedFile) string {
	name := file.Name
	if name == "" {
		name = filepath.Base(file.Path)
	}
	base, _, _ := strings.Cut(name, ".")
	return base + outputSuffix
}

// Downloader writes downloaded result bytes into an output directory
type Downloader struct {
	mu        sync.Mutex
	dir       string
	overwrite bool
	logger    *slog.Logger
}

// NewDownloader creates a downloader for dir. When overwrite is false an
// existing name gets a browser-style " (1)", " (2)" suffix instead.
func NewDownloader(dir string, overwrite bool, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = "."
	}
	return &Downloader{dir: dir, overwrite: overwrite, logger: logger}
}

// Dir returns the output directory
func (d *Downloader) Dir() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dir
}

// SetDir changes the output directory for later saves
func (d *Downloader) SetDir(dir string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dir = dir
}

// Save writes data under name and returns the final path.
// The write goes to a temp file in the same directory and is renamed into place,
// so a failed save never leaves a partial result behind.
func (d *Downloader) Save(name string, data []byte) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	target, err := d.targetPath(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(d.dir, ".cutout-*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// No-op after a successful rename
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return "", fmt.Errorf("failed to set permissions on %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", name, err)
	}

	d.logger.Info("saved result", "path", target, "bytes", len(data))
	return target, nil
}

// targetPath picks the path to write name to, honoring the overwrite setting
func (d *Downloader) targetPath(name string) (string, error) {
	target := filepath.Join(d.dir, name)
	if d.overwrite || !exists(target) {
		return target, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; i <= maxNameAttempts; i++ {
		candidate := filepath.Join(d.dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, d.dir)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
