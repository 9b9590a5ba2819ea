package tui

import (
	"github.com/mmcdole/cutout/internal/domain"
	"github.com/mmcdole/cutout/internal/selection"
	"github.com/mmcdole/cutout/internal/tui/components"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// SelectionAppliedMsg carries the filtered result of a raw selection
type SelectionAppliedMsg struct {
	Result selection.Result
}

// UploadProgressMsg is sent for each progress update of a submission
type UploadProgressMsg struct {
	Kind    domain.SubmissionKind
	Percent int
	Done    bool
	Result  *domain.SubmissionResult
	Err     error
	NextCmd interface{} // Continuation command (tea.Cmd) for streaming
}

// PreviewLoadedMsg carries the preview for a browser entry
type PreviewLoadedMsg struct {
	Path string
	Data components.PreviewData
	Err  error
}

// HealthCheckedMsg reports whether the removal service answered its health check
type HealthCheckedMsg struct {
	Err error
}

