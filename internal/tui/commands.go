package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cutout/internal/domain"
	"github.com/mmcdole/cutout/internal/selection"
	"github.com/mmcdole/cutout/internal/service"
	"github.com/mmcdole/cutout/internal/tui/components"
)

// Command factories for async operations

// ErrCmd reports an error to the status line
func ErrCmd(err error, what string) tea.Cmd {
	return func() tea.Msg {
		return ErrMsg{Err: err, Context: what}
	}
}

// ApplySelectionCmd filters a raw selection down to the accepted image types
func ApplySelectionCmd(paths []string) tea.Cmd {
	return func() tea.Msg {
		return SelectionAppliedMsg{Result: selection.Filter(paths)}
	}
}

// SubmitCmd uploads files and streams progress updates using a channel.
// Uses a continuation pattern to pump all progress messages to the UI.
func SubmitCmd(svc submitter, files []domain.SelectedFile, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)

		// Create a channel for this submission
		progressCh := make(chan service.Progress)

		// Start the background work
		go func() {
			defer cancel()
			svc.Submit(ctx, files, progressCh)
		}()

		// Read the first message and return it with continuation context
		return readUploadProgress(progressCh)
	}
}

// readUploadProgress reads one message from the channel and creates an
// UploadProgressMsg with the continuation command embedded
func readUploadProgress(progressCh <-chan service.Progress) tea.Msg {
	progress, ok := <-progressCh
	if !ok {
		// Channel closed without a terminal update
		return UploadProgressMsg{
			Done: true,
			Err:  fmt.Errorf("submission cancelled"),
		}
	}

	msg := UploadProgressMsg{
		Kind:    progress.Kind,
		Percent: progress.Percent,
		Done:    progress.Done,
		Result:  progress.Result,
		Err:     progress.Err,
	}

	// If not done, attach continuation command
	if !progress.Done {
		msg.NextCmd = listenToUploadCmd(progressCh)
	}

	return msg
}

// listenToUploadCmd returns a command that reads the next message from the progress channel
func listenToUploadCmd(progressCh <-chan service.Progress) tea.Cmd {
	return func() tea.Msg {
		return readUploadProgress(progressCh)
	}
}

// LoadPreviewCmd loads details and a thumbnail for path
func LoadPreviewCmd(path string, cols, rows int) tea.Cmd {
	return func() tea.Msg {
		data, err := components.LoadPreview(path, cols, rows)
		return PreviewLoadedMsg{Path: path, Data: data, Err: err}
	}
}

// HealthCheckCmd probes the removal service
func HealthCheckCmd(hc healthChecker) tea.Cmd {
	if hc == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return HealthCheckedMsg{Err: hc.Health(ctx)}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}
