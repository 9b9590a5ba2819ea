package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/cutout/internal/domain"
	"github.com/mmcdole/cutout/internal/service"
	"github.com/mmcdole/cutout/internal/tui/components"
	"github.com/mmcdole/cutout/internal/tui/styles"
)

// Status texts
const (
	StatusNoFiles = styles.ErrorMarker + " Please select at least one image"

	defaultTimeout = 5 * time.Minute
	tickInterval   = 100 * time.Millisecond
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateHelp
)

// Pane identifies the focused pane
type Pane int

const (
	PaneBrowser Pane = iota
	PaneSelected
)

// submitter runs a submission and streams its progress (consumer-defined interface)
type submitter interface {
	Submit(ctx context.Context, files []domain.SelectedFile, progressCh chan<- service.Progress)
}

// outputDir is where results are saved
type outputDir interface {
	Dir() string
	SetDir(dir string)
}

// healthChecker probes the removal service
type healthChecker interface {
	Health(ctx context.Context) error
}

// Options configures a new Model
type Options struct {
	StartDir    string
	ServerURL   string
	ShowHidden  bool
	ShowPreview bool
	Timeout     time.Duration // Whole-submission timeout
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	// Services
	Removal submitter
	Output  outputDir
	Health  healthChecker

	// UI Components
	Browser    *components.Browser
	Selected   *components.SelectedList
	Preview    components.Preview
	InputModal components.InputModal

	// Submission state
	Files      []domain.SelectedFile
	Processing bool
	Progress   int
	StatusMsg  string

	// Dimensions
	Width  int
	Height int

	// UI state
	Focus        Pane
	SpinnerFrame int
	ShowPreview  bool

	ServerURL string
	Timeout   time.Duration
}

// NewModel creates a new application model
func NewModel(removal submitter, output outputDir, health healthChecker, opts Options) Model {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	m := Model{
		State:       StateBrowsing,
		Removal:     removal,
		Output:      output,
		Health:      health,
		Browser:     components.NewBrowser(opts.StartDir, opts.ShowHidden),
		Selected:    components.NewSelectedList(),
		Preview:     components.NewPreview(),
		InputModal:  components.NewInputModal(),
		Focus:       PaneBrowser,
		ShowPreview: opts.ShowPreview,
		ServerURL:   opts.ServerURL,
		Timeout:     opts.Timeout,
	}

	startDir := opts.StartDir
	if startDir == "" {
		startDir, _ = os.Getwd()
	}
	if err := m.Browser.Open(startDir); err != nil {
		slog.Error("failed to open start directory", "dir", startDir, "error", err)
		m.StatusMsg = styles.ErrorMarker + " " + err.Error()
	}
	m.Browser.SetFocused(true)

	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		HealthCheckCmd(m.Health),
		TickCmd(tickInterval),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		// Thumbnail size depends on the pane size
		cmd := m.syncPreview(true)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(tickInterval)

	case SelectionAppliedMsg:
		if m.Processing {
			return m, nil
		}
		m.setFiles(msg.Result.Kept)
		m.Browser.ClearMarks()
		m.StatusMsg = msg.Result.Message()
		if len(msg.Result.Dropped) > 0 {
			slog.Info("selection filtered", "kept", len(msg.Result.Kept), "dropped", len(msg.Result.Dropped))
		}
		return m, nil

	case UploadProgressMsg:
		if msg.Done {
			m.finishSubmission(msg)
		} else if m.Processing && msg.Percent > m.Progress {
			// Progress never moves backwards within a submission
			m.Progress = msg.Percent
		}

		// If there's a continuation command, run it
		if msg.NextCmd != nil {
			if cmd, ok := msg.NextCmd.(tea.Cmd); ok {
				cmds = append(cmds, cmd)
			}
		}
		return m, tea.Batch(cmds...)

	case PreviewLoadedMsg:
		if msg.Err != nil {
			slog.Debug("preview failed", "path", msg.Path, "error", msg.Err)
		}
		m.Preview.SetResult(msg.Path, msg.Data, msg.Err)
		return m, nil

	case HealthCheckedMsg:
		if msg.Err != nil {
			slog.Warn("removal service health check failed", "url", m.ServerURL, "error", msg.Err)
			if m.StatusMsg == "" {
				m.StatusMsg = fmt.Sprintf("%s Service unreachable at %s", styles.ErrorMarker, m.ServerURL)
			}
		}
		return m, nil

	case ErrMsg:
		slog.Error("error", "context", msg.Context, "error", msg.Err)
		m.StatusMsg = styles.ErrorMarker + " Error: " + msg.Error()
		return m, nil
	}

	return m, nil
}

// submit starts a submission of the selected files
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.Processing {
		return m, nil
	}
	if len(m.Files) == 0 {
		m.StatusMsg = StatusNoFiles
		return m, nil
	}

	m.Processing = true
	m.Progress = 0
	m.Browser.SetDisabled(true)

	if domain.KindFor(len(m.Files)) == domain.SubmissionBatch {
		m.StatusMsg = fmt.Sprintf("Processing %d image(s)...", len(m.Files))
	} else {
		m.StatusMsg = "Processing..."
	}

	files := make([]domain.SelectedFile, len(m.Files))
	copy(files, m.Files)
	return m, SubmitCmd(m.Removal, files, m.Timeout)
}

// finishSubmission handles the terminal update of a submission. It is the
// only place the processing flag is cleared.
func (m *Model) finishSubmission(msg UploadProgressMsg) {
	if !m.Processing {
		return
	}
	m.Processing = false
	m.Browser.SetDisabled(false)

	if msg.Err != nil {
		slog.Error("submission failed", "error", msg.Err)
		m.StatusMsg = styles.ErrorMarker + " Error: " + domain.UserMessage(msg.Err)
		return
	}

	m.Progress = 100
	m.StatusMsg = successMessage(msg.Result)
	// The output directory may be the one being browsed
	if err := m.Browser.Reload(); err != nil {
		slog.Warn("failed to refresh browser", "dir", m.Browser.Dir(), "error", err)
	}
}

func successMessage(result *domain.SubmissionResult) string {
	if result == nil {
		return styles.SuccessMarker + " Done"
	}
	if result.Kind == domain.SubmissionBatch {
		return fmt.Sprintf("%s Successfully processed %d image(s)! Saved %s",
			styles.SuccessMarker, result.FileCount, result.SavedPath)
	}
	return fmt.Sprintf("%s Background removed successfully! Saved %s",
		styles.SuccessMarker, result.SavedPath)
}

// setFiles replaces the selected-file list
func (m *Model) setFiles(files []domain.SelectedFile) {
	m.Files = files
	m.Selected.SetFiles(files)
}

// clearSelection empties the selection and resets status and progress
func (m *Model) clearSelection() {
	m.setFiles(nil)
	m.StatusMsg = ""
	m.Progress = 0
}

// setOutputDir validates and applies a new output directory for this session
func (m *Model) setOutputDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("directory cannot be empty")
	}
	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	// Missing directories are created on first save
	m.Output.SetDir(dir)
	slog.Info("output directory changed", "dir", dir)
	return nil
}

// syncPreview requests a preview of the entry under the browser cursor
func (m *Model) syncPreview(force bool) tea.Cmd {
	if !m.ShowPreview || !m.Ready {
		return nil
	}

	entry := m.Browser.SelectedEntry()
	if entry == nil {
		m.Preview.Clear()
		return nil
	}
	if !force && entry.Path == m.Preview.Pending() {
		return nil
	}

	m.Preview.SetLoading(entry.Path)
	cols, rows := m.Preview.ThumbSize()
	return LoadPreviewCmd(entry.Path, cols, rows)
}

// setFocus moves focus between panes
func (m *Model) setFocus(p Pane) {
	m.Focus = p
	m.Browser.SetFocused(p == PaneBrowser)
	m.Selected.SetFocused(p == PaneSelected)
}
