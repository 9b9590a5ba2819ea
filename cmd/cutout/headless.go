package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/mmcdole/cutout/internal/domain"
	"github.com/mmcdole/cutout/internal/selection"
	"github.com/mmcdole/cutout/internal/tui/styles"
)

// syncSubmitter runs a submission on the calling goroutine
type syncSubmitter interface {
	SubmitSync(ctx context.Context, files []domain.SelectedFile, onProgress domain.ProgressFunc) (*domain.SubmissionResult, error)
}

type healthChecker interface {
	Health(ctx context.Context) error
}

// headless submits images named on the command line without the TUI.
// Results go to stdout, progress and diagnostics to stderr.
type headless struct {
	svc       syncSubmitter
	health    healthChecker
	healthURL string

	stdout io.Writer
	stderr io.Writer

	// interactive redraws progress in place; otherwise quarter steps are printed
	interactive bool
}

func (h *headless) run(ctx context.Context, paths []string) error {
	if h.health != nil {
		// Non-fatal: the submission reports its own transport error
		healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := h.health.Health(healthCtx); err != nil {
			fmt.Fprintf(h.stderr, "warning: removal service not healthy at %s: %v\n", h.healthURL, err)
		}
		cancel()
	}

	result := selection.Filter(paths)
	for _, dropped := range result.Dropped {
		fmt.Fprintf(h.stderr, "skipping %s\n", dropped)
	}
	for _, f := range result.Kept {
		fmt.Fprintf(h.stderr, "  %s\n", f.Label())
	}
	fmt.Fprintln(h.stderr, result.Message())
	if len(result.Kept) == 0 {
		return domain.ErrNoFiles
	}

	label := "Processing..."
	if domain.KindFor(len(result.Kept)) == domain.SubmissionBatch {
		label = fmt.Sprintf("Processing %d image(s)...", len(result.Kept))
	}

	res, err := h.submitWithProgress(ctx, result.Kept, label)
	if err != nil {
		return errors.New(domain.UserMessage(err))
	}

	if res.Kind == domain.SubmissionBatch {
		fmt.Fprintf(h.stdout, "%s Successfully processed %d image(s)! Saved %s\n", styles.SuccessMarker, res.FileCount, res.SavedPath)
	} else {
		fmt.Fprintf(h.stdout, "%s Background removed successfully! Saved %s\n", styles.SuccessMarker, res.SavedPath)
	}
	return nil
}

// submitWithProgress runs the submission in the background. On a terminal it
// redraws a spinner and percentage in place, otherwise it prints quarter steps.
func (h *headless) submitWithProgress(ctx context.Context, files []domain.SelectedFile, label string) (*domain.SubmissionResult, error) {
	type result struct {
		res *domain.SubmissionResult
		err error
	}
	resultCh := make(chan result, 1)

	if !h.interactive {
		fmt.Fprintln(h.stderr, label)
	}

	var percent atomic.Int64
	var lastStep atomic.Int64
	go func() {
		res, err := h.svc.SubmitSync(ctx, files, func(p int) {
			percent.Store(int64(p))
			if !h.interactive && int64(p/25) > lastStep.Load() {
				lastStep.Store(int64(p / 25))
				fmt.Fprintf(h.stderr, "uploaded %d%%\n", p)
			}
		})
		resultCh <- result{res, err}
	}()

	if !h.interactive {
		r := <-resultCh
		return r.res, r.err
	}

	frame := 0
	draw := func() {
		fmt.Fprintf(h.stderr, "\r%s %s %3d%%", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)], label, percent.Load())
	}
	draw()

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case r := <-resultCh:
			fmt.Fprint(h.stderr, clearSpinnerLine)
			return r.res, r.err
		case <-ticker.C:
			frame++
			draw()
		}
	}
}
