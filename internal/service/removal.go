package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/cutout/internal/client"
	"github.com/mmcdole/cutout/internal/domain"
)

// remover abstracts the removal endpoints (consumer-defined interface)
type remover interface {
	RemoveBackground(ctx context.Context, file domain.SelectedFile, onProgress domain.ProgressFunc) (*client.Response, error)
	RemoveBackgroundBatch(ctx context.Context, files []domain.SelectedFile, onProgress domain.ProgressFunc) (*client.Response, error)
}

// saver persists downloaded bytes (consumer-defined interface)
type saver interface {
	Save(name string, data []byte) (string, error)
}

// Progress reports a submission's upload progress.
// Zero or more Percent updates are followed by exactly one Done update.
type Progress struct {
	Kind    domain.SubmissionKind
	Percent int
	Done    bool
	Result  *domain.SubmissionResult // Set on success
	Err     error                    // Set on failure
}

// RemovalService orchestrates a submission: upload, progress, download
type RemovalService struct {
	remover remover
	saver   saver
	logger  *slog.Logger
}

// NewRemovalService creates a new removal service
func NewRemovalService(remover remover, saver saver, logger *slog.Logger) *RemovalService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemovalService{
		remover: remover,
		saver:   saver,
		logger:  logger,
	}
}

// Submit runs a submission and streams its progress to progressCh.
// The channel is closed when the submission is complete.
func (s *RemovalService) Submit(ctx context.Context, files []domain.SelectedFile, progressCh chan<- Progress) {
	defer close(progressCh)

	kind := domain.KindFor(len(files))
	result, err := s.SubmitSync(ctx, files, func(percent int) {
		select {
		case progressCh <- Progress{Kind: kind, Percent: percent}:
		case <-ctx.Done():
		}
	})

	final := Progress{Kind: kind, Done: true, Result: result, Err: err}
	if err == nil {
		final.Percent = 100
	}
	progressCh <- final
}

// SubmitSync runs a submission on the calling goroutine.
// A single file takes the single-image path, more than one the batch path.
func (s *RemovalService) SubmitSync(ctx context.Context, files []domain.SelectedFile, onProgress domain.ProgressFunc) (*domain.SubmissionResult, error) {
	if len(files) == 0 {
		return nil, domain.ErrNoFiles
	}

	kind := domain.KindFor(len(files))
	s.logger.Info("submitting", "kind", kind.String(), "files", len(files))

	var (
		resp *client.Response
		name string
		err  error
	)
	switch kind {
	case domain.SubmissionSingle:
		name = OutputName(files[0])
		resp, err = s.remover.RemoveBackground(ctx, files[0], onProgress)
	default:
		name = BatchArchiveName
		resp, err = s.remover.RemoveBackgroundBatch(ctx, files, onProgress)
	}
	if err != nil {
		s.logger.Error("submission failed", "kind", kind.String(), "error", err)
		return nil, err
	}

	path, err := s.saver.Save(name, resp.Body)
	if err != nil {
		s.logger.Error("failed to save result", "name", name, "error", err)
		return nil, fmt.Errorf("saving %s: %w", name, err)
	}

	return &domain.SubmissionResult{
		Kind:      kind,
		FileCount: len(files),
		SavedPath: path,
		Bytes:     len(resp.Body),
	}, nil
}
