package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/vibewear/api/internal/model"
	"github.com/vibewear/api/internal/service"
)

const ErrCodeCheckoutFailed = "CHECKOUT_RENDER_FAILED"

// JobStore is the job-state side of service.CheckoutService.
type JobStore interface {
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	UpdateProgress(ctx context.Context, jobID string, progress int, step string) error
	Complete(ctx context.Context, jobID string, result *model.CheckoutDesignResult) error
	Fail(ctx context.Context, jobID string, errMsg string) error
}

type DesignGenerator interface {
	Generate(ctx context.Context, req *model.GenerationRequest) *model.GenerationOutcome
}

type ArtworkStore interface {
	Store(ctx context.Context, jobID, imageURL string) (key, url string, err error)
}

// Notifier pushes job updates to websocket subscribers.
type Notifier interface {
	BroadcastProgress(jobID string, progress int, status model.JobStatus, step string)
	BroadcastComplete(jobID string, result *model.CheckoutDesignResult)
	BroadcastError(jobID string, code, message string)
}

// CheckoutWorker renders the high-quality print file for an order.
type CheckoutWorker struct {
	jobs     JobStore
	designer DesignGenerator
	artwork  ArtworkStore
	notifier Notifier
	log      zerolog.Logger
}

func NewCheckoutWorker(jobs JobStore, designer DesignGenerator, artwork ArtworkStore, notifier Notifier, log zerolog.Logger) *CheckoutWorker {
	return &CheckoutWorker{
		jobs:     jobs,
		designer: designer,
		artwork:  artwork,
		notifier: notifier,
		log:      log.With().Str("component", "checkout_worker").Logger(),
	}
}

func (w *CheckoutWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var task service.CheckoutTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	jobID := task.JobID
	log := w.log.With().Str("jobId", jobID).Logger()

	if w.canceled(ctx, jobID) {
		log.Info().Msg("job canceled before start")
		return nil
	}

	log.Info().Str("orderRef", task.Payload.OrderRef).Msg("starting checkout render")
	w.updateProgress(ctx, log, jobID, 10, "Preparing your design...")

	outcome := w.designer.Generate(ctx, &model.GenerationRequest{
		Prompt:       task.Payload.Prompt,
		Style:        task.Payload.Style,
		GarmentColor: task.Payload.GarmentColor,
		Quality:      model.QualityHigh,
		ClientKey:    task.Payload.ClientKey,
	})
	if !outcome.Success {
		w.failJob(ctx, log, jobID, outcome.Error)
		return fmt.Errorf("checkout render failed: %s: %w", outcome.Error, asynq.SkipRetry)
	}

	if w.canceled(ctx, jobID) {
		log.Info().Msg("job canceled after generation")
		return nil
	}

	result := &model.CheckoutDesignResult{
		ImageURL:      outcome.ImageURL,
		RevisedPrompt: outcome.RevisedPrompt,
		Prompt:        outcome.Prompt,
		OrderRef:      task.Payload.OrderRef,
	}

	if w.artwork != nil {
		w.updateProgress(ctx, log, jobID, 70, "Saving print file...")
		key, storedURL, err := w.artwork.Store(ctx, jobID, outcome.ImageURL)
		if err != nil {
			log.Error().Err(err).Msg("failed to store artwork")
			w.failJob(ctx, log, jobID, "Failed to save the print file")
			return fmt.Errorf("store artwork: %w", err)
		}
		result.StorageKey = key
		result.StoredURL = storedURL

		if w.canceled(ctx, jobID) {
			log.Info().Str("storageKey", key).Msg("job canceled while saving artwork")
			return nil
		}
	}

	w.updateProgress(ctx, log, jobID, 95, "Finalizing...")
	if err := w.jobs.Complete(ctx, jobID, result); err != nil {
		if errors.Is(err, service.ErrJobAlreadyFinished) {
			log.Info().Msg("job finished elsewhere, result discarded")
			return nil
		}
		w.failJob(ctx, log, jobID, "Failed to save result")
		return err
	}

	w.notifier.BroadcastComplete(jobID, result)
	log.Info().Bool("stored", result.StorageKey != "").Msg("checkout render completed")
	return nil
}

func (w *CheckoutWorker) canceled(ctx context.Context, jobID string) bool {
	job, err := w.jobs.GetJob(ctx, jobID)
	if err != nil {
		return false
	}
	return job.Status == model.JobStatusCanceled
}

func (w *CheckoutWorker) updateProgress(ctx context.Context, log zerolog.Logger, jobID string, progress int, step string) {
	if err := w.jobs.UpdateProgress(ctx, jobID, progress, step); err != nil {
		if errors.Is(err, service.ErrJobAlreadyFinished) {
			return
		}
		log.Warn().Err(err).Msg("failed to update progress")
	}
	w.notifier.BroadcastProgress(jobID, progress, model.JobStatusRunning, step)
}

func (w *CheckoutWorker) failJob(ctx context.Context, log zerolog.Logger, jobID, errMsg string) {
	if err := w.jobs.Fail(ctx, jobID, errMsg); err != nil {
		if errors.Is(err, service.ErrJobAlreadyFinished) {
			return
		}
		log.Error().Err(err).Msg("failed to mark job as failed")
	}
	w.notifier.BroadcastError(jobID, ErrCodeCheckoutFailed, errMsg)
}
