package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vibewear/api/internal/client"
	"github.com/vibewear/api/internal/model"
)

// User-facing failure messages. The detailed error only goes to the log.
const (
	MsgGenerationUnavailable = "AI image generation is currently unavailable. Please join our waitlist to be notified when this feature is ready!"
	MsgContentPolicy         = "Your description was flagged by our content filter. Please try a different description."
	MsgRateLimited           = "We are receiving a lot of design requests right now. Please wait a moment and try again."
	MsgQuotaExceeded         = "AI image generation has reached its usage limit for now. Please join our waitlist to be notified when it is back."
)

const recordTimeout = 5 * time.Second

// ImageInvoker submits an enhanced prompt to the image proxy.
type ImageInvoker interface {
	Invoke(ctx context.Context, prompt string, quality model.QualityTier) (*model.ImageResult, error)
}

// GenerationRecorder appends one entry to the generation log.
type GenerationRecorder interface {
	Record(ctx context.Context, entry *model.GenerationLogEntry) error
}

// Stage is a step of one orchestrated generation. Stages only move forward.
type Stage string

const (
	StageValidating Stage = "validating"
	StageEnhancing  Stage = "enhancing"
	StageInvoking   Stage = "invoking"
	StageRecording  Stage = "recording"
	StageDone       Stage = "done"
)

// DesignService runs validate, enhance, invoke and record for one request.
type DesignService struct {
	invoker  ImageInvoker
	recorder GenerationRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewDesignService(invoker ImageInvoker, recorder GenerationRecorder, log zerolog.Logger) *DesignService {
	return &DesignService{
		invoker:  invoker,
		recorder: recorder,
		log:      log.With().Str("component", "design").Logger(),
		now:      time.Now,
	}
}

// Generate never returns an error: every failure is folded into the outcome.
// Rejected prompts stop before the network and are not recorded; anything
// that reached the invoker is recorded exactly once.
func (s *DesignService) Generate(ctx context.Context, req *model.GenerationRequest) *model.GenerationOutcome {
	quality := req.Quality.OrDefault()
	log := s.log.With().Str("style", string(req.Style)).Str("quality", string(quality)).Logger()

	s.stage(log, StageValidating)
	if err := ValidatePrompt(req.Prompt); err != nil {
		var verr *ValidationError
		errors.As(err, &verr)
		s.stage(log, StageDone)
		return &model.GenerationOutcome{
			Success: false,
			Error:   verr.Message,
			Reason:  verr.Kind,
			Quality: quality,
		}
	}

	s.stage(log, StageEnhancing)
	enhanced := EnhancePrompt(req.Prompt, req.Style, req.GarmentColor)

	s.stage(log, StageInvoking)
	result, invokeErr := s.invoker.Invoke(ctx, enhanced, quality)

	entry := &model.GenerationLogEntry{
		ID:             uuid.NewString(),
		OriginalPrompt: req.Prompt,
		EnhancedPrompt: enhanced,
		Style:          req.Style,
		GarmentColor:   req.GarmentColor,
		Quality:        quality,
		ClientKey:      req.ClientKey,
		CreatedAt:      s.now().UTC(),
	}
	outcome := &model.GenerationOutcome{Prompt: enhanced, Quality: quality}

	if invokeErr != nil {
		entry.ErrorMessage = invokeErr.Error()
		outcome.Error = UserMessage(invokeErr)
		log.Warn().Err(invokeErr).Msg("design generation failed")
	} else {
		entry.Success = true
		entry.ImageURL = result.URL
		entry.RevisedPrompt = result.RevisedPrompt
		outcome.Success = true
		outcome.ImageURL = result.URL
		outcome.RevisedPrompt = result.RevisedPrompt
	}

	s.stage(log, StageRecording)
	s.record(ctx, log, entry)

	s.stage(log, StageDone)
	return outcome
}

// record is best-effort: a failed write is logged and dropped.
func (s *DesignService) record(ctx context.Context, log zerolog.Logger, entry *model.GenerationLogEntry) {
	if s.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := s.recorder.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("entryId", entry.ID).Msg("failed to record generation")
	}
}

func (s *DesignService) stage(log zerolog.Logger, st Stage) {
	log.Debug().Str("stage", string(st)).Msg("generation stage")
}

// UserMessage turns an invoke failure into the text shown to shoppers.
func UserMessage(err error) string {
	var rerr *client.RemoteError
	if errors.As(err, &rerr) {
		switch rerr.Code {
		case "content_policy_violation", "moderation_blocked":
			return MsgContentPolicy
		case "rate_limit_exceeded":
			return MsgRateLimited
		case "insufficient_quota":
			return MsgQuotaExceeded
		}
		if rerr.Status == http.StatusTooManyRequests {
			return MsgRateLimited
		}
	}
	return MsgGenerationUnavailable
}
