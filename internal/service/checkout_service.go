package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/vibewear/api/internal/model"
)

const TaskTypeCheckoutDesign = "design:checkout"

const (
	checkoutQueue        = "checkout"
	jobTTL               = 24 * time.Hour
	maxJobUpdateAttempts = 5
)

var (
	ErrJobNotFound        = errors.New("job not found")
	ErrJobNotCompleted    = errors.New("job not completed")
	ErrJobAlreadyFinished = errors.New("job already finished")
)

// TaskEnqueuer is the part of asynq.Client the service needs.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CheckoutService manages high-quality renders requested at checkout. Job
// state lives in Redis; the render itself runs on an asynq worker.
type CheckoutService struct {
	redis *redis.Client
	queue TaskEnqueuer
}

func NewCheckoutService(redisClient *redis.Client, queue TaskEnqueuer) *CheckoutService {
	return &CheckoutService{redis: redisClient, queue: queue}
}

// CheckoutTask is the asynq payload
type CheckoutTask struct {
	JobID   string                   `json:"jobId"`
	Payload model.CheckoutJobPayload `json:"payload"`
}

// Start records a queued job and enqueues the render.
func (s *CheckoutService) Start(ctx context.Context, req *model.CheckoutDesignRequest, clientKey string) (*model.JobStartResponse, error) {
	jobID := uuid.NewString()
	now := time.Now().UTC()

	payload := model.CheckoutJobPayload{
		Prompt:       req.Prompt,
		Style:        req.Style,
		GarmentColor: req.GarmentColor,
		OrderRef:     req.OrderRef,
		ClientKey:    clientKey,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := &model.Job{
		ID:        jobID,
		Type:      model.JobTypeCheckoutDesign,
		Status:    model.JobStatusQueued,
		Payload:   payloadBytes,
		CreatedAt: now,
	}
	if err := s.saveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := NewCheckoutTask(jobID, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// One generation attempt per job.
	if _, err := s.queue.EnqueueContext(ctx, task,
		asynq.Queue(checkoutQueue),
		asynq.MaxRetry(0),
		asynq.Timeout(5*time.Minute),
		asynq.Retention(jobTTL),
	); err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.JobStartResponse{JobID: jobID, Status: model.JobStatusQueued, CreatedAt: now}, nil
}

func (s *CheckoutService) GetStatus(ctx context.Context, jobID string) (*model.JobStatusResponse, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	return &model.JobStatusResponse{
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		StartedAt:   job.StartedAt,
		CompletedAt: job.CompletedAt,
		RetryCount:  job.RetryCount,
	}, nil
}

func (s *CheckoutService) GetResult(ctx context.Context, jobID string) (*model.CheckoutDesignResult, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusSucceeded {
		return nil, ErrJobNotCompleted
	}

	var result model.CheckoutDesignResult
	if err := json.Unmarshal(job.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// Cancel marks a queued or running job canceled. The worker checks for this
// before each expensive step, and every later state write refuses the job.
func (s *CheckoutService) Cancel(ctx context.Context, jobID string) (*model.JobCancelResponse, error) {
	err := s.updateJob(ctx, jobID, func(job *model.Job) error {
		now := time.Now().UTC()
		job.Status = model.JobStatusCanceled
		job.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &model.JobCancelResponse{Success: true, JobID: jobID, Status: model.JobStatusCanceled}, nil
}

// UpdateProgress is called by the worker; the first call moves the job to running.
func (s *CheckoutService) UpdateProgress(ctx context.Context, jobID string, progress int, step string) error {
	return s.updateJob(ctx, jobID, func(job *model.Job) error {
		job.Progress = progress
		job.CurrentStep = step
		if job.Status == model.JobStatusQueued {
			now := time.Now().UTC()
			job.Status = model.JobStatusRunning
			job.StartedAt = &now
		}
		return nil
	})
}

func (s *CheckoutService) Complete(ctx context.Context, jobID string, result *model.CheckoutDesignResult) error {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return s.updateJob(ctx, jobID, func(job *model.Job) error {
		now := time.Now().UTC()
		job.Status = model.JobStatusSucceeded
		job.Progress = 100
		job.CurrentStep = ""
		job.Result = resultBytes
		job.CompletedAt = &now
		return nil
	})
}

func (s *CheckoutService) Fail(ctx context.Context, jobID string, errMsg string) error {
	return s.updateJob(ctx, jobID, func(job *model.Job) error {
		now := time.Now().UTC()
		job.Status = model.JobStatusFailed
		job.Error = &errMsg
		job.CompletedAt = &now
		return nil
	})
}

// updateJob applies fn to a job that has not finished yet. The read and the
// write run under WATCH, so a concurrent cancel or completion makes this one
// retry and then see the terminal status.
func (s *CheckoutService) updateJob(ctx context.Context, jobID string, fn func(job *model.Job) error) error {
	key := jobKey(jobID)

	txf := func(tx *redis.Tx) error {
		job, err := readJob(ctx, tx, key)
		if err != nil {
			return err
		}
		if job.Status.IsTerminal() {
			return ErrJobAlreadyFinished
		}
		if err := fn(job); err != nil {
			return err
		}

		data, err := json.Marshal(job)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, jobTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxJobUpdateAttempts; i++ {
		err := s.redis.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("job %s: too many concurrent updates", jobID)
}

func (s *CheckoutService) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	return readJob(ctx, s.redis, jobKey(jobID))
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readJob(ctx context.Context, r getter, key string) (*model.Job, error) {
	data, err := r.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *CheckoutService) saveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, jobKey(job.ID), data, jobTTL).Err()
}

func jobKey(jobID string) string {
	return "job:" + jobID
}

func NewCheckoutTask(jobID string, payload model.CheckoutJobPayload) (*asynq.Task, error) {
	data, err := json.Marshal(CheckoutTask{JobID: jobID, Payload: payload})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCheckoutDesign, data), nil
}
