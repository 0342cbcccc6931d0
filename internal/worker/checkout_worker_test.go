package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/vibewear/api/internal/model"
	"github.com/vibewear/api/internal/service"
)

type fakeJobs struct {
	mu       sync.Mutex
	status   model.JobStatus
	progress []int
	result   *model.CheckoutDesignResult
	failMsg  string
}

func (f *fakeJobs) GetJob(_ context.Context, jobID string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &model.Job{ID: jobID, Status: f.status}, nil
}

func (f *fakeJobs) UpdateProgress(_ context.Context, _ string, progress int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status.IsTerminal() {
		return service.ErrJobAlreadyFinished
	}
	f.progress = append(f.progress, progress)
	return nil
}

func (f *fakeJobs) Complete(_ context.Context, _ string, result *model.CheckoutDesignResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status.IsTerminal() {
		return service.ErrJobAlreadyFinished
	}
	f.result = result
	f.status = model.JobStatusSucceeded
	return nil
}

func (f *fakeJobs) Fail(_ context.Context, _ string, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status.IsTerminal() {
		return service.ErrJobAlreadyFinished
	}
	f.failMsg = msg
	f.status = model.JobStatusFailed
	return nil
}

func (f *fakeJobs) cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = model.JobStatusCanceled
}

type fakeDesigner struct {
	req     *model.GenerationRequest
	outcome *model.GenerationOutcome
}

func (f *fakeDesigner) Generate(_ context.Context, req *model.GenerationRequest) *model.GenerationOutcome {
	f.req = req
	return f.outcome
}

type fakeArtwork struct {
	imageURL string
	err      error
	onStore  func()
}

func (f *fakeArtwork) Store(_ context.Context, jobID, imageURL string) (string, string, error) {
	f.imageURL = imageURL
	if f.onStore != nil {
		f.onStore()
	}
	if f.err != nil {
		return "", "", f.err
	}
	return "designs/" + jobID + ".png", "https://cdn/designs/" + jobID + ".png", nil
}

type fakeNotifier struct {
	completed *model.CheckoutDesignResult
	errCode   string
	progress  int
}

func (f *fakeNotifier) BroadcastProgress(string, int, model.JobStatus, string) { f.progress++ }
func (f *fakeNotifier) BroadcastComplete(_ string, r *model.CheckoutDesignResult) {
	f.completed = r
}
func (f *fakeNotifier) BroadcastError(_ string, code, _ string) { f.errCode = code }

func newTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := service.NewCheckoutTask("job-1", model.CheckoutJobPayload{
		Prompt:       "a red fox",
		Style:        model.StyleRealistic,
		GarmentColor: "Black",
		OrderRef:     "order-42",
		ClientKey:    "user:u1",
	})
	if err != nil {
		t.Fatal(err)
	}
	return task
}

func TestCheckoutWorkerSuccess(t *testing.T) {
	jobs := &fakeJobs{status: model.JobStatusQueued}
	designer := &fakeDesigner{outcome: &model.GenerationOutcome{Success: true, ImageURL: "https://img/fox.png", Prompt: "enhanced"}}
	artwork := &fakeArtwork{}
	notifier := &fakeNotifier{}

	w := NewCheckoutWorker(jobs, designer, artwork, notifier, zerolog.Nop())
	if err := w.ProcessTask(context.Background(), newTask(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if designer.req.Quality != model.QualityHigh {
		t.Errorf("checkout renders must use high quality, got %q", designer.req.Quality)
	}
	if designer.req.ClientKey != "user:u1" {
		t.Errorf("client key not forwarded: %q", designer.req.ClientKey)
	}
	if artwork.imageURL != "https://img/fox.png" {
		t.Errorf("artwork stored from %q", artwork.imageURL)
	}
	if jobs.result == nil || jobs.result.StorageKey != "designs/job-1.png" || jobs.result.OrderRef != "order-42" {
		t.Fatalf("unexpected result %+v", jobs.result)
	}
	if notifier.completed != jobs.result {
		t.Error("completion not broadcast")
	}
	if notifier.progress == 0 || len(jobs.progress) == 0 {
		t.Error("expected progress updates")
	}
}

func TestCheckoutWorkerGenerationFailure(t *testing.T) {
	jobs := &fakeJobs{status: model.JobStatusQueued}
	designer := &fakeDesigner{outcome: &model.GenerationOutcome{Error: service.MsgGenerationUnavailable}}
	notifier := &fakeNotifier{}

	w := NewCheckoutWorker(jobs, designer, &fakeArtwork{}, notifier, zerolog.Nop())
	err := w.ProcessTask(context.Background(), newTask(t))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
	if jobs.failMsg != service.MsgGenerationUnavailable {
		t.Errorf("unexpected fail message %q", jobs.failMsg)
	}
	if notifier.errCode != ErrCodeCheckoutFailed {
		t.Errorf("unexpected error code %q", notifier.errCode)
	}
}

func TestCheckoutWorkerArtworkFailure(t *testing.T) {
	jobs := &fakeJobs{status: model.JobStatusQueued}
	designer := &fakeDesigner{outcome: &model.GenerationOutcome{Success: true, ImageURL: "https://img/fox.png"}}

	w := NewCheckoutWorker(jobs, designer, &fakeArtwork{err: errors.New("r2 down")}, &fakeNotifier{}, zerolog.Nop())
	if err := w.ProcessTask(context.Background(), newTask(t)); err == nil {
		t.Fatal("expected error")
	}
	if jobs.status != model.JobStatusFailed {
		t.Errorf("expected failed job, got %s", jobs.status)
	}
}

func TestCheckoutWorkerSkipsCanceledJob(t *testing.T) {
	jobs := &fakeJobs{status: model.JobStatusCanceled}
	designer := &fakeDesigner{}

	w := NewCheckoutWorker(jobs, designer, nil, &fakeNotifier{}, zerolog.Nop())
	if err := w.ProcessTask(context.Background(), newTask(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if designer.req != nil {
		t.Error("canceled job must not reach the generator")
	}
}

func TestCheckoutWorkerWithoutStorage(t *testing.T) {
	jobs := &fakeJobs{status: model.JobStatusQueued}
	designer := &fakeDesigner{outcome: &model.GenerationOutcome{Success: true, ImageURL: "https://img/fox.png"}}

	w := NewCheckoutWorker(jobs, designer, nil, &fakeNotifier{}, zerolog.Nop())
	if err := w.ProcessTask(context.Background(), newTask(t)); err != nil {
		t.Fatal(err)
	}
	if jobs.result.StorageKey != "" || jobs.result.ImageURL != "https://img/fox.png" {
		t.Errorf("unexpected result %+v", jobs.result)
	}
}

func TestCheckoutWorkerBadPayload(t *testing.T) {
	w := NewCheckoutWorker(&fakeJobs{}, &fakeDesigner{}, nil, &fakeNotifier{}, zerolog.Nop())
	err := w.ProcessTask(context.Background(), asynq.NewTask(service.TaskTypeCheckoutDesign, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestCheckoutWorkerCanceledDuringArtworkStore(t *testing.T) {
	jobs := &fakeJobs{status: model.JobStatusQueued}
	designer := &fakeDesigner{outcome: &model.GenerationOutcome{Success: true, ImageURL: "https://img/fox.png"}}
	artwork := &fakeArtwork{onStore: jobs.cancel}
	notifier := &fakeNotifier{}

	w := NewCheckoutWorker(jobs, designer, artwork, notifier, zerolog.Nop())
	if err := w.ProcessTask(context.Background(), newTask(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if jobs.status != model.JobStatusCanceled {
		t.Errorf("cancel must stick, got %s", jobs.status)
	}
	if jobs.result != nil || notifier.completed != nil {
		t.Error("canceled job must not complete")
	}
}

func TestCheckoutWorkerCompleteRefusedAfterCancel(t *testing.T) {
	jobs := &fakeJobs{status: model.JobStatusQueued}
	designer := &fakeDesigner{outcome: &model.GenerationOutcome{Success: true, ImageURL: "https://img/fox.png"}}
	notifier := &fakeNotifier{}

	// no artwork step, so the cancel lands between the last check and Complete
	w := NewCheckoutWorker(&cancelOnFinalize{fakeJobs: jobs}, designer, nil, notifier, zerolog.Nop())
	if err := w.ProcessTask(context.Background(), newTask(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobs.status != model.JobStatusCanceled || notifier.completed != nil || notifier.errCode != "" {
		t.Errorf("unexpected final state status=%s completed=%v err=%q", jobs.status, notifier.completed, notifier.errCode)
	}
}

// cancelOnFinalize cancels the job when the worker reports the final progress step.
type cancelOnFinalize struct {
	*fakeJobs
}

func (c *cancelOnFinalize) UpdateProgress(ctx context.Context, jobID string, progress int, step string) error {
	if progress >= 95 {
		c.cancel()
	}
	return c.fakeJobs.UpdateProgress(ctx, jobID, progress, step)
}
