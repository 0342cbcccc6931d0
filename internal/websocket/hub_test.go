package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vibewear/api/internal/model"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := NewHub(zerolog.Nop())
	go h.Run(ctx)
	return h
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		if !ok {
			t.Fatal("send channel closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil
}

func TestHubDeliversOnlyToJobSubscribers(t *testing.T) {
	h := startHub(t)

	watcher := NewClient("job-1", nil)
	other := NewClient("job-2", nil)
	h.Register(watcher)
	h.Register(other)

	h.BroadcastProgress("job-1", 40, model.JobStatusRunning, "generating artwork")

	var msg model.WSProgressMessage
	if err := json.Unmarshal(receive(t, watcher), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != model.WSMessageTypeProgress || msg.Progress != 40 || msg.JobID != "job-1" {
		t.Errorf("unexpected message: %+v", msg)
	}

	select {
	case m := <-other.Send:
		t.Errorf("job-2 subscriber received %s", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCompleteAndError(t *testing.T) {
	h := startHub(t)
	c := NewClient("job-3", nil)
	h.Register(c)

	h.BroadcastComplete("job-3", &model.CheckoutDesignResult{ImageURL: "https://cdn/x.png", Prompt: "p"})
	var done model.WSCompleteMessage
	if err := json.Unmarshal(receive(t, c), &done); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if done.Result == nil || done.Result.ImageURL != "https://cdn/x.png" {
		t.Errorf("unexpected complete message: %+v", done)
	}

	h.BroadcastError("job-3", "GENERATION_FAILED", "boom")
	var failed model.WSErrorMessage
	if err := json.Unmarshal(receive(t, c), &failed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if failed.Error.Code != "GENERATION_FAILED" || failed.Error.Message != "boom" {
		t.Errorf("unexpected error message: %+v", failed)
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := startHub(t)
	c := NewClient("job-4", nil)
	h.Register(c)
	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers("job-4") != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 1 subscriber, got %d", h.Subscribers("job-4"))
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.Unregister(c)

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed")
	}
	if n := h.Subscribers("job-4"); n != 0 {
		t.Errorf("expected 0 subscribers, got %d", n)
	}
}

func TestHubSlowConsumerThenPing(t *testing.T) {
	h := startHub(t)
	c := NewClient("job-5", nil)
	h.Register(c)

	// nobody drains Send, so the hub drops the client once the buffer is full
	for i := 0; i < cap(c.Send)+1; i++ {
		h.BroadcastProgress("job-5", i, model.JobStatusRunning, "step")
	}
	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers("job-5") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow consumer was not dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// a ping arriving after the drop must not touch the closed Send channel
	c.queuePong()
	c.queuePong()

	select {
	case <-c.pong:
	default:
		t.Fatal("expected a pending pong")
	}
}

func TestHubStoppedDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(zerolog.Nop())
	go h.Run(ctx)

	live := NewClient("job-6", nil)
	h.Register(live)
	cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		h.Unregister(live)
		for i := 0; i < 300; i++ {
			h.BroadcastProgress("job-6", i, model.JobStatusRunning, "step")
		}
		late := NewClient("job-6", nil)
		h.Register(late)
		if _, ok := <-late.Send; ok {
			t.Error("expected late client to be closed")
		}
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("hub calls blocked after shutdown")
	}
}
