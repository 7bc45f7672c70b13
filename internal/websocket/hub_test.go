package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"aula-lms/internal/domain"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = hub.Run(ctx)
	}()
	t.Cleanup(cancel)
	return hub, cancel
}

func newTestClient(hub *Hub, uploadID string) *Client {
	return NewClient(hub, newMockWebSocketConn(), uploadID)
}

func receive(t *testing.T, ch <-chan []byte) domain.UploadProgress {
	t.Helper()
	select {
	case data, ok := <-ch:
		if !ok {
			t.Fatal("send channel closed before an event arrived")
		}
		var p domain.UploadProgress
		if err := json.Unmarshal(data, &p); err != nil {
			t.Fatalf("invalid event %q: %v", data, err)
		}
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return domain.UploadProgress{}
}

func TestHub_ContextCancellation(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	errChan := make(chan error, 1)
	go func() {
		errChan <- hub.Run(ctx)
	}()

	cancel()

	select {
	case err := <-errChan:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Hub did not stop within timeout")
	}
}

func TestHub_PublishReachesOnlyMatchingUpload(t *testing.T) {
	hub, _ := startHub(t)

	a := newTestClient(hub, "up-a")
	b := newTestClient(hub, "up-b")
	hub.Register(a)
	hub.Register(b)

	hub.Publish(domain.UploadProgress{UploadID: "up-a", Loaded: 10, Total: 100, Percent: 10})

	got := receive(t, a.send)
	if got.Percent != 10 {
		t.Errorf("Percent = %v, want 10", got.Percent)
	}

	select {
	case msg := <-b.send:
		t.Errorf("subscriber of another upload received %s", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_LateSubscriberGetsLatest(t *testing.T) {
	hub, _ := startHub(t)

	hub.Publish(domain.UploadProgress{UploadID: "up-1", Loaded: 40, Total: 100, Percent: 40})
	hub.Publish(domain.UploadProgress{UploadID: "up-1", Loaded: 60, Total: 100, Percent: 60})

	late := newTestClient(hub, "up-1")
	hub.Register(late)

	if got := receive(t, late.send); got.Percent != 60 {
		t.Errorf("replayed Percent = %v, want 60", got.Percent)
	}
}

func TestHub_DoneClosesSubscribers(t *testing.T) {
	hub, _ := startHub(t)

	c := newTestClient(hub, "up-1")
	hub.Register(c)

	hub.Publish(domain.UploadProgress{UploadID: "up-1", Percent: 50})
	hub.Publish(domain.UploadProgress{UploadID: "up-1", Percent: 100, Done: true})

	if got := receive(t, c.send); got.Percent != 50 {
		t.Errorf("first Percent = %v, want 50", got.Percent)
	}
	if got := receive(t, c.send); !got.Done {
		t.Error("Expected final event to be done")
	}

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("Expected send channel to be closed after the final event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel was not closed")
	}

	// A finished upload is not replayed.
	late := newTestClient(hub, "up-1")
	hub.Register(late)
	select {
	case msg := <-late.send:
		t.Errorf("late subscriber received %s", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _ := startHub(t)

	c := newTestClient(hub, "up-1")
	hub.Register(c)
	hub.Unregister(c)
	// A second unregister must not panic on a closed channel.
	hub.Unregister(c)

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("Expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel was not closed")
	}
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)

	c := newTestClient(hub, "up-1")
	hub.Register(c)
	cancel()

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("Expected closed channel after shutdown")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("send channel was not closed on shutdown")
	}

	// Publishing after shutdown returns instead of blocking.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			hub.Publish(domain.UploadProgress{UploadID: "up-1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked after shutdown")
	}
}
