package storage

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type fakeMirror struct {
	failures int32
	calls    atomic.Int32
}

func (f *fakeMirror) MirrorAvatar(_ context.Context, clerkID, _ string) (string, error) {
	if f.calls.Add(1) <= f.failures {
		return "", errors.New("transient")
	}
	return "https://cdn.example.com/avatars/" + clerkID + ".png", nil
}

type fakeURLWriter struct {
	urls chan string
}

func (f *fakeURLWriter) SetAvatarURL(_ context.Context, _, url string) error {
	f.urls <- url
	return nil
}

func TestMirrorQueue_WritesMirroredURL(t *testing.T) {
	mirror := &fakeMirror{}
	urls := &fakeURLWriter{urls: make(chan string, 1)}

	q := NewMirrorQueue(slog.New(slog.DiscardHandler), mirror, urls)
	q.Start()
	defer q.Stop()

	q.Enqueue("u1", "https://img.clerk.com/u1")

	select {
	case url := <-urls.urls:
		if url != "https://cdn.example.com/avatars/u1.png" {
			t.Errorf("unexpected mirrored url %q", url)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("mirrored url never written")
	}
}

func TestMirrorQueue_RetriesTransientFailure(t *testing.T) {
	mirror := &fakeMirror{failures: 1}
	urls := &fakeURLWriter{urls: make(chan string, 1)}

	q := NewMirrorQueue(slog.New(slog.DiscardHandler), mirror, urls)
	q.Start()
	defer q.Stop()

	q.Enqueue("u2", "https://img.clerk.com/u2")

	select {
	case <-urls.urls:
		if got := mirror.calls.Load(); got != 2 {
			t.Errorf("expected 2 mirror attempts, got %d", got)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("mirror never succeeded after retry")
	}
}
