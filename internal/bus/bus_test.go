package bus

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"streamnova/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishSubscribe(t *testing.T) {
	b := New(4, testLogger())
	defer b.Close()

	b.Publish(domain.ChatMessage{ID: "m1", Author: "alice", Text: "hi"})
	b.Publish(domain.ChatMessage{ID: "m2", Author: "bob", Text: "yo"})

	got := <-b.Subscribe()
	if got.ID != "m1" {
		t.Fatalf("expected m1 first, got %s", got.ID)
	}
	got = <-b.Subscribe()
	if got.ID != "m2" {
		t.Fatalf("expected m2 second, got %s", got.ID)
	}
}

func TestCloseClosesChannel(t *testing.T) {
	b := New(1, testLogger())
	b.Close()

	select {
	case _, ok := <-b.Subscribe():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestPublishAfterCloseDoesNotPanic(t *testing.T) {
	b := New(1, testLogger())
	b.Close()
	b.Publish(domain.ChatMessage{ID: "late"})
}

func TestPublishBlocksWhenFullThenDelivers(t *testing.T) {
	b := New(1, testLogger())
	defer b.Close()

	b.Publish(domain.ChatMessage{ID: "first"})

	done := make(chan struct{})
	go func() {
		b.Publish(domain.ChatMessage{ID: "second"})
		close(done)
	}()

	// Drain one so the blocked publish completes.
	time.Sleep(50 * time.Millisecond)
	if got := <-b.Subscribe(); got.ID != "first" {
		t.Fatalf("expected first, got %s", got.ID)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("blocked publish never completed")
	}
	if got := <-b.Subscribe(); got.ID != "second" {
		t.Fatalf("expected second, got %s", got.ID)
	}
}
