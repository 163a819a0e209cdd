package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe(1)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe(1)
	defer b.Unsubscribe(ch)

	b.PublishDocumentEnriched(1, 42, "report.pdf")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: document.enriched") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"filename":"report.pdf"`) {
			t.Errorf("missing data in %q", s)
		}
		if !strings.Contains(s, `"id":42`) {
			t.Errorf("missing document id in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishScopedToOwner(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	mine := b.Subscribe(1)
	theirs := b.Subscribe(2)
	defer b.Unsubscribe(mine)
	defer b.Unsubscribe(theirs)

	b.Publish(1, Event{Type: "document.enriched", Data: map[string]int{"id": 7}})

	select {
	case <-mine:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for owner's event")
	}

	select {
	case msg := <-theirs:
		t.Fatalf("event leaked to another account: %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.Stream(w, req, 1)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishDocumentEnriched(1, 5, "notes.txt")
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: document.enriched") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe(1)
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then some; must not block.
	for i := 0; i < 70; i++ {
		b.Publish(1, Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(1)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Safe no-ops after close.
	b.Publish(1, Event{Type: "document.enriched", Data: map[string]int{"id": 1}})
	b.PublishDocumentEnriched(1, 2, "x.txt")
}
