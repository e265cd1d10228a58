package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/docfill/internal/models"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeTemplateCreated, Data: map[string]string{"name": "letter"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: template.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"name":"letter"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishTemplateEvent_CatalogThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event should trigger catalog.updated.
	b.PublishTemplateEvent("created", "a")
	// Second event immediately should NOT trigger another catalog.updated.
	b.PublishTemplateEvent("updated", "b")

	// Drain and count events.
	time.Sleep(50 * time.Millisecond)
	catalogCount := 0
	templateCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "catalog.updated") {
				catalogCount++
			} else {
				templateCount++
			}
		default:
			break loop
		}
	}

	if templateCount != 2 {
		t.Errorf("template events = %d, want 2", templateCount)
	}
	if catalogCount != 1 {
		t.Errorf("catalog events = %d, want 1 (throttled)", catalogCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: TypeTemplateUpdated, Data: map[string]string{"name": "x"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: template.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
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

	// Should be safe no-op after close.
	b.Publish(Event{Type: TypeTemplateUpdated, Data: map[string]string{"name": "x"}})
	b.PublishTemplateEvent("updated", "x")
	b.PublishExport(models.ExportRecord{ID: "1"})
}

func TestPublishTemplateEvent_UnknownKindIgnored(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishTemplateEvent("renamed", "x")
	b.Publish(Event{Type: "marker", Data: map[string]string{}})

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: marker") {
			t.Errorf("unexpected event before marker: %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for marker")
	}
}

func TestPublishExport(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishExport(models.ExportRecord{ID: "e1", Template: "letter", Format: "pdf", OK: true})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: export.completed") || !strings.Contains(s, `"id":"e1"`) {
			t.Errorf("unexpected message %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for export event")
	}
}

func TestEventsKeepSubmissionOrder(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "first", Data: map[string]string{}})
	b.PublishTemplateEvent("deleted", "letter")
	b.PublishExport(models.ExportRecord{ID: "e1"})

	want := []string{"event: first", "event: template.deleted", "event: catalog.updated", "event: export.completed"}
	for _, prefix := range want {
		select {
		case msg := <-ch:
			if !strings.HasPrefix(string(msg), prefix) {
				t.Errorf("got %q, want prefix %q", msg, prefix)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %q", prefix)
		}
	}
}
