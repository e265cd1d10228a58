// Package sse streams catalog changes and export results to browsers as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/docfill/internal/models"
)

// Event is one message on the stream. Data is sent as JSON.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types.
const (
	TypeTemplateCreated = "template.created"
	TypeTemplateUpdated = "template.updated"
	TypeTemplateDeleted = "template.deleted"
	TypeCatalogUpdated  = "catalog.updated"
	TypeExportCompleted = "export.completed"
)

// clientBuffer is how many frames a slow client may lag before frames are
// dropped for it.
const clientBuffer = 64

var templateKinds = map[string]string{
	"created": TypeTemplateCreated,
	"updated": TypeTemplateUpdated,
	"deleted": TypeTemplateDeleted,
}

var catalogFrame = []byte("event: " + TypeCatalogUpdated + "\ndata: {}\n\n")

// clients is the state owned by the broker goroutine.
type clients struct {
	streams     map[chan []byte]struct{}
	lastCatalog time.Time
}

// fanOut queues frame on every stream that has room.
func (c *clients) fanOut(frame []byte) {
	for ch := range c.streams {
		select {
		case ch <- frame:
		default:
		}
	}
}

// Broker fans catalog and export events out to SSE clients. Every change
// to the client set and every broadcast is a closure run by one goroutine
// in submission order.
type Broker struct {
	catalogEvery time.Duration

	ops    chan func(*clients)
	quit   chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

// NewBroker starts a broker. However many templates change, catalog.updated
// goes out at most once per catalogEvery.
func NewBroker(catalogEvery time.Duration) *Broker {
	if catalogEvery <= 0 {
		catalogEvery = 2 * time.Second
	}
	b := &Broker{
		catalogEvery: catalogEvery,
		ops:          make(chan func(*clients)),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.done)
	c := &clients{streams: make(map[chan []byte]struct{})}
	for {
		select {
		case op := <-b.ops:
			op(c)
		case <-b.quit:
			for ch := range c.streams {
				close(ch)
			}
			return
		}
	}
}

// submit hands op to the broker goroutine. It reports false once the broker
// is closed.
func (b *Broker) submit(op func(*clients)) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case b.ops <- op:
		return true
	case <-b.done:
		return false
	}
}

// Close stops the broker and closes every client stream. It is safe to call
// more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.quit)
	}
	<-b.done
}

// Subscribe registers a client stream. The stream is already closed when
// the broker is.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if !b.submit(func(c *clients) { c.streams[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe drops a client stream and closes it.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.submit(func(c *clients) {
		if _, ok := c.streams[ch]; ok {
			delete(c.streams, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	n := make(chan int, 1)
	if !b.submit(func(c *clients) { n <- len(c.streams) }) {
		return 0
	}
	return <-n
}

// Publish broadcasts ev. Events whose data cannot be encoded are dropped.
func (b *Broker) Publish(ev Event) {
	frame, err := encodeFrame(ev)
	if err != nil {
		return
	}
	b.submit(func(c *clients) { c.fanOut(frame) })
}

// PublishTemplateEvent announces that a template was created, updated or
// deleted, followed by catalog.updated unless one went out recently. Other
// kinds are ignored.
func (b *Broker) PublishTemplateEvent(kind, name string) {
	typ, ok := templateKinds[kind]
	if !ok {
		return
	}
	frame, err := encodeFrame(Event{Type: typ, Data: map[string]string{"name": name}})
	if err != nil {
		return
	}
	b.submit(func(c *clients) {
		c.fanOut(frame)
		if now := time.Now(); now.Sub(c.lastCatalog) >= b.catalogEvery {
			c.lastCatalog = now
			c.fanOut(catalogFrame)
		}
	})
}

// PublishExport announces a finished export, successful or not.
func (b *Broker) PublishExport(rec models.ExportRecord) {
	b.Publish(Event{Type: TypeExportCompleted, Data: rec})
}

func encodeFrame(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.Type, data)), nil
}

// ServeHTTP streams events to one client until it disconnects or the broker
// closes (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	stream := b.Subscribe()
	defer b.Unsubscribe(stream)

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, open := <-stream:
			if !open {
				return
			}
			_, _ = w.Write(frame)
			flusher.Flush()
		}
	}
}
