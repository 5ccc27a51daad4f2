package dispatch

import (
	"log/slog"
	"sync"

	"github.com/openoption/blitzws/internal/protocol"
)

// maxUnwrapDepth bounds recursive envelope unwrapping so a malformed
// self-nesting frame cannot recurse forever.
const maxUnwrapDepth = 4

// Handler receives a dispatched message for one event name.
type Handler func(msg *protocol.Message)

// Subscription is the handle returned by Subscribe. Closures are not
// comparable in Go, so removal goes through the handle, never through
// callback identity.
type Subscription struct {
	d     *Dispatcher
	event string
	id    uint64
}

// Cancel removes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil || s.d == nil {
		return
	}
	s.d.unsubscribe(s.event, s.id)
	s.d = nil
}

type subscriber struct {
	id uint64
	fn Handler
}

// Dispatcher correlates responses to pending requests and fans out named
// events to subscribers.
type Dispatcher struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]chan *protocol.Message
	subs    map[string][]subscriber
	nextID  uint64
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger:  logger,
		pending: make(map[string]chan *protocol.Message),
		subs:    make(map[string][]subscriber),
	}
}

// CreatePending registers a completion handle for a correlation id. The
// returned channel receives at most one message. Callers must not reuse a
// live correlation id.
func (d *Dispatcher) CreatePending(reqID string) <-chan *protocol.Message {
	ch := make(chan *protocol.Message, 1)
	d.mu.Lock()
	d.pending[reqID] = ch
	d.mu.Unlock()
	return ch
}

// CancelPending removes a completion handle, typically after a timeout,
// so a delayed response cannot reach a stale waiter.
func (d *Dispatcher) CancelPending(reqID string) {
	d.mu.Lock()
	delete(d.pending, reqID)
	d.mu.Unlock()
}

// PendingCount reports outstanding correlation handles.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Subscribe adds a handler for an event name. Handlers for the same name
// run in registration order.
func (d *Dispatcher) Subscribe(event string, fn Handler) *Subscription {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.subs[event] = append(d.subs[event], subscriber{id: id, fn: fn})
	d.mu.Unlock()

	return &Subscription{d: d, event: event, id: id}
}

func (d *Dispatcher) unsubscribe(event string, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := d.subs[event]
	for i, sub := range list {
		if sub.id == id {
			d.subs[event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(d.subs[event]) == 0 {
		delete(d.subs, event)
	}
}

// Dispatch routes one inbound message: fulfill a matching pending request,
// fan out to subscribers of the event name, then unwrap a generic
// envelope and repeat. Correlation and fan-out both fire for the same
// message.
func (d *Dispatcher) Dispatch(msg *protocol.Message) {
	d.dispatch(msg, 0)
}

func (d *Dispatcher) dispatch(msg *protocol.Message, depth int) {
	if msg == nil || msg.Name == "" {
		return
	}

	// Remove-then-fulfill under one lock: at most one completion per id,
	// even if two messages echo the same correlation id.
	if reqID := string(msg.RequestID); reqID != "" {
		d.mu.Lock()
		ch, ok := d.pending[reqID]
		if ok {
			delete(d.pending, reqID)
		}
		d.mu.Unlock()
		if ok {
			ch <- msg // buffered, never blocks
		}
	}

	// Snapshot subscribers, then run them off the dispatch path so a slow
	// handler cannot stall subsequent inbound messages.
	d.mu.Lock()
	list := d.subs[msg.Name]
	snapshot := make([]subscriber, len(list))
	copy(snapshot, list)
	d.mu.Unlock()

	if len(snapshot) > 0 {
		go d.invoke(msg.Name, snapshot, msg)
	}

	// Generic envelope: push events sometimes arrive one level deeper.
	if msg.Name == protocol.NameSendMessage && depth < maxUnwrapDepth {
		if inner := msg.Inner(); inner != nil {
			d.dispatch(inner, depth+1)
		}
	}
}

// invoke runs one event's subscribers in registration order. A panic in
// one subscriber is isolated from the rest.
func (d *Dispatcher) invoke(event string, subs []subscriber, msg *protocol.Message) {
	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("subscriber panicked", "event", event, "panic", r)
				}
			}()
			sub.fn(msg)
		}()
	}
}
