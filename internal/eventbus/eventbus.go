// Package eventbus fans simulation events (packet progress, link
// toggles, epoch ticks) out to any number of SSE subscribers. Each
// subscriber gets its own bounded queue; a slow reader only drops its
// own frames and never blocks the broadcaster or other subscribers.
package eventbus

import (
	"encoding/json"
	"fmt"
	"sync"
)

// queueCapacity bounds each subscriber's pending-frame buffer. Once
// full, new frames for that subscriber are dropped rather than
// blocking the broadcaster.
const queueCapacity = 64

// Event is a single fact broadcast to every subscriber. Type becomes
// the SSE "event:" line; the whole struct (including Type) is
// marshaled as the "data:" line, matching the controller's own
// dict-with-"type"-key event shape.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"-"`
}

// MarshalJSON flattens Data's fields alongside Type so the wire shape
// matches a single JSON object, not a nested one.
func (e Event) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("eventbus: marshal event data: %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("eventbus: event data must marshal to a JSON object: %w", err)
	}
	fields["type"] = e.Type

	return json.Marshal(fields)
}

// Subscriber is one SSE client's frame queue.
type Subscriber struct {
	frames chan []byte
}

// Frames exposes the subscriber's read side so an HTTP handler can
// range over it until the client disconnects.
func (s *Subscriber) Frames() <-chan []byte {
	return s.frames
}

// Bus is the process-wide event fabric. The zero value is not usable;
// construct with New.
type Bus struct {
	mu          sync.Mutex
	subscribers map[*Subscriber]struct{}
	onDrop      func()
}

// New builds an empty Bus. onDrop, if non-nil, is called once for
// every frame dropped because a subscriber's queue was full; callers
// typically wire this to a dropped-frames counter.
func New(onDrop func()) *Bus {
	return &Bus{subscribers: make(map[*Subscriber]struct{}), onDrop: onDrop}
}

// Subscribe registers a new subscriber with an empty queue.
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{frames: make(chan []byte, queueCapacity)}
	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber; its queue is left to be
// garbage-collected once any in-flight sends drain.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	delete(b.subscribers, sub)
	b.mu.Unlock()
}

// Count returns the current number of subscribers.
func (b *Bus) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Publish encodes evt as an SSE frame and offers it to every current
// subscriber without blocking: a subscriber whose queue is full has
// this frame dropped for it alone.
func (b *Bus) Publish(evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("eventbus: encode event: %w", err)
	}
	frame := EncodeFrame(evt.Type, data)

	b.mu.Lock()
	subs := make([]*Subscriber, 0, len(b.subscribers))
	for s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		select {
		case s.frames <- frame:
		default:
			if b.onDrop != nil {
				b.onDrop()
			}
		}
	}
	return nil
}

// EncodeFrame renders a single SSE "event:"/"data:" frame. eventType
// defaults to "message" when empty, matching the source event fabric's
// own fallback.
func EncodeFrame(eventType string, data []byte) []byte {
	if eventType == "" {
		eventType = "message"
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, data))
}

// KeepaliveFrame is sent when no event arrives within the subscriber's
// read timeout, keeping idle HTTP connections and proxies alive.
var KeepaliveFrame = []byte(":keepalive\n\n")

// WelcomeFrame is sent immediately on subscribe, before any real event,
// so clients can detect a live connection right away.
var WelcomeFrame = []byte(":ok\n\n")
