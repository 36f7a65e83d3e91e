// Package events fans out the mining and storage events of the ledger to
// any number of subscribers, such as websocket clients. Every event is
// stamped with a sequence number so a subscriber can tell when it missed
// events it was too slow to receive.
package events

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// subscriberBuffer is the number of events held for a subscriber that is
// slow to receive. Events beyond it are dropped for that subscriber.
const subscriberBuffer = 100

// Event is a single message raised while the ledger mines or writes blocks.
type Event struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Source  string    `json:"source"`
	Message string    `json:"message"`
}

// subscriber holds the channel of a subscriber and the number of events
// dropped because its buffer was full.
type subscriber struct {
	ch      chan Event
	dropped uint64
}

// Events maintains the set of subscribers keyed by id.
type Events struct {
	mu   sync.Mutex
	seq  uint64
	subs map[string]*subscriber
}

// New constructs an events value for registering and receiving events.
func New() *Events {
	return &Events{
		subs: make(map[string]*subscriber),
	}
}

// Subscribe registers the subscriber id and returns the channel its events
// are delivered on. Subscribing an id twice returns the same channel.
func (evt *Events) Subscribe(id string) <-chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.subs[id]; exists {
		return sub.ch
	}

	sub := subscriber{ch: make(chan Event, subscriberBuffer)}
	evt.subs[id] = &sub

	return sub.ch
}

// Unsubscribe closes and removes the channel of the subscriber id.
func (evt *Events) Unsubscribe(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("subscriber %q does not exist", id)
	}

	delete(evt.subs, id)
	close(sub.ch)

	return nil
}

// Subscribers returns the number of registered subscribers.
func (evt *Events) Subscribers() int {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	return len(evt.subs)
}

// Dropped returns the number of events the subscriber missed.
func (evt *Events) Dropped(id string) uint64 {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.subs[id]; exists {
		return sub.dropped
	}

	return 0
}

// Publish stamps the message as the next event and delivers it to every
// subscriber. Publish never blocks, an event is dropped for a subscriber
// whose buffer is full.
func (evt *Events) Publish(msg string) Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	evt.seq++
	e := Event{
		Seq:     evt.seq,
		Time:    time.Now().UTC(),
		Source:  source(msg),
		Message: msg,
	}

	for _, sub := range evt.subs {
		select {
		case sub.ch <- e:
		default:
			sub.dropped++
		}
	}

	return e
}

// Shutdown closes and removes every subscriber channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.subs {
		delete(evt.subs, id)
		close(sub.ch)
	}
}

// source returns the package that raised the message. Ledger messages are
// of the form "database: POW: MINING: ...".
func source(msg string) string {
	src, _, ok := strings.Cut(msg, ":")
	if !ok {
		return ""
	}

	return src
}
