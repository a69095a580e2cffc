// Package events allows for the registering and receiving of events.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Set of topics events are published under.
const (
	TopicLog   = "log"
	TopicBlock = "block"
	TopicVote  = "vote"
)

// Event represents a single frame delivered to a receiver.
type Event struct {
	Topic string    `json:"topic"`
	Time  time.Time `json:"time"`
	Data  any       `json:"data"`
}

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	m  map[string]chan []byte
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan []byte),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used
// to receive events.
func (evt *Events) Acquire(id string) <-chan []byte {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	// Since a message will be dropped if the websocket receiver is
	// not ready to receive, this arbitrary buffer should give the receiver
	// enough time to not lose a message. Websocket send could take long.
	const messageBuffer = 100

	evt.m[id] = make(chan []byte, messageBuffer)
	return evt.m[id]
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Send publishes the data under the topic as a JSON frame to every
// registered channel. Send will not block waiting for a receiver on any
// given channel.
func (evt *Events) Send(topic string, data any) error {
	frame, err := json.Marshal(Event{
		Topic: topic,
		Time:  time.Now().UTC(),
		Data:  data,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- frame:
		default:
		}
	}

	return nil
}

// Log publishes a formatted log line under the log topic. It can be used as
// an event handler for the blockchain packages.
func (evt *Events) Log(v string, args ...any) {
	evt.Send(TopicLog, fmt.Sprintf(v, args...))
}
