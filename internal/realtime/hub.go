// Package realtime fans out state-change notifications to subscribed
// connections. Channels are keyed by event id, plus one global channel
// for cross-event announcements. Delivery is best-effort: a slow
// subscriber's queue overflows and drops, it never blocks the publisher.
package realtime

import (
	"sync"

	"github.com/rs/zerolog"
)

// GlobalChannel carries system-wide announcements such as event creation.
const GlobalChannel = "global"

// Notification names published by the service layer.
const (
	EventCreated   = "event_created"
	EventUpdated   = "event_updated"
	EventEnded     = "event_ended"
	NewRequest     = "new_request"
	RequestUpdated = "request_updated"
)

// Message is the wire envelope delivered to subscribers.
type Message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// subscriberBuffer bounds each connection's outbound queue. Publishes to
// a full queue are dropped for that connection only.
const subscriberBuffer = 64

type subscriber struct {
	id     string
	global bool
	event  string // current event channel, empty when none
	out    chan Message
}

// Hub manages channel subscriptions and message distribution.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]*subscriber
	log  zerolog.Logger
}

// NewHub constructs an empty Hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[string]*subscriber),
		log:  logger,
	}
}

// Register adds a connection and returns its outbound message queue.
// The queue is closed by Unsubscribe. A freshly registered connection
// belongs to no channel until Subscribe is called.
func (h *Hub) Register(connID string) <-chan Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{id: connID, out: make(chan Message, subscriberBuffer)}
	h.subs[connID] = sub
	return sub.out
}

// Subscribe associates the connection with a channel. An event channel
// replaces any previous event channel (re-subscribing switches rooms);
// the global channel is joined independently of the event channel.
func (h *Hub) Subscribe(connID, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[connID]
	if !ok {
		return
	}
	if channel == GlobalChannel {
		sub.global = true
		return
	}
	sub.event = channel
}

// Unsubscribe removes all channel associations for a connection and
// closes its queue. Invoked on disconnect.
func (h *Hub) Unsubscribe(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subs[connID]
	if !ok {
		return
	}
	delete(h.subs, connID)
	close(sub.out)
}

// Publish delivers the payload to every subscriber of the channel, in
// publish order per connection. It never blocks: a full subscriber
// queue drops the message for that subscriber only.
func (h *Hub) Publish(channel, event string, payload any) {
	msg := Message{Event: event, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if !sub.onChannel(channel) {
			continue
		}
		select {
		case sub.out <- msg:
		default:
			h.log.Warn().
				Str("conn_id", sub.id).
				Str("channel", channel).
				Str("event", event).
				Msg("subscriber queue full, dropping message")
		}
	}
}

// SubscriberCount returns the number of connections on a channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, sub := range h.subs {
		if sub.onChannel(channel) {
			n++
		}
	}
	return n
}

func (s *subscriber) onChannel(channel string) bool {
	if channel == GlobalChannel {
		return s.global
	}
	return s.event == channel
}
