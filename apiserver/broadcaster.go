// Package apiserver exposes a running device's telemetry (display
// frames, PIO pin state, checkpoints) to remote host clients over HTTP
// and WebSocket, grounded on teacher package api/.
package apiserver

import "sync"

// EventType identifies the kind of telemetry a BroadcastEvent carries.
type EventType string

const (
	// EventTypeDisplay carries a redrawn text-display frame.
	EventTypeDisplay EventType = "display"
	// EventTypePIO carries PIOA/PIOB pin-state changes.
	EventTypePIO EventType = "pio"
	// EventTypeExecution carries engine lifecycle events (halted, error).
	EventTypeExecution EventType = "event"
)

// BroadcastEvent is one message pushed to subscribed WebSocket clients.
type BroadcastEvent struct {
	Type      EventType              `json:"type"`
	SessionID string                 `json:"sessionId"`
	Data      map[string]interface{} `json:"data"`
}

// Subscription is a client's filtered view onto the broadcaster.
type Subscription struct {
	SessionID  string
	EventTypes map[EventType]bool
	Channel    chan BroadcastEvent
}

// Broadcaster fans events out to every matching subscription, grounded
// directly on teacher api/broadcaster.go's register/unregister/broadcast
// channel loop.
type Broadcaster struct {
	mu            sync.RWMutex
	subscriptions map[*Subscription]bool
	broadcast     chan BroadcastEvent
	register      chan *Subscription
	unregister    chan *Subscription
	done          chan struct{}
}

// NewBroadcaster starts a broadcaster's event loop in the background.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscriptions: make(map[*Subscription]bool),
		broadcast:     make(chan BroadcastEvent, 256),
		register:      make(chan *Subscription),
		unregister:    make(chan *Subscription),
		done:          make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster) run() {
	for {
		select {
		case sub := <-b.register:
			b.mu.Lock()
			b.subscriptions[sub] = true
			b.mu.Unlock()

		case sub := <-b.unregister:
			b.mu.Lock()
			if b.subscriptions[sub] {
				delete(b.subscriptions, sub)
				close(sub.Channel)
			}
			b.mu.Unlock()

		case event := <-b.broadcast:
			b.mu.RLock()
			for sub := range b.subscriptions {
				if sub.SessionID != "" && sub.SessionID != event.SessionID {
					continue
				}
				if len(sub.EventTypes) > 0 && !sub.EventTypes[event.Type] {
					continue
				}
				select {
				case sub.Channel <- event:
				default:
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			b.mu.Lock()
			for sub := range b.subscriptions {
				close(sub.Channel)
			}
			b.subscriptions = make(map[*Subscription]bool)
			b.mu.Unlock()
			return
		}
	}
}

// Subscribe registers a new filtered subscription.
func (b *Broadcaster) Subscribe(sessionID string, eventTypes []EventType) *Subscription {
	eventTypeMap := make(map[EventType]bool)
	for _, et := range eventTypes {
		eventTypeMap[et] = true
	}
	sub := &Subscription{
		SessionID:  sessionID,
		EventTypes: eventTypeMap,
		Channel:    make(chan BroadcastEvent, 64),
	}
	b.register <- sub
	return sub
}

// Unsubscribe removes sub and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.unregister <- sub
}

// Broadcast enqueues event for fan-out, dropping it if the broadcaster
// is overwhelmed rather than blocking the caller.
func (b *Broadcaster) Broadcast(event BroadcastEvent) {
	select {
	case b.broadcast <- event:
	default:
	}
}

// BroadcastDisplay sends a redrawn display frame.
func (b *Broadcaster) BroadcastDisplay(sessionID string, frame string) {
	b.Broadcast(BroadcastEvent{
		Type:      EventTypeDisplay,
		SessionID: sessionID,
		Data:      map[string]interface{}{"frame": frame},
	})
}

// BroadcastPIO sends PIOA/PIOB pin state: the output-data word of each
// bank (banks[1] and banks[3] of the PIO observer's array).
func (b *Broadcaster) BroadcastPIO(sessionID string, banks [4]uint32) {
	b.Broadcast(BroadcastEvent{
		Type:      EventTypePIO,
		SessionID: sessionID,
		Data: map[string]interface{}{
			"pioa": banks[1],
			"piob": banks[3],
		},
	})
}

// BroadcastExecutionEvent sends a named lifecycle event.
func (b *Broadcaster) BroadcastExecutionEvent(sessionID, eventName string, details map[string]interface{}) {
	data := map[string]interface{}{"event": eventName}
	for k, v := range details {
		data[k] = v
	}
	b.Broadcast(BroadcastEvent{Type: EventTypeExecution, SessionID: sessionID, Data: data})
}

// Close shuts the broadcaster down, closing every subscription.
func (b *Broadcaster) Close() {
	close(b.done)
}

// SubscriptionCount reports how many clients are currently subscribed.
func (b *Broadcaster) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}
