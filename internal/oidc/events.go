package oidc

import (
	"sync"
	"time"
)

// EventKind enumerates the lifecycle events a Client publishes.
type EventKind int

const (
	// EventUnknown carries events without a dedicated kind. Name tells them apart.
	EventUnknown EventKind = iota
	EventTokenAcquired
	EventTokenRenewed
	EventLoginCallbackBegin
	EventLoginCallbackEnd
	EventRefreshBegin
	EventRefreshEnd
	EventTimerTick
	EventLoginCallbackError
	EventLogoutFromAnotherTab
	EventRefreshError
)

var eventNames = map[EventKind]string{
	EventUnknown:              "unknown",
	EventTokenAcquired:        "token_acquired",
	EventTokenRenewed:         "token_renewed",
	EventLoginCallbackBegin:   "login_callback_begin",
	EventLoginCallbackEnd:     "login_callback_end",
	EventRefreshBegin:         "refresh_tokens_begin",
	EventRefreshEnd:           "refresh_tokens_end",
	EventTimerTick:            "token_timer",
	EventLoginCallbackError:   "login_callback_error",
	EventLogoutFromAnotherTab: "logout_from_another_tab",
	EventRefreshError:         "refresh_tokens_error",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is a lifecycle notification.
type Event struct {
	Kind EventKind
	// Name is the event name. For known kinds it equals Kind.String().
	Name string
	// Claims are the identity claims for token events.
	Claims Claims
	// Err is set for error events.
	Err error
	// TimeLeft is the remaining access token lifetime for timer ticks.
	TimeLeft time.Duration
	At       time.Time
}

// Handler receives events in publish order. It must not call Client
// operations that publish events themselves.
type Handler func(Event)

type dispatcher struct {
	mu       sync.Mutex
	dispatch sync.Mutex
	nextID   int
	handlers map[int]Handler
}

func (d *dispatcher) subscribe(h Handler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handlers == nil {
		d.handlers = make(map[int]Handler)
	}
	d.nextID++
	id := d.nextID
	d.handlers[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.handlers, id)
			d.mu.Unlock()
		})
	}
}

func (d *dispatcher) publish(e Event) {
	if e.Name == "" {
		e.Name = e.Kind.String()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	d.mu.Lock()
	handlers := make([]Handler, 0, len(d.handlers))
	// Subscription order.
	for i := 1; i <= d.nextID; i++ {
		if h, ok := d.handlers[i]; ok {
			handlers = append(handlers, h)
		}
	}
	d.mu.Unlock()

	d.dispatch.Lock()
	defer d.dispatch.Unlock()
	for _, h := range handlers {
		h(e)
	}
}
