package client

import "sync"

type subscriber struct {
	id      int
	handler func(AuthEvent)
}

// eventHub fans AuthEvents out to subscribers from a single dispatcher
// goroutine, so handlers observe events in publication order. publish never
// blocks; it may be called while holding other locks.
type eventHub struct {
	mu      sync.Mutex
	nextID  int
	subs    []subscriber
	pending []AuthEvent
	closed  bool

	wake      chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func newEventHub() *eventHub {
	h := &eventHub{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *eventHub) subscribe(handler func(AuthEvent)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscriber{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

func (h *eventHub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

// publish queues ev. Events published after close are dropped.
func (h *eventHub) publish(ev AuthEvent) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.pending = append(h.pending, ev)
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *eventHub) run() {
	defer close(h.stopped)
	for {
		select {
		case <-h.wake:
			h.drain()
		case <-h.done:
			return
		}
	}
}

func (h *eventHub) drain() {
	for {
		h.mu.Lock()
		if len(h.pending) == 0 || h.closed {
			h.mu.Unlock()
			return
		}
		ev := h.pending[0]
		h.pending = h.pending[1:]
		subs := make([]subscriber, len(h.subs))
		copy(subs, h.subs)
		h.mu.Unlock()

		for _, s := range subs {
			s.handler(ev)
		}
	}
}

func (h *eventHub) close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		h.closed = true
		h.pending = nil
		h.mu.Unlock()

		close(h.done)
		<-h.stopped
	})
}
