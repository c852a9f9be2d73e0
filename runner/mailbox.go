package runner

import "sync"

// mailbox is an unbounded event queue. put never blocks, so a spawner may
// emit events from inside Spawn or from any goroutine.
type mailbox struct {
	mu     sync.Mutex
	events []Event
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) put(ev Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// drain removes and returns every queued event in arrival order.
func (m *mailbox) drain() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := m.events
	m.events = nil
	return events
}
