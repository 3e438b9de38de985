package attach

import "sync"

// mailbox queues work posted from other goroutines until the next Tick.
type mailbox struct {
	mu     sync.Mutex
	fns    []func()
	closed bool
}

// post queues fn. It reports false, dropping fn, once the mailbox is
// closed.
func (m *mailbox) post(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.fns = append(m.fns, fn)
	return true
}

// drain removes and returns everything queued so far.
func (m *mailbox) drain() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	fns := m.fns
	m.fns = nil
	return fns
}

func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.fns = nil
	m.mu.Unlock()
}

// Latch is a one-shot signal, suitable as a host ready channel.
type Latch struct {
	once sync.Once
	ch   chan struct{}
}

// NewLatch returns an unopened latch.
func NewLatch() *Latch {
	return &Latch{ch: make(chan struct{})}
}

// Open releases every waiter. Later calls do nothing.
func (l *Latch) Open() {
	l.once.Do(func() { close(l.ch) })
}

// Done returns the channel closed by Open.
func (l *Latch) Done() <-chan struct{} {
	return l.ch
}
