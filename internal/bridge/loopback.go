package bridge

import "sync"

// Loopback is an in-process Transport for tests and simulations: it records
// every sent message and lets the other side push responses in.
type Loopback struct {
	mu        sync.Mutex
	sent      []Message
	rx        chan Message
	closed    bool
	closeOnce sync.Once

	// OnSend, when set, is invoked synchronously for every sent message; it
	// can push responses back via Push.
	OnSend func(Message)
}

var _ Transport = (*Loopback)(nil)

func NewLoopback() *Loopback {
	return &Loopback{rx: make(chan Message, receiveBufSize)}
}

func (l *Loopback) Send(msg Message) error {
	l.mu.Lock()
	l.sent = append(l.sent, msg)
	onSend := l.OnSend
	l.mu.Unlock()
	if onSend != nil {
		onSend(msg)
	}
	return nil
}

// Push delivers a message to the receiving side, as the helper would.
func (l *Loopback) Push(msg Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.rx <- msg
}

func (l *Loopback) Receive() <-chan Message {
	return l.rx
}

func (l *Loopback) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.closed = true
		close(l.rx)
	})
}

// Sent returns a copy of every message sent so far.
func (l *Loopback) Sent() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.sent))
	copy(out, l.sent)
	return out
}
