// Package pubsub provides a small fan-out publisher used to broadcast
// session events to any number of subscribers.
package pubsub

import (
	"errors"
	"sync"
)

var ErrPublisherClosed = errors.New("publisher closed")

type Sender[T any] interface {
	// Send attempts to deliver a message, returning false if the receiver is
	// closed or full.
	Send(T) bool
}

type Receiver[T any] interface {
	Receive() <-chan T
}

type Closer interface {
	Close()
}

type ReceiverCloser[T any] interface {
	Receiver[T]
	Closer
}

// Publisher broadcasts each sent message to every live subscriber.
type Publisher[T any] interface {
	Sender[T]
	Closer
	Subscribe() (ReceiverCloser[T], error)
	SubscribeBufSize(int) (ReceiverCloser[T], error)
}

const DefaultSubscriberBufSize = 16

type publisher[T any] struct {
	mu          sync.Mutex
	subscribers map[*subscriber[T]]struct{}
	closed      bool
}

func NewPublisher[T any]() Publisher[T] {
	return &publisher[T]{subscribers: make(map[*subscriber[T]]struct{})}
}

// Send delivers msg to every subscriber without blocking; a subscriber whose
// buffer is full misses the message rather than stalling the publisher.
// Returns false if the publisher is closed.
func (p *publisher[T]) Send(msg T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	for s := range p.subscribers {
		if !s.send(msg) {
			delete(p.subscribers, s)
			s.closeLocked()
		}
	}
	return true
}

func (p *publisher[T]) Subscribe() (ReceiverCloser[T], error) {
	return p.SubscribeBufSize(DefaultSubscriberBufSize)
}

func (p *publisher[T]) SubscribeBufSize(bufSize int) (ReceiverCloser[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPublisherClosed
	}
	s := &subscriber[T]{pub: p, ch: make(chan T, bufSize)}
	p.subscribers[s] = struct{}{}
	return s, nil
}

// Close idempotently shuts down the publisher, closing all subscribers too.
func (p *publisher[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for s := range p.subscribers {
		s.closeLocked()
		delete(p.subscribers, s)
	}
}

func (p *publisher[T]) unsubscribe(s *subscriber[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.subscribers[s]; ok {
		delete(p.subscribers, s)
		s.closeLocked()
	}
}

type subscriber[T any] struct {
	pub    *publisher[T]
	ch     chan T
	closed bool
}

func (s *subscriber[T]) Receive() <-chan T {
	return s.ch
}

// send is called with the publisher lock held.
func (s *subscriber[T]) send(msg T) bool {
	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		// Subscriber stopped draining; drop it rather than block the
		// publisher.
		return false
	}
}

// closeLocked is called with the publisher lock held.
func (s *subscriber[T]) closeLocked() {
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Close detaches the subscriber from its publisher.
func (s *subscriber[T]) Close() {
	s.pub.unsubscribe(s)
}
