package pubsub

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

var _ Publisher[int] = &publisher[int]{}

func TestPublisher(t *testing.T) {
	assert := assert_.New(t)
	pub := NewPublisher[int]()

	// Sending with no subscribers should just succeed
	assert.True(pub.Send(1))

	// A subscriber should see messages sent after it subscribed
	s1, err := pub.Subscribe()
	assert.Nil(err)
	select {
	case <-s1.Receive():
		assert.Fail("subscriber should be waiting")
	default:
	}
	assert.True(pub.Send(2))
	assert.Equal(2, <-s1.Receive())

	// Two subscribers should both get the same value
	s2, err := pub.Subscribe()
	assert.Nil(err)
	assert.True(pub.Send(3))
	assert.Equal(3, <-s1.Receive())
	assert.Equal(3, <-s2.Receive())

	// Once one subscriber is closed, the other still receives
	s1.Close()
	assert.True(pub.Send(4))
	_, ok := <-s1.Receive()
	assert.False(ok, "expected closed subscriber channel")
	assert.Equal(4, <-s2.Receive())
	// Closing should be idempotent
	s1.Close()

	// Once the publisher is closed, subscribing or sending should fail
	pub.Close()
	_, err = pub.Subscribe()
	assert.Equal(ErrPublisherClosed, err)
	assert.False(pub.Send(5))
	_, ok = <-s2.Receive()
	assert.False(ok, "expected subscriber to be closed by publisher")
	pub.Close()
}

func TestPublisher_SlowSubscriberDropped(t *testing.T) {
	assert := assert_.New(t)
	pub := NewPublisher[int]()

	s, err := pub.SubscribeBufSize(1)
	assert.Nil(err)
	assert.True(pub.Send(1))
	// Buffer now full; the next send overflows this subscriber and detaches it
	assert.True(pub.Send(2))
	assert.Equal(1, <-s.Receive())
	_, ok := <-s.Receive()
	assert.False(ok, "expected overflowing subscriber to be closed")
}
