package syncutil

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestEvent(t *testing.T) {
	assert := assert_.New(t)
	var e Event

	assert.False(e.IsSet())
	select {
	case <-e.Wait():
		assert.Fail("wait channel should be open before Set")
	default:
	}

	assert.True(e.Set())
	assert.True(e.IsSet())
	select {
	case <-e.Wait():
	default:
		assert.Fail("wait channel should be closed after Set")
	}
	// Idempotent
	assert.False(e.Set())

	assert.True(e.Clear())
	assert.False(e.IsSet())
	assert.False(e.Clear())
	select {
	case <-e.Wait():
		assert.Fail("wait channel should be open again after Clear")
	default:
	}
}
