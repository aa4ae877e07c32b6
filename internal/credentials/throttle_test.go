package credentials

import (
	"testing"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
)

func TestMapThrottle_FirstCallPersists(t *testing.T) {
	th := NewThrottle()
	assert.True(t, th.TryRecordUse("key_1"))
}

func TestMapThrottle_SubsequentCallsWithinWindowDoNotPersist(t *testing.T) {
	th := NewThrottle()
	assert.True(t, th.TryRecordUse("key_1"))

	for i := 0; i < 5; i++ {
		assert.False(t, th.TryRecordUse("key_1"), "calls within the throttle window must not persist")
	}
}

func TestMapThrottle_IndependentPerKey(t *testing.T) {
	th := NewThrottle()
	assert.True(t, th.TryRecordUse("key_1"))
	assert.True(t, th.TryRecordUse("key_2"), "a different key's throttle state is independent")
}

// TestMapThrottle_PersistsAgainAfterWindow exercises the throttle's
// internal logic directly rather than sleeping 15 minutes: it manipulates
// the underlying cache entry's age via the same mapThrottle type.
func TestMapThrottle_PersistsAgainAfterWindow(t *testing.T) {
	mt := &mapThrottle{cache: cache.New(evictAfter, evictAfter)}
	assert.True(t, mt.TryRecordUse("key_1"))
	assert.False(t, mt.TryRecordUse("key_1"))

	// Backdate the recorded use past the throttle window.
	mt.cache.Set("key_1", time.Now().Add(-throttleWindow-time.Second), evictAfter)
	assert.True(t, mt.TryRecordUse("key_1"), "a call after the window elapses should persist again")
}

func TestMapThrottle_NoConcurrentDataRace(t *testing.T) {
	th := NewThrottle()
	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func(n int) {
			th.TryRecordUse("shared_key")
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 20; i++ {
		<-done
	}
}
