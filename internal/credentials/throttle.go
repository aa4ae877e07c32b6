package credentials

import (
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
)

const (
	// throttleWindow bounds how often a single key's last-used-at is
	// persisted to the credential store (§4.3).
	throttleWindow = 15 * time.Minute

	// evictAfter is the age at which a throttle entry is considered stale
	// and eligible for eviction — 2x the throttle window, per §4.3.
	evictAfter = 2 * throttleWindow

	// evictSizeThreshold triggers an eviction pass once the map grows
	// beyond this many entries, rather than waiting on the periodic
	// janitor alone.
	evictSizeThreshold = 1000
)

// Throttle is the narrow interface the registry uses to decide whether a
// last-used-at update should be persisted (§9's "Throttle map as
// process-wide mutable state" design note): the storage strategy behind it
// can change without touching callers.
type Throttle interface {
	// TryRecordUse reports whether this call should trigger a persisted
	// last-used-at update for keyID — true at most once per
	// throttleWindow per key.
	TryRecordUse(keyID string) (shouldPersist bool)
}

// mapThrottle is a patrickmn/go-cache backed Throttle: a TTL cache is
// exactly the "evict stale entries" policy §4.3 describes, with the
// eviction age decoupled from the throttle window itself.
type mapThrottle struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewThrottle builds the process-wide throttle map. It holds no secret
// material (§4.3) and may be safely discarded on restart.
func NewThrottle() Throttle {
	return &mapThrottle{
		cache: cache.New(evictAfter, evictAfter),
	}
}

func (t *mapThrottle) TryRecordUse(keyID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if last, found := t.cache.Get(keyID); found {
		if time.Since(last.(time.Time)) < throttleWindow {
			return false
		}
	}

	t.cache.Set(keyID, time.Now(), evictAfter)

	if t.cache.ItemCount() > evictSizeThreshold {
		t.cache.DeleteExpired()
	}

	return true
}
