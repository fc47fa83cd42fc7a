package pool

import (
	"sync"
	"time"
)

const stripeCount = 32

// bindingTable is a striped map of (sid, model_family) -> bound account id
// with per-entry TTL expiry, used by AccountPool.Pick/Bind to implement
// sticky session scheduling. Striping keeps the
// hot path — one pick per request — from serializing on a single mutex
// under concurrent load, mirroring the teacher's cleanup-goroutine registry
// shape without needing a background sweep: expired entries are simply
// treated as absent and overwritten lazily on next bind.
type bindingTable struct {
	stripes [stripeCount]*bindingStripe
}

type bindingStripe struct {
	mu      sync.Mutex
	entries map[string]bindingEntry
}

type bindingEntry struct {
	accountID string
	expiresAt time.Time
}

func newBindingTable() *bindingTable {
	t := &bindingTable{}
	for i := range t.stripes {
		t.stripes[i] = &bindingStripe{entries: make(map[string]bindingEntry)}
	}
	return t
}

func bindingKey(sid, modelFamily string) string { return sid + "\x00" + modelFamily }

func (t *bindingTable) stripeFor(key string) *bindingStripe {
	var h uint32
	for i := 0; i < len(key); i++ {
		h = h*31 + uint32(key[i])
	}
	return t.stripes[h%stripeCount]
}

// get returns the bound account id for (sid, modelFamily), or "" if absent
// or expired.
func (t *bindingTable) get(sid, modelFamily string) string {
	key := bindingKey(sid, modelFamily)
	s := t.stripeFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return ""
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, key)
		return ""
	}
	return e.accountID
}

// set records a sticky binding with the given TTL.
func (t *bindingTable) set(sid, modelFamily, accountID string, ttl time.Duration) {
	key := bindingKey(sid, modelFamily)
	s := t.stripeFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = bindingEntry{accountID: accountID, expiresAt: time.Now().Add(ttl)}
}

// delete removes a sticky binding, if present.
func (t *bindingTable) delete(sid, modelFamily string) {
	key := bindingKey(sid, modelFamily)
	s := t.stripeFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}
