package config

import (
	"sync"
	"sync/atomic"
)

// Store is the process-wide, hot-reloadable config handle for shared
// mutable state: the custom-mapping table (reader-preferring lock) and the
// image_thinking_mode process-wide flag (atomic bool). The
// custom-mapping table itself lives in internal/registry, which already
// has its own reader-preferring lock; the onReload callback given to Watch
// pushes a fresh overlay into it, so Store does not duplicate that lock. image_thinking_mode is
// read on every image-gen chat request, so it gets its own atomic rather
// than sharing Store's config-snapshot lock.
type Store struct {
	mu  sync.RWMutex
	cfg *Config

	imageThinkingDisabled atomic.Bool
}

// NewStore wraps an already-loaded Config.
func NewStore(cfg *Config) *Store {
	s := &Store{cfg: cfg}
	s.imageThinkingDisabled.Store(cfg.ImageThinkingMode == "disabled")
	return s
}

// Get returns the current config snapshot. Callers must not mutate the
// returned value; Replace always swaps in a new *Config rather than
// editing one in place.
func (s *Store) Get() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ImageThinkingDisabled reports the current image_thinking_mode flag,
// lock-free since it sits on the request hot path.
func (s *Store) ImageThinkingDisabled() bool {
	return s.imageThinkingDisabled.Load()
}

// Replace swaps in a freshly-reloaded Config, called by Watch on a
// filesystem change.
func (s *Store) Replace(cfg *Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.imageThinkingDisabled.Store(cfg.ImageThinkingMode == "disabled")
}
