package bot

import (
	"sync"
	"time"
)

// ModeAwaitingSimpleTitle marks a chat whose next free-text message should
// be taken as a new task's title.
const ModeAwaitingSimpleTitle = "awaiting_simple_title"

// DefaultModeTTL is how long an unconsumed conversation mode survives.
const DefaultModeTTL = time.Hour

// ModeStore records the ephemeral conversation mode per chat. At most one
// mode exists per chat; setting a new mode overwrites any prior one.
type ModeStore interface {
	// Set records the mode for a chat, replacing any existing entry.
	Set(chatID int64, mode string)

	// Consume atomically removes and returns the chat's pending mode.
	// Expired or absent entries report a miss. A mode is observed at most
	// once across concurrent consumers.
	Consume(chatID int64) (string, bool)
}

type modeEntry struct {
	mode      string
	expiresAt time.Time
}

// MemoryModeStore is an in-process ModeStore with expiry. The clock is
// injectable for deterministic tests.
type MemoryModeStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]modeEntry
}

// MemoryModeStoreOpts holds parameters for creating a MemoryModeStore.
type MemoryModeStoreOpts struct {
	TTL time.Duration    // defaults to DefaultModeTTL
	Now func() time.Time // defaults to time.Now
}

// NewMemoryModeStore creates a MemoryModeStore.
func NewMemoryModeStore(opts MemoryModeStoreOpts) *MemoryModeStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultModeTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &MemoryModeStore{
		ttl:     ttl,
		now:     now,
		entries: make(map[int64]modeEntry),
	}
}

// Set records the mode for a chat, replacing any existing entry.
func (s *MemoryModeStore) Set(chatID int64, mode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[chatID] = modeEntry{mode: mode, expiresAt: s.now().Add(s.ttl)}
}

// Consume removes and returns the chat's pending mode under a single lock,
// so two concurrent consumers cannot both observe it.
func (s *MemoryModeStore) Consume(chatID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[chatID]
	if !ok {
		return "", false
	}
	delete(s.entries, chatID)
	if s.now().After(entry.expiresAt) {
		return "", false
	}
	return entry.mode, true
}

// Sweep drops every expired entry. Called periodically so abandoned chats
// do not accumulate.
func (s *MemoryModeStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for chatID, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, chatID)
		}
	}
}
