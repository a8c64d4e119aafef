package flows

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/agenty/agenty-backend/internal/ai/flowerr"
)

const defaultSessionTTL = 30 * time.Minute

// Sequencer enforces last-writer-wins per session key. Starting a call with a
// newer sequence number cancels the older in-flight call for the same key,
// and a call that starts after a newer one has been seen is rejected.
//
// Keys with a call in flight never expire. Once the last call for a key
// finishes, the key is forgotten after it has been idle for the TTL.
type Sequencer struct {
	mu      sync.Mutex
	entries *ttlcache.Cache[string, *seqEntry]
}

type seqEntry struct {
	seq    uint64
	cancel context.CancelCauseFunc
	owner  *struct{}
}

// NewSequencer returns a Sequencer that forgets idle keys after ttl
// (30 minutes when ttl <= 0).
func NewSequencer(ttl time.Duration) *Sequencer {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Sequencer{
		entries: ttlcache.New(
			ttlcache.WithTTL[string, *seqEntry](ttl),
			ttlcache.WithDisableTouchOnHit[string, *seqEntry](),
		),
	}
}

// Begin registers (key, seq) and returns a context that is cancelled with
// flowerr.ErrSuperseded once a newer call for key begins. done must be called
// when the call finishes. An empty key disables sequencing.
func (s *Sequencer) Begin(ctx context.Context, key string, seq uint64) (context.Context, func(), error) {
	if key == "" {
		return ctx, func() {}, nil
	}

	s.mu.Lock()
	s.entries.DeleteExpired()
	var prev *seqEntry
	if item := s.entries.Get(key); item != nil {
		prev = item.Value()
	}
	if prev != nil && seq < prev.seq {
		s.mu.Unlock()
		return nil, nil, flowerr.ErrSuperseded
	}
	if prev != nil && prev.cancel != nil {
		prev.cancel(flowerr.ErrSuperseded)
	}
	cctx, cancel := context.WithCancelCause(ctx)
	owner := &struct{}{}
	s.entries.Set(key, &seqEntry{seq: seq, cancel: cancel, owner: owner}, ttlcache.NoTTL)
	s.mu.Unlock()

	done := func() {
		s.mu.Lock()
		if item := s.entries.Get(key); item != nil && item.Value().owner == owner {
			cur := item.Value()
			cur.cancel = nil
			s.entries.Set(key, cur, ttlcache.DefaultTTL)
		}
		s.mu.Unlock()
		cancel(nil)
	}
	return cctx, done, nil
}

// Current reports whether seq is still the latest call seen for key.
func (s *Sequencer) Current(key string, seq uint64) bool {
	if key == "" {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.entries.Get(key)
	return item == nil || item.Value().seq == seq
}

// Len returns the number of keys still tracked.
func (s *Sequencer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.DeleteExpired()
	return s.entries.Len()
}
