package portal

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Sequencer issues monotonically increasing request tokens per key so that a
// response can be checked against the latest request for the same input.
// Only the most recently used keys are remembered. A token can only be
// superseded by a newer Issue for its key, so a key that has been evicted or
// forgotten leaves its last token valid.
type Sequencer struct {
	mu     sync.Mutex
	next   uint64
	latest *lru.Cache[string, uint64]
}

func NewSequencer(size int) (*Sequencer, error) {
	latest, err := lru.New[string, uint64](size)
	if err != nil {
		return nil, fmt.Errorf("create sequencer: %w", err)
	}
	return &Sequencer{latest: latest}, nil
}

// Issue returns a new token for key, superseding every earlier one.
func (s *Sequencer) Issue(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	s.latest.Add(key, s.next)
	return s.next
}

// IsLatest reports whether no token newer than token is known for key.
func (s *Sequencer) IsLatest(key string, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.latest.Get(key)
	if !ok {
		return true
	}
	return current <= token
}

// Forget drops key.
func (s *Sequencer) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest.Remove(key)
}

func (s *Sequencer) Len() int {
	return s.latest.Len()
}
