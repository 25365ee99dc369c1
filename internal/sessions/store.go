package sessions

import (
	"context"
	"sync"
)

// Store persists per-user-area session tokens, abstracted from any transport.
// A web host would back this with cookies; the in-memory implementation
// serves tests and CLI execution. Independent areas hold independent
// sessions; the current area pointer names the one used for default identity
// resolution.
type Store interface {
	Set(ctx context.Context, areaCode, token string, persistent bool) error
	Get(ctx context.Context, areaCode string) (string, error)
	Clear(ctx context.Context, areaCode string) error
	ClearAll(ctx context.Context) error
	SetCurrentArea(ctx context.Context, areaCode string) error
	CurrentArea(ctx context.Context) (string, error)
}

// MemoryStore is a session-scope keyed map of area code to token.
type MemoryStore struct {
	mu      sync.Mutex
	tokens  map[string]string
	current string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]string)}
}

func (s *MemoryStore) Set(ctx context.Context, areaCode, token string, persistent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[areaCode] = token
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, areaCode string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[areaCode], nil
}

// Clear removes one area's session. Clearing an absent session is a no-op.
func (s *MemoryStore) Clear(ctx context.Context, areaCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, areaCode)
	if s.current == areaCode {
		s.current = ""
	}
	return nil
}

func (s *MemoryStore) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
	s.current = ""
	return nil
}

func (s *MemoryStore) SetCurrentArea(ctx context.Context, areaCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = areaCode
	return nil
}

func (s *MemoryStore) CurrentArea(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}
