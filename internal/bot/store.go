package bot

import (
	"sync"

	"github.com/wolfman30/botlink/internal/platform"
)

// Store caches the latest conversation and organization snapshots the bot has
// seen. It is created at bot construction and lives for the process lifetime;
// entries are replaced by identifier and never evicted. Unbounded growth is a
// documented property of this design; a deployment expecting very large
// conversation counts should front this with an eviction policy.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*platform.Conversation
	organizations map[string]*platform.Organization
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*platform.Conversation),
		organizations: make(map[string]*platform.Organization),
	}
}

// Conversation returns the cached snapshot for the given id.
func (s *Store) Conversation(id string) (*platform.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	return c, ok
}

// PutConversation replaces the cached snapshot wholesale. Partial merges are
// never performed; the newest snapshot wins.
func (s *Store) PutConversation(c *platform.Conversation) {
	if c == nil || c.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = c
}

// Organization returns the cached organization profile for the given id.
func (s *Store) Organization(id string) (*platform.Organization, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.organizations[id]
	return o, ok
}

// PutOrganization caches an organization profile.
func (s *Store) PutOrganization(o *platform.Organization) {
	if o == nil || o.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizations[o.ID] = o
}

// Len reports cached entry counts, for diagnostics.
func (s *Store) Len() (conversations, organizations int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations), len(s.organizations)
}
