package services

import (
	"chat-rooms/contract"
	"chat-rooms/domain"
	"chat-rooms/repositories"
	"fmt"
	"log/slog"
	"sync"
)

// IdentityStore keeps the display name of the local user.
// The persisted value is read once, then served from memory.
type IdentityStore struct {
	mu         sync.RWMutex
	log        *slog.Logger
	repository repositories.IIdentityRepository
	identity   domain.Identity
	present    bool
}

// NewIdentityStore loads the persisted name. A stored value that no longer
// satisfies the identity rules is ignored, the user is asked again.
func NewIdentityStore(log *slog.Logger, repository repositories.IIdentityRepository) (*IdentityStore, error) {
	s := &IdentityStore{log: log, repository: repository}
	name, ok, err := repository.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		return s, nil
	}
	identity, err := domain.NewIdentity(name)
	if err != nil {
		log.Warn("Ignoring stored identity", "error", err)
		return s, nil
	}
	s.identity, s.present = identity, true
	return s, nil
}

var _ contract.IIdentityStore = (*IdentityStore)(nil)

func (s *IdentityStore) Get() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.present
}

// Set validates and persists the name. Nothing changes when it is rejected.
func (s *IdentityStore) Set(name string) (domain.Identity, error) {
	identity, err := domain.NewIdentity(name)
	if err != nil {
		return "", err
	}
	if err = s.repository.Save(identity.String()); err != nil {
		return "", fmt.Errorf("save identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity, s.present = identity, true
	s.log.Info("Identity set", "user", identity)
	return identity, nil
}

// Clear forgets the name. The cached value survives a failed delete so the
// process never disagrees with the store.
func (s *IdentityStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repository.Delete(); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	s.identity, s.present = "", false
	return nil
}
