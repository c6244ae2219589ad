package repository

import (
	"context"
	"sync"
	"time"
)

type memLease struct {
	owner     string
	expiresAt time.Time
}

func (l memLease) isExpired(now time.Time) bool {
	return now.After(l.expiresAt)
}

type memoryLockStore struct {
	mu     sync.Mutex
	leases map[string]memLease
}

func NewMemoryLockStore() LockStore {
	return &memoryLockStore{
		leases: make(map[string]memLease),
	}
}

func (s *memoryLockStore) Acquire(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if lease, ok := s.leases[key]; ok && !lease.isExpired(now) && lease.owner != owner {
		return false, nil
	}
	s.leases[key] = memLease{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *memoryLockStore) Release(_ context.Context, key, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lease, ok := s.leases[key]; ok && lease.owner == owner {
		delete(s.leases, key)
	}
	return nil
}
