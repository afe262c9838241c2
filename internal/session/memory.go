package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// MemoryStore はプロセス内にセッションを保持するストアです。開発・テスト用です。
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore は MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Save はセッションを保存します。ttl が 0 以下なら期限なしです。
func (s *MemoryStore) Save(ctx context.Context, token string, record *Record, ttl time.Duration) error {
	if token == "" {
		return ErrEmptyToken
	}
	entry := memoryEntry{record: *record}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = entry
	return nil
}

// Load はセッションを取得します。期限切れのものは削除して (nil, nil) を返します。
func (s *MemoryStore) Load(ctx context.Context, token string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.entries, token)
		return nil, nil
	}
	record := entry.record
	return &record, nil
}

// Delete はセッションを削除します。
func (s *MemoryStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

// Len は保持しているセッション数を返します。
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
