// Package memory provides an in-memory Store used by tests and local runs.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/spendsense/internal/domain"
	"github.com/dvloznov/spendsense/internal/store"
)

// Store keeps everything in maps guarded by a single mutex. Records are
// stored as marshalled JSON so readers never alias writer memory.
type Store struct {
	mu           sync.RWMutex
	transactions map[string][]domain.Transaction
	accounts     map[string][]domain.Account
	records      map[string]map[string]map[string][]byte // user → collection → key
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		transactions: make(map[string][]domain.Transaction),
		accounts:     make(map[string][]domain.Account),
		records:      make(map[string]map[string]map[string][]byte),
	}
}

var _ store.Store = (*Store)(nil)

// SeedTransactions replaces the user's transaction history.
func (s *Store) SeedTransactions(userID string, txns []domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[userID] = append([]domain.Transaction(nil), txns...)
}

// SeedAccounts replaces the user's accounts.
func (s *Store) SeedAccounts(userID string, accounts []domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[userID] = append([]domain.Account(nil), accounts...)
}

func (s *Store) FetchTransactions(ctx context.Context, userID string, since civil.Date) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Transaction
	for _, t := range s.transactions[userID] {
		if !t.Date.Before(since) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date)
	})
	return out, nil
}

func (s *Store) FetchAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Account(nil), s.accounts[userID]...), nil
}

func (s *Store) ReplaceRecord(ctx context.Context, userID, collection, key string, record any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("ReplaceRecord: marshal %s/%s: %w", collection, key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[userID] == nil {
		s.records[userID] = make(map[string]map[string][]byte)
	}
	if s.records[userID][collection] == nil {
		s.records[userID][collection] = make(map[string][]byte)
	}
	s.records[userID][collection][key] = raw
	return nil
}

func (s *Store) FetchRecord(ctx context.Context, userID, collection, key string, out any) error {
	s.mu.RLock()
	raw, ok := s.records[userID][collection][key]
	s.mu.RUnlock()

	if !ok {
		return store.ErrNotFound
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("FetchRecord: unmarshal %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) ListRecords(ctx context.Context, userID, collection string, visit func(raw []byte) error) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.records[userID][collection]))
	for k := range s.records[userID][collection] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	raws := make([][]byte, 0, len(keys))
	for _, k := range keys {
		raws = append(raws, s.records[userID][collection][k])
	}
	s.mu.RUnlock()

	for _, raw := range raws {
		if err := visit(raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for uid := range s.transactions {
		seen[uid] = true
	}
	for uid := range s.accounts {
		seen[uid] = true
	}
	for uid := range s.records {
		seen[uid] = true
	}

	ids := make([]string, 0, len(seen))
	for uid := range seen {
		ids = append(ids, uid)
	}
	sort.Strings(ids)
	return ids, nil
}
