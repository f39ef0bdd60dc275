package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"bollette/internal/core"
)

// MemoryStore is an in-memory BillStore used by tests and by the "memory"
// backend for throwaway deployments.
type MemoryStore struct {
	mu          sync.Mutex
	nextID      int64
	bills       map[int64]*StoredBill
	occurrences map[int64][]core.Occurrence
}

var _ BillStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:      1,
		bills:       make(map[int64]*StoredBill),
		occurrences: make(map[int64][]core.Occurrence),
	}
}

func (s *MemoryStore) CreateBill(_ context.Context, bill core.Bill) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	bill.ID = id
	now := time.Now()
	s.bills[id] = &StoredBill{
		Bill:       bill,
		Version:    1,
		SyncStatus: SyncPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return id, nil
}

func (s *MemoryStore) GetBill(_ context.Context, id int64) (*StoredBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.bills[id]
	if !ok {
		return nil, ErrBillNotFound
	}
	copied := *stored
	return &copied, nil
}

func (s *MemoryStore) ListBills(_ context.Context) ([]StoredBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bills := make([]StoredBill, 0, len(s.bills))
	for _, stored := range s.bills {
		bills = append(bills, *stored)
	}
	sort.Slice(bills, func(i, j int) bool { return bills[i].ID < bills[j].ID })
	return bills, nil
}

func (s *MemoryStore) UpdateBill(_ context.Context, bill core.Bill) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.bills[bill.ID]
	if !ok {
		return 0, ErrBillNotFound
	}
	stored.Bill = bill
	stored.Version++
	stored.SyncStatus = SyncPending
	stored.UpdatedAt = time.Now()
	return stored.Version, nil
}

func (s *MemoryStore) DeleteBill(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bills[id]; !ok {
		return ErrBillNotFound
	}
	delete(s.bills, id)
	delete(s.occurrences, id)
	return nil
}

func (s *MemoryStore) ReplaceOccurrences(_ context.Context, billID int64, occurrences []core.Occurrence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.occurrences[billID] = append([]core.Occurrence(nil), occurrences...)
	return nil
}

func (s *MemoryStore) ListOccurrences(_ context.Context, billID int64) ([]core.Occurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]core.Occurrence(nil), s.occurrences[billID]...), nil
}

func (s *MemoryStore) ListOccurrencesInWindow(_ context.Context, from, to core.Date) ([]core.Occurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.Occurrence
	for billID, occurrences := range s.occurrences {
		if _, ok := s.bills[billID]; !ok {
			continue
		}
		for _, occ := range occurrences {
			if occ.DueDate.Before(from) || occ.DueDate.After(to) {
				continue
			}
			out = append(out, occ)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		if out[i].BillID != out[j].BillID {
			return out[i].BillID < out[j].BillID
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (s *MemoryStore) ListPendingSync(_ context.Context, limit int) ([]PendingSyncBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []PendingSyncBill
	for _, stored := range s.bills {
		if stored.SyncStatus == SyncPending {
			pending = append(pending, PendingSyncBill{ID: stored.ID, Version: stored.Version})
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (s *MemoryStore) MarkSynced(_ context.Context, id int64) error {
	return s.setSyncStatus(id, SyncSynced)
}

func (s *MemoryStore) MarkSyncError(_ context.Context, id int64) error {
	return s.setSyncStatus(id, SyncError)
}

func (s *MemoryStore) setSyncStatus(id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.bills[id]
	if !ok {
		return ErrBillNotFound
	}
	stored.SyncStatus = status
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
