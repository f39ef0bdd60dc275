// Package storage persists bills and their generated occurrence schedules.
package storage

import (
	"context"
	"errors"
	"time"

	"bollette/internal/core"
)

// Sync states for the sheet-export pipeline.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

var ErrBillNotFound = errors.New("bill not found")

// StoredBill is a bill together with its persistence metadata.
type StoredBill struct {
	core.Bill
	Version    int64
	SyncStatus string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PendingSyncBill is the minimal record the export sweep needs.
type PendingSyncBill struct {
	ID      int64
	Version int64
}

// BillStore is the persistence port consumed by services and handlers.
// Implemented by SQLiteRepository and by the in-memory Store.
type BillStore interface {
	CreateBill(ctx context.Context, bill core.Bill) (int64, error)
	GetBill(ctx context.Context, id int64) (*StoredBill, error)
	ListBills(ctx context.Context) ([]StoredBill, error)
	UpdateBill(ctx context.Context, bill core.Bill) (version int64, err error)
	DeleteBill(ctx context.Context, id int64) error

	// ReplaceOccurrences swaps a bill's whole persisted schedule for the
	// freshly generated one, atomically.
	ReplaceOccurrences(ctx context.Context, billID int64, occurrences []core.Occurrence) error
	ListOccurrences(ctx context.Context, billID int64) ([]core.Occurrence, error)
	ListOccurrencesInWindow(ctx context.Context, from, to core.Date) ([]core.Occurrence, error)

	ListPendingSync(ctx context.Context, limit int) ([]PendingSyncBill, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error

	Close() error
}
