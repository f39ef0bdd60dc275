package worker

import (
	"context"
	"errors"
	"testing"

	"bollette/internal/amqp"
	"bollette/internal/core"
	sheetsmem "bollette/internal/sheets/memory"
	"bollette/internal/storage"
)

func seedBill(t *testing.T, store storage.BillStore) int64 {
	t.Helper()
	start, err := core.ParseDate("2025-01-15")
	if err != nil {
		t.Fatalf("parse start date: %v", err)
	}
	bill := core.Bill{
		Description: "electricity",
		TotalAmount: core.Money{Cents: 8500},
		Schedule: core.Recurring{Rule: core.RecurringRule{
			Frequency:     core.Monthly,
			Interval:      1,
			AnchorDay:     15,
			StartDate:     start,
			HorizonMonths: 4,
		}},
	}
	ctx := context.Background()
	id, err := store.CreateBill(ctx, bill)
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	bill.ID = id
	if err := store.ReplaceOccurrences(ctx, id, core.GenerateOccurrences(bill)); err != nil {
		t.Fatalf("replace occurrences: %v", err)
	}
	return id
}

func TestHandleSyncEventMirrorsSchedule(t *testing.T) {
	store := storage.NewMemoryStore()
	sheet := sheetsmem.New()
	w := NewExportWorker(store, sheet, sheet, 10)
	ctx := context.Background()

	id := seedBill(t, store)

	if err := w.HandleEvent(ctx, amqp.NewScheduleSyncEvent(id, 1)); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	// Jan 15 through May 15 inclusive: the horizon boundary itself counts
	rows := sheet.Rows(id)
	if len(rows) != 5 {
		t.Fatalf("expected 5 mirrored rows, got %d", len(rows))
	}
	if rows[0].Description != "electricity" || rows[0].DueDate.String() != "2025-01-15" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}

	stored, err := store.GetBill(ctx, id)
	if err != nil {
		t.Fatalf("get bill: %v", err)
	}
	if stored.SyncStatus != storage.SyncSynced {
		t.Fatalf("expected synced status, got %s", stored.SyncStatus)
	}
}

func TestHandleDeleteEventRemovesRows(t *testing.T) {
	store := storage.NewMemoryStore()
	sheet := sheetsmem.New()
	w := NewExportWorker(store, sheet, sheet, 10)
	ctx := context.Background()

	id := seedBill(t, store)
	if err := w.HandleEvent(ctx, amqp.NewScheduleSyncEvent(id, 1)); err != nil {
		t.Fatalf("sync event: %v", err)
	}
	if err := w.HandleEvent(ctx, amqp.NewBillDeleteEvent(id)); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	if rows := sheet.Rows(id); len(rows) != 0 {
		t.Fatalf("expected no rows after delete, got %d", len(rows))
	}
}

func TestHandleEventUnknownType(t *testing.T) {
	w := NewExportWorker(storage.NewMemoryStore(), sheetsmem.New(), nil, 10)
	err := w.HandleEvent(context.Background(), &amqp.ScheduleEvent{Type: "bill.explode"})
	if err == nil {
		t.Fatal("expected error for unknown event type")
	}
}

func TestSyncEventMissingBillMarksError(t *testing.T) {
	store := storage.NewMemoryStore()
	w := NewExportWorker(store, sheetsmem.New(), nil, 10)

	err := w.HandleEvent(context.Background(), amqp.NewScheduleSyncEvent(999, 1))
	if !errors.Is(err, storage.ErrBillNotFound) {
		t.Fatalf("expected ErrBillNotFound, got %v", err)
	}
}

func TestProcessPendingBills(t *testing.T) {
	store := storage.NewMemoryStore()
	sheet := sheetsmem.New()
	w := NewExportWorker(store, sheet, sheet, 10)
	ctx := context.Background()

	first := seedBill(t, store)
	second := seedBill(t, store)

	if err := w.ProcessPendingBills(ctx); err != nil {
		t.Fatalf("process pending: %v", err)
	}

	for _, id := range []int64{first, second} {
		if rows := sheet.Rows(id); len(rows) != 5 {
			t.Fatalf("bill %d: expected 5 mirrored rows, got %d", id, len(rows))
		}
	}

	pending, err := store.ListPendingSync(ctx, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending bills, got %d", len(pending))
	}
}

func TestStartupSyncCheckEmptyStore(t *testing.T) {
	w := NewExportWorker(storage.NewMemoryStore(), sheetsmem.New(), nil, 10)
	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("startup check: %v", err)
	}
}
