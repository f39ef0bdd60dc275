package services

import (
	"context"
	"testing"

	"bollette/internal/core"
	"bollette/internal/storage"
)

func TestRefreshSchedulesRepairsDrift(t *testing.T) {
	store := storage.NewMemoryStore()
	publisher := &fakePublisher{}
	service := NewBillService(store, publisher)
	processor := NewScheduleProcessor(store, service)
	ctx := context.Background()

	// Bill written directly to the store, bypassing schedule generation.
	id, err := store.CreateBill(ctx, monthlyBill(t))
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}

	refreshed, err := processor.RefreshSchedules(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed != 1 {
		t.Fatalf("expected 1 refreshed bill, got %d", refreshed)
	}

	occurrences, err := store.ListOccurrences(ctx, id)
	if err != nil {
		t.Fatalf("list occurrences: %v", err)
	}
	if len(occurrences) != 3 {
		t.Fatalf("expected 3 occurrences after refresh, got %d", len(occurrences))
	}
	if len(publisher.syncs) != 1 || publisher.syncs[0].billID != id {
		t.Fatalf("expected one sync message, got %+v", publisher.syncs)
	}

	// A second sweep finds nothing to do.
	refreshed, err = processor.RefreshSchedules(ctx)
	if err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if refreshed != 0 {
		t.Fatalf("expected no refreshes on a clean store, got %d", refreshed)
	}
}

func TestRefreshSchedulesEmptyStore(t *testing.T) {
	store := storage.NewMemoryStore()
	processor := NewScheduleProcessor(store, NewBillService(store, nil))

	refreshed, err := processor.RefreshSchedules(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed != 0 {
		t.Fatalf("expected 0 refreshes, got %d", refreshed)
	}
}

func TestSchedulesDiffer(t *testing.T) {
	due, _ := core.ParseDate("2025-01-15")
	submit, _ := core.ParseDate("2025-01-14")
	occ := core.Occurrence{BillID: 1, Sequence: 1, AmountDue: core.Money{Cents: 100}, DueDate: due, SuggestedSubmissionDate: submit}

	changed := occ
	changed.AmountDue = core.Money{Cents: 200}

	tests := []struct {
		name      string
		stored    []core.Occurrence
		generated []core.Occurrence
		want      bool
	}{
		{"both empty", nil, nil, false},
		{"identical", []core.Occurrence{occ}, []core.Occurrence{occ}, false},
		{"missing row", nil, []core.Occurrence{occ}, true},
		{"extra row", []core.Occurrence{occ}, nil, true},
		{"changed amount", []core.Occurrence{occ}, []core.Occurrence{changed}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := schedulesDiffer(tt.stored, tt.generated); got != tt.want {
				t.Errorf("schedulesDiffer() = %v, want %v", got, tt.want)
			}
		})
	}
}
