package memory

import (
	"context"
	"testing"

	"bollette/internal/core"
)

func TestWriteScheduleReplacesRows(t *testing.T) {
	store := New()
	ctx := context.Background()

	start, _ := core.ParseDate("2025-01-15")
	bill := core.Bill{
		ID:          4,
		Description: "internet",
		TotalAmount: core.Money{Cents: 6000},
		Schedule: core.Recurring{Rule: core.RecurringRule{
			Frequency:     core.Monthly,
			Interval:      1,
			StartDate:     start,
			HorizonMonths: 3,
		}},
	}
	occurrences := core.GenerateOccurrences(bill)
	if err := store.WriteSchedule(ctx, bill, occurrences); err != nil {
		t.Fatalf("write schedule: %v", err)
	}
	if got := store.Rows(4); len(got) != len(occurrences) {
		t.Fatalf("expected %d rows, got %d", len(occurrences), len(got))
	}

	// A second write replaces, never appends.
	if err := store.WriteSchedule(ctx, bill, occurrences[:1]); err != nil {
		t.Fatalf("write schedule again: %v", err)
	}
	got := store.Rows(4)
	if len(got) != 1 {
		t.Fatalf("expected 1 row after rewrite, got %d", len(got))
	}
	if got[0].Description != "internet" || got[0].Sequence != 1 {
		t.Fatalf("unexpected row: %+v", got[0])
	}
}

func TestDeleteSchedule(t *testing.T) {
	store := New()
	ctx := context.Background()

	due, _ := core.ParseDate("2025-03-03")
	bill := core.Bill{ID: 7, Description: "permit", TotalAmount: core.Money{Cents: 2500}, Schedule: core.OneOff{DueDate: due}}
	if err := store.WriteSchedule(ctx, bill, core.GenerateOccurrences(bill)); err != nil {
		t.Fatalf("write schedule: %v", err)
	}
	if err := store.DeleteSchedule(ctx, 7); err != nil {
		t.Fatalf("delete schedule: %v", err)
	}
	if rows := store.Rows(7); len(rows) != 0 {
		t.Fatalf("expected no rows after delete, got %d", len(rows))
	}
}
