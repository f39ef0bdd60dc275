package services

import (
	"context"
	"fmt"
	"log/slog"

	"bollette/internal/core"
	"bollette/internal/storage"
)

// ScheduleProcessor reconciles persisted occurrence schedules with the
// generator. Bills whose stored rows drift from a fresh generation (missing
// rows, stale amounts after an edit path that skipped regeneration) are
// rewritten and re-announced.
type ScheduleProcessor struct {
	store       storage.BillStore
	billService *BillService
}

// NewScheduleProcessor creates a new schedule refresh processor
func NewScheduleProcessor(store storage.BillStore, billService *BillService) *ScheduleProcessor {
	return &ScheduleProcessor{
		store:       store,
		billService: billService,
	}
}

// RefreshSchedules regenerates the schedule of every bill whose persisted
// occurrences differ from a fresh generation. Errors on individual bills are
// logged and skipped, never abort the sweep.
func (p *ScheduleProcessor) RefreshSchedules(ctx context.Context) (int, error) {
	if p.store == nil || p.billService == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	bills, err := p.store.ListBills(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list bills: %w", err)
	}

	slog.InfoContext(ctx, "Refreshing schedules", "total_bills", len(bills))

	refreshedCount := 0

	for _, bill := range bills {
		generated := core.GenerateOccurrences(bill.Bill)

		stored, err := p.store.ListOccurrences(ctx, bill.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load persisted schedule",
				"bill_id", bill.ID,
				"error", err)
			continue
		}

		if !schedulesDiffer(stored, generated) {
			continue
		}

		if err := p.store.ReplaceOccurrences(ctx, bill.ID, generated); err != nil {
			slog.ErrorContext(ctx, "Failed to refresh schedule",
				"bill_id", bill.ID,
				"error", err)
			continue
		}

		if err := p.billService.publishSyncMessage(ctx, bill.ID, bill.Version); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message after refresh",
				"bill_id", bill.ID,
				"error", err)
			// Continue anyway - schedule was refreshed locally
		}

		refreshedCount++
		slog.InfoContext(ctx, "Refreshed schedule",
			"bill_id", bill.ID,
			"description", bill.Description,
			"occurrences", len(generated))
	}

	slog.InfoContext(ctx, "Schedule refresh complete",
		"refreshed", refreshedCount,
		"total_checked", len(bills))

	return refreshedCount, nil
}

// schedulesDiffer reports whether the persisted schedule deviates from a
// fresh generation.
func schedulesDiffer(stored, generated []core.Occurrence) bool {
	if len(stored) != len(generated) {
		return true
	}
	for i := range generated {
		if stored[i] != generated[i] {
			return true
		}
	}
	return false
}
