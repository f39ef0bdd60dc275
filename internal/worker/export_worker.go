// Package worker mirrors persisted schedules to the configured sheet backend.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"bollette/internal/amqp"
	"bollette/internal/sheets"
	"bollette/internal/storage"
)

// EventStream is the slice of the AMQP client the worker consumes from.
type EventStream interface {
	ConsumeScheduleEvents(ctx context.Context, handler func(*amqp.ScheduleEvent) error) error
}

// ExportWorker mirrors bill schedules from SQLite to a sheet. It reacts to
// AMQP events and additionally sweeps for pending bills, so a lost message
// never strands a schedule.
type ExportWorker struct {
	store     storage.BillStore
	writer    sheets.OccurrenceWriter
	deleter   sheets.ScheduleDeleter
	batchSize int
}

func NewExportWorker(store storage.BillStore, writer sheets.OccurrenceWriter, deleter sheets.ScheduleDeleter, batchSize int) *ExportWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &ExportWorker{
		store:     store,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
	}
}

// Run consumes schedule events and sweeps for pending bills until ctx is
// done. Both loops run concurrently; the first failure stops the other.
func (w *ExportWorker) Run(ctx context.Context, stream EventStream, sweepInterval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return stream.ConsumeScheduleEvents(ctx, func(event *amqp.ScheduleEvent) error {
			return w.HandleEvent(ctx, event)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ProcessPendingBills(ctx); err != nil {
					slog.ErrorContext(ctx, "Pending sync sweep failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// HandleEvent processes a single schedule event from AMQP.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.ScheduleEvent) error {
	slog.InfoContext(ctx, "Processing schedule event",
		"type", event.Type,
		"bill_id", event.BillID,
		"version", event.Version)

	switch event.Type {
	case amqp.EventScheduleSync:
		return w.exportBill(ctx, event.BillID)
	case amqp.EventBillDelete:
		return w.handleDelete(ctx, event.BillID)
	default:
		return fmt.Errorf("unhandled event type: %q", event.Type)
	}
}

func (w *ExportWorker) handleDelete(ctx context.Context, billID int64) error {
	if w.deleter == nil {
		slog.WarnContext(ctx, "No schedule deleter configured, skipping sheet deletion",
			"bill_id", billID)
		return nil
	}
	if err := w.deleter.DeleteSchedule(ctx, billID); err != nil {
		return fmt.Errorf("delete schedule from sheet: %w", err)
	}
	slog.InfoContext(ctx, "Deleted mirrored schedule", "bill_id", billID)
	return nil
}

// ProcessPendingBills exports any bills that haven't been mirrored yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPendingBills(ctx context.Context) error {
	pending, err := w.store.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending bills: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending bills", "count", len(pending))

	for _, bill := range pending {
		if err := w.exportBill(ctx, bill.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export bill", "bill_id", bill.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck mirrors any pending bills at worker startup. This recovers
// from missed AMQP messages or worker downtime.
func (w *ExportWorker) StartupSyncCheck(ctx context.Context) error {
	// Larger batch for the startup pass
	pending, err := w.store.ListPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending bills for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending bills found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending bills on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, bill := range pending {
		if err := w.exportBill(ctx, bill.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export bill during startup",
				"bill_id", bill.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

// exportBill reloads the bill and its persisted schedule from storage and
// mirrors them wholesale, then records the sync outcome.
func (w *ExportWorker) exportBill(ctx context.Context, billID int64) error {
	bill, err := w.store.GetBill(ctx, billID)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, billID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "bill_id", billID, "error", markErr)
		}
		return fmt.Errorf("get bill from storage: %w", err)
	}

	occurrences, err := w.store.ListOccurrences(ctx, billID)
	if err != nil {
		return fmt.Errorf("list occurrences: %w", err)
	}

	if err := w.writer.WriteSchedule(ctx, bill.Bill, occurrences); err != nil {
		if markErr := w.store.MarkSyncError(ctx, billID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "bill_id", billID, "error", markErr)
		}
		return fmt.Errorf("write schedule to sheet: %w", err)
	}

	if err := w.store.MarkSynced(ctx, billID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "bill_id", billID, "error", err)
		// Don't return an error here - the export actually worked
	}

	slog.InfoContext(ctx, "Exported schedule",
		"bill_id", billID,
		"version", bill.Version,
		"occurrences", len(occurrences))

	return nil
}
