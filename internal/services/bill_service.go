// Package services orchestrates bill operations across storage and AMQP.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"bollette/internal/core"
	"bollette/internal/storage"
)

// SchedulePublisher is the slice of the AMQP client the service needs.
type SchedulePublisher interface {
	PublishScheduleSync(ctx context.Context, billID, version int64) error
	PublishBillDelete(ctx context.Context, billID int64) error
}

// BillService owns the write path for bills: every create or update persists
// the bill, regenerates its occurrence schedule verbatim, and publishes a
// sync event for the export worker.
type BillService struct {
	store     storage.BillStore
	publisher SchedulePublisher
}

func NewBillService(store storage.BillStore, publisher SchedulePublisher) *BillService {
	return &BillService{
		store:     store,
		publisher: publisher,
	}
}

// CreateBill validates and saves a bill, persists its generated schedule, and
// publishes a sync message.
func (s *BillService) CreateBill(ctx context.Context, bill core.Bill) (int64, error) {
	if err := bill.Validate(); err != nil {
		return 0, fmt.Errorf("validate bill: %w", err)
	}

	// Save to SQLite first (fast, reliable)
	id, err := s.store.CreateBill(ctx, bill)
	if err != nil {
		return 0, fmt.Errorf("save bill: %w", err)
	}

	bill.ID = id
	if err := s.store.ReplaceOccurrences(ctx, id, core.GenerateOccurrences(bill)); err != nil {
		return 0, fmt.Errorf("persist schedule: %w", err)
	}

	// Publish async sync message (non-blocking, version 1 for a new bill)
	if err := s.publishSyncMessage(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"bill_id", id, "error", err)
		// Don't fail the request - bill is saved locally
	}

	return id, nil
}

// UpdateBill validates and saves a changed bill, regenerates its schedule,
// and publishes a sync message carrying the bumped version.
func (s *BillService) UpdateBill(ctx context.Context, bill core.Bill) (int64, error) {
	if err := bill.Validate(); err != nil {
		return 0, fmt.Errorf("validate bill: %w", err)
	}

	version, err := s.store.UpdateBill(ctx, bill)
	if err != nil {
		return 0, fmt.Errorf("update bill: %w", err)
	}

	if err := s.store.ReplaceOccurrences(ctx, bill.ID, core.GenerateOccurrences(bill)); err != nil {
		return 0, fmt.Errorf("persist schedule: %w", err)
	}

	if err := s.publishSyncMessage(ctx, bill.ID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"bill_id", bill.ID, "version", version, "error", err)
	}

	return version, nil
}

// DeleteBill soft deletes a bill, drops its occurrences, and publishes a
// delete message.
func (s *BillService) DeleteBill(ctx context.Context, id int64) error {
	if err := s.store.DeleteBill(ctx, id); err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}

	if err := s.publishDeleteMessage(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message",
			"bill_id", id, "error", err)
		// Don't fail the request - bill is deleted locally
	}

	return nil
}

// GetBill returns a stored bill by id.
func (s *BillService) GetBill(ctx context.Context, id int64) (storage.StoredBill, error) {
	stored, err := s.store.GetBill(ctx, id)
	if err != nil {
		return storage.StoredBill{}, err
	}
	return *stored, nil
}

// ListBills returns every non-deleted bill.
func (s *BillService) ListBills(ctx context.Context) ([]storage.StoredBill, error) {
	return s.store.ListBills(ctx)
}

// ListOccurrences returns the persisted schedule of a bill.
func (s *BillService) ListOccurrences(ctx context.Context, billID int64) ([]core.Occurrence, error) {
	return s.store.ListOccurrences(ctx, billID)
}

// PreviewSchedule generates the occurrence schedule for a bill without
// persisting anything.
func (s *BillService) PreviewSchedule(bill core.Bill) ([]core.Occurrence, error) {
	if err := bill.Validate(); err != nil {
		return nil, fmt.Errorf("validate bill: %w", err)
	}
	return core.GenerateOccurrences(bill), nil
}

// Upcoming summarizes all persisted occurrences due inside [from, to].
func (s *BillService) Upcoming(ctx context.Context, from, to core.Date) (core.UpcomingOverview, error) {
	occurrences, err := s.store.ListOccurrencesInWindow(ctx, from, to)
	if err != nil {
		return core.UpcomingOverview{}, fmt.Errorf("list occurrences in window: %w", err)
	}
	return core.SummarizeUpcoming(occurrences, from, to), nil
}

func (s *BillService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishScheduleSync(ctx, id, version)
}

func (s *BillService) publishDeleteMessage(ctx context.Context, id int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.publisher.PublishBillDelete(ctx, id)
}

// Close closes the underlying store.
func (s *BillService) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return fmt.Errorf("close bill service: %w", err)
		}
	}
	return nil
}
