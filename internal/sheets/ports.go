// Package sheets defines the outbound ports used to mirror payment schedules
// to an external spreadsheet.
package sheets

import (
	"context"

	"bollette/internal/core"
)

// Ports for outbound adapters.
type (
	// OccurrenceWriter mirrors the full occurrence schedule of a bill,
	// replacing any rows written for an earlier version of the same bill.
	OccurrenceWriter interface {
		WriteSchedule(ctx context.Context, bill core.Bill, occurrences []core.Occurrence) error
	}

	// ScheduleDeleter removes every mirrored row of a bill.
	ScheduleDeleter interface {
		DeleteSchedule(ctx context.Context, billID int64) error
	}
)
