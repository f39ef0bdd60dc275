// Package memory implements the sheets ports in process, for tests and for
// running without a configured spreadsheet.
package memory

import (
	"context"
	"sync"

	"bollette/internal/core"
)

// Row is one mirrored schedule line.
type Row struct {
	BillID                  int64
	Sequence                int
	Description             string
	AmountDue               core.Money
	DueDate                 core.Date
	SuggestedSubmissionDate core.Date
}

type Store struct {
	mu   sync.Mutex
	rows map[int64][]Row
}

func New() *Store {
	return &Store{rows: make(map[int64][]Row)}
}

// WriteSchedule replaces the bill's mirrored rows with the given occurrences.
func (s *Store) WriteSchedule(_ context.Context, bill core.Bill, occurrences []core.Occurrence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]Row, 0, len(occurrences))
	for _, occ := range occurrences {
		rows = append(rows, Row{
			BillID:                  bill.ID,
			Sequence:                occ.Sequence,
			Description:             bill.Description,
			AmountDue:               occ.AmountDue,
			DueDate:                 occ.DueDate,
			SuggestedSubmissionDate: occ.SuggestedSubmissionDate,
		})
	}
	if len(rows) == 0 {
		delete(s.rows, bill.ID)
		return nil
	}
	s.rows[bill.ID] = rows
	return nil
}

// DeleteSchedule removes every mirrored row of the bill.
func (s *Store) DeleteSchedule(_ context.Context, billID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, billID)
	return nil
}

// Rows returns a copy of the mirrored rows for a bill.
func (s *Store) Rows(billID int64) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Row(nil), s.rows[billID]...)
}
