package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bollette/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

var _ BillStore = (*SQLiteRepository)(nil)

// billRow is the flattened column form of a bill's schedule. The sum type is
// reassembled from schedule_kind on the way out.
type billRow struct {
	id                int64
	description       string
	totalAmountCents  int64
	scheduleKind      string
	dueDate           sql.NullString
	frequency         sql.NullString
	intervalPeriods   sql.NullInt64
	anchorDay         sql.NullInt64
	startDate         sql.NullString
	endDate           sql.NullString
	horizonMonths     sql.NullInt64
	installmentsTotal int64
	version           int64
	syncStatus        string
	createdAt         time.Time
	updatedAt         time.Time
}

const (
	scheduleNone      = "none"
	scheduleOneOff    = "oneoff"
	scheduleRecurring = "recurring"
)

const billColumns = `id, description, total_amount_cents, schedule_kind, due_date,
	frequency, interval_periods, anchor_day, start_date, end_date, horizon_months,
	installments_total, version, sync_status, created_at, updated_at`

func flattenBill(b core.Bill) (billRow, error) {
	row := billRow{
		description:       b.Description,
		totalAmountCents:  b.TotalAmount.Cents,
		scheduleKind:      scheduleNone,
		installmentsTotal: int64(b.InstallmentsTotal),
	}
	switch s := b.Schedule.(type) {
	case nil:
	case core.OneOff:
		row.scheduleKind = scheduleOneOff
		row.dueDate = sql.NullString{String: s.DueDate.String(), Valid: true}
	case core.Recurring:
		row.scheduleKind = scheduleRecurring
		row.frequency = sql.NullString{String: string(s.Rule.Frequency), Valid: true}
		row.intervalPeriods = sql.NullInt64{Int64: int64(s.Rule.Interval), Valid: true}
		row.anchorDay = sql.NullInt64{Int64: int64(s.Rule.AnchorDay), Valid: true}
		row.startDate = sql.NullString{String: s.Rule.StartDate.String(), Valid: true}
		if !s.Rule.EndDate.IsEmpty() {
			row.endDate = sql.NullString{String: s.Rule.EndDate.String(), Valid: true}
		}
		row.horizonMonths = sql.NullInt64{Int64: int64(s.Rule.HorizonMonths), Valid: true}
	default:
		return billRow{}, fmt.Errorf("unknown schedule type %T", b.Schedule)
	}
	return row, nil
}

func (row billRow) toStoredBill() (StoredBill, error) {
	bill := core.Bill{
		ID:                row.id,
		Description:       row.description,
		TotalAmount:       core.Money{Cents: row.totalAmountCents},
		InstallmentsTotal: int(row.installmentsTotal),
	}
	switch row.scheduleKind {
	case scheduleNone:
	case scheduleOneOff:
		due, err := core.ParseDate(row.dueDate.String)
		if err != nil {
			return StoredBill{}, fmt.Errorf("bill %d: parse due date: %w", row.id, err)
		}
		bill.Schedule = core.OneOff{DueDate: due}
	case scheduleRecurring:
		start, err := core.ParseDate(row.startDate.String)
		if err != nil {
			return StoredBill{}, fmt.Errorf("bill %d: parse start date: %w", row.id, err)
		}
		rule := core.RecurringRule{
			Frequency:     core.Frequency(row.frequency.String),
			Interval:      int(row.intervalPeriods.Int64),
			AnchorDay:     int(row.anchorDay.Int64),
			StartDate:     start,
			HorizonMonths: int(row.horizonMonths.Int64),
		}
		if row.endDate.Valid {
			end, err := core.ParseDate(row.endDate.String)
			if err != nil {
				return StoredBill{}, fmt.Errorf("bill %d: parse end date: %w", row.id, err)
			}
			rule.EndDate = end
		}
		bill.Schedule = core.Recurring{Rule: rule}
	default:
		return StoredBill{}, fmt.Errorf("bill %d: unknown schedule kind %q", row.id, row.scheduleKind)
	}
	return StoredBill{
		Bill:       bill,
		Version:    row.version,
		SyncStatus: row.syncStatus,
		CreatedAt:  row.createdAt,
		UpdatedAt:  row.updatedAt,
	}, nil
}

func scanBillRow(scanner interface{ Scan(...any) error }) (billRow, error) {
	var row billRow
	err := scanner.Scan(
		&row.id, &row.description, &row.totalAmountCents, &row.scheduleKind, &row.dueDate,
		&row.frequency, &row.intervalPeriods, &row.anchorDay, &row.startDate, &row.endDate,
		&row.horizonMonths, &row.installmentsTotal, &row.version, &row.syncStatus,
		&row.createdAt, &row.updatedAt,
	)
	return row, err
}

func (r *SQLiteRepository) CreateBill(ctx context.Context, bill core.Bill) (int64, error) {
	row, err := flattenBill(bill)
	if err != nil {
		return 0, fmt.Errorf("flatten bill: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO bills (description, total_amount_cents, schedule_kind, due_date,
			frequency, interval_periods, anchor_day, start_date, end_date, horizon_months,
			installments_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.description, row.totalAmountCents, row.scheduleKind, row.dueDate,
		row.frequency, row.intervalPeriods, row.anchorDay, row.startDate, row.endDate,
		row.horizonMonths, row.installmentsTotal,
	)
	if err != nil {
		return 0, fmt.Errorf("insert bill: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("bill insert id: %w", err)
	}

	slog.InfoContext(ctx, "Bill saved",
		"id", id,
		"description", row.description,
		"amount_cents", row.totalAmountCents,
		"schedule_kind", row.scheduleKind)

	return id, nil
}

func (r *SQLiteRepository) GetBill(ctx context.Context, id int64) (*StoredBill, error) {
	row, err := scanBillRow(r.db.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = ? AND deleted = 0`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bill %d: %w", id, err)
	}

	stored, err := row.toStoredBill()
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *SQLiteRepository) ListBills(ctx context.Context) ([]StoredBill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE deleted = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var bills []StoredBill
	for rows.Next() {
		row, err := scanBillRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		stored, err := row.toStoredBill()
		if err != nil {
			return nil, err
		}
		bills = append(bills, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return bills, nil
}

func (r *SQLiteRepository) UpdateBill(ctx context.Context, bill core.Bill) (int64, error) {
	row, err := flattenBill(bill)
	if err != nil {
		return 0, fmt.Errorf("flatten bill: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE bills
		SET description = ?, total_amount_cents = ?, schedule_kind = ?, due_date = ?,
			frequency = ?, interval_periods = ?, anchor_day = ?, start_date = ?,
			end_date = ?, horizon_months = ?, installments_total = ?,
			version = version + 1, sync_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted = 0`,
		row.description, row.totalAmountCents, row.scheduleKind, row.dueDate,
		row.frequency, row.intervalPeriods, row.anchorDay, row.startDate,
		row.endDate, row.horizonMonths, row.installmentsTotal,
		SyncPending, bill.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update bill %d: %w", bill.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update bill %d: rows affected: %w", bill.ID, err)
	}
	if affected == 0 {
		return 0, ErrBillNotFound
	}

	var version int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT version FROM bills WHERE id = ?`, bill.ID).Scan(&version); err != nil {
		return 0, fmt.Errorf("read bill %d version: %w", bill.ID, err)
	}
	return version, nil
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bills SET deleted = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted = 0`, id)
	if err != nil {
		return fmt.Errorf("delete bill %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bill %d: rows affected: %w", id, err)
	}
	if affected == 0 {
		return ErrBillNotFound
	}

	// The schedule of a deleted bill is gone for good.
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM occurrences WHERE bill_id = ?`, id); err != nil {
		return fmt.Errorf("delete occurrences for bill %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Bill deleted", "id", id)
	return nil
}

// ReplaceOccurrences swaps the whole stored schedule for a bill inside one
// transaction, so readers never observe a half-replaced schedule.
func (r *SQLiteRepository) ReplaceOccurrences(ctx context.Context, billID int64, occurrences []core.Occurrence) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace occurrences: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM occurrences WHERE bill_id = ?`, billID); err != nil {
		return fmt.Errorf("clear occurrences for bill %d: %w", billID, err)
	}

	for _, occ := range occurrences {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO occurrences (bill_id, sequence, amount_due_cents, due_date, suggested_submission_date)
			VALUES (?, ?, ?, ?, ?)`,
			billID, occ.Sequence, occ.AmountDue.Cents,
			occ.DueDate.String(), occ.SuggestedSubmissionDate.String(),
		); err != nil {
			return fmt.Errorf("insert occurrence %d for bill %d: %w", occ.Sequence, billID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace occurrences: %w", err)
	}

	slog.InfoContext(ctx, "Occurrence schedule replaced",
		"bill_id", billID,
		"occurrences", len(occurrences))
	return nil
}

func (r *SQLiteRepository) ListOccurrences(ctx context.Context, billID int64) ([]core.Occurrence, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT bill_id, sequence, amount_due_cents, due_date, suggested_submission_date
		FROM occurrences WHERE bill_id = ? ORDER BY sequence`, billID)
	if err != nil {
		return nil, fmt.Errorf("list occurrences for bill %d: %w", billID, err)
	}
	defer rows.Close()
	return scanOccurrences(rows)
}

func (r *SQLiteRepository) ListOccurrencesInWindow(ctx context.Context, from, to core.Date) ([]core.Occurrence, error) {
	// ISO dates sort lexicographically, so BETWEEN on the TEXT column is a
	// correct date-range filter.
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.bill_id, o.sequence, o.amount_due_cents, o.due_date, o.suggested_submission_date
		FROM occurrences o
		JOIN bills b ON b.id = o.bill_id AND b.deleted = 0
		WHERE o.due_date BETWEEN ? AND ?
		ORDER BY o.due_date, o.bill_id, o.sequence`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list occurrences in window: %w", err)
	}
	defer rows.Close()
	return scanOccurrences(rows)
}

func scanOccurrences(rows *sql.Rows) ([]core.Occurrence, error) {
	var occurrences []core.Occurrence
	for rows.Next() {
		var (
			occ          core.Occurrence
			due, suggest string
		)
		if err := rows.Scan(&occ.BillID, &occ.Sequence, &occ.AmountDue.Cents, &due, &suggest); err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		d, err := core.ParseDate(due)
		if err != nil {
			return nil, fmt.Errorf("parse occurrence due date: %w", err)
		}
		s, err := core.ParseDate(suggest)
		if err != nil {
			return nil, fmt.Errorf("parse occurrence submission date: %w", err)
		}
		occ.DueDate = d
		occ.SuggestedSubmissionDate = s
		occurrences = append(occurrences, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate occurrences: %w", err)
	}
	return occurrences, nil
}

func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit int) ([]PendingSyncBill, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version FROM bills
		WHERE sync_status = ? AND deleted = 0
		ORDER BY updated_at LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync bills: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncBill
	for rows.Next() {
		var p PendingSyncBill
		if err := rows.Scan(&p.ID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending sync bill: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sync bills: %w", err)
	}
	return pending, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE bills SET sync_status = ? WHERE id = ?`, SyncSynced, id); err != nil {
		return fmt.Errorf("mark bill %d synced: %w", id, err)
	}
	slog.InfoContext(ctx, "Bill marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE bills SET sync_status = ? WHERE id = ?`, SyncError, id); err != nil {
		return fmt.Errorf("mark bill %d sync error: %w", id, err)
	}
	slog.WarnContext(ctx, "Bill marked with sync error", "id", id)
	return nil
}
