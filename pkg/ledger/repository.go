package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackdally/lre-manager-sub006/pkg/allocation"
	log "github.com/sirupsen/logrus"
)

var (
	ErrEntryNotFound = errors.New("ledger entry not found")
	ErrAlreadyPushed = errors.New("allocation has already been pushed to the ledger")
	ErrNothingToPush = errors.New("allocation has no monthly breakdown to push")
)

type Repo interface {
	ListByVersion(ctx context.Context, versionId uuid.UUID) ([]Entry, error)
	ListByAllocation(ctx context.Context, allocationId uuid.UUID) ([]Entry, error)
	FindById(ctx context.Context, id uuid.UUID) (Entry, error)
	Store(ctx context.Context, entry Entry) (Entry, error)
	Update(ctx context.Context, entry Entry) (Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// PushAllocation locks the allocation and writes one ledger entry per
	// breakdown month in a single transaction. The conditional lock update is
	// the concurrency guard: when another push got there first, zero rows
	// change and the transaction rolls back with ErrAlreadyPushed.
	PushAllocation(ctx context.Context, alloc allocation.Allocation) (int, error)
}

type RepoImpl struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *RepoImpl {
	return &RepoImpl{db: db}
}

const entryColumns = "id, version_id, allocation_id, element_id, vendor_name, description, wbs_code, baseline_month, baseline_amount, month, planned_amount, actual_amount, actual_date, invoice_number, notes"

func (r *RepoImpl) ListByVersion(ctx context.Context, versionId uuid.UUID) ([]Entry, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+entryColumns+" FROM ledger_entry WHERE version_id = $1 ORDER BY month, vendor_name",
		versionId)
	if err != nil {
		err = fmt.Errorf("could not list ledger entries: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *RepoImpl) ListByAllocation(ctx context.Context, allocationId uuid.UUID) ([]Entry, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+entryColumns+" FROM ledger_entry WHERE allocation_id = $1 ORDER BY month",
		allocationId)
	if err != nil {
		err = fmt.Errorf("could not list ledger entries for allocation: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (r *RepoImpl) FindById(ctx context.Context, id uuid.UUID) (Entry, error) {
	row := r.db.QueryRow(ctx, "SELECT "+entryColumns+" FROM ledger_entry WHERE id = $1", id)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not find ledger entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}
	return entry, nil
}

func (r *RepoImpl) Store(ctx context.Context, entry Entry) (Entry, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ledger_entry (id, version_id, allocation_id, element_id, vendor_name, description, wbs_code, baseline_month, baseline_amount, month, planned_amount, actual_amount, actual_date, invoice_number, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)`,
		entry.Id, entry.VersionId, entry.AllocationId, entry.ElementId, entry.VendorName, entry.Description,
		entry.WbsCode, entry.BaselineMonth, entry.BaselineAmount, entry.Month, entry.PlannedAmount,
		entry.ActualAmount, entry.ActualDate, entry.InvoiceNumber, entry.Notes, time.Now())
	if err != nil {
		err = fmt.Errorf("could not store ledger entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}
	return entry, nil
}

// Update deliberately leaves the baseline columns alone so edits to the
// planned figures cannot overwrite what was pushed.
func (r *RepoImpl) Update(ctx context.Context, entry Entry) (Entry, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE ledger_entry
		 SET vendor_name = $2, description = $3, wbs_code = $4, month = $5, planned_amount = $6,
		     actual_amount = $7, actual_date = $8, invoice_number = $9, notes = $10, updated_at = $11
		 WHERE id = $1`,
		entry.Id, entry.VendorName, entry.Description, entry.WbsCode, entry.Month, entry.PlannedAmount,
		entry.ActualAmount, entry.ActualDate, entry.InvoiceNumber, entry.Notes, time.Now())
	if err != nil {
		err = fmt.Errorf("could not update ledger entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}
	if tag.RowsAffected() == 0 {
		return Entry{}, ErrEntryNotFound
	}
	return r.FindById(ctx, entry.Id)
}

func (r *RepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM ledger_entry WHERE id = $1", id)
	if err != nil {
		err = fmt.Errorf("could not delete ledger entry: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *RepoImpl) PushAllocation(ctx context.Context, alloc allocation.Allocation) (int, error) {
	if len(alloc.Breakdown) == 0 {
		return 0, ErrNothingToPush
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		err = fmt.Errorf("could not begin push transaction: %w", err)
		log.Error(err)
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		"UPDATE boe_allocation SET is_locked = TRUE, updated_at = $2 WHERE id = $1 AND is_locked = FALSE",
		alloc.Id, time.Now())
	if err != nil {
		err = fmt.Errorf("could not lock allocation: %w", err)
		log.Error(err)
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrAlreadyPushed
	}

	months := make([]string, 0, len(alloc.Breakdown))
	for month := range alloc.Breakdown {
		months = append(months, month)
	}
	sort.Strings(months)

	now := time.Now()
	for _, month := range months {
		share := alloc.Breakdown[month]
		_, err := tx.Exec(ctx,
			`INSERT INTO ledger_entry (id, version_id, allocation_id, element_id, vendor_name, description, wbs_code, baseline_month, baseline_amount, month, planned_amount, invoice_number, notes, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, '', $7, $8, $7, $8, '', '', $9, $9)`,
			uuid.New(), alloc.VersionId, alloc.Id, alloc.ElementId, alloc.Name, alloc.Description,
			month, share.Amount, now)
		if err != nil {
			err = fmt.Errorf("could not write ledger entry for month %s: %w", month, err)
			log.Error(err)
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		err = fmt.Errorf("could not commit push transaction: %w", err)
		log.Error(err)
		return 0, err
	}
	return len(months), nil
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			err = fmt.Errorf("could not read ledger entry row: %w", err)
			log.Error(err)
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	err := row.Scan(&entry.Id, &entry.VersionId, &entry.AllocationId, &entry.ElementId, &entry.VendorName,
		&entry.Description, &entry.WbsCode, &entry.BaselineMonth, &entry.BaselineAmount, &entry.Month,
		&entry.PlannedAmount, &entry.ActualAmount, &entry.ActualDate, &entry.InvoiceNumber, &entry.Notes)
	return entry, err
}
