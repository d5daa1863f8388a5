package allocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackdally/lre-manager-sub006/pkg/wbs"
	log "github.com/sirupsen/logrus"
)

var ErrAllocationNotFound = errors.New("allocation not found")

type Repo interface {
	ListByVersion(ctx context.Context, versionId uuid.UUID) ([]Allocation, error)
	ListActiveByElement(ctx context.Context, elementId uuid.UUID) ([]Allocation, error)
	FindById(ctx context.Context, id uuid.UUID) (Allocation, error)
	Store(ctx context.Context, allocation Allocation) (Allocation, error)
	Update(ctx context.Context, allocation Allocation) (Allocation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AmountsByVersion(ctx context.Context, versionId uuid.UUID) ([]wbs.AllocationAmount, error)
}

type RepoImpl struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *RepoImpl {
	return &RepoImpl{db: db}
}

const allocationColumns = "id, version_id, element_id, name, description, total_amount, start_month, end_month, allocation_type, breakdown, is_locked, is_active"

func (r *RepoImpl) ListByVersion(ctx context.Context, versionId uuid.UUID) ([]Allocation, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+allocationColumns+" FROM boe_allocation WHERE version_id = $1 ORDER BY start_month, name",
		versionId)
	if err != nil {
		err = fmt.Errorf("could not list allocations: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()
	return collectAllocations(rows)
}

func (r *RepoImpl) ListActiveByElement(ctx context.Context, elementId uuid.UUID) ([]Allocation, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+allocationColumns+" FROM boe_allocation WHERE element_id = $1 AND is_active = TRUE",
		elementId)
	if err != nil {
		err = fmt.Errorf("could not list active allocations for element: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()
	return collectAllocations(rows)
}

func (r *RepoImpl) FindById(ctx context.Context, id uuid.UUID) (Allocation, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+allocationColumns+" FROM boe_allocation WHERE id = $1", id)
	allocation, err := scanAllocation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Allocation{}, ErrAllocationNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not find allocation: %w", err)
		log.Error(err)
		return Allocation{}, err
	}
	return allocation, nil
}

func (r *RepoImpl) Store(ctx context.Context, allocation Allocation) (Allocation, error) {
	breakdown, err := json.Marshal(allocation.Breakdown)
	if err != nil {
		return Allocation{}, fmt.Errorf("could not encode breakdown: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO boe_allocation (id, version_id, element_id, name, description, total_amount, start_month, end_month, allocation_type, breakdown, is_locked, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		allocation.Id, allocation.VersionId, allocation.ElementId, allocation.Name, allocation.Description,
		allocation.TotalAmount, allocation.StartMonth, allocation.EndMonth, string(allocation.Type), breakdown,
		allocation.IsLocked, allocation.IsActive, time.Now())
	if err != nil {
		err = fmt.Errorf("could not store allocation: %w", err)
		log.Error(err)
		return Allocation{}, err
	}
	return allocation, nil
}

func (r *RepoImpl) Update(ctx context.Context, allocation Allocation) (Allocation, error) {
	breakdown, err := json.Marshal(allocation.Breakdown)
	if err != nil {
		return Allocation{}, fmt.Errorf("could not encode breakdown: %w", err)
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE boe_allocation
		 SET element_id = $2, name = $3, description = $4, total_amount = $5, start_month = $6, end_month = $7,
		     allocation_type = $8, breakdown = $9, is_locked = $10, is_active = $11, updated_at = $12
		 WHERE id = $1`,
		allocation.Id, allocation.ElementId, allocation.Name, allocation.Description, allocation.TotalAmount,
		allocation.StartMonth, allocation.EndMonth, string(allocation.Type), breakdown, allocation.IsLocked,
		allocation.IsActive, time.Now())
	if err != nil {
		err = fmt.Errorf("could not update allocation: %w", err)
		log.Error(err)
		return Allocation{}, err
	}
	if tag.RowsAffected() == 0 {
		return Allocation{}, ErrAllocationNotFound
	}
	return allocation, nil
}

func (r *RepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM boe_allocation WHERE id = $1", id)
	if err != nil {
		err = fmt.Errorf("could not delete allocation: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAllocationNotFound
	}
	return nil
}

func (r *RepoImpl) AmountsByVersion(ctx context.Context, versionId uuid.UUID) ([]wbs.AllocationAmount, error) {
	rows, err := r.db.Query(ctx,
		"SELECT element_id, total_amount FROM boe_allocation WHERE version_id = $1 AND is_active = TRUE",
		versionId)
	if err != nil {
		err = fmt.Errorf("could not read allocation amounts: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var amounts []wbs.AllocationAmount
	for rows.Next() {
		var amount wbs.AllocationAmount
		if err := rows.Scan(&amount.ElementId, &amount.Amount); err != nil {
			err = fmt.Errorf("could not read allocation amount row: %w", err)
			log.Error(err)
			return nil, err
		}
		amounts = append(amounts, amount)
	}
	return amounts, rows.Err()
}

func collectAllocations(rows pgx.Rows) ([]Allocation, error) {
	var allocations []Allocation
	for rows.Next() {
		allocation, err := scanAllocation(rows)
		if err != nil {
			err = fmt.Errorf("could not read allocation row: %w", err)
			log.Error(err)
			return nil, err
		}
		allocations = append(allocations, allocation)
	}
	return allocations, rows.Err()
}

func scanAllocation(row pgx.Row) (Allocation, error) {
	var allocation Allocation
	var allocationType string
	var breakdown []byte
	err := row.Scan(&allocation.Id, &allocation.VersionId, &allocation.ElementId, &allocation.Name,
		&allocation.Description, &allocation.TotalAmount, &allocation.StartMonth, &allocation.EndMonth,
		&allocationType, &breakdown, &allocation.IsLocked, &allocation.IsActive)
	if err != nil {
		return Allocation{}, err
	}
	allocation.Type = AllocationType(allocationType)
	if len(breakdown) > 0 {
		if err := json.Unmarshal(breakdown, &allocation.Breakdown); err != nil {
			return Allocation{}, fmt.Errorf("could not decode breakdown: %w", err)
		}
	}
	return allocation, nil
}
