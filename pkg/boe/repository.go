package boe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrVersionNotFound = errors.New("BOE version not found")

type Repo interface {
	ListByProgram(ctx context.Context, programId uuid.UUID) ([]Version, error)
	FindById(ctx context.Context, id uuid.UUID) (Version, error)
	Store(ctx context.Context, version Version) (Version, error)
	Update(ctx context.Context, version Version) (Version, error)
	Delete(ctx context.Context, id uuid.UUID) error
	NextVersionNumber(ctx context.Context, programId uuid.UUID) (int, error)
	// SetCurrent marks the version as the program's current one and clears
	// the flag on every sibling.
	SetCurrent(ctx context.Context, programId, versionId uuid.UUID) error
	UpdateTotals(ctx context.Context, versionId uuid.UUID, estimated, allocated decimal.Decimal) error
}

type RepoImpl struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *RepoImpl {
	return &RepoImpl{db: db}
}

const versionColumns = "id, program_id, version_number, name, description, status, is_current, estimated_total, allocated_total, approved_at"

func (r *RepoImpl) ListByProgram(ctx context.Context, programId uuid.UUID) ([]Version, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+versionColumns+" FROM boe_version WHERE program_id = $1 ORDER BY version_number DESC",
		programId)
	if err != nil {
		err = fmt.Errorf("could not list BOE versions: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			err = fmt.Errorf("could not read BOE version row: %w", err)
			log.Error(err)
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func (r *RepoImpl) FindById(ctx context.Context, id uuid.UUID) (Version, error) {
	row := r.db.QueryRow(ctx, "SELECT "+versionColumns+" FROM boe_version WHERE id = $1", id)
	version, err := scanVersion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Version{}, ErrVersionNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not find BOE version: %w", err)
		log.Error(err)
		return Version{}, err
	}
	return version, nil
}

func (r *RepoImpl) Store(ctx context.Context, version Version) (Version, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO boe_version (id, program_id, version_number, name, description, status, is_current, estimated_total, allocated_total, approved_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		version.Id, version.ProgramId, version.VersionNumber, version.Name, version.Description,
		string(version.Status), version.IsCurrent, version.EstimatedTotal, version.AllocatedTotal,
		version.ApprovedAt, time.Now())
	if err != nil {
		err = fmt.Errorf("could not store BOE version: %w", err)
		log.Error(err)
		return Version{}, err
	}
	return version, nil
}

func (r *RepoImpl) Update(ctx context.Context, version Version) (Version, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE boe_version
		 SET name = $2, description = $3, status = $4, is_current = $5, estimated_total = $6,
		     allocated_total = $7, approved_at = $8, updated_at = $9
		 WHERE id = $1`,
		version.Id, version.Name, version.Description, string(version.Status), version.IsCurrent,
		version.EstimatedTotal, version.AllocatedTotal, version.ApprovedAt, time.Now())
	if err != nil {
		err = fmt.Errorf("could not update BOE version: %w", err)
		log.Error(err)
		return Version{}, err
	}
	if tag.RowsAffected() == 0 {
		return Version{}, ErrVersionNotFound
	}
	return version, nil
}

func (r *RepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM boe_version WHERE id = $1", id)
	if err != nil {
		err = fmt.Errorf("could not delete BOE version: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionNotFound
	}
	return nil
}

func (r *RepoImpl) NextVersionNumber(ctx context.Context, programId uuid.UUID) (int, error) {
	var next int
	err := r.db.QueryRow(ctx,
		"SELECT COALESCE(MAX(version_number), 0) + 1 FROM boe_version WHERE program_id = $1",
		programId).Scan(&next)
	if err != nil {
		err = fmt.Errorf("could not determine next version number: %w", err)
		log.Error(err)
		return 0, err
	}
	return next, nil
}

func (r *RepoImpl) SetCurrent(ctx context.Context, programId, versionId uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		err = fmt.Errorf("could not begin set-current transaction: %w", err)
		log.Error(err)
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE boe_version SET is_current = FALSE WHERE program_id = $1 AND is_current = TRUE", programId); err != nil {
		err = fmt.Errorf("could not clear current version flag: %w", err)
		log.Error(err)
		return err
	}
	tag, err := tx.Exec(ctx,
		"UPDATE boe_version SET is_current = TRUE WHERE id = $1 AND program_id = $2", versionId, programId)
	if err != nil {
		err = fmt.Errorf("could not set current version: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionNotFound
	}
	return tx.Commit(ctx)
}

func (r *RepoImpl) UpdateTotals(ctx context.Context, versionId uuid.UUID, estimated, allocated decimal.Decimal) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE boe_version SET estimated_total = $2, allocated_total = $3, updated_at = $4 WHERE id = $1",
		versionId, estimated, allocated, time.Now())
	if err != nil {
		err = fmt.Errorf("could not update version totals: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionNotFound
	}
	return nil
}

func scanVersion(row pgx.Row) (Version, error) {
	var version Version
	var status string
	err := row.Scan(&version.Id, &version.ProgramId, &version.VersionNumber, &version.Name,
		&version.Description, &status, &version.IsCurrent, &version.EstimatedTotal,
		&version.AllocatedTotal, &version.ApprovedAt)
	if err != nil {
		return Version{}, err
	}
	version.Status = Status(status)
	return version, nil
}
