package wbs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrElementNotFound = errors.New("estimate element not found")

type ElementRepo interface {
	ListByVersion(ctx context.Context, versionId uuid.UUID) ([]EstimateElement, error)
	FindById(ctx context.Context, id uuid.UUID) (EstimateElement, error)
	Store(ctx context.Context, element EstimateElement) (EstimateElement, error)
	Update(ctx context.Context, element EstimateElement) (EstimateElement, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountChildren(ctx context.Context, id uuid.UUID) (int, error)
}

type ElementRepoImpl struct {
	db *pgxpool.Pool
}

func NewElementRepo(db *pgxpool.Pool) *ElementRepoImpl {
	return &ElementRepoImpl{db: db}
}

const elementColumns = "id, version_id, code, name, description, level, parent_id, cost_category_id, estimated_cost, is_required, is_optional, notes"

func (r *ElementRepoImpl) ListByVersion(ctx context.Context, versionId uuid.UUID) ([]EstimateElement, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+elementColumns+" FROM wbs_element WHERE version_id = $1 ORDER BY code",
		versionId)
	if err != nil {
		err = fmt.Errorf("could not list estimate elements: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var elements []EstimateElement
	for rows.Next() {
		element, err := scanElement(rows)
		if err != nil {
			err = fmt.Errorf("could not read estimate element row: %w", err)
			log.Error(err)
			return nil, err
		}
		elements = append(elements, element)
	}
	return elements, rows.Err()
}

func (r *ElementRepoImpl) FindById(ctx context.Context, id uuid.UUID) (EstimateElement, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+elementColumns+" FROM wbs_element WHERE id = $1",
		id)
	element, err := scanElement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return EstimateElement{}, ErrElementNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not find estimate element: %w", err)
		log.Error(err)
		return EstimateElement{}, err
	}
	return element, nil
}

func (r *ElementRepoImpl) Store(ctx context.Context, element EstimateElement) (EstimateElement, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO wbs_element (id, version_id, code, name, description, level, parent_id, cost_category_id, estimated_cost, is_required, is_optional, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		element.Id, element.VersionId, element.Code, element.Name, element.Description, element.Level,
		element.ParentId, element.CostCategoryId, element.EstimatedCost, element.IsRequired, element.IsOptional,
		element.Notes, time.Now())
	if err != nil {
		err = fmt.Errorf("could not store estimate element: %w", err)
		log.Error(err)
		return EstimateElement{}, err
	}
	return element, nil
}

func (r *ElementRepoImpl) Update(ctx context.Context, element EstimateElement) (EstimateElement, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE wbs_element
		 SET code = $2, name = $3, description = $4, level = $5, parent_id = $6, cost_category_id = $7,
		     estimated_cost = $8, is_required = $9, is_optional = $10, notes = $11, updated_at = $12
		 WHERE id = $1`,
		element.Id, element.Code, element.Name, element.Description, element.Level, element.ParentId,
		element.CostCategoryId, element.EstimatedCost, element.IsRequired, element.IsOptional, element.Notes,
		time.Now())
	if err != nil {
		err = fmt.Errorf("could not update estimate element: %w", err)
		log.Error(err)
		return EstimateElement{}, err
	}
	if tag.RowsAffected() == 0 {
		return EstimateElement{}, ErrElementNotFound
	}
	return element, nil
}

func (r *ElementRepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM wbs_element WHERE id = $1", id)
	if err != nil {
		err = fmt.Errorf("could not delete estimate element: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrElementNotFound
	}
	return nil
}

func (r *ElementRepoImpl) CountChildren(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM wbs_element WHERE parent_id = $1", id).Scan(&count)
	if err != nil {
		err = fmt.Errorf("could not count child elements: %w", err)
		log.Error(err)
		return 0, err
	}
	return count, nil
}

func scanElement(row pgx.Row) (EstimateElement, error) {
	var element EstimateElement
	err := row.Scan(&element.Id, &element.VersionId, &element.Code, &element.Name, &element.Description,
		&element.Level, &element.ParentId, &element.CostCategoryId, &element.EstimatedCost,
		&element.IsRequired, &element.IsOptional, &element.Notes)
	return element, err
}
