package reserve

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

var ErrReserveNotFound = errors.New("management reserve not found")

type Repo interface {
	FindByVersion(ctx context.Context, versionId uuid.UUID) (ManagementReserve, error)
	Upsert(ctx context.Context, reserve ManagementReserve) (ManagementReserve, error)
	Delete(ctx context.Context, versionId uuid.UUID) error
}

type RepoImpl struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *RepoImpl {
	return &RepoImpl{db: db}
}

func (r *RepoImpl) FindByVersion(ctx context.Context, versionId uuid.UUID) (ManagementReserve, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, version_id, strategy, baseline_percentage, baseline_amount, adjusted_percentage,
		        adjusted_amount, utilized_amount, base_estimate, justification
		 FROM management_reserve WHERE version_id = $1`, versionId)

	var reserve ManagementReserve
	var strategy string
	err := row.Scan(&reserve.Id, &reserve.VersionId, &strategy, &reserve.BaselinePercentage,
		&reserve.BaselineAmount, &reserve.AdjustedPercentage, &reserve.AdjustedAmount,
		&reserve.UtilizedAmount, &reserve.BaseEstimate, &reserve.Justification)
	if errors.Is(err, pgx.ErrNoRows) {
		return ManagementReserve{}, ErrReserveNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not find management reserve: %w", err)
		log.Error(err)
		return ManagementReserve{}, err
	}
	reserve.Strategy = Strategy(strategy)
	reserve.RemainingAmount = reserve.AdjustedAmount.Sub(reserve.UtilizedAmount)
	reserve.TotalWithBase = reserve.BaseEstimate.Add(reserve.AdjustedAmount)
	return reserve, nil
}

func (r *RepoImpl) Upsert(ctx context.Context, reserve ManagementReserve) (ManagementReserve, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO management_reserve (id, version_id, strategy, baseline_percentage, baseline_amount,
		                                 adjusted_percentage, adjusted_amount, utilized_amount, base_estimate,
		                                 justification, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		 ON CONFLICT (version_id) DO UPDATE
		 SET strategy = EXCLUDED.strategy, baseline_percentage = EXCLUDED.baseline_percentage,
		     baseline_amount = EXCLUDED.baseline_amount, adjusted_percentage = EXCLUDED.adjusted_percentage,
		     adjusted_amount = EXCLUDED.adjusted_amount, utilized_amount = EXCLUDED.utilized_amount,
		     base_estimate = EXCLUDED.base_estimate, justification = EXCLUDED.justification,
		     updated_at = EXCLUDED.updated_at`,
		reserve.Id, reserve.VersionId, string(reserve.Strategy), reserve.BaselinePercentage,
		reserve.BaselineAmount, reserve.AdjustedPercentage, reserve.AdjustedAmount,
		reserve.UtilizedAmount, reserve.BaseEstimate, reserve.Justification, time.Now())
	if err != nil {
		err = fmt.Errorf("could not upsert management reserve: %w", err)
		log.Error(err)
		return ManagementReserve{}, err
	}
	return r.FindByVersion(ctx, reserve.VersionId)
}

func (r *RepoImpl) Delete(ctx context.Context, versionId uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM management_reserve WHERE version_id = $1", versionId)
	if err != nil {
		err = fmt.Errorf("could not delete management reserve: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrReserveNotFound
	}
	return nil
}
