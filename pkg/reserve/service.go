package reserve

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrReserveInvalid = errors.New("management reserve is invalid")

// BaseEstimator supplies the leaf-only estimated total the reserve is
// calculated against.
type BaseEstimator interface {
	EstimatedTotal(ctx context.Context, versionId uuid.UUID) (decimal.Decimal, error)
}

type Service interface {
	GetReserve(ctx context.Context, versionId uuid.UUID) (ManagementReserve, error)
	// Recommend calculates a reserve for the version's current base estimate
	// without persisting it.
	Recommend(ctx context.Context, versionId uuid.UUID, strategy Strategy, customPercentage float64) (ManagementReserve, error)
	// SetReserve calculates and stores the version's reserve.
	SetReserve(ctx context.Context, versionId uuid.UUID, strategy Strategy, customPercentage float64, justification string) (ManagementReserve, error)
	DeleteReserve(ctx context.Context, versionId uuid.UUID) error
}

type ServiceImpl struct {
	repo      Repo
	estimates BaseEstimator
}

func NewService(repo Repo, estimates BaseEstimator) *ServiceImpl {
	return &ServiceImpl{repo: repo, estimates: estimates}
}

func (s *ServiceImpl) GetReserve(ctx context.Context, versionId uuid.UUID) (ManagementReserve, error) {
	return s.repo.FindByVersion(ctx, versionId)
}

func (s *ServiceImpl) Recommend(ctx context.Context, versionId uuid.UUID, strategy Strategy, customPercentage float64) (ManagementReserve, error) {
	reserve, err := s.calculate(ctx, versionId, strategy, customPercentage)
	if err != nil {
		return ManagementReserve{}, err
	}
	return reserve, nil
}

func (s *ServiceImpl) SetReserve(ctx context.Context, versionId uuid.UUID, strategy Strategy, customPercentage float64, justification string) (ManagementReserve, error) {
	reserve, err := s.calculate(ctx, versionId, strategy, customPercentage)
	if err != nil {
		return ManagementReserve{}, err
	}
	reserve.Justification = justification

	existing, err := s.repo.FindByVersion(ctx, versionId)
	switch {
	case err == nil:
		reserve.Id = existing.Id
	case errors.Is(err, ErrReserveNotFound):
		reserve.Id = uuid.New()
	default:
		return ManagementReserve{}, err
	}
	return s.repo.Upsert(ctx, reserve)
}

func (s *ServiceImpl) DeleteReserve(ctx context.Context, versionId uuid.UUID) error {
	return s.repo.Delete(ctx, versionId)
}

func (s *ServiceImpl) calculate(ctx context.Context, versionId uuid.UUID, strategy Strategy, customPercentage float64) (ManagementReserve, error) {
	strategy, err := ParseStrategy(string(strategy))
	if err != nil {
		return ManagementReserve{}, fmt.Errorf("%w: %v", ErrReserveInvalid, err)
	}
	if customPercentage < 0 {
		return ManagementReserve{}, fmt.Errorf("%w: percentage cannot be negative", ErrReserveInvalid)
	}
	base, err := s.estimates.EstimatedTotal(ctx, versionId)
	if err != nil {
		return ManagementReserve{}, err
	}
	reserve := Calculate(strategy, base, customPercentage)
	reserve.VersionId = versionId
	return reserve, nil
}
