package reserve

import (
	"context"

	"github.com/google/uuid"
)

// RepoStub is an in-memory Repo used by tests.
type RepoStub struct {
	reserves map[uuid.UUID]ManagementReserve
}

func NewRepoStub() *RepoStub {
	return &RepoStub{reserves: make(map[uuid.UUID]ManagementReserve)}
}

func (r *RepoStub) FindByVersion(_ context.Context, versionId uuid.UUID) (ManagementReserve, error) {
	reserve, ok := r.reserves[versionId]
	if !ok {
		return ManagementReserve{}, ErrReserveNotFound
	}
	return reserve, nil
}

func (r *RepoStub) Upsert(_ context.Context, reserve ManagementReserve) (ManagementReserve, error) {
	reserve.RemainingAmount = reserve.AdjustedAmount.Sub(reserve.UtilizedAmount)
	reserve.TotalWithBase = reserve.BaseEstimate.Add(reserve.AdjustedAmount)
	r.reserves[reserve.VersionId] = reserve
	return reserve, nil
}

func (r *RepoStub) Delete(_ context.Context, versionId uuid.UUID) error {
	if _, ok := r.reserves[versionId]; !ok {
		return ErrReserveNotFound
	}
	delete(r.reserves, versionId)
	return nil
}

func (r *RepoStub) Cleanup() {
	r.reserves = make(map[uuid.UUID]ManagementReserve)
}
