package boe

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepoStub is an in-memory Repo used by tests.
type RepoStub struct {
	versions map[uuid.UUID]Version
}

func NewRepoStub() *RepoStub {
	return &RepoStub{versions: make(map[uuid.UUID]Version)}
}

func (r *RepoStub) ListByProgram(_ context.Context, programId uuid.UUID) ([]Version, error) {
	var versions []Version
	for _, version := range r.versions {
		if version.ProgramId == programId {
			versions = append(versions, version)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].VersionNumber > versions[j].VersionNumber })
	return versions, nil
}

func (r *RepoStub) FindById(_ context.Context, id uuid.UUID) (Version, error) {
	version, ok := r.versions[id]
	if !ok {
		return Version{}, ErrVersionNotFound
	}
	return version, nil
}

func (r *RepoStub) Store(_ context.Context, version Version) (Version, error) {
	r.versions[version.Id] = version
	return version, nil
}

func (r *RepoStub) Update(_ context.Context, version Version) (Version, error) {
	if _, ok := r.versions[version.Id]; !ok {
		return Version{}, ErrVersionNotFound
	}
	r.versions[version.Id] = version
	return version, nil
}

func (r *RepoStub) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.versions[id]; !ok {
		return ErrVersionNotFound
	}
	delete(r.versions, id)
	return nil
}

func (r *RepoStub) NextVersionNumber(_ context.Context, programId uuid.UUID) (int, error) {
	max := 0
	for _, version := range r.versions {
		if version.ProgramId == programId && version.VersionNumber > max {
			max = version.VersionNumber
		}
	}
	return max + 1, nil
}

func (r *RepoStub) SetCurrent(_ context.Context, programId, versionId uuid.UUID) error {
	if _, ok := r.versions[versionId]; !ok {
		return ErrVersionNotFound
	}
	for id, version := range r.versions {
		if version.ProgramId == programId {
			version.IsCurrent = id == versionId
			r.versions[id] = version
		}
	}
	return nil
}

func (r *RepoStub) UpdateTotals(_ context.Context, versionId uuid.UUID, estimated, allocated decimal.Decimal) error {
	version, ok := r.versions[versionId]
	if !ok {
		return ErrVersionNotFound
	}
	version.EstimatedTotal = estimated
	version.AllocatedTotal = allocated
	r.versions[versionId] = version
	return nil
}

func (r *RepoStub) Cleanup() {
	r.versions = make(map[uuid.UUID]Version)
}
