package program

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// RepoStub is an in-memory Repo used by tests.
type RepoStub struct {
	programs map[uuid.UUID]Program
}

func NewRepoStub() *RepoStub {
	return &RepoStub{programs: make(map[uuid.UUID]Program)}
}

func (r *RepoStub) List(_ context.Context) ([]Program, error) {
	var programs []Program
	for _, program := range r.programs {
		programs = append(programs, program)
	}
	sort.Slice(programs, func(i, j int) bool { return programs[i].Code < programs[j].Code })
	return programs, nil
}

func (r *RepoStub) FindById(_ context.Context, id uuid.UUID) (Program, error) {
	program, ok := r.programs[id]
	if !ok {
		return Program{}, ErrProgramNotFound
	}
	return program, nil
}

func (r *RepoStub) Store(_ context.Context, program Program) (Program, error) {
	r.programs[program.Id] = program
	return program, nil
}

func (r *RepoStub) Update(_ context.Context, program Program) (Program, error) {
	if _, ok := r.programs[program.Id]; !ok {
		return Program{}, ErrProgramNotFound
	}
	r.programs[program.Id] = program
	return program, nil
}

func (r *RepoStub) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.programs[id]; !ok {
		return ErrProgramNotFound
	}
	delete(r.programs, id)
	return nil
}

func (r *RepoStub) Cleanup() {
	r.programs = make(map[uuid.UUID]Program)
}
