package program

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrProgramInvalid = errors.New("program is invalid")

type Service interface {
	ListPrograms(ctx context.Context) ([]Program, error)
	GetProgram(ctx context.Context, id uuid.UUID) (Program, error)
	CreateProgram(ctx context.Context, program Program) (Program, error)
	UpdateProgram(ctx context.Context, program Program) (Program, error)
	DeleteProgram(ctx context.Context, id uuid.UUID) error
}

type ServiceImpl struct {
	repo Repo
}

func NewService(repo Repo) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) ListPrograms(ctx context.Context) ([]Program, error) {
	return s.repo.List(ctx)
}

func (s *ServiceImpl) GetProgram(ctx context.Context, id uuid.UUID) (Program, error) {
	return s.repo.FindById(ctx, id)
}

func (s *ServiceImpl) CreateProgram(ctx context.Context, program Program) (Program, error) {
	if err := checkProgram(program); err != nil {
		return Program{}, err
	}
	if program.Id == uuid.Nil {
		program.Id = uuid.New()
	}
	if program.Status == "" {
		program.Status = StatusActive
	}
	return s.repo.Store(ctx, program)
}

func (s *ServiceImpl) UpdateProgram(ctx context.Context, program Program) (Program, error) {
	if err := checkProgram(program); err != nil {
		return Program{}, err
	}
	return s.repo.Update(ctx, program)
}

func (s *ServiceImpl) DeleteProgram(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func checkProgram(program Program) error {
	if program.Code == "" {
		return fmt.Errorf("%w: code is required", ErrProgramInvalid)
	}
	if program.Name == "" {
		return fmt.Errorf("%w: name is required", ErrProgramInvalid)
	}
	if program.TotalBudget.IsNegative() {
		return fmt.Errorf("%w: total budget cannot be negative", ErrProgramInvalid)
	}
	return nil
}
