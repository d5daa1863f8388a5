package program

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

var ErrProgramNotFound = errors.New("program not found")

type Repo interface {
	List(ctx context.Context) ([]Program, error)
	FindById(ctx context.Context, id uuid.UUID) (Program, error)
	Store(ctx context.Context, program Program) (Program, error)
	Update(ctx context.Context, program Program) (Program, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type RepoImpl struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *RepoImpl {
	return &RepoImpl{db: db}
}

const programColumns = "id, code, name, description, status, manager, total_budget"

func (r *RepoImpl) List(ctx context.Context) ([]Program, error) {
	rows, err := r.db.Query(ctx, "SELECT "+programColumns+" FROM program ORDER BY code")
	if err != nil {
		err = fmt.Errorf("could not list programs: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var programs []Program
	for rows.Next() {
		program, err := scanProgram(rows)
		if err != nil {
			err = fmt.Errorf("could not read program row: %w", err)
			log.Error(err)
			return nil, err
		}
		programs = append(programs, program)
	}
	return programs, rows.Err()
}

func (r *RepoImpl) FindById(ctx context.Context, id uuid.UUID) (Program, error) {
	row := r.db.QueryRow(ctx, "SELECT "+programColumns+" FROM program WHERE id = $1", id)
	program, err := scanProgram(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Program{}, ErrProgramNotFound
	}
	if err != nil {
		err = fmt.Errorf("could not find program: %w", err)
		log.Error(err)
		return Program{}, err
	}
	return program, nil
}

func (r *RepoImpl) Store(ctx context.Context, program Program) (Program, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO program (id, code, name, description, status, manager, total_budget, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		program.Id, program.Code, program.Name, program.Description, string(program.Status),
		program.Manager, program.TotalBudget, time.Now())
	if err != nil {
		err = fmt.Errorf("could not store program: %w", err)
		log.Error(err)
		return Program{}, err
	}
	return program, nil
}

func (r *RepoImpl) Update(ctx context.Context, program Program) (Program, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE program
		 SET code = $2, name = $3, description = $4, status = $5, manager = $6, total_budget = $7, updated_at = $8
		 WHERE id = $1`,
		program.Id, program.Code, program.Name, program.Description, string(program.Status),
		program.Manager, program.TotalBudget, time.Now())
	if err != nil {
		err = fmt.Errorf("could not update program: %w", err)
		log.Error(err)
		return Program{}, err
	}
	if tag.RowsAffected() == 0 {
		return Program{}, ErrProgramNotFound
	}
	return program, nil
}

func (r *RepoImpl) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM program WHERE id = $1", id)
	if err != nil {
		err = fmt.Errorf("could not delete program: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProgramNotFound
	}
	return nil
}

func scanProgram(row pgx.Row) (Program, error) {
	var program Program
	var status string
	err := row.Scan(&program.Id, &program.Code, &program.Name, &program.Description, &status,
		&program.Manager, &program.TotalBudget)
	if err != nil {
		return Program{}, err
	}
	program.Status = Status(status)
	return program, nil
}
