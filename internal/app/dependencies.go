package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackdally/lre-manager-sub006/internal/config"
	"github.com/jackdally/lre-manager-sub006/internal/event_bus"
	"github.com/jackdally/lre-manager-sub006/internal/utils"
	"github.com/jackdally/lre-manager-sub006/pkg/allocation"
	"github.com/jackdally/lre-manager-sub006/pkg/boe"
	"github.com/jackdally/lre-manager-sub006/pkg/ledger"
	"github.com/jackdally/lre-manager-sub006/pkg/program"
	"github.com/jackdally/lre-manager-sub006/pkg/reserve"
	"github.com/jackdally/lre-manager-sub006/pkg/wbs"
	"github.com/shopspring/decimal"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus
	Clock    utils.Clock

	ProgramRepo    program.Repo
	ProgramService program.Service
	ProgramHandler *program.Handler

	ElementRepo    wbs.ElementRepo
	ElementService wbs.Service
	ElementHandler *wbs.Handler

	AllocationRepo    allocation.Repo
	AllocationService allocation.Service
	AllocationHandler *allocation.Handler

	ReserveRepo    reserve.Repo
	ReserveService reserve.Service
	ReserveHandler *reserve.Handler

	LedgerRepo    ledger.Repo
	LedgerService ledger.Service
	LedgerHandler *ledger.Handler

	VersionRepo *boe.RepoImpl
	BOEService  boe.Service
	BOEHandler  *boe.Handler
}

// estimateAdapter feeds the reserve calculator the leaf-only estimated total
// of a version.
type estimateAdapter struct {
	elements wbs.Service
}

func (a estimateAdapter) EstimatedTotal(ctx context.Context, versionId uuid.UUID) (decimal.Decimal, error) {
	rollup, err := a.elements.Rollup(ctx, versionId, 0)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return rollup.EstimatedTotal, nil
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = utils.SystemClock{}

	deps.ProgramRepo = program.NewRepo(db)
	deps.ProgramService = program.NewService(deps.ProgramRepo)
	deps.ProgramHandler = program.NewHandler(deps.ProgramService)

	deps.AllocationRepo = allocation.NewRepo(db)
	deps.AllocationService = allocation.NewService(deps.AllocationRepo)
	deps.AllocationHandler = allocation.NewHandler(deps.AllocationService)

	deps.ElementRepo = wbs.NewElementRepo(db)
	deps.ElementService = wbs.NewService(deps.ElementRepo, deps.AllocationRepo, deps.EventBus)
	deps.ElementHandler = wbs.NewHandler(deps.ElementService)

	deps.ReserveRepo = reserve.NewRepo(db)
	deps.ReserveService = reserve.NewService(deps.ReserveRepo, estimateAdapter{elements: deps.ElementService})
	deps.ReserveHandler = reserve.NewHandler(deps.ReserveService)

	deps.LedgerRepo = ledger.NewRepo(db)
	deps.LedgerService = ledger.NewService(deps.LedgerRepo, deps.AllocationRepo, deps.EventBus, deps.Clock)
	deps.LedgerHandler = ledger.NewHandler(deps.LedgerService)

	deps.VersionRepo = boe.NewRepo(db)
	deps.BOEService = boe.NewService(deps.VersionRepo, deps.ElementService, deps.AllocationService,
		deps.ReserveService, deps.LedgerService, deps.EventBus, deps.Clock)
	deps.BOEHandler = boe.NewHandler(deps.BOEService)

	return deps
}
