package app

import (
	"github.com/gorilla/mux"
	"github.com/jackdally/lre-manager-sub006/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Programs
	r.HandleFunc("/api/program", deps.ProgramHandler.ListPrograms).Methods("GET")
	r.HandleFunc("/api/program", deps.ProgramHandler.CreateProgram).Methods("POST")
	r.HandleFunc("/api/program/{id}", deps.ProgramHandler.GetProgram).Methods("GET")
	r.HandleFunc("/api/program/{id}", deps.ProgramHandler.UpdateProgram).Methods("PUT")
	r.HandleFunc("/api/program/{id}", deps.ProgramHandler.DeleteProgram).Methods("DELETE")

	// BOE versions
	r.HandleFunc("/api/program/{programId}/boe", deps.BOEHandler.ListVersions).Methods("GET")
	r.HandleFunc("/api/boe", deps.BOEHandler.CreateVersion).Methods("POST")
	r.HandleFunc("/api/boe/{id}", deps.BOEHandler.GetVersion).Methods("GET")
	r.HandleFunc("/api/boe/{id}", deps.BOEHandler.UpdateVersion).Methods("PUT")
	r.HandleFunc("/api/boe/{id}", deps.BOEHandler.DeleteVersion).Methods("DELETE")
	r.HandleFunc("/api/boe/{id}/summary", deps.BOEHandler.GetSummary).Methods("GET")
	r.HandleFunc("/api/boe/{id}/readiness", deps.BOEHandler.CheckReadiness).Methods("GET")
	r.HandleFunc("/api/boe/{id}/baseline", deps.BOEHandler.Baseline).Methods("POST")
	r.HandleFunc("/api/boe/{id}/push", deps.BOEHandler.PushToProgram).Methods("POST")

	// WBS estimate elements
	r.HandleFunc("/api/boe/{versionId}/element", deps.ElementHandler.ListElements).Methods("GET")
	r.HandleFunc("/api/boe/{versionId}/hierarchy", deps.ElementHandler.GetHierarchy).Methods("GET")
	r.HandleFunc("/api/boe/{versionId}/rollup", deps.ElementHandler.GetRollup).Methods("GET")
	r.HandleFunc("/api/boe/{versionId}/validation", deps.ElementHandler.ValidateStructure).Methods("GET")
	r.HandleFunc("/api/element", deps.ElementHandler.CreateElement).Methods("POST")
	r.HandleFunc("/api/element/{id}", deps.ElementHandler.UpdateElement).Methods("PUT")
	r.HandleFunc("/api/element/{id}", deps.ElementHandler.DeleteElement).Methods("DELETE")

	// Allocations
	r.HandleFunc("/api/boe/{versionId}/allocation", deps.AllocationHandler.ListAllocations).Methods("GET")
	r.HandleFunc("/api/boe/{versionId}/allocation/summary", deps.AllocationHandler.GetSummary).Methods("GET")
	r.HandleFunc("/api/allocation", deps.AllocationHandler.CreateAllocation).Methods("POST")
	r.HandleFunc("/api/allocation/preview", deps.AllocationHandler.PreviewBreakdown).Methods("POST")
	r.HandleFunc("/api/allocation/{id}", deps.AllocationHandler.GetAllocation).Methods("GET")
	r.HandleFunc("/api/allocation/{id}", deps.AllocationHandler.UpdateAllocation).Methods("PUT")
	r.HandleFunc("/api/allocation/{id}", deps.AllocationHandler.DeleteAllocation).Methods("DELETE")

	// Management reserve
	r.HandleFunc("/api/boe/{versionId}/reserve", deps.ReserveHandler.GetReserve).Methods("GET")
	r.HandleFunc("/api/boe/{versionId}/reserve", deps.ReserveHandler.SetReserve).Methods("PUT")
	r.HandleFunc("/api/boe/{versionId}/reserve", deps.ReserveHandler.DeleteReserve).Methods("DELETE")
	r.HandleFunc("/api/boe/{versionId}/reserve/recommendation", deps.ReserveHandler.Recommend).Methods("GET")

	// Ledger
	r.HandleFunc("/api/boe/{versionId}/ledger", deps.LedgerHandler.ListEntries).Methods("GET")
	r.HandleFunc("/api/boe/{versionId}/ledger/metrics", deps.LedgerHandler.GetMetrics).Methods("GET")
	r.HandleFunc("/api/boe/{versionId}/ledger/push", deps.LedgerHandler.PushVersion).Methods("POST")
	r.HandleFunc("/api/ledger", deps.LedgerHandler.CreateEntry).Methods("POST")
	r.HandleFunc("/api/ledger/{id}", deps.LedgerHandler.DeleteEntry).Methods("DELETE")
	r.HandleFunc("/api/ledger/{id}/actual", deps.LedgerHandler.RecordActual).Methods("PUT")
	r.HandleFunc("/api/allocation/{allocationId}/push", deps.LedgerHandler.PushAllocation).Methods("POST")
	r.HandleFunc("/api/allocation/{allocationId}/actuals", deps.LedgerHandler.GetAllocationActuals).Methods("GET")
}
