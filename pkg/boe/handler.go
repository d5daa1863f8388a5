package boe

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackdally/lre-manager-sub006/pkg/allocation"
	"github.com/jackdally/lre-manager-sub006/pkg/ledger"
	"github.com/jackdally/lre-manager-sub006/pkg/reserve"
	"github.com/jackdally/lre-manager-sub006/pkg/wbs"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type VersionDTO struct {
	Id             string          `json:"id"`
	ProgramId      string          `json:"programId"`
	VersionNumber  int             `json:"versionNumber"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Status         string          `json:"status"`
	IsCurrent      bool            `json:"isCurrent"`
	EstimatedTotal decimal.Decimal `json:"estimatedTotal"`
	AllocatedTotal decimal.Decimal `json:"allocatedTotal"`
	ApprovedAt     *time.Time      `json:"approvedAt,omitempty"`
}

type SummaryDTO struct {
	Version     VersionDTO            `json:"version"`
	Rollup      wbs.RollupResultDTO   `json:"rollup"`
	Allocations allocation.SummaryDTO `json:"allocations"`
	Reserve     *reserve.ReserveDTO   `json:"reserve,omitempty"`
	Metrics     ledger.MetricsDTO     `json:"metrics"`
}

type PushResponseDTO struct {
	Version VersionDTO                  `json:"version"`
	Result  ledger.VersionPushResultDTO `json:"result"`
}

func VersionToDTO(version Version) VersionDTO {
	return VersionDTO{
		Id:             version.Id.String(),
		ProgramId:      version.ProgramId.String(),
		VersionNumber:  version.VersionNumber,
		Name:           version.Name,
		Description:    version.Description,
		Status:         string(version.Status),
		IsCurrent:      version.IsCurrent,
		EstimatedTotal: version.EstimatedTotal,
		AllocatedTotal: version.AllocatedTotal,
		ApprovedAt:     version.ApprovedAt,
	}
}

func DTOToVersion(dto VersionDTO) (Version, error) {
	version := Version{
		Name:        dto.Name,
		Description: dto.Description,
	}
	if dto.Id != "" {
		id, err := uuid.Parse(dto.Id)
		if err != nil {
			return Version{}, err
		}
		version.Id = id
	}
	if dto.ProgramId != "" {
		programId, err := uuid.Parse(dto.ProgramId)
		if err != nil {
			return Version{}, err
		}
		version.ProgramId = programId
	}
	return version, nil
}

func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	programId, err := uuid.Parse(mux.Vars(r)["programId"])
	if err != nil {
		http.Error(w, "Invalid program ID", http.StatusBadRequest)
		return
	}
	versions, err := h.service.ListVersions(r.Context(), programId)
	if err != nil {
		http.Error(w, "Failed to list BOE versions", http.StatusInternalServerError)
		return
	}
	dtos := make([]VersionDTO, 0, len(versions))
	for _, version := range versions {
		dtos = append(dtos, VersionToDTO(version))
	}
	writeJSON(w, dtos)
}

func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	version, err := h.service.GetVersion(r.Context(), id)
	if err != nil {
		writeVersionError(w, err)
		return
	}
	writeJSON(w, VersionToDTO(version))
}

func (h *Handler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	var dto VersionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	version, err := DTOToVersion(dto)
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateVersion(r.Context(), version)
	if err != nil {
		writeVersionError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, VersionToDTO(created))
}

func (h *Handler) UpdateVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	var dto VersionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	version, err := DTOToVersion(dto)
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	version.Id = id
	updated, err := h.service.UpdateVersion(r.Context(), version)
	if err != nil {
		writeVersionError(w, err)
		return
	}
	writeJSON(w, VersionToDTO(updated))
}

func (h *Handler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteVersion(r.Context(), id); err != nil {
		writeVersionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	summary, err := h.service.Summarize(r.Context(), id)
	if err != nil {
		writeVersionError(w, err)
		return
	}
	writeJSON(w, summaryToDTO(summary))
}

func (h *Handler) CheckReadiness(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	result, err := h.service.CheckReadiness(r.Context(), id)
	if err != nil {
		writeVersionError(w, err)
		return
	}
	writeJSON(w, wbs.ValidationResultToDTO(result))
}

func (h *Handler) Baseline(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	version, err := h.service.Baseline(r.Context(), id)
	if err != nil {
		writeVersionError(w, err)
		return
	}
	writeJSON(w, VersionToDTO(version))
}

func (h *Handler) PushToProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	version, result, err := h.service.PushToProgram(r.Context(), id)
	if err != nil {
		writeVersionError(w, err)
		return
	}
	dto := PushResponseDTO{
		Version: VersionToDTO(version),
		Result: ledger.VersionPushResultDTO{
			Pushed:       []ledger.PushResultDTO{},
			Skipped:      []string{},
			TotalEntries: result.TotalEntries,
		},
	}
	for _, pushed := range result.Pushed {
		dto.Result.Pushed = append(dto.Result.Pushed, ledger.PushResultDTO{
			AllocationId:   pushed.AllocationId.String(),
			EntriesCreated: pushed.EntriesCreated,
		})
	}
	for _, skipped := range result.Skipped {
		dto.Result.Skipped = append(dto.Result.Skipped, skipped.String())
	}
	writeJSON(w, dto)
}

func summaryToDTO(summary Summary) SummaryDTO {
	dto := SummaryDTO{
		Version: VersionToDTO(summary.Version),
		Allocations: allocation.SummaryDTO{
			Count:         summary.Allocations.Count,
			TotalAmount:   summary.Allocations.TotalAmount,
			MonthlyTotals: summary.Allocations.MonthlyTotals,
		},
		Metrics: ledger.MetricsDTO{
			TotalPlanned:             summary.Metrics.TotalPlanned,
			PlannedToDate:            summary.Metrics.PlannedToDate,
			ActualsToDate:            summary.Metrics.ActualsToDate,
			Variance:                 summary.Metrics.Variance,
			PercentSpent:             summary.Metrics.PercentSpent,
			SchedulePerformanceIndex: summary.Metrics.SchedulePerformanceIndex,
		},
	}
	dto.Rollup = wbs.RollupToDTO(summary.Rollup)
	if summary.Reserve != nil {
		reserveDTO := reserve.ReserveToDTO(*summary.Reserve)
		dto.Reserve = &reserveDTO
	}
	return dto
}

func writeVersionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrVersionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrVersionInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrVersionImmutable), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrVersionNotReady):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("could not encode response: %v", err)
	}
}
