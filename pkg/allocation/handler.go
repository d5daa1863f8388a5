package allocation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type MonthlyShareDTO struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

type AllocationDTO struct {
	Id          string                     `json:"id"`
	VersionId   string                     `json:"versionId"`
	ElementId   *string                    `json:"elementId,omitempty"`
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	TotalAmount decimal.Decimal            `json:"totalAmount"`
	StartMonth  string                     `json:"startMonth"`
	EndMonth    string                     `json:"endMonth"`
	Type        string                     `json:"type"`
	Breakdown   map[string]MonthlyShareDTO `json:"breakdown,omitempty"`
	IsLocked    bool                       `json:"isLocked"`
	IsActive    bool                       `json:"isActive"`
}

type SummaryDTO struct {
	Count         int                        `json:"count"`
	TotalAmount   decimal.Decimal            `json:"totalAmount"`
	MonthlyTotals map[string]decimal.Decimal `json:"monthlyTotals"`
}

func AllocationToDTO(allocation Allocation) AllocationDTO {
	dto := AllocationDTO{
		Id:          allocation.Id.String(),
		VersionId:   allocation.VersionId.String(),
		Name:        allocation.Name,
		Description: allocation.Description,
		TotalAmount: allocation.TotalAmount,
		StartMonth:  allocation.StartMonth,
		EndMonth:    allocation.EndMonth,
		Type:        string(allocation.Type),
		IsLocked:    allocation.IsLocked,
		IsActive:    allocation.IsActive,
	}
	if allocation.ElementId != nil {
		elementId := allocation.ElementId.String()
		dto.ElementId = &elementId
	}
	if allocation.Breakdown != nil {
		dto.Breakdown = make(map[string]MonthlyShareDTO, len(allocation.Breakdown))
		for month, share := range allocation.Breakdown {
			dto.Breakdown[month] = MonthlyShareDTO(share)
		}
	}
	return dto
}

func DTOToAllocation(dto AllocationDTO) (Allocation, error) {
	allocation := Allocation{
		Name:        dto.Name,
		Description: dto.Description,
		TotalAmount: dto.TotalAmount,
		StartMonth:  dto.StartMonth,
		EndMonth:    dto.EndMonth,
		Type:        AllocationType(dto.Type),
	}
	if dto.Id != "" {
		id, err := uuid.Parse(dto.Id)
		if err != nil {
			return Allocation{}, err
		}
		allocation.Id = id
	}
	if dto.VersionId != "" {
		versionId, err := uuid.Parse(dto.VersionId)
		if err != nil {
			return Allocation{}, err
		}
		allocation.VersionId = versionId
	}
	if dto.ElementId != nil {
		elementId, err := uuid.Parse(*dto.ElementId)
		if err != nil {
			return Allocation{}, err
		}
		allocation.ElementId = &elementId
	}
	if dto.Breakdown != nil {
		allocation.Breakdown = make(map[string]MonthlyShare, len(dto.Breakdown))
		for month, share := range dto.Breakdown {
			allocation.Breakdown[month] = MonthlyShare(share)
		}
	}
	return allocation, nil
}

func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	allocations, err := h.service.ListAllocations(r.Context(), versionId)
	if err != nil {
		http.Error(w, "Failed to list allocations", http.StatusInternalServerError)
		return
	}
	dtos := make([]AllocationDTO, 0, len(allocations))
	for _, allocation := range allocations {
		dtos = append(dtos, AllocationToDTO(allocation))
	}
	writeJSON(w, dtos)
}

func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid allocation ID", http.StatusBadRequest)
		return
	}
	allocation, err := h.service.GetAllocation(r.Context(), id)
	if err != nil {
		writeAllocationError(w, err)
		return
	}
	writeJSON(w, AllocationToDTO(allocation))
}

func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var dto AllocationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	allocation, err := DTOToAllocation(dto)
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateAllocation(r.Context(), allocation)
	if err != nil {
		writeAllocationError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, AllocationToDTO(created))
}

func (h *Handler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid allocation ID", http.StatusBadRequest)
		return
	}
	var dto AllocationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	allocation, err := DTOToAllocation(dto)
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	allocation.Id = id
	updated, err := h.service.UpdateAllocation(r.Context(), allocation)
	if err != nil {
		writeAllocationError(w, err)
		return
	}
	writeJSON(w, AllocationToDTO(updated))
}

func (h *Handler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid allocation ID", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteAllocation(r.Context(), id); err != nil {
		writeAllocationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	summary, err := h.service.Summarize(r.Context(), versionId)
	if err != nil {
		http.Error(w, "Failed to summarize allocations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, SummaryDTO{
		Count:         summary.Count,
		TotalAmount:   summary.TotalAmount,
		MonthlyTotals: summary.MonthlyTotals,
	})
}

// PreviewBreakdown generates a phasing preview without persisting anything.
func (h *Handler) PreviewBreakdown(w http.ResponseWriter, r *http.Request) {
	var dto AllocationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	allocationType, err := ParseAllocationType(dto.Type)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	breakdown, err := GenerateMonthlyBreakdown(dto.TotalAmount, dto.StartMonth, dto.EndMonth, allocationType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dtos := make(map[string]MonthlyShareDTO, len(breakdown))
	for month, share := range breakdown {
		dtos[month] = MonthlyShareDTO(share)
	}
	writeJSON(w, dtos)
}

func writeAllocationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAllocationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAllocationInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrAllocationLocked), errors.Is(err, ErrElementAlreadyCovered):
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
