package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackdally/lre-manager-sub006/pkg/allocation"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type EntryDTO struct {
	Id             string           `json:"id"`
	VersionId      string           `json:"versionId"`
	AllocationId   *string          `json:"allocationId,omitempty"`
	ElementId      *string          `json:"elementId,omitempty"`
	VendorName     string           `json:"vendorName"`
	Description    string           `json:"description,omitempty"`
	WbsCode        string           `json:"wbsCode,omitempty"`
	BaselineMonth  string           `json:"baselineMonth"`
	BaselineAmount decimal.Decimal  `json:"baselineAmount"`
	Month          string           `json:"month"`
	PlannedAmount  decimal.Decimal  `json:"plannedAmount"`
	ActualAmount   *decimal.Decimal `json:"actualAmount,omitempty"`
	ActualDate     *time.Time       `json:"actualDate,omitempty"`
	InvoiceNumber  string           `json:"invoiceNumber,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}

type MetricsDTO struct {
	TotalPlanned             decimal.Decimal `json:"totalPlanned"`
	PlannedToDate            decimal.Decimal `json:"plannedToDate"`
	ActualsToDate            decimal.Decimal `json:"actualsToDate"`
	Variance                 decimal.Decimal `json:"variance"`
	PercentSpent             float64         `json:"percentSpent"`
	SchedulePerformanceIndex float64         `json:"schedulePerformanceIndex"`
}

type PushResultDTO struct {
	AllocationId   string `json:"allocationId"`
	EntriesCreated int    `json:"entriesCreated"`
}

type VersionPushResultDTO struct {
	Pushed       []PushResultDTO `json:"pushed"`
	Skipped      []string        `json:"skipped"`
	TotalEntries int             `json:"totalEntries"`
}

type actualRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	ActualDate    time.Time       `json:"actualDate"`
	InvoiceNumber string          `json:"invoiceNumber"`
}

func EntryToDTO(entry Entry) EntryDTO {
	dto := EntryDTO{
		Id:             entry.Id.String(),
		VersionId:      entry.VersionId.String(),
		VendorName:     entry.VendorName,
		Description:    entry.Description,
		WbsCode:        entry.WbsCode,
		BaselineMonth:  entry.BaselineMonth,
		BaselineAmount: entry.BaselineAmount,
		Month:          entry.Month,
		PlannedAmount:  entry.PlannedAmount,
		ActualAmount:   entry.ActualAmount,
		ActualDate:     entry.ActualDate,
		InvoiceNumber:  entry.InvoiceNumber,
		Notes:          entry.Notes,
	}
	if entry.AllocationId != nil {
		allocationId := entry.AllocationId.String()
		dto.AllocationId = &allocationId
	}
	if entry.ElementId != nil {
		elementId := entry.ElementId.String()
		dto.ElementId = &elementId
	}
	return dto
}

func DTOToEntry(dto EntryDTO) (Entry, error) {
	entry := Entry{
		VendorName:     dto.VendorName,
		Description:    dto.Description,
		WbsCode:        dto.WbsCode,
		BaselineMonth:  dto.BaselineMonth,
		BaselineAmount: dto.BaselineAmount,
		Month:          dto.Month,
		PlannedAmount:  dto.PlannedAmount,
		ActualAmount:   dto.ActualAmount,
		ActualDate:     dto.ActualDate,
		InvoiceNumber:  dto.InvoiceNumber,
		Notes:          dto.Notes,
	}
	if dto.Id != "" {
		id, err := uuid.Parse(dto.Id)
		if err != nil {
			return Entry{}, err
		}
		entry.Id = id
	}
	if dto.VersionId != "" {
		versionId, err := uuid.Parse(dto.VersionId)
		if err != nil {
			return Entry{}, err
		}
		entry.VersionId = versionId
	}
	if dto.AllocationId != nil {
		allocationId, err := uuid.Parse(*dto.AllocationId)
		if err != nil {
			return Entry{}, err
		}
		entry.AllocationId = &allocationId
	}
	if dto.ElementId != nil {
		elementId, err := uuid.Parse(*dto.ElementId)
		if err != nil {
			return Entry{}, err
		}
		entry.ElementId = &elementId
	}
	return entry, nil
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	entries, err := h.service.ListEntries(r.Context(), versionId)
	if err != nil {
		http.Error(w, "Failed to list ledger entries", http.StatusInternalServerError)
		return
	}
	dtos := make([]EntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, EntryToDTO(entry))
	}
	writeJSON(w, dtos)
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var dto EntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	entry, err := DTOToEntry(dto)
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateEntry(r.Context(), entry)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, EntryToDTO(created))
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid entry ID", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteEntry(r.Context(), id); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecordActual(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid entry ID", http.StatusBadRequest)
		return
	}
	var request actualRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	entry, err := h.service.RecordActual(r.Context(), id, request.Amount, request.ActualDate, request.InvoiceNumber)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, EntryToDTO(entry))
}

func (h *Handler) PushAllocation(w http.ResponseWriter, r *http.Request) {
	allocationId, err := uuid.Parse(mux.Vars(r)["allocationId"])
	if err != nil {
		http.Error(w, "Invalid allocation ID", http.StatusBadRequest)
		return
	}
	result, err := h.service.Push(r.Context(), allocationId)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, PushResultDTO{AllocationId: result.AllocationId.String(), EntriesCreated: result.EntriesCreated})
}

func (h *Handler) PushVersion(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	result, err := h.service.PushVersion(r.Context(), versionId)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	dto := VersionPushResultDTO{
		Pushed:       []PushResultDTO{},
		Skipped:      []string{},
		TotalEntries: result.TotalEntries,
	}
	for _, pushed := range result.Pushed {
		dto.Pushed = append(dto.Pushed, PushResultDTO{AllocationId: pushed.AllocationId.String(), EntriesCreated: pushed.EntriesCreated})
	}
	for _, skipped := range result.Skipped {
		dto.Skipped = append(dto.Skipped, skipped.String())
	}
	writeJSON(w, dto)
}

func (h *Handler) GetAllocationActuals(w http.ResponseWriter, r *http.Request) {
	allocationId, err := uuid.Parse(mux.Vars(r)["allocationId"])
	if err != nil {
		http.Error(w, "Invalid allocation ID", http.StatusBadRequest)
		return
	}
	actuals, err := h.service.AllocationActuals(r.Context(), allocationId)
	if err != nil {
		http.Error(w, "Failed to read allocation actuals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, actuals)
}

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	metrics, err := h.service.VersionMetrics(r.Context(), versionId)
	if err != nil {
		http.Error(w, "Failed to compute ledger metrics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, MetricsDTO{
		TotalPlanned:             metrics.TotalPlanned,
		PlannedToDate:            metrics.PlannedToDate,
		ActualsToDate:            metrics.ActualsToDate,
		Variance:                 metrics.Variance,
		PercentSpent:             metrics.PercentSpent,
		SchedulePerformanceIndex: metrics.SchedulePerformanceIndex,
	})
}

func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, allocation.ErrAllocationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyPushed), errors.Is(err, ErrAllocationInactive):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrNothingToPush):
		http.Error(w, err.Error(), http.StatusBadRequest)
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
