package reserve

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

type ReserveDTO struct {
	Id                 string          `json:"id,omitempty"`
	VersionId          string          `json:"versionId"`
	Strategy           string          `json:"strategy"`
	BaselinePercentage float64         `json:"baselinePercentage"`
	BaselineAmount     decimal.Decimal `json:"baselineAmount"`
	AdjustedPercentage float64         `json:"adjustedPercentage"`
	AdjustedAmount     decimal.Decimal `json:"adjustedAmount"`
	UtilizedAmount     decimal.Decimal `json:"utilizedAmount"`
	RemainingAmount    decimal.Decimal `json:"remainingAmount"`
	BaseEstimate       decimal.Decimal `json:"baseEstimate"`
	TotalWithBase      decimal.Decimal `json:"totalWithBase"`
	Justification      string          `json:"justification,omitempty"`
}

type reserveRequest struct {
	Strategy      string  `json:"strategy"`
	Percentage    float64 `json:"percentage"`
	Justification string  `json:"justification"`
}

func ReserveToDTO(reserve ManagementReserve) ReserveDTO {
	dto := ReserveDTO{
		VersionId:          reserve.VersionId.String(),
		Strategy:           string(reserve.Strategy),
		BaselinePercentage: reserve.BaselinePercentage,
		BaselineAmount:     reserve.BaselineAmount,
		AdjustedPercentage: reserve.AdjustedPercentage,
		AdjustedAmount:     reserve.AdjustedAmount,
		UtilizedAmount:     reserve.UtilizedAmount,
		RemainingAmount:    reserve.RemainingAmount,
		BaseEstimate:       reserve.BaseEstimate,
		TotalWithBase:      reserve.TotalWithBase,
		Justification:      reserve.Justification,
	}
	if reserve.Id != uuid.Nil {
		dto.Id = reserve.Id.String()
	}
	return dto
}

func (h *Handler) GetReserve(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	reserve, err := h.service.GetReserve(r.Context(), versionId)
	if err != nil {
		writeReserveError(w, err)
		return
	}
	writeJSON(w, ReserveToDTO(reserve))
}

func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	strategy := r.URL.Query().Get("strategy")
	var percentage float64
	if raw := r.URL.Query().Get("percentage"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &percentage); err != nil {
			http.Error(w, "Invalid percentage", http.StatusBadRequest)
			return
		}
	}
	reserve, err := h.service.Recommend(r.Context(), versionId, Strategy(strategy), percentage)
	if err != nil {
		writeReserveError(w, err)
		return
	}
	writeJSON(w, ReserveToDTO(reserve))
}

func (h *Handler) SetReserve(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	var request reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	reserve, err := h.service.SetReserve(r.Context(), versionId, Strategy(request.Strategy), request.Percentage, request.Justification)
	if err != nil {
		writeReserveError(w, err)
		return
	}
	writeJSON(w, ReserveToDTO(reserve))
}

func (h *Handler) DeleteReserve(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteReserve(r.Context(), versionId); err != nil {
		writeReserveError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeReserveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrReserveNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrReserveInvalid):
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
