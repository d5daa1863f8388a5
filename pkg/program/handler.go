package program

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

type ProgramDTO struct {
	Id          string          `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status"`
	Manager     string          `json:"manager,omitempty"`
	TotalBudget decimal.Decimal `json:"totalBudget"`
}

func ProgramToDTO(program Program) ProgramDTO {
	return ProgramDTO{
		Id:          program.Id.String(),
		Code:        program.Code,
		Name:        program.Name,
		Description: program.Description,
		Status:      string(program.Status),
		Manager:     program.Manager,
		TotalBudget: program.TotalBudget,
	}
}

func DTOToProgram(dto ProgramDTO) (Program, error) {
	program := Program{
		Code:        dto.Code,
		Name:        dto.Name,
		Description: dto.Description,
		Status:      Status(dto.Status),
		Manager:     dto.Manager,
		TotalBudget: dto.TotalBudget,
	}
	if dto.Id != "" {
		id, err := uuid.Parse(dto.Id)
		if err != nil {
			return Program{}, err
		}
		program.Id = id
	}
	return program, nil
}

func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.service.ListPrograms(r.Context())
	if err != nil {
		http.Error(w, "Failed to list programs", http.StatusInternalServerError)
		return
	}
	dtos := make([]ProgramDTO, 0, len(programs))
	for _, program := range programs {
		dtos = append(dtos, ProgramToDTO(program))
	}
	writeJSON(w, dtos)
}

func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid program ID", http.StatusBadRequest)
		return
	}
	program, err := h.service.GetProgram(r.Context(), id)
	if err != nil {
		writeProgramError(w, err)
		return
	}
	writeJSON(w, ProgramToDTO(program))
}

func (h *Handler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var dto ProgramDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	program, err := DTOToProgram(dto)
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateProgram(r.Context(), program)
	if err != nil {
		writeProgramError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, ProgramToDTO(created))
}

func (h *Handler) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid program ID", http.StatusBadRequest)
		return
	}
	var dto ProgramDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	program, err := DTOToProgram(dto)
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	program.Id = id
	updated, err := h.service.UpdateProgram(r.Context(), program)
	if err != nil {
		writeProgramError(w, err)
		return
	}
	writeJSON(w, ProgramToDTO(updated))
}

func (h *Handler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid program ID", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteProgram(r.Context(), id); err != nil {
		writeProgramError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeProgramError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProgramNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrProgramInvalid):
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
