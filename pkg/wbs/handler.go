package wbs

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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

type ElementDTO struct {
	Id             string          `json:"id"`
	VersionId      string          `json:"versionId"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Level          int             `json:"level"`
	ParentId       *string         `json:"parentId,omitempty"`
	CostCategoryId *string         `json:"costCategoryId,omitempty"`
	EstimatedCost  decimal.Decimal `json:"estimatedCost"`
	IsRequired     bool            `json:"isRequired"`
	IsOptional     bool            `json:"isOptional"`
	Notes          string          `json:"notes,omitempty"`
}

type TreeNodeDTO struct {
	ElementDTO
	Children []TreeNodeDTO `json:"children"`
}

type ValidationIssueDTO struct {
	ElementId *string `json:"elementId,omitempty"`
	Field     string  `json:"field"`
	Message   string  `json:"message"`
}

type ValidationResultDTO struct {
	IsValid  bool                 `json:"isValid"`
	Errors   []ValidationIssueDTO `json:"errors"`
	Warnings []ValidationIssueDTO `json:"warnings"`
}

type CategoryBreakdownDTO struct {
	CostCategoryId  string          `json:"costCategoryId"`
	EstimatedCost   decimal.Decimal `json:"estimatedCost"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
	ElementCount    int             `json:"elementCount"`
}

type LevelBreakdownDTO struct {
	Level           int             `json:"level"`
	EstimatedCost   decimal.Decimal `json:"estimatedCost"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
	ElementCount    int             `json:"elementCount"`
}

type ReconciliationIssueDTO struct {
	ElementId       string          `json:"elementId"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	EstimatedCost   decimal.Decimal `json:"estimatedCost"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
	Difference      decimal.Decimal `json:"difference"`
}

type RollupResultDTO struct {
	EstimatedTotal              decimal.Decimal          `json:"estimatedTotal"`
	AllocatedTotal              decimal.Decimal          `json:"allocatedTotal"`
	ManagementReservePercentage float64                  `json:"managementReservePercentage"`
	ManagementReserveAmount     decimal.Decimal          `json:"managementReserveAmount"`
	TotalWithReserve            decimal.Decimal          `json:"totalWithReserve"`
	ElementCount                int                      `json:"elementCount"`
	LeafElementCount            int                      `json:"leafElementCount"`
	RequiredElementCount        int                      `json:"requiredElementCount"`
	OptionalElementCount        int                      `json:"optionalElementCount"`
	CategoryBreakdown           []CategoryBreakdownDTO   `json:"categoryBreakdown"`
	LevelBreakdown              []LevelBreakdownDTO      `json:"levelBreakdown"`
	ReconciliationIssues        []ReconciliationIssueDTO `json:"reconciliationIssues"`
}

func ElementToDTO(element EstimateElement) ElementDTO {
	dto := ElementDTO{
		Id:            element.Id.String(),
		VersionId:     element.VersionId.String(),
		Code:          element.Code,
		Name:          element.Name,
		Description:   element.Description,
		Level:         element.Level,
		EstimatedCost: element.EstimatedCost,
		IsRequired:    element.IsRequired,
		IsOptional:    element.IsOptional,
		Notes:         element.Notes,
	}
	if element.ParentId != nil {
		parentId := element.ParentId.String()
		dto.ParentId = &parentId
	}
	if element.CostCategoryId != nil {
		categoryId := element.CostCategoryId.String()
		dto.CostCategoryId = &categoryId
	}
	return dto
}

func DTOToElement(dto ElementDTO) (EstimateElement, error) {
	element := EstimateElement{
		Code:          dto.Code,
		Name:          dto.Name,
		Description:   dto.Description,
		Level:         dto.Level,
		EstimatedCost: dto.EstimatedCost,
		IsRequired:    dto.IsRequired,
		IsOptional:    dto.IsOptional,
		Notes:         dto.Notes,
	}
	if dto.Id != "" {
		id, err := uuid.Parse(dto.Id)
		if err != nil {
			return EstimateElement{}, err
		}
		element.Id = id
	}
	if dto.VersionId != "" {
		versionId, err := uuid.Parse(dto.VersionId)
		if err != nil {
			return EstimateElement{}, err
		}
		element.VersionId = versionId
	}
	if dto.ParentId != nil {
		parentId, err := uuid.Parse(*dto.ParentId)
		if err != nil {
			return EstimateElement{}, err
		}
		element.ParentId = &parentId
	}
	if dto.CostCategoryId != nil {
		categoryId, err := uuid.Parse(*dto.CostCategoryId)
		if err != nil {
			return EstimateElement{}, err
		}
		element.CostCategoryId = &categoryId
	}
	return element, nil
}

func treeToDTO(nodes []*TreeNode) []TreeNodeDTO {
	dtos := make([]TreeNodeDTO, 0, len(nodes))
	for _, node := range nodes {
		dtos = append(dtos, TreeNodeDTO{
			ElementDTO: ElementToDTO(node.EstimateElement),
			Children:   treeToDTO(node.Children),
		})
	}
	return dtos
}

func ValidationResultToDTO(result ValidationResult) ValidationResultDTO {
	toDTOs := func(issues []ValidationIssue) []ValidationIssueDTO {
		dtos := make([]ValidationIssueDTO, 0, len(issues))
		for _, issue := range issues {
			dto := ValidationIssueDTO{Field: issue.Field, Message: issue.Message}
			if issue.ElementId != nil {
				id := issue.ElementId.String()
				dto.ElementId = &id
			}
			dtos = append(dtos, dto)
		}
		return dtos
	}
	return ValidationResultDTO{
		IsValid:  result.IsValid,
		Errors:   toDTOs(result.Errors),
		Warnings: toDTOs(result.Warnings),
	}
}

func RollupToDTO(result RollupResult) RollupResultDTO {
	dto := RollupResultDTO{
		EstimatedTotal:              result.EstimatedTotal,
		AllocatedTotal:              result.AllocatedTotal,
		ManagementReservePercentage: result.ManagementReservePercentage,
		ManagementReserveAmount:     result.ManagementReserveAmount,
		TotalWithReserve:            result.TotalWithReserve,
		ElementCount:                result.ElementCount,
		LeafElementCount:            result.LeafElementCount,
		RequiredElementCount:        result.RequiredElementCount,
		OptionalElementCount:        result.OptionalElementCount,
		CategoryBreakdown:           []CategoryBreakdownDTO{},
		LevelBreakdown:              []LevelBreakdownDTO{},
		ReconciliationIssues:        []ReconciliationIssueDTO{},
	}
	for _, cat := range result.CategoryBreakdown {
		dto.CategoryBreakdown = append(dto.CategoryBreakdown, CategoryBreakdownDTO(cat))
	}
	for _, lvl := range result.LevelBreakdown {
		dto.LevelBreakdown = append(dto.LevelBreakdown, LevelBreakdownDTO(lvl))
	}
	for _, issue := range result.ReconciliationIssues {
		dto.ReconciliationIssues = append(dto.ReconciliationIssues, ReconciliationIssueDTO{
			ElementId:       issue.ElementId.String(),
			Code:            issue.Code,
			Name:            issue.Name,
			EstimatedCost:   issue.EstimatedCost,
			AllocatedAmount: issue.AllocatedAmount,
			Difference:      issue.Difference,
		})
	}
	return dto
}

func (h *Handler) ListElements(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	elements, err := h.service.ListElements(r.Context(), versionId)
	if err != nil {
		http.Error(w, "Failed to list elements", http.StatusInternalServerError)
		return
	}
	dtos := make([]ElementDTO, 0, len(elements))
	for _, element := range elements {
		dtos = append(dtos, ElementToDTO(element))
	}
	writeJSON(w, dtos)
}

func (h *Handler) CreateElement(w http.ResponseWriter, r *http.Request) {
	var dto ElementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	element, err := DTOToElement(dto)
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateElement(r.Context(), element)
	if err != nil {
		writeElementError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, ElementToDTO(created))
}

func (h *Handler) UpdateElement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid element ID", http.StatusBadRequest)
		return
	}
	var dto ElementDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	element, err := DTOToElement(dto)
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	element.Id = id
	updated, err := h.service.UpdateElement(r.Context(), element)
	if err != nil {
		writeElementError(w, err)
		return
	}
	writeJSON(w, ElementToDTO(updated))
}

func (h *Handler) DeleteElement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid element ID", http.StatusBadRequest)
		return
	}
	if err := h.service.DeleteElement(r.Context(), id); err != nil {
		writeElementError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	tree, err := h.service.Hierarchy(r.Context(), versionId)
	if err != nil {
		http.Error(w, "Failed to build hierarchy", http.StatusInternalServerError)
		return
	}
	writeJSON(w, treeToDTO(tree))
}

func (h *Handler) GetRollup(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	mrPercentage := 0.0
	if raw := r.URL.Query().Get("mrPercentage"); raw != "" {
		mrPercentage, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			http.Error(w, "Invalid mrPercentage", http.StatusBadRequest)
			return
		}
	}
	result, err := h.service.Rollup(r.Context(), versionId, mrPercentage)
	if err != nil {
		http.Error(w, "Failed to calculate rollup", http.StatusInternalServerError)
		return
	}
	writeJSON(w, RollupToDTO(result))
}

func (h *Handler) ValidateStructure(w http.ResponseWriter, r *http.Request) {
	versionId, err := uuid.Parse(mux.Vars(r)["versionId"])
	if err != nil {
		http.Error(w, "Invalid version ID", http.StatusBadRequest)
		return
	}
	result, err := h.service.ValidateStructure(r.Context(), versionId)
	if err != nil {
		http.Error(w, "Failed to validate structure", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ValidationResultToDTO(result))
}

func writeElementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrElementNotFound), errors.Is(err, ErrParentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrElementInvalid):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrElementHasChildren):
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
