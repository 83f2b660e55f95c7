package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/ogurasousui/probation-workflow/internal/platform/auth"
)

// ListEmployees は GET /api/v1/employees を処理します。
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize, err := queryInt(q.Get("page_size"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page_size", err)
		return
	}

	in := employee.ListEmployeesInput{PageSize: pageSize, PageToken: q.Get("page_token")}
	if raw := q.Get("status"); raw != "" {
		status := employee.Status(raw)
		in.Status = &status
	}
	if raw := q.Get("under_probation"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid under_probation", err)
			return
		}
		in.UnderProbation = &value
	}

	result, err := h.employees.ListEmployees(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListEmployeesResponse{Employees: toEmployeeDTOs(result.Employees), NextPageToken: result.NextPageToken})
}

// ListEligibleEmployees は GET /api/v1/employees/eligible を処理します。
func (h *Handler) ListEligibleEmployees(w http.ResponseWriter, r *http.Request) {
	pageSize, err := queryInt(r.URL.Query().Get("page_size"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page_size", err)
		return
	}

	result, err := h.employees.ListEligibleEmployees(r.Context(), employee.ListEligibleEmployeesInput{
		PageSize:  pageSize,
		PageToken: r.URL.Query().Get("page_token"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListEmployeesResponse{Employees: toEmployeeDTOs(result.Employees), NextPageToken: result.NextPageToken})
}

// CreateEmployee は POST /api/v1/employees を処理します。
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	hiredAt, err := parseDate(req.HiredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hired_at", err)
		return
	}

	in := employee.CreateEmployeeInput{
		EmployeeCode:     req.EmployeeCode,
		Name:             req.Name,
		UserID:           req.UserID,
		ReportsTo:        req.ReportsTo,
		IsUnderProbation: req.IsUnderProbation,
		HiredAt:          hiredAt,
		ProbationPeriod:  req.ProbationPeriod,
	}
	if req.Status != nil {
		status := employee.Status(*req.Status)
		in.Status = &status
	}
	if req.EmploymentStatus != nil {
		es := probation.EmploymentStatus(*req.EmploymentStatus)
		in.EmploymentStatus = &es
	}

	created, err := h.employees.CreateEmployee(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(created))
}

// GetEmployee は GET /api/v1/employees/{id} を処理します。
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	found, err := h.employees.GetEmployee(r.Context(), employee.GetEmployeeInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(found))
}

// UpdateEmployee は PATCH /api/v1/employees/{id} を処理します。
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req UpdateEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	in := employee.UpdateEmployeeInput{
		ID:               chi.URLParam(r, "id"),
		EmployeeCode:     req.EmployeeCode,
		Name:             req.Name,
		UserID:           req.UserID,
		ReportsTo:        req.ReportsTo,
		IsUnderProbation: req.IsUnderProbation,
		ProbationPeriod:  req.ProbationPeriod,
		ExpectedVersion:  req.Version,
		Actor:            actor,
	}
	if req.Status != nil {
		status := employee.Status(*req.Status)
		in.Status = &status
	}
	if req.EmploymentStatus != nil {
		es := probation.EmploymentStatus(*req.EmploymentStatus)
		in.EmploymentStatus = &es
	}
	if req.HiredAt != nil {
		hiredAt, err := parseDate(*req.HiredAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid hired_at", err)
			return
		}
		in.HiredAt, in.HiredAtSet = hiredAt, true
	}
	if req.ProbationEndDate != nil {
		end, err := parseDate(*req.ProbationEndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid probation_end_date", err)
			return
		}
		in.ProbationEndDate, in.ProbationEndDateSet = end, true
	}

	updated, err := h.employees.UpdateEmployee(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(updated))
}

// DeleteEmployee は DELETE /api/v1/employees/{id} を処理します。
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.employees.DeleteEmployee(r.Context(), employee.DeleteEmployeeInput{ID: chi.URLParam(r, "id")}); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CalculateProbationEndDate は GET /api/v1/employees/{id}/probation-end-date を処理します。
func (h *Handler) CalculateProbationEndDate(w http.ResponseWriter, r *http.Request) {
	result, err := h.employees.CalculateProbationEndDate(r.Context(), employee.GetEmployeeInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProbationEndDateResponse{
		EmployeeID: result.EmployeeID,
		EndDate:    result.EndDate.Format(dateLayout),
	})
}

// AddEmployeeNote は POST /api/v1/employees/{id}/notes を処理します。
func (h *Handler) AddEmployeeNote(w http.ResponseWriter, r *http.Request) {
	var req AddNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	created, err := h.employees.AddEmployeeNote(r.Context(), employee.AddEmployeeNoteInput{
		EmployeeID: chi.URLParam(r, "id"),
		Body:       req.Body,
		Actor:      actor,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteDTO(created))
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", raw)
	}
	return value, nil
}
