package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ogurasousui/probation-workflow/internal/core/evaluation"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/ogurasousui/probation-workflow/internal/platform/auth"
)

// CreateEvaluation は POST /api/v1/evaluations を処理します。
func (h *Handler) CreateEvaluation(w http.ResponseWriter, r *http.Request) {
	var req CreateEvaluationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	created, err := h.evaluations.CreateEvaluation(r.Context(), evaluation.CreateEvaluationInput{EmployeeID: req.EmployeeID})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEvaluationDTO(created))
}

// ListEvaluations は GET /api/v1/evaluations?employee_id= を処理します。
func (h *Handler) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pageSize, err := queryInt(q.Get("page_size"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page_size", err)
		return
	}

	in := evaluation.ListEvaluationsInput{
		EmployeeID: q.Get("employee_id"),
		PageSize:   pageSize,
		PageToken:  q.Get("page_token"),
	}
	if raw := q.Get("doc_status"); raw != "" {
		status := probation.DocStatus(raw)
		in.DocStatus = &status
	}

	result, err := h.evaluations.ListEvaluations(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]EvaluationDTO, 0, len(result.Evaluations))
	for _, e := range result.Evaluations {
		dtos = append(dtos, toEvaluationDTO(e))
	}
	writeJSON(w, http.StatusOK, ListEvaluationsResponse{Evaluations: dtos, NextPageToken: result.NextPageToken})
}

// GetEvaluation は GET /api/v1/evaluations/{id} を処理します。
func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	found, err := h.evaluations.GetEvaluation(r.Context(), evaluation.GetEvaluationInput{ID: chi.URLParam(r, "id")})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEvaluationDTO(found))
}

// ScoreEvaluation は POST /api/v1/evaluations/{id}/score を処理します。
func (h *Handler) ScoreEvaluation(w http.ResponseWriter, r *http.Request) {
	var req ScoreEvaluationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ScorePercent == nil {
		writeError(w, http.StatusBadRequest, "invalid request body", errors.New("score_percent is required"))
		return
	}

	scored, err := h.evaluations.ScoreEvaluation(r.Context(), evaluation.ScoreEvaluationInput{
		ID:           chi.URLParam(r, "id"),
		ScorePercent: *req.ScorePercent,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEvaluationDTO(scored))
}

// SubmitSelfRatings は POST /api/v1/evaluations/{id}/self-ratings を処理します。
func (h *Handler) SubmitSelfRatings(w http.ResponseWriter, r *http.Request) {
	h.submitRatings(w, r, h.evaluations.SubmitSelfRatings)
}

// SubmitManagerRatings は POST /api/v1/evaluations/{id}/manager-ratings を処理します。
func (h *Handler) SubmitManagerRatings(w http.ResponseWriter, r *http.Request) {
	h.submitRatings(w, r, h.evaluations.SubmitManagerRatings)
}

func (h *Handler) submitRatings(w http.ResponseWriter, r *http.Request, submit func(ctx context.Context, in evaluation.RateEvaluationInput) (*evaluation.Evaluation, error)) {
	var ratings probation.Criteria
	if err := decodeJSON(r, &ratings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	rated, err := submit(r.Context(), evaluation.RateEvaluationInput{ID: chi.URLParam(r, "id"), Ratings: ratings})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEvaluationDTO(rated))
}

// SubmitEvaluation は POST /api/v1/evaluations/{id}/submit を処理します。
func (h *Handler) SubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	result, err := h.evaluations.SubmitEvaluation(r.Context(), evaluation.SubmitEvaluationInput{
		ID:    chi.URLParam(r, "id"),
		Actor: actor,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := SubmitEvaluationResponse{Evaluation: toEvaluationDTO(result.Evaluation)}
	if result.Employee != nil {
		dto := toEmployeeDTO(result.Employee)
		resp.Employee = &dto
	}
	if result.Separation != nil {
		resp.SeparationID = result.Separation.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExtendProbation は POST /api/v1/evaluations/{id}/extend を処理します。
func (h *Handler) ExtendProbation(w http.ResponseWriter, r *http.Request) {
	var req ExtendProbationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	result, err := h.evaluations.ExtendProbation(r.Context(), evaluation.ExtendProbationInput{
		EvaluationID: chi.URLParam(r, "id"),
		Days:         req.Days,
		Reason:       req.Reason,
		Actor:        actor,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ExtendProbationResponse{
		EvaluationID:    result.EvaluationID,
		EmployeeID:      result.EmployeeID,
		PreviousEndDate: result.PreviousEndDate.Format(dateLayout),
		NewEndDate:      result.NewEndDate.Format(dateLayout),
		Verdict:         string(result.Verdict),
	})
}
