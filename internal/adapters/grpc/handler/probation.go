package handler

import (
	"context"

	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/evaluation"
	"github.com/ogurasousui/probation-workflow/internal/platform/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ProbationGrpcHandler は ProbationService の gRPC 実装です。
type ProbationGrpcHandler struct {
	employees   employee.UseCase
	evaluations evaluation.UseCase
}

var _ ProbationServiceServer = (*ProbationGrpcHandler)(nil)

// NewProbationGrpcHandler は ProbationGrpcHandler を生成します。
func NewProbationGrpcHandler(employees employee.UseCase, evaluations evaluation.UseCase) *ProbationGrpcHandler {
	return &ProbationGrpcHandler{employees: employees, evaluations: evaluations}
}

// CalculateProbationEndDate は社員の試用期間終了日を算出します。
func (h *ProbationGrpcHandler) CalculateProbationEndDate(ctx context.Context, req *CalculateProbationEndDateRequest) (*CalculateProbationEndDateResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	result, err := h.employees.CalculateProbationEndDate(ctx, employee.GetEmployeeInput{ID: req.EmployeeID})
	if err != nil {
		return nil, toStatusError(err)
	}

	return &CalculateProbationEndDateResponse{
		EmployeeID: result.EmployeeID,
		EndDate:    result.EndDate.Format(dateLayout),
	}, nil
}

// ExtendProbation は下書きの評価に対して試用期間を延長し、評価を確定します。
func (h *ProbationGrpcHandler) ExtendProbation(ctx context.Context, req *ExtendProbationRequest) (*ExtendProbationResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	actor, _ := auth.ActorFromContext(ctx)
	result, err := h.evaluations.ExtendProbation(ctx, evaluation.ExtendProbationInput{
		EvaluationID: req.EvaluationID,
		Days:         req.Days,
		Reason:       req.Reason,
		Actor:        actor,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	return &ExtendProbationResponse{
		EvaluationID:    result.EvaluationID,
		EmployeeID:      result.EmployeeID,
		PreviousEndDate: result.PreviousEndDate.Format(dateLayout),
		NewEndDate:      result.NewEndDate.Format(dateLayout),
		Verdict:         string(result.Verdict),
	}, nil
}

// ListEligibleEmployees は評価対象の社員を一覧します。
func (h *ProbationGrpcHandler) ListEligibleEmployees(ctx context.Context, req *ListEligibleEmployeesRequest) (*ListEligibleEmployeesResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	result, err := h.employees.ListEligibleEmployees(ctx, employee.ListEligibleEmployeesInput{
		PageSize:  req.PageSize,
		PageToken: req.PageToken,
	})
	if err != nil {
		return nil, toStatusError(err)
	}

	employees := make([]*Employee, 0, len(result.Employees))
	for _, e := range result.Employees {
		employees = append(employees, toEmployeeMessage(e))
	}

	return &ListEligibleEmployeesResponse{Employees: employees, NextPageToken: result.NextPageToken}, nil
}

// CreateEvaluation は下書きの評価を作成します。
func (h *ProbationGrpcHandler) CreateEvaluation(ctx context.Context, req *CreateEvaluationRequest) (*EvaluationResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	created, err := h.evaluations.CreateEvaluation(ctx, evaluation.CreateEvaluationInput{EmployeeID: req.EmployeeID})
	if err != nil {
		return nil, toStatusError(err)
	}
	return &EvaluationResponse{Evaluation: toEvaluationMessage(created)}, nil
}

// GetEvaluation は評価を取得します。
func (h *ProbationGrpcHandler) GetEvaluation(ctx context.Context, req *GetEvaluationRequest) (*EvaluationResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	found, err := h.evaluations.GetEvaluation(ctx, evaluation.GetEvaluationInput{ID: req.ID})
	if err != nil {
		return nil, toStatusError(err)
	}
	return &EvaluationResponse{Evaluation: toEvaluationMessage(found)}, nil
}

// ScoreEvaluation は評価点を記録し、判定を更新します。
func (h *ProbationGrpcHandler) ScoreEvaluation(ctx context.Context, req *ScoreEvaluationRequest) (*EvaluationResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	scored, err := h.evaluations.ScoreEvaluation(ctx, evaluation.ScoreEvaluationInput{ID: req.ID, ScorePercent: req.ScorePercent})
	if err != nil {
		return nil, toStatusError(err)
	}
	return &EvaluationResponse{Evaluation: toEvaluationMessage(scored)}, nil
}

// SubmitSelfRatings は本人の評点を記録します。
func (h *ProbationGrpcHandler) SubmitSelfRatings(ctx context.Context, req *SubmitRatingsRequest) (*EvaluationResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	rated, err := h.evaluations.SubmitSelfRatings(ctx, evaluation.RateEvaluationInput{ID: req.ID, Ratings: req.Ratings})
	if err != nil {
		return nil, toStatusError(err)
	}
	return &EvaluationResponse{Evaluation: toEvaluationMessage(rated)}, nil
}

// SubmitManagerRatings は上長の評点を記録し、評価点を算出します。
func (h *ProbationGrpcHandler) SubmitManagerRatings(ctx context.Context, req *SubmitRatingsRequest) (*EvaluationResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	rated, err := h.evaluations.SubmitManagerRatings(ctx, evaluation.RateEvaluationInput{ID: req.ID, Ratings: req.Ratings})
	if err != nil {
		return nil, toStatusError(err)
	}
	return &EvaluationResponse{Evaluation: toEvaluationMessage(rated)}, nil
}

// SubmitEvaluation は判定済みの評価を確定します。
func (h *ProbationGrpcHandler) SubmitEvaluation(ctx context.Context, req *SubmitEvaluationRequest) (*SubmitEvaluationResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	actor, _ := auth.ActorFromContext(ctx)
	result, err := h.evaluations.SubmitEvaluation(ctx, evaluation.SubmitEvaluationInput{ID: req.ID, Actor: actor})
	if err != nil {
		return nil, toStatusError(err)
	}

	resp := &SubmitEvaluationResponse{
		Evaluation: toEvaluationMessage(result.Evaluation),
		Employee:   toEmployeeMessage(result.Employee),
	}
	if result.Separation != nil {
		resp.SeparationID = result.Separation.ID
	}
	return resp, nil
}
