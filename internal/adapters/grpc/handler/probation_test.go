package handler

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/evaluation"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/ogurasousui/probation-workflow/internal/platform/auth"
	"github.com/ogurasousui/probation-workflow/internal/platform/config"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type stubEmployeeUseCase struct {
	employee.UseCase

	calcInput employee.GetEmployeeInput
	calcOut   *employee.ProbationEndDateResult
	calcErr   error

	eligibleInput employee.ListEligibleEmployeesInput
	eligibleOut   *employee.ListEmployeesResult
	eligibleErr   error
}

func (s *stubEmployeeUseCase) CalculateProbationEndDate(ctx context.Context, in employee.GetEmployeeInput) (*employee.ProbationEndDateResult, error) {
	s.calcInput = in
	return s.calcOut, s.calcErr
}

func (s *stubEmployeeUseCase) ListEligibleEmployees(ctx context.Context, in employee.ListEligibleEmployeesInput) (*employee.ListEmployeesResult, error) {
	s.eligibleInput = in
	return s.eligibleOut, s.eligibleErr
}

type stubEvaluationUseCase struct {
	evaluation.UseCase

	extendInput evaluation.ExtendProbationInput
	extendOut   *evaluation.ExtendProbationResult
	extendErr   error

	scoreInput evaluation.ScoreEvaluationInput
	scoreOut   *evaluation.Evaluation
	scoreErr   error

	submitInput evaluation.SubmitEvaluationInput
	submitOut   *evaluation.SubmitEvaluationResult
	submitErr   error
}

func (s *stubEvaluationUseCase) ExtendProbation(ctx context.Context, in evaluation.ExtendProbationInput) (*evaluation.ExtendProbationResult, error) {
	s.extendInput = in
	return s.extendOut, s.extendErr
}

func (s *stubEvaluationUseCase) ScoreEvaluation(ctx context.Context, in evaluation.ScoreEvaluationInput) (*evaluation.Evaluation, error) {
	s.scoreInput = in
	return s.scoreOut, s.scoreErr
}

func (s *stubEvaluationUseCase) SubmitEvaluation(ctx context.Context, in evaluation.SubmitEvaluationInput) (*evaluation.SubmitEvaluationResult, error) {
	s.submitInput = in
	return s.submitOut, s.submitErr
}

type testEnv struct {
	client *ProbationServiceClient
	conn   *grpc.ClientConn
	token  string
	logs   *observer.ObservedLogs
}

func newTestEnv(t *testing.T, employees employee.UseCase, evaluations evaluation.UseCase) *testEnv {
	t.Helper()

	manager := auth.NewManager(config.AuthConfig{
		JWTSecret: "grpc-test-secret-0123",
		Issuer:    "probation-workflow",
		AdminRole: "admin",
	})
	token, err := manager.Issue("manager@example.com", nil, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	core, logs := observer.New(zap.InfoLevel)
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		UnaryLoggingInterceptor(zap.New(core)),
		UnaryAuthInterceptor(manager, "/grpc.health.v1.Health/"),
	))
	RegisterProbationServiceServer(srv, NewProbationGrpcHandler(employees, evaluations))
	healthpb.RegisterHealthServer(srv, health.NewServer())

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &testEnv{client: NewProbationServiceClient(conn), conn: conn, token: token, logs: logs}
}

func (e *testEnv) authorized() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+e.token)
}

func TestProbationService_CalculateProbationEndDate(t *testing.T) {
	t.Parallel()

	employees := &stubEmployeeUseCase{
		calcOut: &employee.ProbationEndDateResult{EmployeeID: "emp-1", EndDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
	}
	env := newTestEnv(t, employees, &stubEvaluationUseCase{})

	resp, err := env.client.CalculateProbationEndDate(env.authorized(), &CalculateProbationEndDateRequest{EmployeeID: "emp-1"})
	if err != nil {
		t.Fatalf("CalculateProbationEndDate returned error: %v", err)
	}
	if resp.EndDate != "2024-03-31" || employees.calcInput.ID != "emp-1" {
		t.Fatalf("unexpected response: %+v (input %+v)", resp, employees.calcInput)
	}

	employees.calcOut, employees.calcErr = nil, employee.ErrEmployeeNotFound
	_, err = env.client.CalculateProbationEndDate(env.authorized(), &CalculateProbationEndDateRequest{EmployeeID: "missing"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}

	if env.logs.FilterMessage("rpc completed").Len() != 1 || env.logs.FilterMessage("rpc rejected").Len() != 1 {
		t.Fatalf("unexpected log entries: %+v", env.logs.All())
	}
}

func TestProbationService_RequiresToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &stubEmployeeUseCase{}, &stubEvaluationUseCase{})

	_, err := env.client.ExtendProbation(context.Background(), &ExtendProbationRequest{EvaluationID: "eval-1"})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	bad := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer nope")
	_, err = env.client.ExtendProbation(bad, &ExtendProbationRequest{EvaluationID: "eval-1"})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}

func TestProbationService_ExtendProbation(t *testing.T) {
	t.Parallel()

	evaluations := &stubEvaluationUseCase{
		extendOut: &evaluation.ExtendProbationResult{
			EvaluationID:    "eval-1",
			EmployeeID:      "emp-1",
			PreviousEndDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			NewEndDate:      time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
			Verdict:         probation.VerdictExtended,
		},
	}
	env := newTestEnv(t, &stubEmployeeUseCase{}, evaluations)

	resp, err := env.client.ExtendProbation(env.authorized(), &ExtendProbationRequest{
		EvaluationID: "eval-1",
		Days:         15,
		Reason:       "Needs more time to meet targets",
	})
	if err != nil {
		t.Fatalf("ExtendProbation returned error: %v", err)
	}
	if resp.NewEndDate != "2024-04-15" || resp.PreviousEndDate != "2024-03-31" || resp.Verdict != "Extended" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	in := evaluations.extendInput
	if in.EvaluationID != "eval-1" || in.Days != 15 || in.Actor.UserID != "manager@example.com" || in.Actor.Admin {
		t.Fatalf("unexpected input: %+v", in)
	}
}

func TestProbationService_ExtendProbation_ErrorCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "finalized", err: probation.ErrAlreadyFinalized, want: codes.FailedPrecondition},
		{name: "days", err: probation.ErrExtensionDaysOutOfRange, want: codes.InvalidArgument},
		{name: "reason", err: probation.ErrReasonTooShort, want: codes.InvalidArgument},
		{name: "missing end date", err: probation.ErrMissingProbationEndDate, want: codes.InvalidArgument},
		{name: "not found", err: evaluation.ErrEvaluationNotFound, want: codes.NotFound},
		{name: "permission", err: probation.ErrExtensionNotPermitted, want: codes.PermissionDenied},
		{name: "unknown", err: errors.New("boom"), want: codes.Internal},
	}

	evaluations := &stubEvaluationUseCase{}
	env := newTestEnv(t, &stubEmployeeUseCase{}, evaluations)

	for _, tt := range tests {
		evaluations.extendErr = tt.err
		_, err := env.client.ExtendProbation(env.authorized(), &ExtendProbationRequest{EvaluationID: "eval-1", Days: 5})
		if status.Code(err) != tt.want {
			t.Fatalf("%s: expected %s, got %v", tt.name, tt.want, err)
		}
	}
}

func TestProbationService_MalformedRequestIsInvalidArgument(t *testing.T) {
	t.Parallel()

	evaluations := &stubEvaluationUseCase{}
	env := newTestEnv(t, &stubEmployeeUseCase{}, evaluations)

	body := map[string]any{"evaluation_id": "eval-1", "days": 1.5, "reason": "Needs more time to meet targets"}
	var out ExtendProbationResponse
	err := env.conn.Invoke(env.authorized(), "/"+ProbationServiceName+"/ExtendProbation", body, &out, grpc.CallContentSubtype(CodecName))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	if evaluations.extendInput.EvaluationID != "" {
		t.Fatalf("use case should not be called, got %+v", evaluations.extendInput)
	}
}

func TestToStatusError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "duplicate employee code", err: employee.ErrEmployeeCodeAlreadyExists, want: codes.AlreadyExists},
		{name: "version conflict", err: employee.ErrVersionConflict, want: codes.FailedPrecondition},
		{name: "admin only", err: employee.ErrProbationTermsAdminOnly, want: codes.PermissionDenied},
		{name: "expired token", err: auth.ErrTokenExpired, want: codes.Unauthenticated},
	}

	for _, tt := range tests {
		if got := status.Code(toStatusError(tt.err)); got != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestProbationService_ScoreAndSubmit(t *testing.T) {
	t.Parallel()

	score := decimal.RequireFromString("69.99")
	finalizedAt := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)
	evaluations := &stubEvaluationUseCase{
		scoreOut: &evaluation.Evaluation{ID: "eval-1", EmployeeID: "emp-1", DocStatus: probation.DocStatusDraft, Verdict: probation.VerdictFailed, ScorePercent: &score, Version: 2},
		submitOut: &evaluation.SubmitEvaluationResult{
			Evaluation: &evaluation.Evaluation{ID: "eval-1", DocStatus: probation.DocStatusFinalized, Verdict: probation.VerdictFailed, FinalizedAt: &finalizedAt},
			Separation: &evaluation.Separation{ID: "sep-1"},
		},
	}
	env := newTestEnv(t, &stubEmployeeUseCase{}, evaluations)

	scored, err := env.client.ScoreEvaluation(env.authorized(), &ScoreEvaluationRequest{ID: "eval-1", ScorePercent: score})
	if err != nil {
		t.Fatalf("ScoreEvaluation returned error: %v", err)
	}
	if !evaluations.scoreInput.ScorePercent.Equal(score) {
		t.Fatalf("score not forwarded: %v", evaluations.scoreInput.ScorePercent)
	}
	if scored.Evaluation.Verdict != "Failed" || scored.Evaluation.ScorePercent == nil || !scored.Evaluation.ScorePercent.Equal(score) {
		t.Fatalf("unexpected evaluation: %+v", scored.Evaluation)
	}

	submitted, err := env.client.SubmitEvaluation(env.authorized(), &SubmitEvaluationRequest{ID: "eval-1"})
	if err != nil {
		t.Fatalf("SubmitEvaluation returned error: %v", err)
	}
	if submitted.SeparationID != "sep-1" || submitted.Evaluation.DocStatus != "Finalized" || evaluations.submitInput.Actor.UserID != "manager@example.com" {
		t.Fatalf("unexpected response: %+v", submitted)
	}
}

func TestProbationService_ListEligibleEmployees(t *testing.T) {
	t.Parallel()

	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	employees := &stubEmployeeUseCase{
		eligibleOut: &employee.ListEmployeesResult{
			Employees:     []*employee.Employee{{ID: "emp-1", Name: "Yamada Taro", Status: employee.StatusActive, IsUnderProbation: true, ProbationEndDate: &end}},
			NextPageToken: "10",
		},
	}
	env := newTestEnv(t, employees, &stubEvaluationUseCase{})

	resp, err := env.client.ListEligibleEmployees(env.authorized(), &ListEligibleEmployeesRequest{PageSize: 10})
	if err != nil {
		t.Fatalf("ListEligibleEmployees returned error: %v", err)
	}
	if len(resp.Employees) != 1 || resp.Employees[0].ProbationEndDate != "2024-03-31" || resp.NextPageToken != "10" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if employees.eligibleInput.PageSize != 10 {
		t.Fatalf("unexpected input: %+v", employees.eligibleInput)
	}
}

func TestHealthCheck_JSONCodec(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, &stubEmployeeUseCase{}, &stubEvaluationUseCase{})

	resp, err := healthpb.NewHealthClient(env.conn).Check(context.Background(), &healthpb.HealthCheckRequest{}, grpc.CallContentSubtype(CodecName))
	if err != nil {
		t.Fatalf("health check returned error: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", resp.GetStatus())
	}
}
