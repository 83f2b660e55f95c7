package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ProbationServiceName は gRPC のサービス名です。
const ProbationServiceName = "probation.v1.ProbationService"

// ProbationServiceServer は ProbationService のサーバー側インターフェースです。
type ProbationServiceServer interface {
	CalculateProbationEndDate(context.Context, *CalculateProbationEndDateRequest) (*CalculateProbationEndDateResponse, error)
	ExtendProbation(context.Context, *ExtendProbationRequest) (*ExtendProbationResponse, error)
	ListEligibleEmployees(context.Context, *ListEligibleEmployeesRequest) (*ListEligibleEmployeesResponse, error)
	CreateEvaluation(context.Context, *CreateEvaluationRequest) (*EvaluationResponse, error)
	GetEvaluation(context.Context, *GetEvaluationRequest) (*EvaluationResponse, error)
	ScoreEvaluation(context.Context, *ScoreEvaluationRequest) (*EvaluationResponse, error)
	SubmitSelfRatings(context.Context, *SubmitRatingsRequest) (*EvaluationResponse, error)
	SubmitManagerRatings(context.Context, *SubmitRatingsRequest) (*EvaluationResponse, error)
	SubmitEvaluation(context.Context, *SubmitEvaluationRequest) (*SubmitEvaluationResponse, error)
}

// unaryMethod は型付きのハンドラーを grpc.MethodDesc に変換します。
func unaryMethod[Req, Resp any](name string, call func(ProbationServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ProbationServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				// デコード失敗は呼び出し側の誤りなので InvalidArgument で返します。
				return nil, status.Error(codes.InvalidArgument, "invalid request: "+status.Convert(err).Message())
			}
			if interceptor == nil {
				return call(srv.(ProbationServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ProbationServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ProbationServiceDesc は ProbationService の grpc.ServiceDesc です。
var ProbationServiceDesc = grpc.ServiceDesc{
	ServiceName: ProbationServiceName,
	HandlerType: (*ProbationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CalculateProbationEndDate", ProbationServiceServer.CalculateProbationEndDate),
		unaryMethod("ExtendProbation", ProbationServiceServer.ExtendProbation),
		unaryMethod("ListEligibleEmployees", ProbationServiceServer.ListEligibleEmployees),
		unaryMethod("CreateEvaluation", ProbationServiceServer.CreateEvaluation),
		unaryMethod("GetEvaluation", ProbationServiceServer.GetEvaluation),
		unaryMethod("ScoreEvaluation", ProbationServiceServer.ScoreEvaluation),
		unaryMethod("SubmitSelfRatings", ProbationServiceServer.SubmitSelfRatings),
		unaryMethod("SubmitManagerRatings", ProbationServiceServer.SubmitManagerRatings),
		unaryMethod("SubmitEvaluation", ProbationServiceServer.SubmitEvaluation),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "probation/v1/probation.proto",
}

// RegisterProbationServiceServer は srv を gRPC サーバーへ登録します。
func RegisterProbationServiceServer(s grpc.ServiceRegistrar, srv ProbationServiceServer) {
	s.RegisterService(&ProbationServiceDesc, srv)
}

// ProbationServiceClient は JSON コーデックで ProbationService を呼び出すクライアントです。
type ProbationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewProbationServiceClient は ProbationServiceClient を生成します。
func NewProbationServiceClient(cc grpc.ClientConnInterface) *ProbationServiceClient {
	return &ProbationServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+ProbationServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProbationServiceClient) CalculateProbationEndDate(ctx context.Context, in *CalculateProbationEndDateRequest, opts ...grpc.CallOption) (*CalculateProbationEndDateResponse, error) {
	return invoke[CalculateProbationEndDateResponse](ctx, c.cc, "CalculateProbationEndDate", in, opts)
}

func (c *ProbationServiceClient) ExtendProbation(ctx context.Context, in *ExtendProbationRequest, opts ...grpc.CallOption) (*ExtendProbationResponse, error) {
	return invoke[ExtendProbationResponse](ctx, c.cc, "ExtendProbation", in, opts)
}

func (c *ProbationServiceClient) ListEligibleEmployees(ctx context.Context, in *ListEligibleEmployeesRequest, opts ...grpc.CallOption) (*ListEligibleEmployeesResponse, error) {
	return invoke[ListEligibleEmployeesResponse](ctx, c.cc, "ListEligibleEmployees", in, opts)
}

func (c *ProbationServiceClient) CreateEvaluation(ctx context.Context, in *CreateEvaluationRequest, opts ...grpc.CallOption) (*EvaluationResponse, error) {
	return invoke[EvaluationResponse](ctx, c.cc, "CreateEvaluation", in, opts)
}

func (c *ProbationServiceClient) GetEvaluation(ctx context.Context, in *GetEvaluationRequest, opts ...grpc.CallOption) (*EvaluationResponse, error) {
	return invoke[EvaluationResponse](ctx, c.cc, "GetEvaluation", in, opts)
}

func (c *ProbationServiceClient) ScoreEvaluation(ctx context.Context, in *ScoreEvaluationRequest, opts ...grpc.CallOption) (*EvaluationResponse, error) {
	return invoke[EvaluationResponse](ctx, c.cc, "ScoreEvaluation", in, opts)
}

func (c *ProbationServiceClient) SubmitSelfRatings(ctx context.Context, in *SubmitRatingsRequest, opts ...grpc.CallOption) (*EvaluationResponse, error) {
	return invoke[EvaluationResponse](ctx, c.cc, "SubmitSelfRatings", in, opts)
}

func (c *ProbationServiceClient) SubmitManagerRatings(ctx context.Context, in *SubmitRatingsRequest, opts ...grpc.CallOption) (*EvaluationResponse, error) {
	return invoke[EvaluationResponse](ctx, c.cc, "SubmitManagerRatings", in, opts)
}

func (c *ProbationServiceClient) SubmitEvaluation(ctx context.Context, in *SubmitEvaluationRequest, opts ...grpc.CallOption) (*SubmitEvaluationResponse, error) {
	return invoke[SubmitEvaluationResponse](ctx, c.cc, "SubmitEvaluation", in, opts)
}
