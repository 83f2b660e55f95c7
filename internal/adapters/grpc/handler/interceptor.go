package handler

import (
	"context"
	"strings"
	"time"

	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/ogurasousui/probation-workflow/internal/platform/auth"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Authenticator は Authorization ヘッダーの値から実行者を解決します。
type Authenticator interface {
	Authenticate(header string) (probation.Actor, error)
}

// UnaryLoggingInterceptor は各 RPC の結果を構造化ログに出力します。
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		switch code {
		case codes.OK:
			logger.Info("rpc completed", fields...)
		case codes.Internal, codes.Unknown, codes.Unavailable, codes.DataLoss:
			logger.Error("rpc failed", fields...)
		default:
			logger.Warn("rpc rejected", fields...)
		}
		return resp, err
	}
}

// UnaryAuthInterceptor は Bearer トークンを検証し、実行者をコンテキストに格納します。
// publicPrefixes に一致するメソッドは検証を行いません。
func UnaryAuthInterceptor(authn Authenticator, publicPrefixes ...string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(info.FullMethod, prefix) {
				return handler(ctx, req)
			}
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				header = values[0]
			}
		}

		actor, err := authn.Authenticate(header)
		if err != nil {
			return nil, toStatusError(err)
		}
		return handler(auth.WithActor(ctx, actor), req)
	}
}
