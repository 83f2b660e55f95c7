package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ogurasousui/probation-workflow/internal/adapters/grpc/handler"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const defaultShutdownTimeout = 10 * time.Second

// Options はサーバーの待ち受けアドレスとタイムアウトです。
type Options struct {
	GRPCAddr        string
	HTTPAddr        string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server は gRPC サーバーと REST API サーバーのライフサイクルを管理します。
type Server struct {
	opts       Options
	logger     *zap.Logger
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
}

// New は試用期間サービスとヘルスチェックを登録したサーバーを構築します。
// httpHandler が nil の場合は REST API を起動しません。
func New(opts Options, probation handler.ProbationServiceServer, httpHandler http.Handler, logger *zap.Logger, grpcOpts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}

	srv := grpc.NewServer(grpcOpts...)
	handler.RegisterProbationServiceServer(srv, probation)

	hs := health.NewServer()
	hs.SetServingStatus(handler.ProbationServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	s := &Server{
		opts:       opts,
		logger:     logger,
		grpcServer: srv,
		health:     hs,
	}

	if httpHandler != nil {
		s.httpServer = &http.Server{
			Handler:           httpHandler,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadTimeout,
		}
	}

	return s
}

// Run は設定されたアドレスで待ち受け、コンテキストがキャンセルされるまでサーバーを実行します。
func (s *Server) Run(ctx context.Context) error {
	grpcLis, err := net.Listen("tcp", s.opts.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.GRPCAddr, err)
	}

	var httpLis net.Listener
	if s.httpServer != nil {
		httpLis, err = net.Listen("tcp", s.opts.HTTPAddr)
		if err != nil {
			_ = grpcLis.Close()
			return fmt.Errorf("listen on %s: %w", s.opts.HTTPAddr, err)
		}
	}

	return s.Serve(ctx, grpcLis, httpLis)
}

// Serve は与えられたリスナーでサーバーを実行します。
// コンテキストがキャンセルされるとヘルスチェックを NOT_SERVING にしてから GracefulStop します。
func (s *Server) Serve(ctx context.Context, grpcLis, httpLis net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("gRPC server listening", zap.String("addr", grpcLis.Addr().String()))
		if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})

	if s.httpServer != nil && httpLis != nil {
		g.Go(func() error {
			s.logger.Info("HTTP server listening", zap.String("addr", httpLis.Addr().String()))
			if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve HTTP: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.shutdown()
		return nil
	})

	return g.Wait()
}

func (s *Server) shutdown() {
	s.logger.Info("shutting down servers")
	s.health.Shutdown()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Warn("HTTP server shutdown incomplete", zap.Error(err))
		}
	}

	s.grpcServer.GracefulStop()
}

// GracefulStop はサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.shutdown()
}
