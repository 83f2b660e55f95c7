package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/probation-workflow/internal/adapters/grpc/handler"
	"github.com/ogurasousui/probation-workflow/internal/adapters/report"
	"github.com/ogurasousui/probation-workflow/internal/adapters/repository/postgres"
	"github.com/ogurasousui/probation-workflow/internal/adapters/rest"
	"github.com/ogurasousui/probation-workflow/internal/core/employee"
	"github.com/ogurasousui/probation-workflow/internal/core/evaluation"
	"github.com/ogurasousui/probation-workflow/internal/core/probation"
	"github.com/ogurasousui/probation-workflow/internal/platform/auth"
	"github.com/ogurasousui/probation-workflow/internal/platform/config"
	pg "github.com/ogurasousui/probation-workflow/internal/platform/db/postgres"
	"github.com/ogurasousui/probation-workflow/internal/platform/logger"
	"github.com/ogurasousui/probation-workflow/internal/platform/server"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	period, err := probation.ParsePeriod(cfg.Probation.DefaultPeriod)
	if err != nil {
		zl.Fatal("invalid default probation period", zap.Error(err))
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		zl.Fatal("failed to initialize database pool", zap.Error(err))
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool, pg.WithIsolationLevel(cfg.Database.IsolationLevel))

	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	evaluationRepo := postgres.NewEvaluationRepository(dbPool)
	noteRepo := postgres.NewNoteRepository(dbPool)
	separationRepo := postgres.NewSeparationRepository(dbPool)

	employeeSvc := employee.NewService(employeeRepo, noteRepo, probation.NewCalculator(period), nil, txManager)
	evaluationSvc := evaluation.NewService(evaluationRepo, employeeRepo, noteRepo, separationRepo, nil, txManager)

	authManager := auth.NewManager(cfg.Auth)

	router := rest.NewRouter(
		rest.NewHandler(employeeSvc, evaluationSvc, report.NewRoster(employeeSvc)),
		rest.Options{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			Authenticator:  authManager,
			Logger:         zl.Named("http"),
		},
	)

	srv := server.New(
		server.Options{
			GRPCAddr:    cfg.Server.ListenAddr,
			HTTPAddr:    cfg.HTTP.ListenAddr,
			ReadTimeout: cfg.HTTP.ReadTimeout,
		},
		handler.NewProbationGrpcHandler(employeeSvc, evaluationSvc),
		router,
		zl,
		grpc.ChainUnaryInterceptor(
			handler.UnaryLoggingInterceptor(zl.Named("grpc")),
			handler.UnaryAuthInterceptor(authManager, "/grpc.health.v1.Health/"),
		),
	)

	if err := srv.Run(ctx); err != nil {
		zl.Fatal("server stopped with error", zap.Error(err))
	}
}
