package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ogurasousui/probation-workflow/internal/adapters/repository/postgres"
	"github.com/ogurasousui/probation-workflow/internal/core/reminder"
	"github.com/ogurasousui/probation-workflow/internal/platform/config"
	pg "github.com/ogurasousui/probation-workflow/internal/platform/db/postgres"
	"github.com/ogurasousui/probation-workflow/internal/platform/logger"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (defaults to CONFIG_PATH env or assets/local.yaml)")
		date       = flag.String("date", "", "run date in YYYY-MM-DD (defaults to today in UTC)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
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

	today := time.Now().UTC()
	if *date != "" {
		today, err = time.Parse("2006-01-02", *date)
		if err != nil {
			zl.Fatal("invalid -date", zap.String("date", *date), zap.Error(err))
		}
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		zl.Fatal("failed to initialize database pool", zap.Error(err))
	}
	defer dbPool.Close()

	runner := reminder.NewRunner(
		postgres.NewEmployeeRepository(dbPool),
		postgres.NewReminderRepository(dbPool),
		cfg.Probation.ReminderLeadDays,
		nil,
		zl.Named("reminder"),
	)

	result, err := runner.RunDaily(ctx, today)
	if err != nil {
		zl.Fatal("reminder run failed", zap.Error(err))
	}

	zl.Info("reminder run completed",
		zap.Time("due_on", result.DueOn),
		zap.Int("employees", result.Employees),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
}
