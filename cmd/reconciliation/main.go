package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/casadecor/backoffice/internal/reconciliation/application"
	"github.com/casadecor/backoffice/internal/reconciliation/domain"
	"github.com/casadecor/backoffice/internal/reconciliation/infrastructure/messaging"
	"github.com/casadecor/backoffice/internal/reconciliation/infrastructure/persistence/mysql"
	reconhttp "github.com/casadecor/backoffice/internal/reconciliation/interfaces/http"
	"github.com/casadecor/backoffice/pkg/config"
	"github.com/casadecor/backoffice/pkg/database"
	"github.com/casadecor/backoffice/pkg/idgen"
	"github.com/casadecor/backoffice/pkg/logging"
	"github.com/casadecor/backoffice/pkg/metrics"
	"github.com/casadecor/backoffice/pkg/middleware"
)

func main() {
	configPath := flag.String("config", "configs/reconciliation/config.toml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	logging.Info(ctx, "starting reconciliation service",
		"version", cfg.Version, "environment", cfg.Environment)

	if err := idgen.Init(cfg.NodeID); err != nil {
		logging.Fatal(ctx, "init id generator", "error", err)
	}

	db, err := database.Init(database.Config{
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: time.Duration(cfg.Database.SlowQueryThreshold) * time.Millisecond,
	})
	if err != nil {
		logging.Fatal(ctx, "init database", "error", err)
	}
	if err := mysql.AutoMigrate(db); err != nil {
		logging.Fatal(ctx, "migrate database", "error", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.ServiceName)
		metrics.StartHTTPServer(cfg.Metrics.Port)
	}

	var publisher domain.EventPublisher
	var kafkaPublisher *messaging.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher = messaging.NewKafkaPublisher(
			cfg.Kafka.Brokers, cfg.Kafka.MaxRetries,
			time.Duration(cfg.Kafka.RetryBackoff)*time.Millisecond,
		)
		publisher = kafkaPublisher
	}

	svc, err := application.NewService(application.Config{
		Scoring:        scoringFromConfig(cfg.Reconciliation),
		LinkTimeout:    time.Duration(cfg.Reconciliation.LinkTimeout) * time.Millisecond,
		LinkMaxRetries: cfg.Reconciliation.LinkMaxRetries,
	}, application.Repositories{
		Transactions: mysql.NewTransactionRepository(db),
		Invoices:     mysql.NewInvoiceRepository(db),
		Receivables:  mysql.NewReceivableRepository(db),
		Runs:         mysql.NewRunRepository(db),
		UoW:          mysql.NewUnitOfWork(db),
	}, publisher, m)
	if err != nil {
		logging.Fatal(ctx, "init service", "error", err)
	}

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.Recovery(),
		middleware.RequestContext(),
		middleware.RequestLogger(),
		middleware.Metrics(m),
	)
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})
	reconhttp.NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))

	scheduler := startScheduler(cfg, svc)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	go func() {
		logging.Info(ctx, "http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal(ctx, "http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info(ctx, "shutting down")

	if scheduler != nil {
		scheduler.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "http shutdown failed", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logging.Error(ctx, "close kafka producer failed", "error", err)
		}
	}
	logging.Info(ctx, "server stopped")
}

// startScheduler runs unattended batch reconciliation for the configured
// tenants. Returns nil when no cron expression is set.
func startScheduler(cfg *config.Config, svc *application.Service) *cron.Cron {
	rc := cfg.Reconciliation
	if rc.BatchCron == "" || len(rc.BatchTenants) == 0 {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(rc.BatchCron, func() {
		ctx := context.Background()
		for _, tenant := range rc.BatchTenants {
			report, err := svc.RunBatch(ctx, tenant, "scheduler", true)
			if err != nil {
				logging.Error(ctx, "scheduled batch failed", "tenant_id", tenant, "error", err)
				continue
			}
			logging.Info(ctx, "scheduled batch finished",
				"tenant_id", tenant, "run_id", report.RunID,
				"linked", report.LinkedCount, "skipped", report.SkippedCount)
		}
	})
	if err != nil {
		logging.Fatal(context.Background(), "invalid batch cron expression", "cron", rc.BatchCron, "error", err)
	}
	c.Start()
	logging.Info(context.Background(), "batch scheduler started", "cron", rc.BatchCron, "tenants", rc.BatchTenants)
	return c
}

func scoringFromConfig(rc config.ReconciliationConfig) domain.ScoringConfig {
	return domain.ScoringConfig{
		NameWeight:        rc.NameWeight,
		ValueWeight:       rc.ValueWeight,
		DateWeight:        rc.DateWeight,
		HighThreshold:     rc.HighThreshold,
		MediumThreshold:   rc.MediumThreshold,
		MinAcceptScore:    rc.MinAcceptScore,
		MaxDateWindowDays: rc.MaxDateWindowDays,
		PartialFractions:  rc.PartialFractions,
		ValueTolerance:    rc.ValueTolerance,
	}
}
