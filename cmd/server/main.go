package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/altamar/tour-vouchers/internal/archive"
	"github.com/altamar/tour-vouchers/internal/assets"
	"github.com/altamar/tour-vouchers/internal/codegen"
	"github.com/altamar/tour-vouchers/internal/config"
	"github.com/altamar/tour-vouchers/internal/document"
	"github.com/altamar/tour-vouchers/internal/events"
	httpiface "github.com/altamar/tour-vouchers/internal/interfaces/http"
	"github.com/altamar/tour-vouchers/internal/reconcile"
	"github.com/altamar/tour-vouchers/internal/render"
	"github.com/altamar/tour-vouchers/internal/report"
	"github.com/altamar/tour-vouchers/internal/repository"
	"github.com/altamar/tour-vouchers/internal/service"
	"github.com/altamar/tour-vouchers/internal/worker"
	"github.com/altamar/tour-vouchers/pkg/database"
	"github.com/altamar/tour-vouchers/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting voucher service",
		zap.String("brand", cfg.Voucher.BrandName),
		zap.Int("port", cfg.Server.Port))

	db, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.Migrate(db, logger); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.Report.OutputDir, 0o755); err != nil {
		logger.Fatal("Failed to create report directory", zap.Error(err))
	}

	voucherRepo := repository.NewVoucherRepository(db.DB, logger)
	itemRepo := repository.NewItemRepository(db.DB, logger)
	passengerRepo := repository.NewPassengerRepository(db.DB, logger)
	reservationRepo := repository.NewReservationRepository(db.DB, logger)

	codes := codegen.NewGenerator(voucherRepo.CodeExists, logger,
		codegen.WithPrefix(cfg.Voucher.CodePrefix),
		codegen.WithMaxAttempts(uint64(cfg.Voucher.CodeMaxAttempts)))

	reconciler := reconcile.NewReconciler(logger)
	assembler := document.NewAssembler(cfg.Voucher.BrandName, logger)
	renderer := render.NewClient(cfg.Renderer.BaseURL, cfg.Renderer.Timeout, logger)
	logos := assets.NewFetcher(cfg.Assets.Timeout, logger)
	docArchive := archive.New(cfg.Archive.Dir, logger)
	bus := events.NewBus()

	vouchers := service.NewVoucherService(service.Deps{
		Tx:           db,
		Vouchers:     voucherRepo,
		Items:        itemRepo,
		Passengers:   passengerRepo,
		Reservations: reservationRepo,
		Reconciler:   reconciler,
		Codes:        codes,
		Builder:      assembler,
		Renderer:     renderer,
		Logos:        logos,
		LogoURL:      cfg.Assets.LogoURL,
		Archive:      docArchive,
		Bus:          bus,
	}, logger)

	reporter := report.NewSalesReporter(voucherRepo, logger)

	retrier := worker.NewRenderRetrier(voucherRepo, vouchers,
		cfg.Worker.PollInterval, cfg.Worker.BatchSize, logger)

	handlers := httpiface.NewHandlers(vouchers, reporter, cfg.Report.OutputDir, logger)
	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := retrier.Start(ctx); err != nil {
		logger.Fatal("Failed to start render retrier", zap.Error(err))
	}

	go func() {
		if err := server.Start(ctx); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	cancel()
	retrier.Stop()
	if err := server.Stop(); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	logger.Info("Server exited")
}
