package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/econtract/backend/internal/application/billing"
	contractapp "github.com/econtract/backend/internal/application/contract"
	importapp "github.com/econtract/backend/internal/application/import"
	pricingapp "github.com/econtract/backend/internal/application/pricing"
	"github.com/econtract/backend/internal/infrastructure/config"
	"github.com/econtract/backend/internal/infrastructure/extraction"
	"github.com/econtract/backend/internal/infrastructure/logger"
	"github.com/econtract/backend/internal/infrastructure/persistence"
	"github.com/econtract/backend/internal/infrastructure/storage"
	"github.com/econtract/backend/internal/interfaces/http/handler"
	"github.com/econtract/backend/internal/interfaces/http/middleware"
	"github.com/econtract/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const localDocumentRoot = "data/documents"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting contract backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, cfg.Log.Level)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected")

	// Repositories
	contractRepo := persistence.NewGormContractRepository(db.DB)
	priceRepo := persistence.NewGormPriceRepository(db.DB)
	recordRepo := persistence.NewGormServiceRecordRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	batchRepo := persistence.NewGormImportBatchRepository(db.DB)
	itemRepo := persistence.NewGormQueueItemRepository(db.DB)
	sequence := persistence.NewGormNumberSequence(db.DB)

	// Document storage, S3 compatible when an endpoint is configured
	var (
		docStore  importapp.FileStorage
		presigner handler.DownloadPresigner
	)
	if cfg.Storage.Endpoint != "" {
		s3Store, err := storage.NewS3DocumentStore(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Store.EnsureBucket(context.Background()); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		docStore = s3Store
		presigner = s3Store
		log.Info("Object storage ready", zap.String("bucket", s3Store.Bucket()))
	} else {
		localStore, err := storage.NewLocalDocumentStore(localDocumentRoot)
		if err != nil {
			log.Fatal("Failed to initialize local document storage", zap.Error(err))
		}
		docStore = localStore
		log.Info("Local document storage ready", zap.String("root", localDocumentRoot))
	}

	// Extraction pipeline
	textExtractor := extraction.NewFitzTextExtractor(log)
	dataExtractor, err := extraction.NewOpenAIContractExtractor(&cfg.Extraction, log)
	if err != nil {
		log.Fatal("Failed to initialize data extraction", zap.Error(err))
	}

	// Application services
	contractService := contractapp.NewContractService(contractRepo, log)
	pricingService := pricingapp.NewPricingService(priceRepo, log)
	recordService := billingapp.NewServiceRecordService(recordRepo, priceRepo, log)
	invoiceService := billingapp.NewInvoiceService(contractRepo, recordRepo, invoiceRepo, sequence, log)
	scheduleService := billingapp.NewScheduleService(contractRepo, invoiceRepo, log)
	importService := importapp.NewContractImportService(
		batchRepo, itemRepo, contractRepo,
		docStore, textExtractor, dataExtractor,
		cfg.Import.Workers, log,
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(logger.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSFromHTTPConfig(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewContractHandler(contractService))
	r.Register(handler.NewPricingHandler(pricingService))
	r.Register(handler.NewServiceRecordHandler(recordService))
	r.Register(handler.NewInvoiceHandler(invoiceService))
	r.Register(handler.NewScheduleHandler(scheduleService))
	r.Register(handler.NewImportHandler(importService, docStore, presigner))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
