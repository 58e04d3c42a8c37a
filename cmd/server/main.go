package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OscarIvaVP/inventario-ventas/config"
	"github.com/OscarIvaVP/inventario-ventas/internal/api"
	"github.com/OscarIvaVP/inventario-ventas/internal/broker"
	"github.com/OscarIvaVP/inventario-ventas/internal/redisclient"
	"github.com/OscarIvaVP/inventario-ventas/internal/service"
	"github.com/OscarIvaVP/inventario-ventas/internal/store"
	"github.com/OscarIvaVP/inventario-ventas/internal/util"
	"github.com/OscarIvaVP/inventario-ventas/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, "ledger-service"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting ledger service")

	tp, err := util.InitTracer("ledger-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicLedger)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	masterService := service.NewMasterService(db, redisClient)
	reconService := service.NewReconService(db, redisClient, eventPublisher,
		time.Duration(cfg.Business.SnapshotLockSeconds)*time.Second)
	ledgerService := service.NewLedgerService(db, redisClient, masterService, reconService, eventPublisher,
		time.Duration(cfg.Business.IdempotencyTTLHours)*time.Hour)
	cartService := service.NewCartService(redisClient, ledgerService,
		time.Duration(cfg.Business.CartTTLSeconds)*time.Second)

	ctx := context.Background()
	if _, err := reconService.RecomputeInventory(ctx); err != nil {
		log.Printf("Initial inventory recompute failed: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	reconConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicLedger, cfg.Kafka.ConsumerGroup)
	reconWorker := worker.NewReconWorker(reconConsumer, db, reconService)
	go func() {
		if err := reconWorker.Start(workerCtx); err != nil {
			log.Printf("Reconciliation worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(ledgerService, masterService, reconService, cartService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	reconWorker.Stop()

	log.Println("Server exited")
}
