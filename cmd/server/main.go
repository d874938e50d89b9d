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

	"vetpos-service/config"
	"vetpos-service/internal/api"
	"vetpos-service/internal/broker"
	"vetpos-service/internal/redisclient"
	"vetpos-service/internal/service"
	"vetpos-service/internal/store"
	"vetpos-service/internal/util"
	"vetpos-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting vetpos service")

	tp, err := util.InitTracer("vetpos-service", cfg.Observ.JaegerEndpoint, cfg.Observ.TraceSampleRatio)
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

	if err := db.EnsureSchema(); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicVentas)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	saleService := service.NewSaleService(db, redisClient, eventPublisher)
	vencimientoService := service.NewVencimientoService(db, eventPublisher, cfg.Business.VencimientoSoonDays)
	tutorService := service.NewTutorService(db, redisClient,
		time.Duration(cfg.Business.TutorCacheTTLSeconds)*time.Second)
	cuponService := service.NewCuponService(db)
	cajaService := service.NewCajaService(db, redisClient)

	ctx := context.Background()
	if err := saleService.SeedStockSnapshots(ctx); err != nil {
		log.Printf("Failed to seed stock snapshots: %v", err)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	cajaConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicVentas, cfg.Kafka.ConsumerGroup)
	cajaWorker := worker.NewCajaWorker(cajaConsumer, db, redisClient)
	go func() {
		if err := cajaWorker.Start(workerCtx); err != nil {
			log.Printf("Caja worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(saleService, vencimientoService, tutorService, cuponService, cajaService)
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
	cajaWorker.Stop()

	log.Println("Server exited")
}
