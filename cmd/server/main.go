package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/usecalistar/checkout-service/internal/api"
	"github.com/usecalistar/checkout-service/internal/config"
	"github.com/usecalistar/checkout-service/internal/gateway"
	"github.com/usecalistar/checkout-service/internal/handler"
	"github.com/usecalistar/checkout-service/internal/infrastructure/kafka"
	"github.com/usecalistar/checkout-service/internal/observability"
	service "github.com/usecalistar/checkout-service/internal/services"
	"github.com/usecalistar/checkout-service/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default env vars")
	}

	shutdown, _ := observability.Setup("checkout-service")
	defer shutdown(context.Background())

	cfg := config.Load()

	txStore := store.NewRedisStore(cfg.RedisAddr)
	defer txStore.Close()

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	pagou := gateway.NewClient(cfg.PagouBaseURL, cfg.PagouSecretKey)

	svc := service.NewPaymentService(pagou, txStore, producer, cfg.PollInterval, cfg.CountdownInterval)
	router := api.SetupRouter(handler.NewHandler(svc))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
