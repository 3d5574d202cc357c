package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"ms-wallet/internal/api"
	"ms-wallet/internal/catalog"
	"ms-wallet/internal/config"
	"ms-wallet/internal/database"
	"ms-wallet/internal/kafka"
	"ms-wallet/internal/ledger"
	"ms-wallet/internal/logger"
	"ms-wallet/internal/order"
	"ms-wallet/internal/referral"
	"ms-wallet/internal/refund"
	"ms-wallet/internal/tickets"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger()
	defer log.Close()

	log.Info("STARTUP", "Initializing wallet service...")

	ctx := context.Background()
	store, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("STARTUP", fmt.Sprintf("Failed to open store: %v", err))
	}
	defer store.Close()
	log.Info("STARTUP", fmt.Sprintf("Store ready at %s", store.Path()))

	producer := kafka.NewProducer(cfg.Kafka, log)
	defer producer.Close()

	ledgerSvc := ledger.NewService(store, log)
	catalogSvc := catalog.NewService(store, log)
	orderSvc := order.NewService(store, ledgerSvc, catalogSvc, producer, log)
	refundSvc := refund.NewService(store, ledgerSvc, producer, cfg.Wallet.RefundFeePercent, log)
	referralSvc := referral.NewService(store, ledgerSvc, cfg.Wallet.ReferralCashbackPercent, log)
	ticketSvc := tickets.NewService(store, log)

	handler := api.NewHandler(ledgerSvc, catalogSvc, orderSvc, refundSvc, referralSvc, ticketSvc, producer, cfg.Wallet.RefundWindowDays, log)

	r := chi.NewRouter()
	r.Route("/api/v1", handler.RegisterRoutes)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("STARTUP", fmt.Sprintf("Wallet service listening on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("STARTUP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SHUTDOWN", "Shutdown signal received. Cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("SHUTDOWN", fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	log.Info("SHUTDOWN", "Server exited gracefully")
}
