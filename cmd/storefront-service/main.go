package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zainab220/Coffee-Shop-Management-System/internal/cart"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/checkout"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/clients"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/config"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/db"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/events"
	httpserver "github.com/zainab220/Coffee-Shop-Management-System/internal/http"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/loyalty"
	"github.com/zainab220/Coffee-Shop-Management-System/internal/metrics"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[storefront-service] ", log.LstdFlags|log.Lshortfile)

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			logger.Fatalf("run migrations: %v", err)
		}
	}

	database := db.MustOpen(cfg.DatabaseDSN)
	defer database.Close()
	cartRepo := cart.NewRepository(database)

	rabbitConn := events.MustDialRabbit(cfg.RabbitURL)
	defer rabbitConn.Close()

	sequenceRepo := events.NewSequenceRepository(database)
	orderPublisher, err := events.NewRabbitOrderEventsPublisher(rabbitConn, sequenceRepo)
	if err != nil {
		logger.Fatalf("create order publisher: %v", err)
	}

	upstream := &http.Client{Timeout: cfg.UpstreamTimeout}
	catalogClient := clients.NewCatalogClient(clients.NewClient("catalog", cfg.CatalogURL, upstream))
	orderClient := clients.NewOrderClient(clients.NewClient("orders", cfg.OrderURL, upstream))
	rewardsClient := clients.NewRewardsClient(clients.NewClient("rewards", cfg.RewardsURL, upstream))

	account := loyalty.NewAccount(rewardsClient)
	engine := checkout.NewEngine(orderClient, cartRepo, account, orderPublisher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Logout elsewhere wins over any local cart state for the session.
	revoke := func(ctx context.Context, ev events.SessionRevoked) error {
		if err := cartRepo.Clear(ctx, ev.SessionID); err != nil {
			return err
		}
		engine.RevokeSession(ev.SessionID)
		if ev.UserID != "" {
			account.Forget(ev.UserID)
		}
		return nil
	}
	if err := events.StartSessionRevokedConsumer(ctx, rabbitConn, revoke, logger); err != nil {
		logger.Fatalf("start session.revoked consumer: %v", err)
	}

	srvMetrics := metrics.NewServerMetrics("storefront")
	handler := httpserver.NewHandler(catalogClient, cartRepo, account, engine, srvMetrics)
	router := httpserver.NewRouter(handler, cfg.CORSAllowOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("storefront-service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errCh:
		logger.Fatalf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown error: %v", err)
	}
	if err := orderPublisher.Close(); err != nil {
		logger.Printf("publisher close error: %v", err)
	}
}
