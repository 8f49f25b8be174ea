package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snackway/partner/internal/adapter/contentstore"
	"github.com/snackway/partner/internal/adapter/logger"
	"github.com/snackway/partner/internal/adapter/rabbitmq"
	"github.com/snackway/partner/internal/adapter/sound"
	"github.com/snackway/partner/internal/app/coordinator"
	"github.com/snackway/partner/internal/app/monitor"
	"github.com/snackway/partner/internal/app/report"
	"github.com/snackway/partner/internal/config"

	httpAdapter "github.com/snackway/partner/internal/adapter/http"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 3000, "HTTP port")
	restaurantID := flag.String("restaurant-id", "", "Restaurant id (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *restaurantID != "" {
		cfg.Restaurant.ID = *restaurantID
	}

	ctx := context.Background()

	lgr := logger.New("partner-agent")

	// Content store client
	store := contentstore.NewClient(cfg.ContentStore, lgr)
	orderRepo := contentstore.NewOrderRepository(store)
	restaurantRepo := contentstore.NewRestaurantRepository(store)

	lgr.Info("store_configured", "Content store client configured", "startup", map[string]interface{}{
		"dataset": cfg.ContentStore.Dataset,
	})

	// Connect to RabbitMQ
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	publisher := rabbitmq.NewPublisher(mqConn)
	consumer := rabbitmq.NewConsumer(mqConn, lgr)

	// Alert sound
	player := &sound.CommandPlayer{
		Command: cfg.Sound.Command,
		Args:    cfg.Sound.Args,
	}
	soundCtrl := sound.NewController(player, lgr)

	// Presentation surface
	alertStream := httpAdapter.NewAlertStream(lgr)

	// Core services
	monitorSvc := monitor.NewService(
		orderRepo, orderRepo, soundCtrl, alertStream, publisher, lgr,
		cfg.Restaurant.ID,
		cfg.Monitor.PollInterval(), cfg.Monitor.ResumeSettle(), cfg.Monitor.DecisionTimeout(),
	)
	coordSvc := coordinator.NewService(orderRepo, monitorSvc, publisher, lgr)
	monitorSvc.SetDecider(coordSvc)
	reportSvc := report.NewService(orderRepo, restaurantRepo, lgr, cfg.Restaurant.ID)

	// Start monitoring session
	if err := monitorSvc.Start(ctx); err != nil {
		log.Fatalf("Failed to start monitor: %v", err)
	}

	// Notification decision bridge
	decisionHandler := rabbitmq.NewDecisionHandler(coordSvc, lgr)
	go func() {
		if err := consumer.ConsumeDecisions(ctx, decisionHandler.HandleDecision); err != nil && err != context.Canceled {
			lgr.Error("consumer_error", "Error consuming decisions", "runtime", nil, err)
		}
	}()

	// HTTP presentation surface
	partnerHandler := httpAdapter.NewPartnerHandler(orderRepo, monitorSvc, coordSvc, reportSvc, lgr, cfg.Restaurant.ID)

	mux := http.NewServeMux()
	mux.HandleFunc("/orders", partnerHandler.HandleOrders)
	mux.HandleFunc("/orders/", partnerHandler.HandleOrder)
	mux.HandleFunc("/alert", partnerHandler.HandleAlert)
	mux.HandleFunc("/alert/stream", alertStream.HandleStream)
	mux.HandleFunc("/session/pause", partnerHandler.HandleSessionPause)
	mux.HandleFunc("/session/resume", partnerHandler.HandleSessionResume)
	mux.HandleFunc("/dashboard", partnerHandler.HandleDashboard)
	mux.HandleFunc("/reports/earnings", partnerHandler.HandleEarnings)
	mux.HandleFunc("/restaurant/status", partnerHandler.HandleRestaurantStatus)

	handler := httpAdapter.LoggingMiddleware(lgr, cfg.Restaurant.ID)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the alert stream stays open
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Partner agent started on port %d", *port), "startup", map[string]interface{}{
		"port":          *port,
		"restaurant_id": cfg.Restaurant.ID,
	})

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down partner agent", "shutdown", nil)

		monitorSvc.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}
