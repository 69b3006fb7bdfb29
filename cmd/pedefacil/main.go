package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/SeveN7Igor7/pedefacil/internal/chat"
	"github.com/SeveN7Igor7/pedefacil/internal/config"
	"github.com/SeveN7Igor7/pedefacil/internal/hub"
	"github.com/SeveN7Igor7/pedefacil/internal/logger"
	"github.com/SeveN7Igor7/pedefacil/internal/notify"
	store "github.com/SeveN7Igor7/pedefacil/internal/repository"
	handler "github.com/SeveN7Igor7/pedefacil/internal/transport/http"
	"github.com/SeveN7Igor7/pedefacil/internal/whatsapp"
	"github.com/SeveN7Igor7/pedefacil/internal/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	log := logger.New("main")

	log.Info("Starting pedefacil realtime service...")
	log.Infof("HTTP Port: %d", cfg.HTTPPort)
	log.Infof("Database: %s", cfg.DatabaseURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize fan-out hub
	connectionHub := hub.NewHub()
	go connectionHub.Run()

	// Optional AMQP sink for external notification consumers
	var sink notify.Sink
	if cfg.AMQPURL != "" {
		amqpSink, err := notify.NewAMQPSink(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("Failed to connect to AMQP: %v", err)
		}
		defer amqpSink.Close()
		sink = amqpSink
		log.Info("AMQP notification sink enabled")
	}

	// Initialize notification bus
	bus := notify.New(connectionHub, sink)

	// Initialize WhatsApp adapter
	transport := whatsapp.NewGatewayTransport(cfg.WhatsappGatewayURL, cfg.WhatsappConnectTimeout)
	adapter := whatsapp.NewAdapter(transport, whatsapp.Config{
		AuthDir:        cfg.WhatsappAuthDir,
		ConnectTimeout: cfg.WhatsappConnectTimeout,
		ReconnectDelay: cfg.WhatsappReconnectDelay,
		MaxReconnects:  cfg.WhatsappMaxReconnects,
		Keepalive:      cfg.WhatsappKeepalive,
	})

	// Initialize chat layer
	registry := chat.NewRegistry()
	router := chat.NewRouter(registry, db, db, bus)
	adapter.SetHandler(router)
	chatSvc := chat.NewService(registry, db, adapter, bus)

	// Initialize servers
	wsServer := ws.NewServer(cfg, connectionHub)
	h := handler.NewHandler(chatSvc, adapter, bus, connectionHub)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h.RegisterRoutes(e)
	e.GET("/ws", wsServer.HandleWebSocket)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Infof("Server started on port %d", cfg.HTTPPort)

	// Connect WhatsApp
	if cfg.WhatsappGatewayURL != "" {
		adapter.Initialize()
	} else {
		log.Warn("WHATSAPP_GATEWAY_URL not set, WhatsApp adapter disabled")
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	if cfg.WhatsappGatewayURL != "" {
		adapter.Disconnect()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to shutdown server gracefully: %v", err)
	}

	log.Info("Stopped")
}
