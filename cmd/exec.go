package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"helpdesk-system/config"
	"helpdesk-system/handlers"
	"helpdesk-system/monitoring"
	"helpdesk-system/security"
	"helpdesk-system/services"
	"helpdesk-system/storage"
	"helpdesk-system/store"
	"helpdesk-system/utils"

	"github.com/labstack/echo/v5"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage and seed the default directories
	db := storage.New(redisClient)
	if err := db.Initialize(ctx); err != nil {
		return err
	}

	// Initialize services
	ticketService := services.NewTicketService(db, pn, cfg)
	authService := services.NewAuthService(db, cfg)
	assistantService := services.NewAssistantService(cfg)

	// Initialize the ticket store and load current state
	ticketStore := store.New(ticketService)
	defer ticketStore.Close()

	ticketStore.Dispatch(store.FetchStart{})
	if tickets, err := ticketService.ListTickets(ctx, nil); err != nil {
		slog.Error("initial ticket load failed", "error", err)
		ticketStore.Dispatch(store.FetchError{Message: "Failed to fetch tickets"})
	} else {
		slog.Info("ticket store loaded", "tickets", len(tickets))
		ticketStore.Dispatch(store.FetchSuccess{Tickets: tickets})
	}

	// Initialize handlers
	ticketHandler := handlers.NewTicketHandler(ticketStore, ticketService, cfg)
	authHandler := handlers.NewAuthHandler(authService, ticketService)
	adminHandler := handlers.NewAdminHandler(ticketService, db)
	assistantHandler := handlers.NewAssistantHandler(assistantService)

	rateLimiter := security.NewRateLimiter(redisClient, cfg.LoginRateLimit)

	// Start background tasks
	monitor := monitoring.NewMonitor(db)
	go monitor.Run(ctx)

	if cfg.EnableMetrics {
		go serveMetrics(ctx, cfg.MetricsPort)
	}

	// Setup graceful shutdown
	go handleShutdown(cancel, ticketStore)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Ticket endpoints
		e.Router.GET("/api/tickets", ticketHandler.ListTickets)
		e.Router.POST("/api/tickets", ticketHandler.CreateTicket)
		e.Router.POST("/api/tickets/{ticketId}/select", ticketHandler.SelectTicket)
		e.Router.POST("/api/tickets/selection/clear", ticketHandler.ClearSelection)
		e.Router.PUT("/api/tickets/{ticketId}", ticketHandler.UpdateTicket)
		e.Router.POST("/api/tickets/{ticketId}/messages", ticketHandler.AddMessage)
		e.Router.POST("/api/tickets/{ticketId}/lock", ticketHandler.LockTicket)
		e.Router.DELETE("/api/tickets/{ticketId}/lock", ticketHandler.UnlockTicket)

		// Auth endpoints
		e.Router.POST("/api/auth/agent-login", rateLimiter.LimitLogins(authHandler.AgentLogin))
		e.Router.POST("/api/auth/staff-login", rateLimiter.LimitLogins(authHandler.StaffLogin))

		// Admin endpoints
		e.Router.GET("/api/admin/agents", adminHandler.ListAgents)
		e.Router.POST("/api/admin/agents", adminHandler.AddAgent)
		e.Router.DELETE("/api/admin/agents", adminHandler.RemoveAgent)
		e.Router.POST("/api/admin/agents/import", adminHandler.ImportAgents)
		e.Router.GET("/api/admin/staff", adminHandler.ListStaff)

		// Assistant endpoint
		e.Router.POST("/api/assistant/chat", assistantHandler.Chat)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// serveMetrics exposes Prometheus metrics on a separate port so the
// scrape endpoint stays off the public API surface.
func serveMetrics(ctx context.Context, port string) {
	e := echo.New()
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: e,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Metrics server listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc, ticketStore *store.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	ticketStore.Close()
	cancel()
}
