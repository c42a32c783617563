package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cinelens/api"
	"cinelens/config"
	"cinelens/database"
	"cinelens/grok"
	"cinelens/handlers"
	"cinelens/llm"
	"cinelens/metrics"
	"cinelens/middleware"
	"cinelens/quota"
	"cinelens/rabbitmq"
	"cinelens/service"
	"cinelens/storage"
	"cinelens/stubllm"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.Info("Starting the cinelens recognition service...")

	// The credential is checked per request so a missing key surfaces as a
	// classified configuration error, not a crash.
	if cfg.GrokAPIKey == "" {
		log.Warn("GROK_API_KEY is not set; recognition requests will fail with a configuration error")
	}

	// Initialize upload storage
	store, err := storage.NewDiskStore(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	// Initialize recognition history (optional)
	var db *database.Database
	if cfg.DBEnabled {
		db, err = database.NewDatabase(cfg)
		if err != nil {
			log.Errorf("Failed to connect to history database, continuing without history: %v", err)
			db = nil
		} else {
			defer db.Close()
			if err := db.CreateRecognitionsTable(); err != nil {
				log.Errorf("Failed to create recognitions table, continuing without history: %v", err)
				db = nil
			}
		}
	}

	// Initialize recognition event publisher (optional)
	var publisher service.Publisher
	if cfg.RabbitMQURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, cfg.RabbitMQRoutingKey)
		if err != nil {
			log.Errorf("Failed to initialize RabbitMQ publisher, continuing without events: %v", err)
		} else {
			defer pub.Close()
			publisher = pub
			log.Infof("RabbitMQ publisher initialized: exchange=%s routing_key=%s", pub.GetExchange(), pub.GetRoutingKey())
		}
	}

	// Select the LLM provider
	var llmClient llm.Client
	if os.Getenv("LLM_PROVIDER") == "stub" {
		llmClient = stubllm.NewClient()
	} else {
		llmClient = grok.NewClient(cfg.GrokAPIKey, cfg.GrokModel, cfg.RequestTimeout)
	}
	log.Infof("Recognition LLM provider=%s model=%s", llmClient.SourceName(), cfg.GrokModel)

	// Initialize quota gate, service and handlers
	gate := quota.NewGate(cfg.DailyQuota)
	svc := service.NewService(llmClient, gate, db, publisher)
	h := handlers.NewHandlers(svc, store, gate, db)

	// Register metrics
	metrics.Register()

	// Setup router
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Static serving of stored uploads
	router.Static("/uploads", store.Dir())

	// Metrics and health (no rate limit)
	router.GET(api.MetricsEndpoint, gin.WrapH(promhttp.Handler()))
	router.GET(api.HealthEndpoint, h.HealthCheck)
	router.GET(api.QuotaEndpoint, h.QuotaStatus)
	router.GET(api.ResultsEndpoint, h.LastResult)
	router.GET(api.HistoryEndpoint, h.History)

	// Rate-limited mutating endpoints
	rateLimited := router.Group("/")
	rateLimited.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute, time.Minute))
	{
		rateLimited.POST(api.UploadEndpoint, h.Upload)
		rateLimited.POST(api.RecognizeEndpoint, h.Recognize)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s (daily quota %d)", cfg.Port, cfg.DailyQuota)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
