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

	"market-mood/internal/alert"
	"market-mood/internal/app"
	"market-mood/internal/bot"
	"market-mood/internal/cache"
	"market-mood/internal/config"
	"market-mood/internal/db"
	"market-mood/internal/handler"
	"market-mood/internal/job"
	"market-mood/internal/repository"
	"market-mood/internal/service"
	"market-mood/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "market-mood/docs"
)

var (
	loadEnvFunc        = godotenv.Load
	loadConfigFunc     = config.Load
	initPostgresFunc   = db.InitPostgres
	initRedisFunc      = cache.InitRedis
	initTracerFunc     = tracing.InitTracer
	newSourcesFunc     = app.NewSources
	newAnalystFunc     = app.NewAnalyst
	startSchedulerFunc = func(s *job.Scheduler, ctx context.Context) {
		go func() {
			if err := s.Start(ctx); err != nil {
				log.Printf("scheduler error: %v", err)
			}
		}()
	}
	startTelegramBotFunc   = bot.StartTelegramBot
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Market Mood API
// @version         1.0
// @description     Market sentiment dashboard: news scraping, LLM Fear & Greed analysis and VIX alerts.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		ServiceName: "market-mood",
		Version:     "1.0",
		Endpoint:    cfg.OTLPEndpoint,
		Enabled:     cfg.TracingEnabled,
	})
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Repositories and migrations
	var (
		store    service.SentimentStore
		subsRepo *repository.SubscriptionRepository
		subs     handler.SubscriptionManager
	)
	if db.Pool != nil {
		if err := repository.RunMigrations(ctx, db.Pool); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		store = repository.NewSentimentRepository(db.Pool, tracer)
		subsRepo = repository.NewSubscriptionRepository(db.Pool, tracer)
		subs = subsRepo
	}
	var jsonCache service.JSONCache
	if cache.Client != nil {
		jsonCache = cache.NewStore(cache.Client, "market-mood:")
	}

	// Scrape sources, analyst and pipeline
	src, err := newSourcesFunc(cfg, tracer)
	if err != nil {
		log.Fatalf("failed to build sources: %v", err)
	}
	log.Printf("Loaded %d feeds", len(src.Feeds))
	pipeline := service.NewPipelineService(tracer, src.Scraper, newAnalystFunc(cfg, tracer), src.Benchmark, store, jsonCache)

	// Background jobs (stopped by ctx cancel)
	scheduler := job.NewScheduler()
	scheduler.Every("pipeline", cfg.PipelineInterval, job.NewPipelineJob(tracer, pipeline, 0).RunOnce)

	mailer := app.NewMailer(cfg)
	switch {
	case subsRepo == nil:
		log.Println("VIX alerts disabled: no database")
	case !mailer.Enabled():
		log.Println("VIX alerts disabled: SMTP not configured")
	default:
		monitor := alert.NewMonitor(tracer, src.VIX, subsRepo, mailer, cfg.AlertMinGap, cfg.PublicBaseURL)
		scheduler.Every("vix-alerts", cfg.AlertInterval, job.NewAlertJob(tracer, monitor, 0).RunOnce)
	}
	startSchedulerFunc(scheduler, ctx)

	// Start Telegram bot
	startTelegramBotFunc(ctx, cfg.TelegramBotToken, pipeline, src.VIX)

	// Create handlers and routes
	h := newHandlerFunc(tracer, pipeline, pipeline, subs)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("market-mood"))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	db.Close()

	log.Println("Server exiting")
}
