package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-mood/internal/cache"
	"market-mood/internal/config"
	"market-mood/internal/db"
	"market-mood/internal/mcpserver"
	"market-mood/internal/repository"
	"market-mood/internal/service"
	"market-mood/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	runStdioFunc     = func(ctx context.Context, server *mcp.Server) error {
		return server.Run(ctx, &mcp.StdioTransport{})
	}
	startHTTPServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
	notifyContextFunc   = signal.NotifyContext
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, stop := notifyContextFunc(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)
	defer db.Close()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		ServiceName: "market-mood-mcp",
		Endpoint:    cfg.OTLPEndpoint,
		Enabled:     cfg.TracingEnabled,
	})
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var store service.SentimentStore
	if db.Pool != nil {
		store = repository.NewSentimentRepository(db.Pool, tracer)
	}
	var jsonCache service.JSONCache
	if cache.Client != nil {
		jsonCache = cache.NewStore(cache.Client, "market-mood:")
	}
	readings := service.NewPipelineService(tracer, nil, nil, nil, store, jsonCache)
	server := mcpserver.New(tracer, readings)

	if cfg.MCPTransport == "http" {
		if err := serveHTTP(ctx, server, fmt.Sprintf("%s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort)); err != nil {
			log.Fatalf("MCP HTTP server: %v", err)
		}
		return
	}

	log.Println("MCP server running on stdio")
	if err := runStdioFunc(ctx, server); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("MCP stdio server stopped: %v", err)
	}
}

func serveHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("MCP server listening on http://%s", addr)
		errCh <- startHTTPServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
