// Package main runs the contract risk HTTP service:
// - JSON endpoints for contract analysis, quick check, creator trace and interactions
// - Websocket progress stream for contract analysis
// - Prometheus metrics, health and status
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"contract-risk-lab/internal/analysis"
	"contract-risk-lab/internal/chain"
	"contract-risk-lab/internal/events"
	"contract-risk-lab/internal/registry"
)

func main() {
	// Load .env file if exists; real environment variables take precedence.
	_ = godotenv.Load()

	addr := flag.String("addr", envOr("HTTP_ADDR", ":8080"), "HTTP listen address")
	registryFile := flag.String("registry", os.Getenv("REGISTRY_FILE"), "Override file for the per-chain tables (YAML)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	postgresMaxConns := flag.Int("postgres-max-conns", envInt("POSTGRES_MAX_CONNS", 0), "PostgreSQL pool size (0 keeps the driver default)")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	redisAddr := flag.String("redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for the freshness cache (optional)")
	redisDB := flag.Int("redis-db", envInt("REDIS_DB", 0), "Redis database number")
	kafkaBrokers := flag.String("kafka-brokers", os.Getenv("KAFKA_BROKERS"), "Comma-separated Kafka brokers for analysis events (optional)")
	kafkaTopic := flag.String("kafka-topic", envOr("KAFKA_TOPIC", events.DefaultTopic), "Kafka topic for analysis events")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	migrate := flag.Bool("migrate", true, "Apply embedded migrations on start")
	pacing := flag.Duration("pacing", chain.DefaultPacing, "Delay between explorer-backed calls")
	explorerTimeout := flag.Duration("explorer-timeout", 30*time.Second, "Explorer HTTP timeout")
	requestTimeout := flag.Duration("request-timeout", 300*time.Second, "Per-request analysis timeout")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := loadRegistry(*registryFile)
	if err != nil {
		logger.Fatalf("Failed to load registry: %v", err)
	}

	endpoints := chain.EndpointsFromEnv(os.Getenv)
	providers, err := chain.Dial(ctx, reg, endpoints, chain.WithTimeout(*explorerTimeout))
	if err != nil {
		logger.Fatalf("Failed to dial chains: %v", err)
	}
	if len(providers) == 0 {
		logger.Fatal("No chain configured: set at least one <CHAIN>_RPC_URL (e.g. ETHEREUM_RPC_URL)")
	}
	for c, ep := range endpoints {
		if ep.APIKey == "" {
			logger.Printf("Warning: %s has no explorer API key, source and creator lookups are disabled", c)
		}
	}

	storeCfg := storeConfig{
		postgresDSN:      *postgresDSN,
		postgresMaxConns: int32(*postgresMaxConns),
		clickhouseDSN:    *clickhouseDSN,
		redisAddr:        *redisAddr,
		redisPassword:    os.Getenv("REDIS_PASSWORD"),
		redisDB:          *redisDB,
		useMemory:        *useMemory,
		migrate:          *migrate,
	}
	stores, cleanup, err := openStores(ctx, storeCfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	var publisher events.Publisher = events.Nop{}
	if *kafkaBrokers != "" {
		publisher = events.NewKafkaPublisher(splitList(*kafkaBrokers), *kafkaTopic)
		logger.Printf("Publishing analysis events to %s", *kafkaTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Printf("Error closing publisher: %v", err)
		}
	}()

	svc := analysis.New(analysis.Options{
		Providers: providers,
		Registry:  reg,
		Pacer:     chain.NewPacer(*pacing),
		Stores:    stores,
		Publisher: publisher,
		Logger:    log.New(os.Stdout, "[analysis] ", log.LstdFlags|log.Lshortfile),
	})

	server := NewServer(svc, Options{
		Backend: storeCfg.backend(),
		Timeout: *requestTimeout,
		Logger:  logger,
	})

	logger.Printf("Chains: %v | storage: %s", svc.Chains(), storeCfg.backend())

	if err := run(ctx, server, *addr, logger); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// run serves HTTP until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, server *Server, addr string, logger *log.Logger) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Printf("Starting HTTP server on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	return registry.LoadFile(path)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
