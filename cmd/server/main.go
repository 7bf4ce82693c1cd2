// Package main provides the unified service binary:
//   - Ingestion (continuous): trade feed -> trade log, timeseries, club mirror
//   - Snapshot capture (scheduled): canonical look-back reference prices
//   - Operational HTTP: /health, /status, /metrics
//
// The product request layer calls internal/engine directly; this binary
// only runs the data plane beneath it.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"club-token-engine/internal/chain"
	"club-token-engine/internal/curve"
	"club-token-engine/internal/domain"
	"club-token-engine/internal/ingestion"
	"club-token-engine/internal/observability"
	"club-token-engine/internal/storage"
	chstore "club-token-engine/internal/storage/clickhouse"
	"club-token-engine/internal/storage/memory"
	"club-token-engine/internal/storage/migrations"
	pgstore "club-token-engine/internal/storage/postgres"
)

// Server holds all components of the unified service.
type Server struct {
	rpcEndpoint      string
	wsEndpoint       string
	useMemory        bool
	clubs            []string
	refreshInterval  time.Duration
	snapshotInterval time.Duration

	stores *allStores
	logger *log.Logger

	mu           sync.Mutex
	started      time.Time
	lastCapture  time.Time
	captureRuns  int
	captureFails int
}

// allStores holds all storage implementations.
type allStores struct {
	clubStore       storage.ClubStore
	tradeStore      storage.TradeStore
	timeseriesStore storage.TradeTimeseriesStore
	snapshotStore   storage.SnapshotStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("CHAIN_RPC_ENDPOINT"), "Chain RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("CHAIN_WS_ENDPOINT"), "Chain WebSocket endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	clubsFlag := flag.String("clubs", "", "Comma-separated club IDs to ingest (empty = all)")
	refreshInterval := flag.Duration("refresh-interval", 5*time.Second, "Minimum gap between club state refreshes")
	snapshotInterval := flag.Duration("snapshot-interval", 1*time.Minute, "Snapshot capture interval")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	metricsAddr := flag.String("metrics-addr", ":9090", "Operational HTTP address")

	// Curve parameters. Defaults describe the launch curve:
	// price = base + coeff * s^exp, amounts in quote smallest units.
	curveKind := flag.String("curve", envOr("CURVE_KIND", "power"), "Curve family: power or exponential")
	curveBase := flag.String("curve-base-price", envOr("CURVE_BASE_PRICE", "100"), "Curve base price, quote smallest units per whole token")
	curveCoeff := flag.String("curve-coefficient", envOr("CURVE_COEFFICIENT", "1"), "Power curve coefficient")
	curveExp := flag.Uint("curve-exponent", 2, "Power curve exponent")
	curveGrowthNum := flag.String("curve-growth-num", envOr("CURVE_GROWTH_NUM", "101"), "Exponential curve growth numerator")
	curveGrowthDen := flag.String("curve-growth-den", envOr("CURVE_GROWTH_DEN", "100"), "Exponential curve growth denominator")
	curveStepTokens := flag.Int64("curve-step-tokens", curve.DefaultStepTokens, "Quote integration step, whole tokens")
	flatThreshold := flag.String("flat-threshold", envOr("FLAT_THRESHOLD", "800000000"), "Graduation supply, whole tokens")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// The pricer is built here even though this binary never quotes:
	// misconfigured curve parameters should kill the deploy at startup,
	// not surface later in the request layer.
	if _, err := buildPricer(*curveKind, *curveBase, *curveCoeff, *curveExp, *curveGrowthNum, *curveGrowthDen, *curveStepTokens, *flatThreshold); err != nil {
		logger.Fatalf("Invalid curve configuration: %v", err)
	}

	clubList := splitList(*clubsFlag)
	if len(clubList) > 0 {
		logger.Printf("Ingesting clubs: %v", clubList)
	} else {
		logger.Println("Ingesting all clubs")
	}

	ctx, cancel := context.WithCancel(context.Background())

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	server := &Server{
		rpcEndpoint:      *rpcEndpoint,
		wsEndpoint:       *wsEndpoint,
		useMemory:        *useMemory,
		clubs:            clubList,
		refreshInterval:  *refreshInterval,
		snapshotInterval: *snapshotInterval,
		stores:           stores,
		logger:           logger,
	}

	done := make(chan error, 1)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	go server.startHTTPServer(*metricsAddr)

	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// buildPricer assembles the configured curve and validates its
// parameters.
func buildPricer(kind, base, coeff string, exp uint, growthNum, growthDen string, stepTokens int64, thresholdTokens string) (*curve.Pricer, error) {
	basePrice, err := parseBigFlag(base, "curve-base-price")
	if err != nil {
		return nil, err
	}

	threshold, err := parseBigFlag(thresholdTokens, "flat-threshold")
	if err != nil {
		return nil, err
	}
	tokenScale := new(big.Int).Exp(big.NewInt(10), big.NewInt(domain.TokenDecimals), nil)
	threshold.Mul(threshold, tokenScale)

	var c curve.PriceCurve
	switch kind {
	case "power":
		coefficient, err := parseBigFlag(coeff, "curve-coefficient")
		if err != nil {
			return nil, err
		}
		c = curve.NewPowerCurve(basePrice, coefficient, exp)
	case "exponential":
		num, err := parseBigFlag(growthNum, "curve-growth-num")
		if err != nil {
			return nil, err
		}
		den, err := parseBigFlag(growthDen, "curve-growth-den")
		if err != nil {
			return nil, err
		}
		if num.Cmp(den) <= 0 {
			return nil, fmt.Errorf("curve-growth-num must exceed curve-growth-den")
		}
		stepSize := new(big.Int).Mul(big.NewInt(stepTokens), tokenScale)
		c = curve.NewExponentialCurve(basePrice, num, den, stepSize)
	default:
		return nil, fmt.Errorf("unknown curve kind %q", kind)
	}

	return curve.NewPricer(c, threshold, curve.WithStepTokens(stepTokens)), nil
}

// parseBigFlag parses a non-negative integer flag value.
func parseBigFlag(s, name string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("--%s: malformed amount %q", name, s)
	}
	return v, nil
}

// splitList splits a comma-separated flag into trimmed entries.
func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			list = append(list, item)
		}
	}
	return list
}

// createStores creates all required stores and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			clubStore:       memory.NewClubStore(),
			tradeStore:      memory.NewTradeStore(),
			timeseriesStore: memory.NewTradeTimeseriesStore(),
			snapshotStore:   memory.NewSnapshotStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &allStores{
		// PostgreSQL stores (club mirror + trade log)
		clubStore:  pgstore.NewClubStore(pool),
		tradeStore: pgstore.NewTradeStore(pool),

		// ClickHouse stores (analytics)
		timeseriesStore: chstore.NewTradeTimeseriesStore(chConn),
		snapshotStore:   chstore.NewSnapshotStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// Run starts ingestion and the snapshot scheduler.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting unified server...")

	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()

	errCh := make(chan error, 2)

	go func() {
		err := s.runIngestion(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("ingestion: %w", err)
		}
	}()

	go func() {
		err := s.runSnapshotScheduler(ctx)
		if err != nil && err != context.Canceled {
			errCh <- fmt.Errorf("snapshot scheduler: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runIngestion runs continuous trade ingestion.
func (s *Server) runIngestion(ctx context.Context) error {
	s.logger.Println("Starting ingestion...")

	reader := chain.NewHTTPClient(s.rpcEndpoint)

	ws, err := chain.NewWSClient(ctx, s.wsEndpoint, nil)
	if err != nil {
		return fmt.Errorf("create websocket client: %w", err)
	}
	defer ws.Close()

	feedLogger := log.New(os.Stdout, "[ingestion] ", log.LstdFlags|log.Lshortfile)
	source := ingestion.NewFeedTradeSource(ws, chain.TradeFilter{Clubs: s.clubs}, feedLogger)

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Source:          source,
		Reader:          reader,
		TradeStore:      s.stores.tradeStore,
		TimeseriesStore: s.stores.timeseriesStore,
		ClubStore:       s.stores.clubStore,
		RefreshInterval: s.refreshInterval,
		Logger:          feedLogger,
	})

	s.logger.Println("Ingestion started")
	return runner.Run(ctx)
}

// runSnapshotScheduler captures canonical look-back snapshots on a
// fixed interval.
func (s *Server) runSnapshotScheduler(ctx context.Context) error {
	s.logger.Printf("Starting snapshot scheduler (interval: %v)...", s.snapshotInterval)

	snapshotter := ingestion.NewSnapshotter(ingestion.SnapshotterOptions{
		ClubStore:     s.stores.clubStore,
		TradeStore:    s.stores.tradeStore,
		SnapshotStore: s.stores.snapshotStore,
		Interval:      s.snapshotInterval,
		Logger:        log.New(os.Stdout, "[snapshots] ", log.LstdFlags|log.Lshortfile),
		OnPass: func(err error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.captureRuns++
			if err != nil {
				s.captureFails++
				return
			}
			s.lastCapture = time.Now()
		},
	})

	return snapshotter.Run(ctx)
}

// startHTTPServer starts the HTTP server for health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", s.handleStatus)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status       string    `json:"status"`
	Uptime       string    `json:"uptime"`
	Started      time.Time `json:"started"`
	LastCapture  time.Time `json:"last_capture,omitempty"`
	CaptureRuns  int       `json:"capture_runs"`
	CaptureFails int       `json:"capture_fails"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:       "running",
		Uptime:       time.Since(s.started).String(),
		Started:      s.started,
		LastCapture:  s.lastCapture,
		CaptureRuns:  s.captureRuns,
		CaptureFails: s.captureFails,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// envOr returns the environment value for key, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
