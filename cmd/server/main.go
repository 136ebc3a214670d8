// Package main runs the platform profit service:
// - Ledger (continuous): fee recording, write-through persistence
// - Rollover (scheduled): daily bucket pruning at local midnight
// - Pricing: bonding curve quotes and graduation tracking
// - Notify: websocket push of profit updates
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"pumpx-core/internal/config"
	"pumpx-core/internal/curve"
	"pumpx-core/internal/domain"
	"pumpx-core/internal/graduation"
	"pumpx-core/internal/ledger"
	"pumpx-core/internal/notify"
	"pumpx-core/internal/observability"
	"pumpx-core/internal/storage"
	chstore "pumpx-core/internal/storage/clickhouse"
	"pumpx-core/internal/storage/memory"
	"pumpx-core/internal/storage/migrations"
	pgstore "pumpx-core/internal/storage/postgres"
)

// Server wires the ledger, pricing and notification components behind
// the HTTP API.
type Server struct {
	cfg         config.Config
	ledger      *ledger.Ledger
	engine      *curve.Engine
	policy      *graduation.Policy
	tracker     *graduation.Tracker
	broadcaster *notify.Broadcaster
	threshold   decimal.Decimal
	constant    decimal.Decimal
	loc         *time.Location
	logger      *log.Logger

	mu        sync.Mutex
	startedAt time.Time
	fees      int
	quotes    int
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	configPath := flag.String("config", "", "Path to YAML config file")
	listenAddr := flag.String("listen-addr", "", "HTTP listen address (overrides config)")
	storageBackend := flag.String("storage", "", "Storage backend: memory or postgres (overrides config)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides config)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for fee analytics (overrides config)")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			logger.Fatalf("Failed to load config %s: %v", *configPath, err)
		}
	}
	cfg.ApplyEnv()
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *storageBackend != "" {
		cfg.Storage.Backend = strings.ToLower(*storageBackend)
	}
	if *postgresDSN != "" {
		cfg.Storage.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.Storage.ClickhouseDSN = *clickhouseDSN
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stateStore, eventStore, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	loc, _ := cfg.Location()
	schedule, _ := cfg.Schedule()
	constant, _ := cfg.CurveConstant()
	threshold, _ := cfg.GraduationThreshold()

	l, err := ledger.New(ledger.Options{
		Store:         stateStore,
		Events:        eventStore,
		Schedule:      schedule,
		Location:      loc,
		RetentionDays: cfg.RetentionDays,
		Logger:        log.New(os.Stdout, "[ledger] ", log.LstdFlags|log.Lshortfile),
	})
	if err != nil {
		logger.Fatalf("Failed to create ledger: %v", err)
	}
	// Corrupt persisted state must stop the service, not run on bad totals.
	if err := l.Load(ctx); err != nil {
		logger.Fatalf("Failed to load ledger state: %v", err)
	}

	scheduler := ledger.NewRolloverScheduler(l, nil, log.New(os.Stdout, "[rollover] ", log.LstdFlags|log.Lshortfile))
	scheduler.Start()
	defer scheduler.Stop()

	broadcaster := notify.NewBroadcaster(log.New(os.Stdout, "[notify] ", log.LstdFlags|log.Lshortfile))
	updates, unsubscribe := l.Subscribe()
	go broadcaster.Run(updates)
	defer func() {
		unsubscribe()
		broadcaster.Close()
	}()

	server := &Server{
		cfg:         cfg,
		ledger:      l,
		engine:      curve.NewEngine(),
		policy:      graduation.NewPolicy(),
		tracker:     graduation.NewTracker(),
		broadcaster: broadcaster,
		threshold:   threshold,
		constant:    constant,
		loc:         loc,
		logger:      logger,
		startedAt:   time.Now(),
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.routes(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}

		// Second signal forces immediate exit
		go func() {
			sig := <-sigCh
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		}()
	}()

	logger.Printf("Starting HTTP server on %s (storage: %s)", cfg.ListenAddr, cfg.Storage.Backend)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates the ledger state store and the fee event sink.
func createStores(ctx context.Context, cfg config.Config, logger *log.Logger) (storage.LedgerStateStore, storage.FeeEventStore, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.Storage.Backend == config.BackendMemory {
		return memory.NewLedgerStateStore(), memory.NewFeeEventStore(loc), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	stateStore := storage.LedgerStateStore(pgstore.NewLedgerStateStore(pool))
	eventStore := storage.FeeEventStore(pgstore.NewFeeEventStore(pool, loc))
	cleanup := func() { pool.Close() }

	// ClickHouse, when configured, replaces Postgres as the analytics
	// sink for individual events. The state document stays in Postgres.
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			conn.Close()
			pool.Close()
			return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		eventStore = chstore.NewFeeEventStore(conn, loc)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
		logger.Println("Fee events routed to ClickHouse")
	}

	return stateStore, eventStore, cleanup, nil
}

// routes builds the HTTP mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/fees", s.handleFees)
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/schedule", s.handleSchedule)
	mux.HandleFunc("/quote", s.handleQuote)
	mux.HandleFunc("/graduation", s.handleGraduation)
	mux.HandleFunc("/ws", s.broadcaster.Handler())

	return mux
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status        string          `json:"status"`
	Uptime        string          `json:"uptime"`
	Backend       string          `json:"backend"`
	LifetimeTotal decimal.Decimal `json:"lifetime_total"`
	BucketDays    int             `json:"bucket_days"`
	Subscribers   int             `json:"ws_clients"`
	FeesRecorded  int             `json:"fees_recorded"`
	QuotesServed  int             `json:"quotes_served"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := s.ledger.Snapshot()

	s.mu.Lock()
	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.startedAt).String(),
		Backend:       s.cfg.Storage.Backend,
		LifetimeTotal: state.LifetimeTotal,
		BucketDays:    len(state.DailyBuckets),
		Subscribers:   s.broadcaster.ClientCount(),
		FeesRecorded:  s.fees,
		QuotesServed:  s.quotes,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// feeRequest is the POST /fees body. OccurredAt defaults to now.
type feeRequest struct {
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Participant string          `json:"participant"`
	OccurredAt  *time.Time      `json:"occurred_at,omitempty"`
}

func (s *Server) handleFees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req feeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}

	occurredAt := time.Now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}
	event := domain.FeeEvent{
		Category:    domain.FeeCategory(req.Category),
		Amount:      req.Amount,
		Participant: req.Participant,
		OccurredAt:  occurredAt,
	}

	update, err := s.ledger.Record(r.Context(), event)
	if err != nil {
		if errors.Is(err, ledger.ErrPersistence) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	s.mu.Lock()
	s.fees++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, update)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rng := domain.ReportRange(r.URL.Query().Get("range"))
	if rng == "" {
		rng = domain.ReportRangeToday
	}

	report, err := s.ledger.Report(rng, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.ledger.Schedule())
	case http.MethodPost:
		var schedule domain.FeeSchedule
		if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
			return
		}
		if err := s.ledger.SetSchedule(schedule); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, schedule)
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or POST required")
	}
}

// quoteRequest is the POST /quote body. A zero curve constant falls
// back to the configured platform default.
type quoteRequest struct {
	Side     string          `json:"side"` // buy | sell
	TokenID  string          `json:"token_id"`
	Supply   decimal.Decimal `json:"supply"`
	Amount   decimal.Decimal `json:"amount"`
	Constant decimal.Decimal `json:"constant,omitempty"`
}

type quoteResponse struct {
	Side       string                       `json:"side"`
	TokenID    string                       `json:"token_id"`
	Buy        *domain.BuyQuote             `json:"buy,omitempty"`
	Sell       *domain.SellQuote            `json:"sell,omitempty"`
	Graduation *domain.GraduationEvaluation `json:"graduation,omitempty"`
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}

	constant := req.Constant
	if constant.IsZero() {
		constant = s.constant
	}
	state := domain.CurveState{
		TokenID:           req.TokenID,
		CirculatingSupply: req.Supply,
		CurveConstant:     constant,
	}
	schedule := s.ledger.Schedule()

	resp := quoteResponse{Side: req.Side, TokenID: req.TokenID}
	switch req.Side {
	case "buy":
		quote, err := s.engine.QuoteBuy(state, req.Amount, schedule)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.Buy = &quote
	case "sell":
		quote, err := s.engine.QuoteSell(state, req.Amount, schedule)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		resp.Sell = &quote
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown side %q", req.Side))
		return
	}

	// Every quote carries the token's graduation standing so the
	// frontend can show curve progress alongside the price.
	eval, err := s.policy.Evaluate(state, s.engine.UnitPrice(state), s.threshold)
	if err == nil {
		resp.Graduation = &eval
		record, transitioned := s.tracker.Observe(req.TokenID, eval, time.Now())
		if transitioned {
			s.logger.Printf("Token %s graduated at market cap %s", record.TokenID, eval.MarketCap)
		}
	}

	observability.RecordQuote(req.Side)

	s.mu.Lock()
	s.quotes++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGraduation(w http.ResponseWriter, r *http.Request) {
	if tokenID := r.URL.Query().Get("token_id"); tokenID != "" {
		record, ok := s.tracker.Get(tokenID)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("token %q not tracked", tokenID))
			return
		}
		writeJSON(w, http.StatusOK, record)
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Records())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
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
